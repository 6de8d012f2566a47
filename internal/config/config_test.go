package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("listen addr: got %q", cfg.ListenAddr)
	}
	if cfg.EngineNetwork != DefaultEngineNetwork || cfg.EngineAddr != DefaultEngineAddr {
		t.Errorf("engine endpoint: got %s %s", cfg.EngineNetwork, cfg.EngineAddr)
	}
	if cfg.EngineOpTimeout != DefaultEngineOpTimeout {
		t.Errorf("op timeout: got %v", cfg.EngineOpTimeout)
	}
	if !cfg.ChatEchoSender {
		t.Error("chat echo should default to true")
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("origins should default to nil, got %v", cfg.AllowedOrigins)
	}
}

func TestFlagsBeatEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("ENGINE_ADDR", "env-engine:1")

	cfg, err := Load(Options{ListenAddr: ":7777"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Errorf("flag should win over env, got %q", cfg.ListenAddr)
	}
	if cfg.EngineAddr != "env-engine:1" {
		t.Errorf("env should win over default, got %q", cfg.EngineAddr)
	}
}

func TestEnvParsing(t *testing.T) {
	t.Setenv("ENGINE_OP_TIMEOUT", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CHAT_ECHO_SENDER", "false")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EngineOpTimeout != 250*time.Millisecond {
		t.Errorf("op timeout: got %v", cfg.EngineOpTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins: got %v", cfg.AllowedOrigins)
	}
	if cfg.ChatEchoSender {
		t.Error("chat echo should be disabled")
	}
}

func TestBadEnvFallsBack(t *testing.T) {
	t.Setenv("ENGINE_OP_TIMEOUT", "not-a-duration")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EngineOpTimeout != DefaultEngineOpTimeout {
		t.Errorf("bad env should fall back to default, got %v", cfg.EngineOpTimeout)
	}
}
