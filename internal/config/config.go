package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default configuration values (production)
const (
	DefaultListenAddr      = ":8080"
	DefaultEngineNetwork   = "tcp"
	DefaultEngineAddr      = "127.0.0.1:4443"
	DefaultEngineOpTimeout = 10 * time.Second
)

// Config holds application configuration
type Config struct {
	// ListenAddr is the HTTP/WebSocket bind address
	ListenAddr string

	// EngineNetwork and EngineAddr locate the media engine RPC endpoint
	// ("tcp" host:port, or "unix" socket path)
	EngineNetwork string
	EngineAddr    string

	// EngineOpTimeout bounds every request/response round trip to the engine
	EngineOpTimeout time.Duration

	// AllowedOrigins restricts websocket upgrades; empty allows all origins
	AllowedOrigins []string

	// ChatEchoSender includes the sender in chat broadcasts
	ChatEchoSender bool
}

// Options for loading config with CLI flag overrides
type Options struct {
	ListenAddr      string
	EngineNetwork   string
	EngineAddr      string
	EngineOpTimeout time.Duration
	AllowedOrigins  string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	listenAddr := opts.ListenAddr
	if listenAddr == "" {
		listenAddr = os.Getenv("LISTEN_ADDR")
	}
	if listenAddr == "" {
		listenAddr = DefaultListenAddr
	}

	engineNetwork := opts.EngineNetwork
	if engineNetwork == "" {
		engineNetwork = os.Getenv("ENGINE_NETWORK")
	}
	if engineNetwork == "" {
		engineNetwork = DefaultEngineNetwork
	}

	engineAddr := opts.EngineAddr
	if engineAddr == "" {
		engineAddr = os.Getenv("ENGINE_ADDR")
	}
	if engineAddr == "" {
		engineAddr = DefaultEngineAddr
	}

	opTimeout := opts.EngineOpTimeout
	if opTimeout == 0 {
		opTimeout = envDurationOrDefault("ENGINE_OP_TIMEOUT", DefaultEngineOpTimeout)
	}

	origins := opts.AllowedOrigins
	if origins == "" {
		origins = os.Getenv("ALLOWED_ORIGINS")
	}

	return &Config{
		ListenAddr:      listenAddr,
		EngineNetwork:   engineNetwork,
		EngineAddr:      engineAddr,
		EngineOpTimeout: opTimeout,
		AllowedOrigins:  splitOrigins(origins),
		ChatEchoSender:  envBoolOrDefault("CHAT_ECHO_SENDER", true),
	}, nil
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration env, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return parsed
}

func envBoolOrDefault(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid bool env, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return parsed
}
