package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/logging"
	"github.com/roomcast/roomcast/internal/media"
	"github.com/roomcast/roomcast/internal/registry"
	"github.com/roomcast/roomcast/internal/server"
	"github.com/roomcast/roomcast/internal/session"
	"github.com/roomcast/roomcast/internal/signaling"
)

func main() {
	logging.Init()

	var opts config.Options
	flag.StringVar(&opts.ListenAddr, "listen", "", "HTTP/WebSocket bind address")
	flag.StringVar(&opts.EngineNetwork, "engine-network", "", "media engine network (tcp or unix)")
	flag.StringVar(&opts.EngineAddr, "engine-addr", "", "media engine RPC address")
	flag.DurationVar(&opts.EngineOpTimeout, "engine-timeout", 0, "media engine operation timeout")
	flag.StringVar(&opts.AllowedOrigins, "allowed-origins", "", "comma-separated websocket origin allowlist")
	flag.Parse()

	cfg, err := config.Load(opts)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	engine, err := media.Dial(cfg.EngineNetwork, cfg.EngineAddr, cfg.EngineOpTimeout)
	if err != nil {
		slog.Error("connect media engine", "network", cfg.EngineNetwork, "addr", cfg.EngineAddr, "err", err)
		os.Exit(1)
	}
	defer engine.Close()

	rooms := registry.New()
	sessions := session.NewStore()
	handler := signaling.NewHandler(engine, rooms, sessions, signaling.Config{
		EngineOpTimeout: cfg.EngineOpTimeout,
		ChatEchoSender:  cfg.ChatEchoSender,
	})

	mux := server.Routes(handler, rooms, sessions, cfg)

	slog.Info("relay server listening", "addr", cfg.ListenAddr, "engine", cfg.EngineAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
