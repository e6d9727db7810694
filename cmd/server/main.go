package main

import (
	"net/http"

	"github.com/skye-hx/watchparty/internal/config"
	"github.com/skye-hx/watchparty/internal/logging"
	"github.com/skye-hx/watchparty/internal/server"
	"github.com/skye-hx/watchparty/internal/signaling"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		l := logging.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(cfg.Log)
	logger := logging.L()

	// The hub's run loop is the single goroutine that manages all room
	// state, so every join, chat, relay and disconnect is serialized.
	hub := signaling.NewHub(logger)
	go hub.Run()

	router := server.Routes(hub)

	logger.Info().Str("addr", cfg.Addr()).Msg("watch party coordinator listening")
	if err := http.ListenAndServe(cfg.Addr(), router); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
