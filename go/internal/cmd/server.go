package main

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/seanmccall/pokerclock/go/internal/gateway"
	"github.com/seanmccall/pokerclock/go/internal/room"
)

func setupServer(cfg *Config, registry *room.Registry) *http.Server {
	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	handler := c.Handler(gateway.NewHandler(registry).Routes())

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
