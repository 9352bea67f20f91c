package main

import (
	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Client-side commands only post to the server; the handler deps are
	// never touched, so the registry is built without them.
	registry := api.NewRegistry()
	for _, ep := range endpoints.All(nil) {
		registry.Register(ep)
	}

	apiCmd := registry.BuildCommands(getServerURL)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	rootCmd.AddCommand(apiCmd)
}
