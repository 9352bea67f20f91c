// Package endpoints defines the HTTP API surface and the CLI commands
// that call it. Each endpoint is a single source of truth for one
// operation: its route, its handler, and its cobra command.
package endpoints

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/config"
	"github.com/inkscan/inkscan/internal/ocr"
	"github.com/inkscan/inkscan/internal/providers"
)

// Deps exposes the server's services to endpoint handlers. The accessor
// indirection keeps handlers current across config hot reloads.
type Deps interface {
	Service() *ocr.Service
	Limiter() *providers.RateLimiter
	Config() *config.Config
	Logger() *slog.Logger
}

// All returns every endpoint wired to the given dependencies.
func All(deps Deps) []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&StatusEndpoint{deps: deps},
		&RecognizeEndpoint{deps: deps},
		&PreprocessEndpoint{deps: deps},
		&LanguageEndpoint{deps: deps},
		&StructureEndpoint{deps: deps},
	}
}

// decodeRequest parses a JSON request body.
func decodeRequest(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
