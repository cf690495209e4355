// Package host holds the wiring shared by the voxguide binaries.
package host

import (
	"fmt"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voxguide/internal/catalog"
	"voxguide/internal/config"
	"voxguide/internal/engine"
	"voxguide/internal/nlu"
	"voxguide/internal/proxy"
)

// Catalog loads the catalog at path, or the built-in one when path is
// empty.
func Catalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}

// Fallback returns the LLM classifier, or nil when no API key is set.
func Fallback(cfg config.Fallback, logger *log.Logger) (engine.Fallback, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	httpClient, err := proxy.NewClient(cfg.Proxy, 0)
	if err != nil {
		return nil, fmt.Errorf("socks proxy %s: %w", cfg.Proxy, err)
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	)
	return nlu.NewClassifier(client, cfg.Model, logger), nil
}

func Voice(cfg config.Speech) engine.Voice {
	return engine.Voice{Rate: cfg.Rate, Pitch: cfg.Pitch, Volume: cfg.Volume}
}

// EngineOptions collects the options every host passes to engine.New. The
// engine and its classifier share logger.
func EngineOptions(cfg *config.Config, logger *log.Logger) ([]engine.Option, error) {
	opts := []engine.Option{
		engine.WithVoice(Voice(cfg.Speech)),
		engine.WithLogger(logger),
	}

	fb, err := Fallback(cfg.Fallback, logger)
	if err != nil {
		return nil, err
	}
	if fb != nil {
		opts = append(opts, engine.WithFallback(fb, cfg.Fallback.Timeout))
	}
	return opts, nil
}
