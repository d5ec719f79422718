package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/ollama/ollama/api"
)

// Registry lists the models installed on an Ollama server.
type Registry struct {
	client *api.Client
}

// NewRegistry creates a registry for the Ollama server at host.
func NewRegistry(host string) (*Registry, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	return &Registry{client: api.NewClient(u, http.DefaultClient)}, nil
}

// List returns the installed model names, sorted.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	resp, err := r.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	slices.Sort(names)
	return names, nil
}

// Ensure returns ErrModelNotInstalled if name is not installed. A name
// without a tag matches its ":latest" variant.
func (r *Registry) Ensure(ctx context.Context, name string) error {
	installed, err := r.List(ctx)
	if err != nil {
		return err
	}
	if !isInstalled(installed, name) {
		return fmt.Errorf("%w: model '%s' not installed, install it or pass --model", ErrModelNotInstalled, name)
	}
	return nil
}

func isInstalled(installed []string, name string) bool {
	if slices.Contains(installed, name) {
		return true
	}
	if !strings.Contains(name, ":") {
		return slices.Contains(installed, name+":latest")
	}
	return false
}
