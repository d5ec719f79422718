package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
)

var (
	// ErrModelNotInstalled is returned when the requested vision model is not
	// available on the Ollama server. Tagging must not start in that case.
	ErrModelNotInstalled = errors.New("model not installed")

	// ErrFatalAPI marks errors that will fail every subsequent call
	// (missing model, rejected credentials), so a batch should stop.
	// Rate limits and other transient failures are not fatal.
	ErrFatalAPI = errors.New("fatal API error")
)

// modelMissingMarker is how Ollama reports a model that was never pulled.
const modelMissingMarker = "try pulling it first"

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	var status api.StatusError
	if errors.As(err, &status) {
		switch status.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), modelMissingMarker)
}

func wrapFatalError(err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}
