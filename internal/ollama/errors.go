package ollama

import "errors"

var (
	// ErrUnavailable reports that the Ollama server could not be reached.
	ErrUnavailable = errors.New("ollama: server unavailable")
	// ErrEmptyResponse reports a generation that produced no text.
	ErrEmptyResponse = errors.New("ollama: empty response")
	// ErrStatus reports a non-200 reply from the server.
	ErrStatus = errors.New("ollama: unexpected status")
)
