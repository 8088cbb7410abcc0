// Package transfer streams snapshot documents between processes over a
// websocket. A client sends a request frame and receives the current
// snapshot of the server's source together with its fingerprint.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeusync/snapshot/internal/core/snapshot"
)

var (
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")
	ErrUnknownAction       = errors.New("unknown action")
	ErrRemote              = errors.New("remote error")
)

// ActionSnapshot asks the server for its current snapshot.
const ActionSnapshot = "snapshot"

// Source produces the document served to clients.
type Source interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Snapshot(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Request is the client frame.
type Request struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Frame is the server reply. Error is set instead of Document on failure.
type Frame struct {
	ID          string          `json:"id"`
	Fingerprint uint64          `json:"fingerprint,omitempty"`
	Document    json.RawMessage `json:"document,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Verify parses the carried document and checks it against the fingerprint.
func (f Frame) Verify() (*snapshot.Document, error) {
	if f.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRemote, f.Error)
	}
	doc, err := snapshot.ParseDocument(f.Document)
	if err != nil {
		return nil, err
	}
	fingerprint, err := doc.Fingerprint()
	if err != nil {
		return nil, err
	}
	if fingerprint != f.Fingerprint {
		return nil, fmt.Errorf("%w: got %d, frame says %d", ErrFingerprintMismatch, fingerprint, f.Fingerprint)
	}
	return doc, nil
}
