package snapshot

import (
	"errors"
	"fmt"

	"github.com/zeusync/snapshot/internal/core/models"
)

var (
	// Registry errors

	ErrInvalidTypeName   = errors.New("component type name is empty")
	ErrInvalidCodec      = errors.New("codec requires both encode and decode functions")
	ErrAlreadyRegistered = errors.New("component type already registered")

	// Engine configuration errors

	ErrNoRegistry    = errors.New("no component registry")
	ErrNoMarker      = errors.New("no marker configured")
	ErrInvalidPolicy = errors.New("invalid dangling reference policy")

	// Encoding and decoding errors

	ErrTypeMismatch       = errors.New("component type mismatch")
	ErrInvalidEncoding    = errors.New("codec produced invalid JSON")
	ErrMissingValue       = errors.New("missing value for a data-carrying component")
	ErrMalformedDocument  = errors.New("malformed document")
	ErrNegativeIdentity   = errors.New("negative entity identity")
	ErrDuplicateRow       = errors.New("duplicate row for entity")
	ErrReservedIdentity   = errors.New("reserved entity identity used as row owner")
	ErrDanglingReference  = errors.New("reference to an entity that owns no row")
	ErrIdentityCollision  = errors.New("store allocated an identity that is already in use")
	ErrDuplicateColumn    = errors.New("duplicate component type in document")
)

// EncodeError reports a component value that could not be written to the
// document. A save that hits one produces no document at all.
type EncodeError struct {
	Type   string
	Entity models.EntityID
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("snapshot: encode %s on entity %d: %v", e.Type, e.Entity, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports a document payload that could not be turned back into a
// component. Row is -1 when the failure concerns a whole column and Type is
// empty when it concerns the document envelope.
type DecodeError struct {
	Type string
	Row  int
	Raw  RawID
	Err  error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Type == "":
		return fmt.Sprintf("snapshot: decode document: %v", e.Err)
	case e.Row < 0:
		return fmt.Sprintf("snapshot: decode %s: %v", e.Type, e.Err)
	default:
		return fmt.Sprintf("snapshot: decode %s row %d (raw %d): %v", e.Type, e.Row, e.Raw, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }
