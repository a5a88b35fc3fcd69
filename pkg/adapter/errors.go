package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

// Kind is the semantic category of a canonical error.
type Kind string

const (
	KindConnection Kind = "ConnectionError"
	KindBusy       Kind = "BusyError"
	KindNotFound   Kind = "NotFoundError"
	KindTimeout    Kind = "TimeoutError"
	KindGeneric    Kind = "GenericOperationError"
)

// Error is the only error type the adapter surface returns. Message carries
// the vendor's original text.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Local is set for precondition failures detected before any vendor call.
	Local bool
	Err   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels below and ErrInvalidArgument for local errors.
func (e *Error) Is(target error) bool {
	if target == ErrInvalidArgument {
		return e.Local
	}
	t, ok := target.(*Error)
	if !ok || t.Message != "" {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConnection = &Error{Kind: KindConnection}
	ErrBusy       = &Error{Kind: KindBusy}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrTimeout    = &Error{Kind: KindTimeout}
	ErrGeneric    = &Error{Kind: KindGeneric}

	ErrInvalidArgument = errors.New("invalid argument")
)

// classification is checked in order; the first matching substring wins.
var classification = []struct {
	substr string
	kind   Kind
}{
	{"connection refused", KindConnection},
	{"unreachable", KindConnection},
	{"already attached", KindBusy},
	{"in use", KindBusy},
	{"not found", KindNotFound},
	{"does not exist", KindNotFound},
	{"timeout", KindTimeout},
}

// Classify maps vendor failure text to a kind. Matching is case-sensitive.
func Classify(message string) Kind {
	for _, c := range classification {
		if strings.Contains(message, c.substr) {
			return c.kind
		}
	}
	return KindGeneric
}

// Translate converts a failure raised during op into a canonical error.
// Canonical errors pass through untouched.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var canonical *Error
	if errors.As(err, &canonical) {
		return err
	}
	var ve *vendor.Error
	if errors.As(err, &ve) {
		return &Error{Kind: Classify(ve.Message), Op: op, Message: ve.Message, Err: err}
	}
	return unexpected(op, err)
}

// Call runs a vendor primitive, translating its failure and any panic.
func Call[T any](op string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			result = zero
			err = unexpected(op, fmt.Errorf("panic: %v", p))
		}
	}()
	result, err = fn()
	if err != nil {
		var zero T
		return zero, Translate(op, err)
	}
	return result, nil
}

func unexpected(op string, err error) *Error {
	return &Error{
		Kind:    KindGeneric,
		Op:      op,
		Message: fmt.Sprintf("unexpected error during %s: %v", op, err),
		Err:     err,
	}
}

func invalidArgument(op, format string, args ...any) *Error {
	return &Error{
		Kind:    KindGeneric,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Local:   true,
		Err:     ErrInvalidArgument,
	}
}

// requireIdentifier resolves the vendor identifier of v or fails with a local
// NotFound error.
func requireIdentifier(op string, v any) (string, error) {
	id, err := record.ExtractIdentifier(v)
	if err != nil {
		return "", &Error{
			Kind:    KindNotFound,
			Op:      op,
			Message: fmt.Sprintf("%s: %v", op, err),
			Local:   true,
			Err:     err,
		}
	}
	return id, nil
}

// ExtractIdentifier is record.ExtractIdentifier with its failure reported as a
// canonical local NotFound error.
func ExtractIdentifier(v any) (string, error) {
	return requireIdentifier("extract_identifier", v)
}
