package record

import (
	"errors"
	"fmt"
)

// ReferenceKeys are the spellings under which vendor payloads have carried the
// resource reference over time.
var ReferenceKeys = []string{"@odata.id", "odata_id", "odata.id", "OdataId"}

// ErrNoIdentifier is returned when no identifier can be extracted.
var ErrNoIdentifier = errors.New("no identifier")

// IdentifierError describes a value an identifier could not be extracted from.
type IdentifierError struct {
	Value any
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("could not extract an identifier from %T", e.Value)
}

func (e *IdentifierError) Is(target error) bool {
	return target == ErrNoIdentifier
}

// Reference returns the first non-empty reference found in raw.
func Reference(raw map[string]any) string {
	return FirstString(raw, ReferenceKeys...)
}

// ExtractIdentifier resolves the vendor-native identifier of a record or raw
// vendor map. For records the raw payload is consulted before the fallback ID.
func ExtractIdentifier(v any) (string, error) {
	switch t := v.(type) {
	case *Record:
		if t == nil {
			break
		}
		if ref := Reference(t.Raw); ref != "" {
			return ref, nil
		}
		if ref := t.String("odata_id"); ref != "" {
			return ref, nil
		}
		if t.ID != "" {
			return t.ID, nil
		}
	case map[string]any:
		if ref := Reference(t); ref != "" {
			return ref, nil
		}
	}
	return "", &IdentifierError{Value: v}
}
