package geojson

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidJSON indicates the literal text is not a JSON object
	ErrInvalidJSON = errors.New("invalid GeoJSON text")
	// ErrUnsupportedType indicates an unknown geometry type name
	ErrUnsupportedType = errors.New("unsupported geometry type")
	// ErrMissingType indicates a geometry object without "type"
	ErrMissingType = errors.New("missing type")
	// ErrMissingCoordinates indicates neither "coordinates" nor "geometries" is present
	ErrMissingCoordinates = errors.New("missing coordinates or geometries")
	// ErrMissingKey indicates the key required by the geometry kind is absent
	ErrMissingKey = errors.New("missing key")
	// ErrNotArray indicates a coordinate structure that is not an array
	ErrNotArray = errors.New("expected array")
	// ErrNotObject indicates a collection member that is not an object
	ErrNotObject = errors.New("expected geometry object")
	// ErrNotNumber indicates a non-numeric ordinate
	ErrNotNumber = errors.New("ordinate is not a number")
	// ErrTooFewOrdinates indicates a position with fewer than two ordinates
	ErrTooFewOrdinates = errors.New("too few ordinates")
	// ErrTooManyOrdinates indicates a position with more than three ordinates
	ErrTooManyOrdinates = errors.New("too many ordinates")
	// ErrNonFinite indicates a NaN or infinite ordinate
	ErrNonFinite = errors.New("ordinate is not finite")
	// ErrInvalidSRS indicates a non-string srsURI member
	ErrInvalidSRS = errors.New("srsURI is not a string")
)

const maxFragment = 80

// FormatError reports a malformed geometry. Type is the geometry type being
// processed and Fragment an excerpt of the failing input.
type FormatError struct {
	Type     string
	Fragment string
	Err      error
}

func (e *FormatError) Error() string {
	var msg strings.Builder
	msg.WriteString("geojson")
	if e.Type != "" {
		msg.WriteString(" ")
		msg.WriteString(e.Type)
	}
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	if e.Fragment != "" {
		fmt.Fprintf(&msg, "\n  near: %s", e.Fragment)
	}
	return msg.String()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func newFormatError(typ, fragment string, err error) *FormatError {
	return &FormatError{Type: typ, Fragment: excerpt(fragment), Err: err}
}

// wrap attaches type and fragment to err unless it already carries them. A
// FormatError without a type, such as an untyped collection member, takes
// the enclosing type.
func wrap(typ, fragment string, err error) error {
	var fe *FormatError
	if errors.As(err, &fe) {
		if fe.Type == "" {
			fe.Type = typ
		}
		return err
	}
	return newFormatError(typ, fragment, err)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxFragment {
		return s
	}
	cut := maxFragment
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
