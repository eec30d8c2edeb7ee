package mapper

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDocument      = errors.New("invalid JSON document")
	ErrNotFeatureCollection = errors.New("GeoJSON 'type' and 'features' not found in root")
	ErrNotFeature           = errors.New("entry is not a Feature")
	ErrMissingGeometry      = errors.New("feature does not have a 'geometry' object")
	ErrInvalidID            = errors.New("feature id must be a string or number")
	ErrInvalidURI           = errors.New("uri must be a string")
	ErrInvalidProperties    = errors.New("properties must be an object")
	ErrUnsupportedValue     = errors.New("property type not supported")
)

// DocumentError reports a structural problem in a FeatureCollection. Index
// is the position in the features array; FeatureID is set once the id has
// been resolved.
type DocumentError struct {
	Index     int
	FeatureID string
	Property  string
	Err       error
}

func (e *DocumentError) Error() string {
	var msg strings.Builder
	msg.WriteString("geojson document")
	if e.Index >= 0 {
		fmt.Fprintf(&msg, ": feature %d", e.Index)
	}
	if e.FeatureID != "" {
		fmt.Fprintf(&msg, " (%s)", e.FeatureID)
	}
	if e.Property != "" {
		fmt.Fprintf(&msg, ": member %q", e.Property)
	}
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	return msg.String()
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
