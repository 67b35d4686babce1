// Package bind decodes and validates a JSON request body.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/shopfront/config"
	"github.com/shashiranjanraj/shopfront/pkg/validate"
)

// ErrBody wraps every decoding failure so callers can tell a bad payload
// from a validation failure.
var ErrBody = errors.New("invalid request body")

// JSON decodes one JSON value from r.Body into dest, then runs its validate
// tags. Validation failures come back as field messages with a nil error.
// An empty body is treated as {} so required fields get reported.
func JSON(r *http.Request, dest any) (map[string]string, error) {
	if err := decode(r, dest); err != nil {
		return nil, err
	}
	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

func decode(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, config.MaxBodyBytes()))

	err := dec.Decode(dest)
	if err == nil {
		// Anything after the first value is a client bug.
		if dec.More() {
			return fmt.Errorf("%w: unexpected data after JSON value", ErrBody)
		}
		return nil
	}
	if errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: larger than %d bytes", ErrBody, tooLarge.Limit)
	case errors.As(err, &syntax):
		return fmt.Errorf("%w: malformed JSON at offset %d", ErrBody, syntax.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: malformed JSON (truncated body)", ErrBody)
	case errors.As(err, &typ) && typ.Field != "":
		return fmt.Errorf("%w: field %q must be %s", ErrBody, typ.Field, typ.Type)
	default:
		return fmt.Errorf("%w: %v", ErrBody, err)
	}
}
