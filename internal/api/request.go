package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxBodySize caps report, merge and settings bodies (1 MB). Report bodies
// carry media URL lists and merge requests carry source id lists.
const MaxBodySize = 1 << 20

// MaxMessageBodySize caps a conversation message body (16 KB). Message text
// itself is limited to 4000 characters.
const MaxMessageBodySize = 16 << 10

// DecodeJSON decodes a report, merge or settings request body into dst.
// Errors are phrased for console users and never expose decoder internals.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return decodeLimited(r, dst, MaxBodySize)
}

// DecodeMessageJSON decodes a conversation message body into dst.
func DecodeMessageJSON(r *http.Request, dst interface{}) error {
	return decodeLimited(r, dst, MaxMessageBodySize)
}

func decodeLimited(r *http.Request, dst interface{}, limit int64) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	r.Body = http.MaxBytesReader(nil, r.Body, limit)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body exceeds maximum size of %d bytes", limit)
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Errorf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Errorf("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	default:
		return errors.New("invalid JSON in request body")
	}
}
