package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/vytor/chinesetutor/internal/errors"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into v and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewBadRequestError("request body is empty")
		}
		return errors.NewBadRequestError(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if dec.More() {
		return errors.NewBadRequestError("request body must hold a single JSON object")
	}
	return s.validateRequest(v)
}

func (s *Server) validateRequest(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewInternalError(err)
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "oneof":
		return errors.NewValidationError(field, "must be one of "+fe.Param())
	case "min":
		return errors.NewValidationError(field, "must be at least "+fe.Param())
	case "required":
		return errors.NewValidationError(field, "cannot be empty")
	default:
		return errors.NewValidationError(field, "failed "+fe.Tag())
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}
