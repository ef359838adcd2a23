package beats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Error payload fields
const (
	FieldName   = "name"
	FieldSound  = "sound"
	FieldAuthor = "author_id"
)

// Validation messages, worded the way the web backend words them
const (
	MsgBlank   = "can't be blank"
	MsgTaken   = "has already been taken"
	MsgInvalid = "is invalid"
	MsgMissing = "must exist"
)

// ValidationError is a rejected field on save
type ValidationError struct {
	Field    string
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, strings.Join(e.Messages, ", "))
}

// AuthRequiredError means the backend found no owner for the request
type AuthRequiredError struct {
	Messages []string
}

func (e *AuthRequiredError) Error() string {
	if len(e.Messages) == 0 {
		return "authentication required"
	}
	return "authentication required: " + strings.Join(e.Messages, ", ")
}

// Messages decodes a field value that is either "msg" or ["msg", ...]
type Messages []string

func (m *Messages) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*m = list
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*m = Messages{one}
	return nil
}

// ErrorPayload is the body of a rejected request: field -> messages
type ErrorPayload map[string]Messages

// ResponseError is a non-2xx answer from the backend
type ResponseError struct {
	Status int
	Fields ErrorPayload
}

func (e *ResponseError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("beats: status %d", e.Status)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return fmt.Sprintf("beats: status %d: %s", e.Status, strings.Join(parts, "; "))
}

// Unwrap exposes the field errors to errors.As. Order is fixed: name,
// sound, then the author check.
func (e *ResponseError) Unwrap() []error {
	var errs []error
	for _, field := range []string{FieldName, FieldSound} {
		if msgs := e.Fields[field]; len(msgs) > 0 {
			errs = append(errs, &ValidationError{Field: field, Messages: msgs})
		}
	}
	if msgs, ok := e.Fields[FieldAuthor]; ok {
		errs = append(errs, &AuthRequiredError{Messages: msgs})
	}
	return errs
}

// Validation returns the field's validation error, if any
func (e *ResponseError) Validation(field string) *ValidationError {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return &ValidationError{Field: field, Messages: msgs}
	}
	return nil
}

// AuthRequired reports whether the backend asked for an owner
func (e *ResponseError) AuthRequired() bool {
	_, ok := e.Fields[FieldAuthor]
	return ok
}
