package beats

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestErrorPayloadDecodesStringsAndLists(t *testing.T) {
	var p ErrorPayload
	in := `{"name":["can't be blank","has already been taken"],"author_id":"must exist"}`
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(p[FieldName], Messages{MsgBlank, MsgTaken}) {
		t.Errorf("name = %q", p[FieldName])
	}
	if !reflect.DeepEqual(p[FieldAuthor], Messages{MsgMissing}) {
		t.Errorf("author_id = %q", p[FieldAuthor])
	}

	if err := json.Unmarshal([]byte(`{"name":3}`), &p); err == nil {
		t.Error("expected error for a number")
	}
}

func TestResponseErrorUnwrap(t *testing.T) {
	err := error(&ResponseError{Status: 422, Fields: ErrorPayload{
		FieldAuthor: {MsgMissing},
		FieldName:   {MsgTaken},
	}})

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != FieldName {
		t.Errorf("ValidationError = %v", verr)
	}
	var aerr *AuthRequiredError
	if !errors.As(err, &aerr) {
		t.Error("missing AuthRequiredError")
	}

	rerr := err.(*ResponseError)
	if !rerr.AuthRequired() {
		t.Error("AuthRequired() = false")
	}
	if rerr.Validation(FieldSound) != nil {
		t.Error("no sound error expected")
	}
	if got := rerr.Error(); !strings.Contains(got, "422") || !strings.Contains(got, "name has already been taken") {
		t.Errorf("Error() = %q", got)
	}
}

func TestResponseErrorWithoutFields(t *testing.T) {
	err := &ResponseError{Status: 500}
	if err.Error() != "beats: status 500" {
		t.Errorf("Error() = %q", err.Error())
	}
	if len(err.Unwrap()) != 0 || err.AuthRequired() {
		t.Error("empty payload should carry no field errors")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: FieldName, Messages: []string{MsgBlank, MsgTaken}}
	if err.Error() != "name can't be blank, has already been taken" {
		t.Errorf("Error() = %q", err.Error())
	}
	if (&AuthRequiredError{}).Error() != "authentication required" {
		t.Error("bare auth error message")
	}
}
