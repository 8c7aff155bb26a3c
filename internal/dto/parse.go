package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationError is returned when a request body does not match the
// expected shape. Fields maps JSON field names to a short reason.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		keys = append(keys, k+": "+v)
	}
	sort.Strings(keys)
	return e.Msg + ": " + strings.Join(keys, ", ")
}

var setupOnce sync.Once

// setupValidator registers the custom rules and makes field errors report
// JSON names instead of Go field names.
func setupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// ParseCreateTodo decodes and validates a create payload.
func ParseCreateTodo(r io.Reader) (CreateTodoRequest, error) {
	body, err := readBody(r)
	if err != nil {
		return CreateTodoRequest{}, err
	}
	var req CreateTodoRequest
	if err := decodeStrict(body, &req); err != nil {
		return CreateTodoRequest{}, err
	}
	if err := validate(&req); err != nil {
		return CreateTodoRequest{}, err
	}
	return req, nil
}

// ParseUpdateTodo decodes and validates a partial update payload.
// A JSON null is treated as an omitted field, except for description where
// it clears the stored value.
func ParseUpdateTodo(r io.Reader) (UpdateTodoRequest, error) {
	body, err := readBody(r)
	if err != nil {
		return UpdateTodoRequest{}, err
	}
	var req UpdateTodoRequest
	if err := decodeStrict(body, &req); err != nil {
		return UpdateTodoRequest{}, err
	}
	req.ClearDescription = isExplicitNull(body, "description")
	if err := validate(&req); err != nil {
		return UpdateTodoRequest{}, err
	}
	return req, nil
}

// readBody reads the whole payload. An empty body reads as an empty object.
func readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []byte("{}"), nil
	}
	return body, nil
}

// isExplicitNull reports whether the top-level object in body carries key
// with a JSON null. Keys match case-insensitively, like encoding/json.
func isExplicitNull(body []byte, key string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return false
	}
	for k, v := range raw {
		if strings.EqualFold(k, key) && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return true
		}
	}
	return false
}

// decodeStrict rejects unknown fields, wrong types and trailing data.
func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return &ValidationError{Msg: "request body must contain a single JSON object"}
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return &ValidationError{Msg: "request body must be a JSON object"}
		}
		return &ValidationError{
			Msg:    "invalid request body",
			Fields: map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()},
		}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &ValidationError{Msg: "malformed JSON"}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return &ValidationError{
			Msg:    "invalid request body",
			Fields: map[string]string{field: "property should not exist"},
		}
	default:
		return &ValidationError{Msg: err.Error()}
	}
}

func validate(obj any) error {
	setupValidator()
	err := binding.Validator.ValidateStruct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Msg: err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return &ValidationError{Msg: "invalid request body", Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag()
	}
}
