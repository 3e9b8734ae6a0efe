package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"

	"github.com/BaSui01/contextbench/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("isodate", validateISODate)
	return v
}

// validateISODate accepts yyyy-mm-dd or the "today" alias.
func validateISODate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "today" {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// typed adapts a handler over a closed argument struct. Unknown keys,
// malformed JSON and failed `validate` tags all become err(invalid).
func typed[A any](fn func(ctx context.Context, env *Env, args A) types.ToolOutcome) Handler {
	return func(ctx context.Context, env *Env, raw json.RawMessage) types.ToolOutcome {
		var args A
		if err := DecodeArgs(raw, &args); err != nil {
			return types.Fail(types.ErrInvalid, "%s", err.Error())
		}
		return fn(ctx, env, args)
	}
}

// DecodeArgs strictly decodes tool arguments into v. Top-level null values
// are dropped first, so {"id": "1", "extra": null} decodes like {"id": "1"}.
func DecodeArgs(raw json.RawMessage, v any) error {
	cleaned, err := dropNullKeys(raw)
	if err != nil {
		return fmt.Errorf("malformed arguments: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(cleaned))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed arguments: %w", err)
	}
	if reflect.Indirect(reflect.ValueOf(v)).Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(v); err != nil {
		return describeValidation(err)
	}
	return nil
}

func dropNullKeys(raw json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []byte("{}"), nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			delete(fields, k)
		}
	}
	return json.Marshal(fields)
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			if fe.Param() != "" {
				parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			} else {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		}
	}
	return errors.New("invalid arguments: " + strings.Join(parts, "; "))
}

// RepairArguments returns raw unchanged when it is valid JSON and a repaired
// copy otherwise. Models occasionally emit trailing commas or single quotes.
func RepairArguments(raw json.RawMessage) (json.RawMessage, bool, error) {
	if len(bytes.TrimSpace(raw)) == 0 || json.Valid(raw) {
		return raw, false, nil
	}
	fixed, err := jsonrepair.JSONRepair(string(raw))
	if err != nil {
		return raw, false, err
	}
	return json.RawMessage(fixed), true, nil
}
