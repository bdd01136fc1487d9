package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the validator behind gin's binding.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Configure(v)
	}
}

// Configure makes v report json (or form) field names and registers the
// project's tags:
//
//	pwd       minimum password length
//	langname  letters, spaces, hyphens and parentheses only
//	lang      a language name as users type it
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("langname", isLanguageName)
	v.RegisterAlias("pwd", "min=6")
	v.RegisterAlias("lang", "min=2,max=40,langname")
}

var (
	stdOnce sync.Once
	std     *validator.Validate
)

// Var checks a single value against tag using a validator carrying the
// project's tags, for callers outside request binding.
func Var(field any, tag string) error {
	stdOnce.Do(func() {
		std = validator.New(validator.WithRequiredStructEnabled())
		Configure(std)
	})
	return std.Var(field, tag)
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func isLanguageName(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '(' && r != ')' {
			return false
		}
	}
	return true
}

// ToDetails turns a binding error into field -> message for the error envelope.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	if errors.As(err, &syntax) || errors.As(err, &typ) {
		return map[string]string{"payload": "invalid json"}
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return map[string]string{"payload": "invalid payload"}
	}
	out := make(map[string]string, len(fields))
	for _, fe := range fields {
		out[fe.Field()] = describe(fe)
	}
	return out
}

// Messages per tag; %s is the tag parameter. Aliases report the tag they
// expand to, so "pwd" arrives here as "min".
var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"url":      "must be a valid URL",
	"http_url": "must be a valid URL",
	"uuid":     "must be a valid UUID",
	"langname": "may only contain letters, spaces and hyphens",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
}

// Bounds read differently for strings and numbers.
var bounds = map[string][2]string{
	"min": {"must be at least %s characters", "must be at least %s"},
	"max": {"must be at most %s characters", "must be at most %s"},
	"len": {"must be exactly %s characters", "must be exactly %s"},
}

func describe(fe validator.FieldError) string {
	tag, param := fe.ActualTag(), fe.Param()
	if tag == "oneof" {
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	}
	if pair, ok := bounds[tag]; ok {
		if numeric(fe.Kind()) {
			return fmt.Sprintf(pair[1], param)
		}
		return fmt.Sprintf(pair[0], param)
	}
	if msg, ok := messages[tag]; ok {
		if strings.Contains(msg, "%s") {
			return fmt.Sprintf(msg, param)
		}
		return msg
	}
	if param != "" {
		return fmt.Sprintf("failed on %s=%s", tag, param)
	}
	return "failed on " + tag
}

func numeric(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
}
