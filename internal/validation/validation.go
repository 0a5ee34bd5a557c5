package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// validate is the package-level validator instance used for struct validation
var validate = newValidator()

var (
	vinPattern   = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	e164Pattern  = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
	phoneStrip   = regexp.MustCompile(`[\s().\-]`)
	errBadPhone  = errors.New("not a phone number")
	minModelYear = 1900
)

// Error is a failed request: a message per field, keyed by the json name
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError builds an Error for a single field
func FieldError(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	must(v.RegisterValidation("vin", func(fl validator.FieldLevel) bool {
		return vinPattern.MatchString(strings.ToUpper(fl.Field().String()))
	}))
	must(v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, err := NormalizePhone(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("modelyear", func(fl validator.FieldLevel) bool {
		y := int(fl.Field().Int())
		return y >= minModelYear && y <= maxModelYear()
	}))
	// max counts runes; maxbytes is for limits like bcrypt's 72 bytes
	must(v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	}))
	must(v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		// up to $100M
		c := fl.Field().Int()
		return c >= 0 && c <= 10_000_000_000
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func maxModelYear() int {
	return time.Now().Year() + 1
}

// Struct validates v and turns validator errors into an *Error
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fieldPath(fe)] = message(fe)
	}
	return out
}

// DecodeAndValidate reads a JSON body into dst, rejecting unknown fields, then validates it
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := Decode(w, r, dst); err != nil {
		return err
	}
	return Struct(dst)
}

// Decode reads a single JSON value into dst, for bodies that aren't structs
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return FieldError("body", "must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) *Error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return FieldError("body", "is required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return FieldError("body", "is not valid JSON")
	case errors.As(err, &typeErr):
		return FieldError(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type))
	case errors.As(err, &maxErr):
		return FieldError("body", "is too large")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return FieldError(field, "is not allowed")
	}
	return FieldError("body", "could not be read")
}

// fieldPath drops the top level struct name, e.g. SubmitRequest.owner.phone becomes owner.phone
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with", "required_without":
		return "is required"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "numeric":
		return "must contain only digits"
	case "email":
		return "must be a valid email"
	case "url", "http_url":
		return "must be a valid url"
	case "vin":
		return "must be a 17 character VIN"
	case "phone":
		return "must be a valid phone number"
	case "modelyear":
		return fmt.Sprintf("must be between %d and %d", minModelYear, maxModelYear())
	case "cents":
		return "must be a non-negative amount in cents"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "min", "gte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max", "lte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "maxbytes":
		return "must be at most " + fe.Param() + " bytes"
	case "len":
		return "must be exactly " + fe.Param() + " long"
	}
	return "is invalid"
}

/*
NormalizePhone returns the number in E.164. Ten digit numbers are taken as US numbers;
anything else needs its country code.
*/
func NormalizePhone(s string) (string, error) {
	s = phoneStrip.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return "", errBadPhone
	}

	plus := strings.HasPrefix(s, "+")
	digits := strings.TrimPrefix(s, "+")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", errBadPhone
		}
	}

	var out string
	switch {
	case plus:
		out = "+" + digits
	case len(digits) == 10:
		out = "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		out = "+" + digits
	default:
		return "", errBadPhone
	}

	if !e164Pattern.MatchString(out) {
		return "", errBadPhone
	}
	return out, nil
}
