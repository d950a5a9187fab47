package validator

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// NIST 800-63B length bounds; 72 is bcrypt's input limit.
	rePassword = regexp.MustCompile(`^.{8,72}$`)
	reTOTP     = regexp.MustCompile(`^[0-9]{6,8}$`)
	// A TOTP code or a backup code as a user may type it, with spaces or hyphens.
	reFactorCode = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{4,18}[A-Za-z0-9]$`)
)

var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps JSON field names to messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(vs))
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and
// the password, totp and factorcode rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	rules := []struct {
		tag string
		re  *regexp.Regexp
		msg string
	}{
		{tag: "password", re: rePassword, msg: "{0} must be 8-72 characters"},
		{tag: "totp", re: reTOTP, msg: "{0} must be a 6 to 8 digit code"},
		{tag: "factorcode", re: reFactorCode, msg: "{0} must be an authenticator or backup code"},
	}
	for _, r := range rules {
		if err := registerRegexRule(validate, enTrans, r.tag, r.re, r.msg); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: enTrans}, nil
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	out := make(V10ValidationError, len(validateErrs))
	for _, fe := range validateErrs {
		out[fe.Field()] = fe.Translate(v.translator)
	}
	return out
}

func registerRegexRule(validate *validator.Validate, trans ut.Translator, tag string, re *regexp.Regexp, msg string) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && re.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, msg, false)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, err := ut.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return t
		},
	)
}

// jsonFieldName reports fields by their JSON name, falling back to the Go name.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}
