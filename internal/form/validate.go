// Package form turns raw string inputs into domain values. Every form is
// checked with validator struct tags and all problems come back as one
// translated message.
package form

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"finboard/internal/core"
)

// OtherCategory selects the free-text category field.
const OtherCategory = "Other"

// Error lists every failed rule of a form, in field order.
type Error struct {
	Messages []string
}

func (e *Error) Error() string { return strings.Join(e.Messages, ", ") }

func (e *Error) UserMessage() string { return e.Error() }

func newError(msgs ...string) *Error { return &Error{Messages: msgs} }

// Validator wraps a validator.Validate with English messages and the
// custom rules used by the forms. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

type customRule struct {
	tag  string
	text string
	fn   validator.Func
}

var rules = []customRule{
	{"money", "{0} must be a positive number", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDecimalToCents(fl.Field().String())
		return err == nil
	}},
	{"txtype", "{0} must be income or expense", func(fl validator.FieldLevel) bool {
		_, err := core.ParseTxType(fl.Field().String())
		return err == nil
	}},
	{"period", "{0} must be all, today, week or month", func(fl validator.FieldLevel) bool {
		_, err := core.ParsePeriod(fl.Field().String())
		return err == nil
	}},
}

// builtinText overrides or fills in messages for built-in tags.
var builtinText = map[string]string{
	"required_if": "{0} is a required field",
	"iso4217":     "{0} must be a currency code like EUR",
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})

	eng := en.New()
	uni := ut.New(eng, eng)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)

	for _, r := range rules {
		_ = validate.RegisterValidation(r.tag, r.fn)
		translate(validate, trans, r.tag, r.text)
	}
	for tag, text := range builtinText {
		translate(validate, trans, tag, text)
	}
	return &Validator{validate: validate, trans: trans}
}

func translate(validate *validator.Validate, trans ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field())
			return msg
		})
}

var defaultValidator = sync.OnceValue(New)

// Default returns the shared Validator.
func Default() *Validator { return defaultValidator() }

// Check validates s and returns an *Error with every translated message.
func (v *Validator) Check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Translate(v.trans))
	}
	return newError(msgs...)
}

// category resolves the category choice, taking custom when "Other" is chosen.
func category(choice, custom string) string {
	choice = strings.TrimSpace(choice)
	if strings.EqualFold(choice, OtherCategory) {
		return strings.TrimSpace(custom)
	}
	return choice
}

func mustMoney(s string) core.Money {
	m, _ := core.ParseMoney(s)
	return m
}
