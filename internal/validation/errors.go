// Package validation нормализует и проверяет пользователей и заявки до того,
// как они попадут в хранилище.
//
// Выполняются все проверки всех полей; ошибки одного поля идут в порядке
// проверок, так что короткий username с дефисом получит обе ошибки.
package validation

import (
	"errors"
	"sort"
	"strings"
)

// Code обозначает одну ошибку проверки. Реализует error, чтобы
// errors.Is(err, validation.MobileTooShort) работал на *Error.
type Code string

func (c Code) Error() string { return string(c) }

const (
	Required      Code = "required"
	InvalidChoice Code = "invalid_choice"
	TooLong       Code = "too_long"

	InvalidEmailFormat        Code = "invalid_email_format"
	UsernameTooShort          Code = "username_too_short"
	UsernameTooLong           Code = "username_too_long"
	UsernameInvalidCharacters Code = "username_invalid_characters"
	FullNameTooShort          Code = "full_name_too_short"
	FullNameTooLong           Code = "full_name_too_long"
	FullNameMissingPart       Code = "full_name_missing_part"
	MobileInvalidCharacters   Code = "mobile_invalid_characters"
	MobileTooShort            Code = "mobile_too_short"
	MobileTooLong             Code = "mobile_too_long"
	PasswordTooShort          Code = "password_too_short"

	DuplicateEmail    Code = "duplicate_email"
	DuplicateUsername Code = "duplicate_username"

	UnsupportedFileType Code = "unsupported_file_type"
	InvalidAmount       Code = "invalid_amount"
	InvalidDate         Code = "invalid_date"
)

type Issue struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Errors: поле -> найденные в нём ошибки.
type Errors map[string][]Issue

func (e Errors) Add(field string, code Code, msg string) {
	e[field] = append(e[field], Issue{Code: code, Message: msg})
}

func (e Errors) Has(field string, code Code) bool {
	for _, is := range e[field] {
		if is.Code == code {
			return true
		}
	}
	return false
}

// Err возвращает nil, если ошибок нет.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return &Error{Fields: e}
}

// Error: единственная ошибка, которую получает вызывающий при отказе.
type Error struct {
	Fields Errors `json:"errors"`
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed")
	for _, f := range fields {
		for _, is := range e.Fields[f] {
			b.WriteString("; ")
			b.WriteString(f)
			b.WriteString(": ")
			b.WriteString(is.Message)
		}
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	code, ok := target.(Code)
	if !ok {
		return false
	}
	for _, issues := range e.Fields {
		for _, is := range issues {
			if is.Code == code {
				return true
			}
		}
	}
	return false
}

// Messages возвращает тексты ошибок для показа, по срезу на поле.
func (e *Error) Messages() map[string][]string {
	out := make(map[string][]string, len(e.Fields))
	for f, issues := range e.Fields {
		for _, is := range issues {
			out[f] = append(out[f], is.Message)
		}
	}
	return out
}

// FieldError собирает *Error с одной ошибкой.
func FieldError(field string, code Code, msg string) error {
	errs := Errors{}
	errs.Add(field, code, msg)
	return errs.Err()
}

func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func DuplicateEmailError() error {
	return FieldError("email", DuplicateEmail, "User with this Email Address already exists.")
}

func DuplicateUsernameError() error {
	return FieldError("username", DuplicateUsername, "A user with that username already exists.")
}
