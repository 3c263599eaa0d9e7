// Package response формирует JSON-тела ошибок, которые возвращают HTTP-обработчики.
// Успешные ответы отдаются как обычные объекты ресурсов.
package response

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

// StatusError является значением status в каждом теле ошибки.
const StatusError = "Error"

// ErrorResponse описывает тело ошибки. Fields содержит сообщения по полям
// при ошибках валидации.
type ErrorResponse struct {
	Status string            `json:"status" example:"Error"`
	Error  string            `json:"error" example:"invalid request body"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Error возвращает ErrorResponse с сообщением msg.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// Fields возвращает ErrorResponse валидации с сообщениями по полям.
func Fields(fields map[string]string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  "validation failed",
		Fields: fields,
	}
}

// ValidationError превращает ошибки валидатора в ErrorResponse с ключами по полям.
// Ключами служат JSON-имена ошибочных полей.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	fields := make(map[string]string, len(errs))
	var msgs []string
	for _, err := range errs {
		name := jsonName(err.Field())
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = "This field is required."
		case "email":
			msg = "Enter a valid email address."
		case "max":
			msg = fmt.Sprintf("Ensure this field has no more than %s characters.", err.Param())
		case "min":
			msg = fmt.Sprintf("Ensure this field has at least %s characters.", err.Param())
		case "oneof":
			msg = fmt.Sprintf("Must be one of: %s.", err.Param())
		default:
			msg = "This field is not valid."
		}
		fields[name] = msg
		msgs = append(msgs, fmt.Sprintf("field %s: %s", name, msg))
	}
	return ErrorResponse{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
		Fields: fields,
	}
}

// jsonName переводит имя поля Go вида FirstName в first_name.
func jsonName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NewValidator возвращает валидатор, называющий поля их JSON-именами.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}
