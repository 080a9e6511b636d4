package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate はリクエストボディ検証用のバリデータ。
// notblankルール: 空白のみの文字列を不正とする（requiredは空白のみを通すため）。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}
