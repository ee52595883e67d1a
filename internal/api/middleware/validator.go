package middleware

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/qs3c/ramadan_bot_server/internal/service"
)

// RegisterValidators 向 gin 的校验器注册自定义规则
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return service.ValidPIN(fl.Field().String())
	})
}
