package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/akylbek/safari-buddy/internal/mpesa"
)

var registerOnce sync.Once

// RegisterValidations adds the custom binding tags used by request models.
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("ke_phone", func(fl validator.FieldLevel) bool {
			_, err := mpesa.NormalizePhone(fl.Field().String())
			return err == nil
		})
	})
}
