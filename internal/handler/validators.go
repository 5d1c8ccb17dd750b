package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/fleetyard/backoffice-api/internal/model"
)

// RegisterValidators installs the custom binding validators. Call once at
// startup before any request is served.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("fleet_size", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, size := range model.FleetSizes {
			if value == size {
				return true
			}
		}
		return false
	})

	v.RegisterValidation("template_code", func(fl validator.FieldLevel) bool {
		return model.TemplateCodePattern.MatchString(fl.Field().String())
	})
}
