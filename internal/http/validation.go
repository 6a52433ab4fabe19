package httpapi

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
)

var registerOnce sync.Once

// registerValidators теги size, category и subcategory для binding-структур
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("size", func(fl validator.FieldLevel) bool {
			return domain.Size(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return domain.Category(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("subcategory", func(fl validator.FieldLevel) bool {
			return domain.SubCategory(fl.Field().String()).Valid()
		})
	})
}
