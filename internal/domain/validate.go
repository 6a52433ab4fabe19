package domain

import (
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// validate общий валидатор доменных структур (теги validate)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// ValidEmail только голый адрес вида local@domain, без display name
func ValidEmail(email string) bool { return validate.Var(email, "required,email") == nil }

// ValidPhone ровно 10 цифр
func ValidPhone(phone string) bool { return validate.Var(phone, "required,number,len=10") == nil }
