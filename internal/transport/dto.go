package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type RegisterForm struct {
	Username string `form:"username" validate:"required,max=80"`
	Password string `form:"password" validate:"required"`
}

type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type ProductForm struct {
	Name        string `form:"name"        validate:"required,max=100"`
	Description string `form:"description"`
	Price       string `form:"price"       validate:"required,numeric"`
}

type ShippingForm struct {
	Quantity string `form:"quantity" validate:"required,number"`
	Address  string `form:"address"  validate:"required"`
}

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		return fmt.Errorf("%s", describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "numeric":
			parts = append(parts, field+" must be a number")
		case "number":
			parts = append(parts, field+" must be a whole number")
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
