package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/eventhub/internal/domain"
)

const (
	msgName     = "Name must be at least 8 characters long"
	msgEmail    = "Please include a valid email"
	msgPassword = "Password must be at least 8 characters long and contain at least one lowercase letter, one uppercase letter, one number, and one special character"
	msgAge      = "Age must be between 16 and 100"
	msgPicture  = "Profile picture must end with .png, .jpg or .jpeg"
	msgRole     = "Role must be organizer or customer"
	msgGender   = "Gender must be male, female or other"
	msgDate     = "Date must be in YYYY-MM-DD format"
)

// userNameMin is the min= parameter of user name rules.
const userNameMin = "8"

var pictureSuffix = regexp.MustCompile(`\.(jpg|jpeg|png)$`)

// newValidator returns a validator that reports JSON field names and knows
// the strongpassword and picture tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	custom := map[string]validator.Func{
		"strongpassword": func(fl validator.FieldLevel) bool {
			return isStrongPassword(fl.Field().String())
		},
		"picture": func(fl validator.FieldLevel) bool {
			return pictureSuffix.MatchString(fl.Field().String())
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	return v
}

// isStrongPassword requires at least 8 characters including a lowercase
// letter, an uppercase letter, a digit and a symbol.
func isStrongPassword(s string) bool {
	if len([]rune(s)) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// validateStruct runs v over s and converts failures into a
// *domain.ValidationError listing one message per field.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &domain.ValidationError{}
	seen := make(map[string]bool)
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		out.Fields = append(out.Fields, domain.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "strongpassword":
		return msgPassword
	case "picture":
		return msgPicture
	case "email":
		return msgEmail
	}

	switch fe.Field() {
	case "name":
		if fe.Tag() == "min" && fe.Param() == userNameMin {
			return msgName
		}
	case "age":
		return msgAge
	case "role":
		return msgRole
	case "gender":
		return msgGender
	case "email":
		if fe.Tag() == "required" {
			return msgEmail
		}
	case "password":
		if fe.Tag() == "required" {
			return msgPassword
		}
	}

	if fe.Tag() == "required" || (fe.Tag() == "min" && fe.Param() == "1") {
		return fe.Field() + " is required"
	}
	return fe.Field() + " is invalid"
}
