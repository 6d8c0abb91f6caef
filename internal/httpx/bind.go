package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Bind parses the JSON body into dst and validates it. A nil map means the
// request is valid.
func Bind(c *fiber.Ctx, dst any) map[string]string {
	if err := c.BodyParser(dst); err != nil {
		return map[string]string{"body": "request body must be valid JSON"}
	}
	return Validate(dst)
}

// Validate runs the struct tags of v and returns one message per failing
// field.
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "min":
			if fe.Kind() == reflect.String {
				out[field] = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
			} else {
				out[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
			}
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "gt":
			out[field] = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
		case "gte":
			out[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email", field)
		case "url":
			out[field] = fmt.Sprintf("%s must be a valid URL", field)
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}
