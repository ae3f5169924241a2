package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var usernameRE = regexp.MustCompile(`^@?[A-Za-z0-9_.-]{1,30}$`)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the username rule and a few aliases.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs the custom rules on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRE.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	v.RegisterAlias("circlename", "min=1,max=64")
	v.RegisterAlias("linkurl", "url,max=2048")
	v.RegisterAlias("nonzero", "required")
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) {
		return map[string]string{"payload": "invalid json"}
	}
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = "payload"
		}
		return map[string]string{field: "must be a " + ute.Type.String()}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required", "nonzero":
		return "is required"
	case "required_without":
		return "is required when " + param + " is not present"
	case "email":
		return "must be a valid email"
	case "url", "linkurl":
		return "must be a valid URL"
	case "username":
		return "may contain letters, digits, '.', '_' and '-' (max 30)"
	case "circlename":
		return "must be between 1 and 64 characters long"
	case "uuid":
		return "must be a valid UUID"
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", param)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		if isCollectionKind(fe.Kind()) {
			return "must contain at least " + param + " items"
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		if isCollectionKind(fe.Kind()) {
			return "must contain at most " + param + " items"
		}
		return "must be at most " + param + " characters long"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "unique":
		return "must contain unique items"
	case "dive":
		return "array validation failed"
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func isCollectionKind(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}
