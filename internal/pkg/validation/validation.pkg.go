package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront-checkout/internal/common/enum"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("validation failed")

var val = newValidator()

var validationMessages = map[string]string{
	"e164":       "must be a e164 formatted phone number",
	"required":   "is required",
	"number":     "must be a number",
	"numeric":    "must contain only digits",
	"oneof":      "must be one of the allowed values: %s",
	"min":        "must be greater than or equal to %s",
	"max":        "must be less than or equal to %s",
	"len":        "must have the exact length of %s",
	"gt":         "must be greater than %s",
	"gte":        "must be greater than or equal to %s",
	"lt":         "must be less than %s",
	"lte":        "must be less than or equal to %s",
	"latitude":   "must be a valid latitude",
	"longitude":  "must be a valid longitude",
	"enum":       "must be one of the allowed enum values: %s",
	"cardnumber": "must be a 16 digit card number",
	"cardexpiry": "must be a card expiry in MM/YY format",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidations(v); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Setup registers the custom rules on gin's binding engine as well.
func Setup() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := registerValidations(v); err != nil {
			return fmt.Errorf("failed to register custom validations in Gin engine: %w", err)
		}
	} else {
		return fmt.Errorf("failed to get validation engine")
	}

	return nil
}

func registerValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("enum", enum.ValidateEnum); err != nil {
		return fmt.Errorf("failed to register enum validation: %w", err)
	}
	if err := v.RegisterValidation("cardnumber", validateCardNumber); err != nil {
		return fmt.Errorf("failed to register card number validation: %w", err)
	}
	if err := v.RegisterValidation("cardexpiry", validateCardExpiry); err != nil {
		return fmt.Errorf("failed to register card expiry validation: %w", err)
	}
	return nil
}

func Validate(payload interface{}) error {
	if err := val.Struct(payload); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, parsingErrorValidate(err))
	}

	return nil
}

func parsingErrorValidate(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		var sb strings.Builder
		for _, e := range errs {
			name := e.Namespace()
			field := e.Field()
			tag := e.Tag()
			param := e.Param()
			tp := e.Type()

			msg, ok := validationMessages[tag]
			if !ok {
				msg = "failed on " + tag
			}
			switch tag {
			case "enum":
				msg = fmt.Sprintf(msg, tp)
			default:
				if strings.Contains(msg, "%s") {
					msg = fmt.Sprintf(msg, param)
				}
			}
			sb.WriteString(fmt.Sprintf("%s: %s %s", name, field, msg))
			sb.WriteString(", ")
		}
		return strings.TrimSuffix(sb.String(), ", ")
	}
	return err.Error()
}
