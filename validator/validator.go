package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"storefront/entity"

	"github.com/go-playground/validator/v10"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[+]?[0-9()\-\s]{10,15}$`)
)

// Validator wraps the go-playground validator
type Validator struct {
	validator *validator.Validate
}

// New creates a new validator instance
func New() *Validator {
	v := validator.New()

	// Register custom tag name function to use json tags for field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("phone_number", validatePhoneNumber)
	v.RegisterValidation("contact_method", validateContactMethod)
	v.RegisterValidation("otp_purpose", validateOTPPurpose)

	// contact format depends on the method field, so it is checked at struct level
	v.RegisterStructValidation(contactStructLevel, entity.RequestOTPRequest{}, entity.VerifyOTPRequest{})

	return &Validator{
		validator: v,
	}
}

// ValidateStruct validates a struct and returns formatted errors
func (v *Validator) ValidateStruct(s interface{}) error {
	if s == nil {
		return fmt.Errorf("input cannot be nil")
	}

	if err := v.validator.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errors []string
			for _, validationErr := range validationErrors {
				errors = append(errors, v.formatFieldError(validationErr))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(errors, "; "))
		}
		// Handle other validation errors (like InvalidValidationError)
		return fmt.Errorf("validation error: %v", err)
	}
	return nil
}

// HasFieldError reports whether err is a validation failure on the given json field
func HasFieldError(err error, field string) bool {
	return err != nil && strings.Contains(err.Error(), field+" ")
}

// formatFieldError formats a single field validation error
func (v *Validator) formatFieldError(err validator.FieldError) string {
	field := err.Field()
	tag := err.Tag()
	param := err.Param()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters long", field, param)
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "phone_number":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "contact":
		return fmt.Sprintf("%s must be a valid email address or phone number for the selected method", field)
	case "contact_method":
		return fmt.Sprintf("%s must be one of [email phone]", field)
	case "otp_purpose":
		return fmt.Sprintf("%s is not a supported purpose", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// IsValidEmail reports whether s looks like an email address
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// IsValidPhone reports whether s looks like a phone number. Whitespace is
// stripped before matching.
func IsValidPhone(s string) bool {
	return phoneRegex.MatchString(stripWhitespace(s))
}

// IsValidContact validates contact against the format of its method
func IsValidContact(contact string, method entity.ContactMethod) bool {
	switch method {
	case entity.MethodEmail:
		return IsValidEmail(contact)
	case entity.MethodPhone:
		return IsValidPhone(contact)
	default:
		return false
	}
}

// NormalizeContact returns the canonical form stored and compared server side
func NormalizeContact(contact string, method entity.ContactMethod) string {
	if method == entity.MethodPhone {
		return stripWhitespace(contact)
	}
	return strings.ToLower(strings.TrimSpace(contact))
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

func validateContactMethod(fl validator.FieldLevel) bool {
	switch entity.ContactMethod(fl.Field().String()) {
	case entity.MethodEmail, entity.MethodPhone:
		return true
	}
	return false
}

func validateOTPPurpose(fl validator.FieldLevel) bool {
	return entity.OTPPurpose(fl.Field().String()) == entity.PurposeCODVerification
}

func contactStructLevel(sl validator.StructLevel) {
	var contact string
	var method entity.ContactMethod

	switch req := sl.Current().Interface().(type) {
	case entity.RequestOTPRequest:
		contact, method = req.Contact, req.Method
	case entity.VerifyOTPRequest:
		contact, method = req.Contact, req.Method
	default:
		return
	}

	// an empty contact is already reported by the required tag
	if contact == "" {
		return
	}
	if !IsValidContact(contact, method) {
		sl.ReportError(contact, "contact", "Contact", "contact", "")
	}
}
