package service

import (
	"fmt"
	"github.com/go-playground/validator/v10"
	"regexp"
	"strings"
	"video-tracker/dto"
)

var durationPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidators(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidators adds the custom tags used by request structs. The server
// registers them on gin's binding engine too.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("hhmmss", func(fl validator.FieldLevel) bool {
		return ValidDuration(fl.Field().String())
	})
}

func ValidDuration(d string) bool {
	return durationPattern.MatchString(d)
}

// FormatDuration renders whole seconds as HH:MM:SS.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func validateSample(sample dto.ProgressSample) error {
	if strings.TrimSpace(sample.SessionID) == "" || strings.TrimSpace(sample.SessionName) == "" {
		return fmt.Errorf("%w: session_id and session_name are required", ErrValidation)
	}
	if err := validate.Struct(sample); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}

func validateUpdate(req dto.UpdateRecordRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}
