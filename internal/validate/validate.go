// Package validate holds the field validation rules shared by the CLI and
// the HTTP API.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

var (
	studentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,50}$`)
	namePattern      = regexp.MustCompile(`^[\p{L} .'-]{2,100}$`)
)

// validate is the shared validator instance with the custom rules
// registered; struct-tag validation for the API DTOs goes through it.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	mustRegister(v, "student_id", func(fl validator.FieldLevel) bool {
		return studentIDPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "person_name", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "attendance_status", func(fl validator.FieldLevel) bool {
		return StatusValid(fl.Field().String())
	})
	mustRegister(v, "attendance_date", func(fl validator.FieldLevel) bool {
		return DateValid(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("could not register validation %q: %v", tag, err))
	}
}

// Struct validates a DTO through its struct tags.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("field %s is invalid (%s rule)", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// StudentID checks the external student identifier format.
func StudentID(id string) error {
	if !studentIDPattern.MatchString(id) {
		return errors.New("student id must be 2-50 characters of letters, digits, underscore or dash")
	}
	return nil
}

// Name checks a person's name.
func Name(name string) error {
	if !namePattern.MatchString(name) {
		return errors.New("name must be 2-100 characters of letters, spaces, dots, apostrophes or dashes")
	}
	return nil
}

// Email checks an optional email address; empty is allowed.
func Email(email string) error {
	if email == "" {
		return nil
	}
	if err := validate.Var(email, "email"); err != nil {
		return errors.New("email address is not valid")
	}
	return nil
}

// Department checks the optional department field.
func Department(department string) error {
	if len(department) > 100 {
		return errors.New("department must be at most 100 characters")
	}
	return nil
}

// Batch checks the optional batch field.
func Batch(batch string) error {
	if len(batch) > 50 {
		return errors.New("batch must be at most 50 characters")
	}
	return nil
}

// StatusValid reports whether the attendance status is one of the allowed values.
func StatusValid(status string) bool {
	switch status {
	case constants.StatusPresent, constants.StatusAbsent, constants.StatusLate:
		return true
	default:
		return false
	}
}

// Status checks an attendance status value.
func Status(status string) error {
	if !StatusValid(status) {
		return fmt.Errorf("status must be %s, %s or %s",
			constants.StatusPresent, constants.StatusAbsent, constants.StatusLate)
	}
	return nil
}

// DateValid reports whether the value is a real YYYY-MM-DD date.
func DateValid(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// Date checks an attendance date value.
func Date(date string) error {
	if !DateValid(date) {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	return nil
}

// Tolerance checks a recognition tolerance value.
func Tolerance(t float64) error {
	if t < constants.MinTolerance || t > constants.MaxTolerance {
		return fmt.Errorf("tolerance must be between %.1f and %.1f", constants.MinTolerance, constants.MaxTolerance)
	}
	return nil
}

// StudentFields validates the full set of student profile fields.
func StudentFields(studentID, name, email, department, batch string) error {
	if err := StudentID(studentID); err != nil {
		return err
	}
	if err := Name(name); err != nil {
		return err
	}
	if err := Email(email); err != nil {
		return err
	}
	if err := Department(department); err != nil {
		return err
	}
	return Batch(batch)
}
