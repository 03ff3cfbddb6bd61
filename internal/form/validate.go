package form

import (
	"errors"
	"strings"
	"time"

	"github.com/UnknownOlympus/iris/internal/models"
)

var ErrValidation = errors.New("form validation failed")

// Field names reported by ValidationError.
const (
	FieldEntityName    = "entity_name"
	FieldDate          = "date"
	FieldHour          = "hour"
	FieldMinute        = "minute"
	FieldMeridiem      = "meridiem"
	FieldContactPerson = "contact_person"
	FieldPhoneNumber   = "phone_number"
)

// ValidationError lists the fields that stop a draft from being submitted.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate checks the draft. Entity name, date and contact person are required;
// a Call also needs a phone number.
func (f *Form) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(f.EntityName) == "" {
		verr.Missing = append(verr.Missing, FieldEntityName)
	}
	if strings.TrimSpace(f.Date) == "" {
		verr.Missing = append(verr.Missing, FieldDate)
	} else if _, err := time.ParseInLocation(time.DateOnly, f.Date, f.loc); err != nil {
		verr.Invalid = append(verr.Invalid, FieldDate)
	}
	if f.Hour < 1 || f.Hour > 12 {
		verr.Invalid = append(verr.Invalid, FieldHour)
	}
	if f.Minute < 0 || f.Minute > 59 {
		verr.Invalid = append(verr.Invalid, FieldMinute)
	}
	if f.Meridiem != AM && f.Meridiem != PM {
		verr.Invalid = append(verr.Invalid, FieldMeridiem)
	}
	if strings.TrimSpace(f.ContactPerson) == "" {
		verr.Missing = append(verr.Missing, FieldContactPerson)
	}
	if f.TaskType == models.TaskTypeCall && strings.TrimSpace(f.PhoneNumber) == "" {
		verr.Missing = append(verr.Missing, FieldPhoneNumber)
	}

	if len(verr.Missing) == 0 && len(verr.Invalid) == 0 {
		return nil
	}

	return verr
}
