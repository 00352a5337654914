package validator

import (
	"roombook/pkg/model"
	"roombook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type SlotValidator struct {
	validate *validator.Validate
}

func NewSlotValidator() *SlotValidator {
	return &SlotValidator{
		validate: validator.New(),
	}
}

func (v *SlotValidator) Validate(slot *model.RoomSlot) error {
	if err := validation.Struct(v.validate, slot); err != nil {
		return err
	}

	if !slot.EndTime.After(slot.StartTime) {
		return validation.ValidationErrors{
			validation.ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	return nil
}

// ValidateFilter checks the optional list filter.
func (v *SlotValidator) ValidateFilter(filter model.SlotFilter) error {
	var errs validation.ValidationErrors

	if filter.Status != "" && filter.Status != model.RoomStatusAvailable && filter.Status != model.RoomStatusUnavailable {
		errs = append(errs, validation.ValidationError{
			Field:   "Status",
			Message: "status must be one of: available unavailable",
		})
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		errs = append(errs, validation.ValidationError{
			Field:   "To",
			Message: "to must be after from",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
