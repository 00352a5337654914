package validator

import (
	"roombook/pkg/model"
	"roombook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
	}
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	return validation.Struct(v.validate, booking)
}

func (v *BookingValidator) ValidateCreate(req *model.BookingCreate) error {
	return validation.Struct(v.validate, req)
}

func (v *BookingValidator) ValidateReschedule(req *model.BookingReschedule) error {
	return validation.Struct(v.validate, req)
}

// ValidateStatusUpdate checks the request shape only; whether the transition
// is allowed depends on the booking's current status.
func (v *BookingValidator) ValidateStatusUpdate(req *model.BookingStatusUpdate) error {
	return validation.Struct(v.validate, req)
}

func (v *BookingValidator) ValidateFilter(filter model.BookingFilter) error {
	var errs validation.ValidationErrors

	if filter.Status != "" && !filter.Status.Valid() {
		errs = append(errs, validation.ValidationError{
			Field:   "Status",
			Message: "status must be one of: pending confirmed cancelled",
		})
	}
	for field, id := range map[string]string{"RoomSlotID": filter.RoomSlotID, "RoomID": filter.RoomID} {
		if id == "" {
			continue
		}
		if v.validate.Var(id, "mongodb|uuid") != nil {
			errs = append(errs, validation.ValidationError{
				Field:   field,
				Message: field + " must be a valid identifier",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
