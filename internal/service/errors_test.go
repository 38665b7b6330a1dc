package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", fmt.Errorf("slot 1: %w", ErrNotFound), "not_found"},
		{"forbidden", ErrForbidden, "forbidden"},
		{"conflict", &ConflictError{SlotID: 1}, "conflict"},
		{"booked", fmt.Errorf("wrap: %w", &SlotBookedError{SlotID: 2}), "slot_booked"},
		{"subject", &InvalidSubjectError{TeacherID: 1, SubjectID: 2}, "invalid_subject"},
		{"unavailable", &UnavailableError{Requested: []int64{1}}, "unavailable"},
		{"transition", &InvalidTransitionError{}, "invalid_transition"},
		{"validation", validationError("date", "is required"), "validation"},
		{"other", errors.New("connection reset"), "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	verr := &ValidationError{}
	assert.False(t, verr.HasErrors())
	assert.Equal(t, "validation failed", verr.Error())

	verr.add("start", "is invalid")
	verr.add("date", "is required")
	assert.True(t, verr.HasErrors())
	assert.Equal(t, "validation failed: date: is required; start: is invalid", verr.Error())
}

func TestConflictError_Message(t *testing.T) {
	err := &ConflictError{SlotID: 7, Range: rng(t, june1, "09:00", "10:00"), SubjectLabel: "general"}
	assert.Contains(t, err.Error(), "slot 7")
	assert.Contains(t, err.Error(), "general")
}
