package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

var (
	// ErrNotFound запрошенный слот, бронирование или учитель не существует
	ErrNotFound = errors.New("not found")
	// ErrForbidden у актора нет прав на операцию
	ErrForbidden = errors.New("forbidden")
)

// ValidationError ошибки входных данных по полям
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field, msg := range v.FieldErrors {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, "; ")
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func validationError(field, message string) error {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// ConflictError новый или изменённый слот пересекается с существующим
type ConflictError struct {
	SlotID       int64
	Range        model.TimeRange
	SubjectID    *int64
	SubjectLabel string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time range conflicts with existing slot %d (%s, %s)", e.SlotID, e.Range, e.SubjectLabel)
}

// SlotBookedError попытка изменить или удалить забронированный слот
type SlotBookedError struct {
	SlotID    int64
	BookingID *int64
}

func (e *SlotBookedError) Error() string {
	return fmt.Sprintf("slot %d is booked and cannot be modified", e.SlotID)
}

// InvalidSubjectError учитель не подтверждён для предмета
type InvalidSubjectError struct {
	TeacherID int64
	SubjectID int64
}

func (e *InvalidSubjectError) Error() string {
	return fmt.Sprintf("teacher %d is not verified to teach subject %d", e.TeacherID, e.SubjectID)
}

// UnavailableError бронирование проиграло гонку за один или несколько слотов
type UnavailableError struct {
	Requested []int64
	Missing   []int64
}

func (e *UnavailableError) Error() string {
	return "one or more selected times are no longer available"
}

// InvalidTransitionError переход статуса не разрешён жизненным циклом
type InvalidTransitionError struct {
	BookingID int64
	From      model.BookingStatus
	To        model.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d cannot move from %s to %s", e.BookingID, e.From, e.To)
}

// ErrorKind стабильная метка ошибки для логов и ответов
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	}

	var (
		conflict    *ConflictError
		booked      *SlotBookedError
		subject     *InvalidSubjectError
		unavailable *UnavailableError
		transition  *InvalidTransitionError
		validation  *ValidationError
	)
	switch {
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &booked):
		return "slot_booked"
	case errors.As(err, &subject):
		return "invalid_subject"
	case errors.As(err, &unavailable):
		return "unavailable"
	case errors.As(err, &transition):
		return "invalid_transition"
	case errors.As(err, &validation):
		return "validation"
	}
	return "unexpected"
}
