package model

import "time"

// SlotFilter выборка слотов учителя за период [From, To] по датам включительно
type SlotFilter struct {
	TeacherID int64
	From      time.Time
	To        time.Time
	SubjectID *int64 // общий слот подходит под любой предмет
	Status    *SlotStatus
}

// Match та же логика, что и в SQL-выборке
func (f SlotFilter) Match(s *AvailabilitySlot) bool {
	if s.TeacherID != f.TeacherID {
		return false
	}
	if !f.From.IsZero() && s.Range.Date.Before(DateOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && s.Range.Date.After(DateOf(f.To)) {
		return false
	}
	if f.SubjectID != nil && !s.SubjectMatches(*f.SubjectID) {
		return false
	}
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	return true
}

type BookingFilter struct {
	TeacherID *int64
	StudentID *int64
	Status    *BookingStatus
}

func (f BookingFilter) Match(b *Booking) bool {
	if f.TeacherID != nil && b.TeacherID != *f.TeacherID {
		return false
	}
	if f.StudentID != nil && (b.StudentID == nil || *b.StudentID != *f.StudentID) {
		return false
	}
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	return true
}
