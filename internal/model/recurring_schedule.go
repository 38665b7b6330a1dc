package model

import (
	"time"

	"github.com/google/uuid"
)

// RecurringAvailability шаблон еженедельной доступности
type RecurringAvailability struct {
	ID        int64     `json:"id"`
	GroupID   uuid.UUID `json:"group_id"` // идентификатор группы связанных шаблонов
	TeacherID int64     `json:"teacher_id"`
	SubjectID *int64    `json:"subject_id"`
	Weekday   int       `json:"weekday"` // 0 = Sunday, 6 = Saturday
	Start     Clock     `json:"start"`
	End       Clock     `json:"end"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RangeOn интервал шаблона на конкретную дату
func (r *RecurringAvailability) RangeOn(date time.Time) (TimeRange, error) {
	return NewTimeRange(date, r.Start, r.End)
}
