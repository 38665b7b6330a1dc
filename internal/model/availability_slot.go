package model

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
)

// AvailabilitySlot единица расписания учителя
type AvailabilitySlot struct {
	ID        int64      `json:"id"`
	TeacherID int64      `json:"teacher_id"`
	SubjectID *int64     `json:"subject_id"` // nil = общий слот, подходит для любого предмета
	Range     TimeRange  `json:"range"`
	Status    SlotStatus `json:"status"`
	BookingID *int64     `json:"booking_id"`
	GroupID   *string    `json:"group_id,omitempty"` // recurring группа, из которой сгенерирован слот
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Для отображения, не хранится в slots
	SubjectName string `json:"subject_name,omitempty"`
}

func (s *AvailabilitySlot) IsAvailable() bool {
	return s.Status == SlotStatusAvailable
}

func (s *AvailabilitySlot) IsBooked() bool {
	return s.Status == SlotStatusBooked
}

func (s *AvailabilitySlot) IsGeneral() bool {
	return s.SubjectID == nil
}

// Clone копия без общих указателей
func (s *AvailabilitySlot) Clone() *AvailabilitySlot {
	c := *s
	if s.SubjectID != nil {
		v := *s.SubjectID
		c.SubjectID = &v
	}
	if s.BookingID != nil {
		v := *s.BookingID
		c.BookingID = &v
	}
	if s.GroupID != nil {
		v := *s.GroupID
		c.GroupID = &v
	}
	return &c
}

// SubjectScopesOverlap определяет, конкурируют ли два слота за одно время учителя.
// Общий слот конфликтует с любым. Два разных конкретных предмета конфликтуют
// только в строгом режиме: учитель не может вести два занятия одновременно.
func SubjectScopesOverlap(a, b *int64, strict bool) bool {
	if a == nil || b == nil {
		return true
	}
	if *a == *b {
		return true
	}
	return strict
}

// SubjectMatches общий слот подходит под любой фильтр
func (s *AvailabilitySlot) SubjectMatches(subjectID int64) bool {
	return s.SubjectID == nil || *s.SubjectID == subjectID
}
