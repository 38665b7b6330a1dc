package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает одобрения учителя
	BookingStatusApproved  BookingStatus = "approved"  // Одобрено
	BookingStatusRejected  BookingStatus = "rejected"  // Отклонено учителем или админом
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено
	BookingStatusCompleted BookingStatus = "completed" // Занятие проведено
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected,
		BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// Active статусы, при которых слоты бронирования заняты
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusApproved
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid || s == PaymentStatusRefunded
}

// Session снимок занятия на момент бронирования, переживает изменение и удаление слота
type Session struct {
	SlotID *int64 `json:"slot_id"`
	Date   string `json:"date"` // 2006-01-02
	Time   string `json:"time"` // 15:04-15:04
}

type Booking struct {
	ID        int64  `json:"id"`
	TeacherID int64  `json:"teacher_id"`
	StudentID *int64 `json:"student_id"` // nil для гостевой записи по контактам

	StudentName  string `json:"student_name"`
	StudentPhone string `json:"student_phone"`
	StudentEmail string `json:"student_email"`

	SubjectID   *int64 `json:"subject_id"`
	SubjectText string `json:"subject_text"`

	Sessions     []Session `json:"sessions"`
	SlotIDs      []int64   `json:"slot_ids"`
	PricePerHour int64     `json:"price_per_hour"` // в минимальных единицах валюты
	TotalPrice   int64     `json:"total_price"`

	Status           BookingStatus `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentReference string        `json:"payment_reference,omitempty"`

	ApprovedAt  *time.Time `json:"approved_at"`
	RejectedAt  *time.Time `json:"rejected_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Clone копия без общих срезов и указателей
func (b *Booking) Clone() *Booking {
	c := *b
	c.Sessions = append([]Session(nil), b.Sessions...)
	c.SlotIDs = append([]int64(nil), b.SlotIDs...)
	for i := range c.Sessions {
		if b.Sessions[i].SlotID != nil {
			v := *b.Sessions[i].SlotID
			c.Sessions[i].SlotID = &v
		}
	}
	c.StudentID = cloneInt64(b.StudentID)
	c.SubjectID = cloneInt64(b.SubjectID)
	c.ApprovedAt = cloneTime(b.ApprovedAt)
	c.RejectedAt = cloneTime(b.RejectedAt)
	c.CancelledAt = cloneTime(b.CancelledAt)
	c.CompletedAt = cloneTime(b.CompletedAt)
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
