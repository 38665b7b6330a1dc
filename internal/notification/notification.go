package notification

import (
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

type Event string

const (
	EventBookingCreated  Event = "booking.created"
	EventBookingStatus   Event = "booking.status_changed"
	EventPaymentRecorded Event = "booking.payment_recorded"
)

type RecipientRole string

const (
	RecipientTeacher RecipientRole = "teacher"
	RecipientStudent RecipientRole = "student"
)

// Recipient адресат уведомления. Канал выбирается по заполненным контактам.
type Recipient struct {
	Role           RecipientRole `json:"role"`
	Name           string        `json:"name"`
	Email          string        `json:"email,omitempty"`
	TelegramChatID *int64        `json:"telegram_chat_id,omitempty"`
}

// Notification событие по бронированию. Сериализуется в очередь целиком.
type Notification struct {
	Event         Event               `json:"event"`
	BookingID     int64               `json:"booking_id"`
	TeacherName   string              `json:"teacher_name"`
	StudentName   string              `json:"student_name"`
	SubjectText   string              `json:"subject_text"`
	Sessions      []model.Session     `json:"sessions"`
	TotalPrice    int64               `json:"total_price"`
	Currency      string              `json:"currency"`
	Status        model.BookingStatus `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Recipients    []Recipient         `json:"recipients"`
}

// NeedsApproval учителю нужно принять решение по заявке
func (n Notification) NeedsApproval(r Recipient) bool {
	return r.Role == RecipientTeacher && n.Status == model.BookingStatusPending &&
		(n.Event == EventBookingCreated || n.Event == EventPaymentRecorded)
}
