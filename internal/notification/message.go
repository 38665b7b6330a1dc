package notification

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/formatting"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// Message текст уведомления, общий для всех каналов
type Message struct {
	Subject string
	Body    string
}

func headline(n Notification, r Recipient) (emoji, text string) {
	switch n.Event {
	case EventBookingCreated:
		if r.Role != RecipientTeacher {
			return "📝", "Заявка на занятие отправлена"
		}
		if n.Status == model.BookingStatusPending {
			return "⏳", "Новый запрос на запись"
		}
		return "✅", "Новая запись"
	case EventBookingStatus:
		return "🔔", "Статус записи изменён"
	case EventPaymentRecorded:
		return "💳", "Оплата по записи"
	}
	return "🔔", "Уведомление"
}

// BuildMessage собирает текст под событие и роль получателя
func BuildMessage(n Notification, r Recipient) Message {
	emoji, title := headline(n, r)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n\n", emoji, title)
	fmt.Fprintf(&sb, "Запись #%d\n", n.BookingID)
	if r.Role == RecipientTeacher {
		fmt.Fprintf(&sb, "👤 Ученик: %s\n", n.StudentName)
	} else {
		fmt.Fprintf(&sb, "👨‍🏫 Учитель: %s\n", n.TeacherName)
	}
	if n.SubjectText != "" {
		fmt.Fprintf(&sb, "📚 Предмет: %s\n", n.SubjectText)
	}
	if len(n.Sessions) > 0 {
		sb.WriteString("📅 Занятия:\n")
		for _, s := range n.Sessions {
			fmt.Fprintf(&sb, "  • %s\n", formatting.FormatSession(s))
		}
	}
	fmt.Fprintf(&sb, "💰 Стоимость: %s\n", formatting.FormatPrice(n.TotalPrice, n.Currency))
	fmt.Fprintf(&sb, "Статус: %s\n", formatting.GetBookingStatusDisplay(n.Status))
	if n.Event == EventPaymentRecorded {
		fmt.Fprintf(&sb, "Оплата: %s\n", formatting.GetPaymentStatusDisplay(n.PaymentStatus))
	}
	if n.NeedsApproval(r) {
		sb.WriteString("\nТребуется ваше одобрение.")
	}

	return Message{
		Subject: fmt.Sprintf("%s (#%d)", title, n.BookingID),
		Body:    strings.TrimRight(sb.String(), "\n"),
	}
}
