package formatting

import "github.com/Freeeeeet/tutor_scheduler/internal/model"

// StatusDisplay emoji и текст статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

func (d StatusDisplay) String() string {
	return d.Emoji + " " + d.Text
}

// GetSlotStatusDisplay возвращает emoji и текст для статуса слота
func GetSlotStatusDisplay(status model.SlotStatus) StatusDisplay {
	displays := map[model.SlotStatus]StatusDisplay{
		model.SlotStatusAvailable: {"🟢", "Свободен"},
		model.SlotStatusBooked:    {"🔴", "Занят"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// GetBookingStatusDisplay возвращает emoji и текст для статуса бронирования
func GetBookingStatusDisplay(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusPending:   {"⏳", "Ожидает одобрения"},
		model.BookingStatusApproved:  {"✅", "Подтверждена"},
		model.BookingStatusCompleted: {"✔️", "Завершена"},
		model.BookingStatusCancelled: {"❌", "Отменена"},
		model.BookingStatusRejected:  {"🚫", "Отклонена"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// GetPaymentStatusDisplay возвращает emoji и текст для статуса оплаты
func GetPaymentStatusDisplay(status model.PaymentStatus) StatusDisplay {
	displays := map[model.PaymentStatus]StatusDisplay{
		model.PaymentStatusPending:  {"💳", "Ожидает оплаты"},
		model.PaymentStatusPaid:     {"💰", "Оплачено"},
		model.PaymentStatusRefunded: {"↩️", "Возвращено"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}
