package model

import "time"

// Teacher внешняя сущность учителя, из неё ядру нужны ставка и предметы
type Teacher struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	TelegramChatID      *int64    `json:"telegram_chat_id"`
	PricePerHour        int64     `json:"price_per_hour"` // в минимальных единицах валюты
	IsActive            bool      `json:"is_active"`
	AutoApproveBookings bool      `json:"auto_approve_bookings"` // Автоматически одобрять оплаченные записи
	CreatedAt           time.Time `json:"created_at"`
}

// Student владелец аккаунта ученика
type Student struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	TelegramChatID *int64    `json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
}
