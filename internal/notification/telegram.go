package notification

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Callback-префиксы кнопок решения по заявке, их разбирает бот-контроллер
const (
	CallbackApprove  = "booking_approve:"
	CallbackReject   = "booking_reject:"
	CallbackComplete = "booking_complete:"
)

// MessageSender часть *bot.Bot, нужная для отправки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type TelegramSender struct {
	bot MessageSender
}

func NewTelegramSender(b MessageSender) *TelegramSender {
	return &TelegramSender{bot: b}
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Accepts(r Recipient) bool {
	return r.TelegramChatID != nil
}

func (s *TelegramSender) Send(ctx context.Context, r Recipient, n Notification) error {
	msg := BuildMessage(n, r)
	params := &bot.SendMessageParams{
		ChatID: *r.TelegramChatID,
		Text:   msg.Body,
	}
	if n.NeedsApproval(r) {
		params.ReplyMarkup = ApprovalKeyboard(n.BookingID)
	}

	if _, err := s.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// ApprovalKeyboard кнопки одобрения и отклонения заявки
func ApprovalKeyboard(bookingID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Одобрить", CallbackData: fmt.Sprintf("%s%d", CallbackApprove, bookingID)},
				{Text: "❌ Отклонить", CallbackData: fmt.Sprintf("%s%d", CallbackReject, bookingID)},
			},
		},
	}
}
