package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_scheduler/internal/formatting"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/notification"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
)

// Messenger методы *bot.Bot, которыми пользуются обработчики
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// BookingDesk операции с заявками, доступные учителю из Telegram
type BookingDesk interface {
	TeacherByChat(ctx context.Context, chatID int64) (*model.Teacher, error)
	ListTeacherBookings(ctx context.Context, actor model.Actor, teacherID int64, status *model.BookingStatus) ([]*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, actor model.Actor, bookingID int64, to model.BookingStatus) (*model.Booking, error)
}

// BotController учитель одобряет и отклоняет заявки прямо из уведомлений
type BotController struct {
	bot    *bot.Bot
	desk   BookingDesk
	logger *zap.Logger
}

func NewBotController(botInstance *bot.Bot, desk BookingDesk, logger *zap.Logger) *BotController {
	return &BotController{bot: botInstance, desk: desk, logger: logger}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, c.HandlePending)

	for _, prefix := range []string{notification.CallbackApprove, notification.CallbackReject, notification.CallbackComplete} {
		c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, prefix, bot.MatchTypePrefix, c.HandleBookingCallback)
	}

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "pending", Description: "⏳ Заявки, ожидающие решения"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота, возвращается после отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

func (c *BotController) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.start(ctx, b, update)
}

func (c *BotController) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.pending(ctx, b, update)
}

func (c *BotController) HandleBookingCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.bookingCallback(ctx, b, update)
}

func (c *BotController) start(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	text := fmt.Sprintf(
		"👋 Привет!\n\n"+
			"ID этого чата: %d\n"+
			"Укажите его в профиле учителя, чтобы получать заявки на занятия.\n\n"+
			"/pending - заявки, ожидающие решения",
		chatID,
	)
	if teacher, err := c.desk.TeacherByChat(ctx, chatID); err == nil {
		text = fmt.Sprintf(
			"👋 Привет, %s!\n\n"+
				"Чат привязан к вашему календарю, новые заявки будут приходить сюда.\n\n"+
				"/pending - заявки, ожидающие решения",
			teacher.Name,
		)
	}

	c.send(ctx, m, chatID, text, nil)
}

func (c *BotController) pending(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	teacher, err := c.desk.TeacherByChat(ctx, chatID)
	if err != nil {
		c.send(ctx, m, chatID, "❌ Этот чат не привязан к учителю. Отправьте /start, чтобы узнать ID чата.", nil)
		return
	}

	status := model.BookingStatusPending
	bookings, err := c.desk.ListTeacherBookings(ctx, teacherActor(teacher), teacher.ID, &status)
	if err != nil {
		c.logger.Error("Failed to list pending bookings", zap.Int64("teacher_id", teacher.ID), zap.Error(err))
		c.send(ctx, m, chatID, "❌ Не удалось загрузить заявки. Попробуйте позже.", nil)
		return
	}
	if len(bookings) == 0 {
		c.send(ctx, m, chatID, "✅ Нет заявок, ожидающих решения.", nil)
		return
	}

	for _, booking := range bookings {
		c.send(ctx, m, chatID, bookingSummary(booking), notification.ApprovalKeyboard(booking.ID))
	}
}

func (c *BotController) bookingCallback(ctx context.Context, m Messenger, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	to, bookingID, err := parseBookingCallback(callback.Data)
	if err != nil {
		c.answer(ctx, m, callback.ID, "❌ Неверный формат", true)
		return
	}

	msg := callback.Message.Message
	if msg == nil {
		c.answer(ctx, m, callback.ID, "❌ Ошибка", false)
		return
	}

	teacher, err := c.desk.TeacherByChat(ctx, msg.Chat.ID)
	if err != nil {
		c.answer(ctx, m, callback.ID, "❌ Чат не привязан к учителю", true)
		return
	}

	booking, err := c.desk.UpdateBookingStatus(ctx, teacherActor(teacher), bookingID, to)
	if err != nil {
		c.logger.Warn("Booking callback failed",
			zap.Int64("booking_id", bookingID),
			zap.String("to", string(to)),
			zap.String("error_kind", service.ErrorKind(err)),
			zap.Error(err),
		)
		c.answer(ctx, m, callback.ID, callbackError(err), true)
		return
	}

	_, err = m.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      bookingSummary(booking),
	})
	if err != nil {
		c.logger.Warn("Failed to edit booking message", zap.Int64("booking_id", bookingID), zap.Error(err))
	}

	c.answer(ctx, m, callback.ID, formatting.GetBookingStatusDisplay(booking.Status).String(), false)
}

func (c *BotController) send(ctx context.Context, m Messenger, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := m.SendMessage(ctx, params); err != nil {
		c.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (c *BotController) answer(ctx context.Context, m Messenger, callbackID, text string, alert bool) {
	if _, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	}); err != nil {
		c.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

func teacherActor(t *model.Teacher) model.Actor {
	return model.Actor{ID: t.ID, Role: model.RoleTeacher}
}

// parseBookingCallback "booking_approve:42" -> approved, 42
func parseBookingCallback(data string) (model.BookingStatus, int64, error) {
	var (
		to  model.BookingStatus
		raw string
	)
	switch {
	case strings.HasPrefix(data, notification.CallbackApprove):
		to, raw = model.BookingStatusApproved, strings.TrimPrefix(data, notification.CallbackApprove)
	case strings.HasPrefix(data, notification.CallbackReject):
		to, raw = model.BookingStatusRejected, strings.TrimPrefix(data, notification.CallbackReject)
	case strings.HasPrefix(data, notification.CallbackComplete):
		to, raw = model.BookingStatusCompleted, strings.TrimPrefix(data, notification.CallbackComplete)
	default:
		return "", 0, fmt.Errorf("unknown callback %q", data)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid booking id in %q", data)
	}
	return to, id, nil
}

func callbackError(err error) string {
	var transition *service.InvalidTransitionError
	switch {
	case errors.As(err, &transition):
		return fmt.Sprintf("⚠️ Заявка уже в статусе: %s", formatting.GetBookingStatusDisplay(transition.From))
	case errors.Is(err, service.ErrNotFound):
		return "❌ Заявка не найдена"
	case errors.Is(err, service.ErrForbidden):
		return "❌ Это не ваша заявка"
	}
	return "❌ Произошла ошибка. Попробуйте позже."
}

func bookingSummary(b *model.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Запись #%d\n", b.ID)
	fmt.Fprintf(&sb, "👤 Ученик: %s\n", b.StudentName)
	if b.StudentPhone != "" {
		fmt.Fprintf(&sb, "📞 %s\n", b.StudentPhone)
	}
	if b.SubjectText != "" {
		fmt.Fprintf(&sb, "📚 Предмет: %s\n", b.SubjectText)
	}
	for _, s := range b.Sessions {
		fmt.Fprintf(&sb, "📅 %s\n", formatting.FormatSession(s))
	}
	fmt.Fprintf(&sb, "Статус: %s", formatting.GetBookingStatusDisplay(b.Status))
	return sb.String()
}
