package controller

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
)

type fakeMessenger struct {
	sent    []*bot.SendMessageParams
	edited  []*bot.EditMessageTextParams
	answers []*bot.AnswerCallbackQueryParams
}

func (m *fakeMessenger) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	m.sent = append(m.sent, p)
	return &models.Message{}, nil
}

func (m *fakeMessenger) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	m.edited = append(m.edited, p)
	return &models.Message{}, nil
}

func (m *fakeMessenger) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	m.answers = append(m.answers, p)
	return true, nil
}

type fakeDesk struct {
	teacher  *model.Teacher
	bookings map[int64]*model.Booking
	actor    model.Actor
}

func (d *fakeDesk) TeacherByChat(_ context.Context, chatID int64) (*model.Teacher, error) {
	if d.teacher == nil || d.teacher.TelegramChatID == nil || *d.teacher.TelegramChatID != chatID {
		return nil, service.ErrNotFound
	}
	return d.teacher, nil
}

func (d *fakeDesk) ListTeacherBookings(_ context.Context, _ model.Actor, teacherID int64, status *model.BookingStatus) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range d.bookings {
		if b.TeacherID == teacherID && (status == nil || b.Status == *status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (d *fakeDesk) UpdateBookingStatus(_ context.Context, actor model.Actor, id int64, to model.BookingStatus) (*model.Booking, error) {
	d.actor = actor
	b, ok := d.bookings[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	if !service.CanTransition(b.Status, to) {
		return nil, &service.InvalidTransitionError{BookingID: id, From: b.Status, To: to}
	}
	b.Status = to
	return b, nil
}

const teacherChat = int64(5001)

func newDesk() *fakeDesk {
	chat := teacherChat
	return &fakeDesk{
		teacher: &model.Teacher{ID: 1, Name: "Alice", TelegramChatID: &chat},
		bookings: map[int64]*model.Booking{
			42: {ID: 42, TeacherID: 1, StudentName: "Bob", Status: model.BookingStatusPending,
				Sessions: []model.Session{{Date: "2025-06-01", Time: "09:00-10:00"}}},
		},
	}
}

func messageUpdate(chatID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{Chat: models.Chat{ID: chatID}, Text: text}}
}

func callbackUpdate(chatID int64, data string) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb1",
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 77, Chat: models.Chat{ID: chatID}},
		},
	}}
}

func TestStart_ShowsChatIDForUnlinkedChat(t *testing.T) {
	c := NewBotController(nil, newDesk(), zap.NewNop())
	m := &fakeMessenger{}

	c.start(context.Background(), m, messageUpdate(123, "/start"))
	require.Len(t, m.sent, 1)
	assert.Contains(t, m.sent[0].Text, "ID этого чата: 123")

	c.start(context.Background(), m, messageUpdate(teacherChat, "/start"))
	assert.Contains(t, m.sent[1].Text, "Привет, Alice")
}

func TestPending_ListsWithKeyboard(t *testing.T) {
	c := NewBotController(nil, newDesk(), zap.NewNop())
	m := &fakeMessenger{}

	c.pending(context.Background(), m, messageUpdate(teacherChat, "/pending"))
	require.Len(t, m.sent, 1)
	assert.Contains(t, m.sent[0].Text, "Запись #42")
	assert.Contains(t, m.sent[0].Text, "01.06.2025 (Вс) 09:00-10:00")
	keyboard, ok := m.sent[0].ReplyMarkup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "booking_approve:42", keyboard.InlineKeyboard[0][0].CallbackData)

	c.pending(context.Background(), m, messageUpdate(999, "/pending"))
	assert.Contains(t, m.sent[1].Text, "не привязан")
}

func TestBookingCallback_Approve(t *testing.T) {
	desk := newDesk()
	c := NewBotController(nil, desk, zap.NewNop())
	m := &fakeMessenger{}

	c.bookingCallback(context.Background(), m, callbackUpdate(teacherChat, "booking_approve:42"))

	assert.Equal(t, model.BookingStatusApproved, desk.bookings[42].Status)
	assert.Equal(t, model.Actor{ID: 1, Role: model.RoleTeacher}, desk.actor)
	require.Len(t, m.edited, 1)
	assert.Equal(t, 77, m.edited[0].MessageID)
	assert.Contains(t, m.edited[0].Text, "Подтверждена")
	require.Len(t, m.answers, 1)
	assert.False(t, m.answers[0].ShowAlert)
}

func TestBookingCallback_Errors(t *testing.T) {
	desk := newDesk()
	desk.bookings[42].Status = model.BookingStatusCancelled
	c := NewBotController(nil, desk, zap.NewNop())
	m := &fakeMessenger{}

	c.bookingCallback(context.Background(), m, callbackUpdate(teacherChat, "booking_reject:42"))
	require.Len(t, m.answers, 1)
	assert.True(t, m.answers[0].ShowAlert)
	assert.Contains(t, m.answers[0].Text, "Отменена")

	c.bookingCallback(context.Background(), m, callbackUpdate(teacherChat, "booking_reject:nope"))
	assert.Equal(t, "❌ Неверный формат", m.answers[1].Text)

	c.bookingCallback(context.Background(), m, callbackUpdate(teacherChat, "booking_complete:7"))
	assert.Equal(t, "❌ Заявка не найдена", m.answers[2].Text)

	c.bookingCallback(context.Background(), m, callbackUpdate(1, "booking_approve:42"))
	assert.Equal(t, "❌ Чат не привязан к учителю", m.answers[3].Text)
	assert.Empty(t, m.edited)
}

func TestParseBookingCallback(t *testing.T) {
	to, id, err := parseBookingCallback("booking_complete:15")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, to)
	assert.Equal(t, int64(15), id)

	_, _, err = parseBookingCallback("edit_subject:15")
	assert.Error(t, err)
	_, _, err = parseBookingCallback("booking_approve:-1")
	assert.Error(t, err)
}
