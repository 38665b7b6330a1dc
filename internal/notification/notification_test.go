package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

func sampleNotification() Notification {
	teacherChat := int64(5001)
	slotID := int64(11)
	return Notification{
		Event:       EventBookingCreated,
		BookingID:   42,
		TeacherName: "Alice",
		StudentName: "Bob",
		SubjectText: "Math",
		Sessions: []model.Session{
			{SlotID: &slotID, Date: "2025-06-01", Time: "09:00-10:00"},
		},
		TotalPrice:    20000,
		Currency:      "₽",
		Status:        model.BookingStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Recipients: []Recipient{
			{Role: RecipientTeacher, Name: "Alice", Email: "alice@example.com", TelegramChatID: &teacherChat},
			{Role: RecipientStudent, Name: "Bob", Email: "bob@example.com"},
		},
	}
}

func TestBuildMessage(t *testing.T) {
	n := sampleNotification()

	teacher := BuildMessage(n, n.Recipients[0])
	assert.Equal(t, "Новый запрос на запись (#42)", teacher.Subject)
	assert.True(t, strings.HasPrefix(teacher.Body, "⏳ Новый запрос на запись"))
	assert.Contains(t, teacher.Body, "👤 Ученик: Bob")
	assert.Contains(t, teacher.Body, "01.06.2025 (Вс) 09:00-10:00")
	assert.Contains(t, teacher.Body, "200 ₽")
	assert.Contains(t, teacher.Body, "Требуется ваше одобрение.")

	student := BuildMessage(n, n.Recipients[1])
	assert.Equal(t, "Заявка на занятие отправлена (#42)", student.Subject)
	assert.Contains(t, student.Body, "👨‍🏫 Учитель: Alice")
	assert.NotContains(t, student.Body, "одобрение")

	n.Event = EventPaymentRecorded
	n.PaymentStatus = model.PaymentStatusPaid
	paid := BuildMessage(n, n.Recipients[1])
	assert.Contains(t, paid.Body, "Оплата: 💰 Оплачено")
}

func TestNeedsApproval(t *testing.T) {
	n := sampleNotification()
	assert.True(t, n.NeedsApproval(n.Recipients[0]))
	assert.False(t, n.NeedsApproval(n.Recipients[1]))

	n.Status = model.BookingStatusApproved
	assert.False(t, n.NeedsApproval(n.Recipients[0]))

	n.Status = model.BookingStatusPending
	n.Event = EventBookingStatus
	assert.False(t, n.NeedsApproval(n.Recipients[0]))
}

type fakeSender struct {
	name   string
	accept func(Recipient) bool
	err    error

	mu   sync.Mutex
	sent []Recipient
}

func (s *fakeSender) Name() string             { return s.name }
func (s *fakeSender) Accepts(r Recipient) bool { return s.accept(r) }
func (s *fakeSender) Send(_ context.Context, r Recipient, _ Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, r)
	return s.err
}

func TestRouterDeliver(t *testing.T) {
	tg := &fakeSender{name: "telegram", accept: func(r Recipient) bool { return r.TelegramChatID != nil }}
	mail := &fakeSender{name: "email", accept: func(r Recipient) bool { return r.Email != "" }}
	router := NewRouter(zap.NewNop(), tg, mail)

	require.NoError(t, router.Deliver(context.Background(), sampleNotification()))
	assert.Len(t, tg.sent, 1)
	assert.Equal(t, RecipientTeacher, tg.sent[0].Role)
	assert.Len(t, mail.sent, 2)
}

func TestRouterDeliver_ContinuesAfterFailure(t *testing.T) {
	boom := errors.New("smtp down")
	mail := &fakeSender{name: "email", accept: func(Recipient) bool { return true }, err: boom}
	tg := &fakeSender{name: "telegram", accept: func(r Recipient) bool { return r.TelegramChatID != nil }}
	router := NewRouter(zap.NewNop(), mail, tg)

	err := router.Deliver(context.Background(), sampleNotification())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "email:")
	assert.Len(t, mail.sent, 2)
	assert.Len(t, tg.sent, 1)
}

type fakeBot struct {
	params []*bot.SendMessageParams
	err    error
}

func (b *fakeBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	b.params = append(b.params, params)
	return &models.Message{ID: len(b.params)}, b.err
}

func TestTelegramSender(t *testing.T) {
	fb := &fakeBot{}
	sender := NewTelegramSender(fb)
	n := sampleNotification()

	assert.True(t, sender.Accepts(n.Recipients[0]))
	assert.False(t, sender.Accepts(n.Recipients[1]))

	require.NoError(t, sender.Send(context.Background(), n.Recipients[0], n))
	require.Len(t, fb.params, 1)
	assert.Equal(t, int64(5001), fb.params[0].ChatID)

	keyboard, ok := fb.params[0].ReplyMarkup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 1)
	assert.Equal(t, "booking_approve:42", keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "booking_reject:42", keyboard.InlineKeyboard[0][1].CallbackData)

	n.Status = model.BookingStatusApproved
	require.NoError(t, sender.Send(context.Background(), n.Recipients[0], n))
	assert.Nil(t, fb.params[1].ReplyMarkup)

	fb.err = errors.New("chat not found")
	assert.Error(t, sender.Send(context.Background(), n.Recipients[0], n))
}

type capturedRequest struct {
	method string
	path   string
	auth   string
	body   []byte
}

func newSendgridServer(t *testing.T, status int, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.method = r.Method
			captured.path = r.URL.Path
			captured.auth = r.Header.Get("Authorization")
			captured.body, _ = io.ReadAll(r.Body)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("unauthorized"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmailSender(t *testing.T) {
	var got capturedRequest
	srv := newSendgridServer(t, http.StatusAccepted, &got)

	sender := NewEmailSender("SG.key", "Tutor", "noreply@example.com")
	assert.Equal(t, "https://api.sendgrid.com", sender.host)
	sender.host = srv.URL
	n := sampleNotification()

	assert.False(t, sender.Accepts(Recipient{Name: "nobody"}))
	require.NoError(t, sender.Send(context.Background(), n.Recipients[1], n))

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/v3/mail/send", got.path)
	assert.Equal(t, "Bearer SG.key", got.auth)

	var body struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			To []struct {
				Email string `json:"email"`
			} `json:"to"`
			Subject string `json:"subject"`
		} `json:"personalizations"`
	}
	require.NoError(t, json.Unmarshal(got.body, &body))
	assert.Equal(t, "noreply@example.com", body.From.Email)
	require.Len(t, body.Personalizations, 1)
	assert.Equal(t, "bob@example.com", body.Personalizations[0].To[0].Email)
	assert.Equal(t, "[Tutor] Заявка на занятие отправлена (#42)", body.Personalizations[0].Subject)
}

func TestEmailSender_RejectedByProvider(t *testing.T) {
	srv := newSendgridServer(t, http.StatusUnauthorized, nil)
	sender := NewEmailSender("SG.key", "Tutor", "noreply@example.com")
	sender.host = srv.URL
	n := sampleNotification()

	err := sender.Send(context.Background(), n.Recipients[1], n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestEmailSender_HonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	sender := NewEmailSender("SG.key", "Tutor", "noreply@example.com")
	sender.host = srv.URL
	n := sampleNotification()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := sender.Send(ctx, n.Recipients[1], n)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 5*time.Second)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: queueName}, nil
}

type recordingDeliverer struct {
	mu  sync.Mutex
	got []Notification
	err error
}

func (d *recordingDeliverer) Deliver(_ context.Context, n Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, n)
	return d.err
}

func TestQueueRoundTripThroughWorkerHandler(t *testing.T) {
	enq := &fakeEnqueuer{}
	q := NewQueue(enq, zap.NewNop())
	n := sampleNotification()

	require.NoError(t, q.Notify(context.Background(), n))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeDeliver, enq.tasks[0].Type())

	d := &recordingDeliverer{}
	w := &Worker{deliverer: d, logger: zap.NewNop()}
	require.NoError(t, w.HandleDeliver(context.Background(), enq.tasks[0]))
	require.Len(t, d.got, 1)
	assert.Equal(t, n, d.got[0])
}

func TestQueueNotify_EnqueueError(t *testing.T) {
	q := NewQueue(&fakeEnqueuer{err: errors.New("redis down")}, zap.NewNop())
	err := q.Notify(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "enqueue notification")
}

func TestHandleDeliver_BadPayloadSkipsRetry(t *testing.T) {
	w := &Worker{deliverer: &recordingDeliverer{}, logger: zap.NewNop()}
	err := w.HandleDeliver(context.Background(), asynq.NewTask(TypeDeliver, []byte("{oops")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDirectNotify(t *testing.T) {
	d := &recordingDeliverer{err: errors.New("telegram down")}
	direct := NewDirect(d, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, direct.Notify(ctx, sampleNotification()))
	cancel()
	direct.Wait()

	assert.Len(t, d.got, 1)
}
