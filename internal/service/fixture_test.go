package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/notification"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/memory"
)

var (
	fixedNow = time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC)
	june1    = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notification.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Event, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Event)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	dir       *memory.Directory
	avail     *AvailabilityStore
	svc       *SchedulingService
	recurring *RecurringService
	notifier  *recordingNotifier
	now       time.Time

	teacher *model.Teacher
	student *model.Student
	math    *model.Subject
	physics *model.Subject
	chem    *model.Subject

	teacherActor model.Actor
	studentActor model.Actor
	admin        model.Actor
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	strict   bool
	bookings BookingRepository
	slots    SlotRepository
}

func relaxedCalendar() fixtureOption {
	return func(c *fixtureConfig) { c.strict = false }
}

func withSlots(wrap func(SlotRepository) SlotRepository) fixtureOption {
	return func(c *fixtureConfig) { c.slots = wrap(c.slots) }
}

func withBookings(wrap func(BookingRepository) BookingRepository) fixtureOption {
	return func(c *fixtureConfig) { c.bookings = wrap(c.bookings) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	store := memory.NewStore()
	dir := store.Directory()
	logger := zap.NewNop()

	f := &fixture{store: store, dir: dir, notifier: &recordingNotifier{}, now: fixedNow}
	now := func() time.Time { return f.now }

	cfg := &fixtureConfig{strict: true, bookings: store.Bookings(), slots: store.Slots()}
	for _, opt := range opts {
		opt(cfg)
	}

	f.math = dir.AddSubject("Math")
	f.physics = dir.AddSubject("Physics")
	f.chem = dir.AddSubject("Chemistry")
	chat := int64(5001)
	f.teacher = dir.AddTeacher(&model.Teacher{
		Name:           "Alice",
		Email:          "alice@example.com",
		TelegramChatID: &chat,
		PricePerHour:   100,
		IsActive:       true,
	})
	dir.AssignSubject(f.teacher.ID, f.math.ID, true)
	dir.AssignSubject(f.teacher.ID, f.physics.ID, true)
	dir.AssignSubject(f.teacher.ID, f.chem.ID, false)
	f.student = dir.AddStudent(&model.Student{Name: "Bob", Email: "bob@example.com", Phone: "+10000000"})

	f.teacherActor = model.Actor{ID: f.teacher.ID, Role: model.RoleTeacher}
	f.studentActor = model.Actor{ID: f.student.ID, Role: model.RoleStudent}
	f.admin = model.Actor{ID: 999, Role: model.RoleAdmin}

	f.avail = NewAvailabilityStore(store, cfg.slots, dir, AvailabilityStoreOptions{
		StrictCalendar: cfg.strict,
		Now:            now,
	}, logger)
	lifecycle := NewBookingLifecycle(f.avail, cfg.bookings, now)
	f.svc = NewSchedulingService(store, f.avail, lifecycle, cfg.bookings, dir, dir, f.notifier,
		SchedulingOptions{Currency: "₽", Now: now}, logger)
	f.recurring = NewRecurringService(store, f.avail, store.Recurring(), dir, 2, logger)

	return f
}

func rng(t *testing.T, date time.Time, start, end string) model.TimeRange {
	t.Helper()
	r, err := model.NewTimeRange(date, model.MustClock(start), model.MustClock(end))
	require.NoError(t, err)
	return r
}

func slotInput(date time.Time, start, end string, subjectID *int64) SlotInput {
	return SlotInput{Date: date, Start: model.MustClock(start), End: model.MustClock(end), SubjectID: subjectID}
}

func (f *fixture) createSlot(t *testing.T, start, end string, subjectID *int64) *model.AvailabilitySlot {
	t.Helper()
	slot, err := f.svc.CreateSlot(context.Background(), f.teacherActor, f.teacher.ID, slotInput(june1, start, end, subjectID))
	require.NoError(t, err)
	return slot
}

func (f *fixture) slot(t *testing.T, id int64) *model.AvailabilitySlot {
	t.Helper()
	slot, err := f.store.Slots().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, slot)
	return slot
}

func (f *fixture) book(t *testing.T, ids ...int64) *model.Booking {
	t.Helper()
	booking, err := f.svc.CreateBooking(context.Background(), f.studentActor, f.teacher.ID, BookingRequest{SlotIDs: ids})
	require.NoError(t, err)
	return booking
}

func ptr[T any](v T) *T { return &v }

// failingBookings ломает запись занятий, чтобы проверить откат заявки
type failingBookings struct {
	BookingRepository
}

var errSessionsDown = errors.New("sessions storage down")

func (failingBookings) AddSessions(context.Context, int64, []model.Session) error {
	return errSessionsDown
}

// vanishingSlots удаляет слот прямо перед записью, как параллельный запрос
type vanishingSlots struct {
	SlotRepository
}

func (r vanishingSlots) Update(ctx context.Context, slot *model.AvailabilitySlot) (int64, error) {
	if _, err := r.SlotRepository.Delete(ctx, slot.ID); err != nil {
		return 0, err
	}
	return 0, nil
}

func (r vanishingSlots) Delete(ctx context.Context, id int64) (int64, error) {
	if _, err := r.SlotRepository.Delete(ctx, id); err != nil {
		return 0, err
	}
	return 0, nil
}
