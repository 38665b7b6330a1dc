// Package memory хранилище в памяти с теми же гарантиями, что и Postgres-репозитории:
// транзакции сериализуются и откатываются целиком.
package memory

import (
	"context"
	"sync"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

type txKey struct{}

type teacherSubject struct {
	teacherID int64
	subjectID int64
}

type state struct {
	slots           map[int64]*model.AvailabilitySlot
	bookings        map[int64]*model.Booking
	rules           map[int64]*model.RecurringAvailability
	teachers        map[int64]*model.Teacher
	students        map[int64]*model.Student
	subjects        map[int64]*model.Subject
	teacherSubjects map[teacherSubject]bool

	nextSlotID    int64
	nextBookingID int64
	nextRuleID    int64
	nextUserID    int64
	nextSubjectID int64
}

func newState() *state {
	return &state{
		slots:           make(map[int64]*model.AvailabilitySlot),
		bookings:        make(map[int64]*model.Booking),
		rules:           make(map[int64]*model.RecurringAvailability),
		teachers:        make(map[int64]*model.Teacher),
		students:        make(map[int64]*model.Student),
		subjects:        make(map[int64]*model.Subject),
		teacherSubjects: make(map[teacherSubject]bool),
	}
}

func (s *state) clone() *state {
	c := *s
	c.slots = make(map[int64]*model.AvailabilitySlot, len(s.slots))
	for id, v := range s.slots {
		c.slots[id] = v.Clone()
	}
	c.bookings = make(map[int64]*model.Booking, len(s.bookings))
	for id, v := range s.bookings {
		c.bookings[id] = v.Clone()
	}
	c.rules = make(map[int64]*model.RecurringAvailability, len(s.rules))
	for id, v := range s.rules {
		r := *v
		c.rules[id] = &r
	}
	c.teachers = make(map[int64]*model.Teacher, len(s.teachers))
	for id, v := range s.teachers {
		t := *v
		c.teachers[id] = &t
	}
	c.students = make(map[int64]*model.Student, len(s.students))
	for id, v := range s.students {
		st := *v
		c.students[id] = &st
	}
	c.subjects = make(map[int64]*model.Subject, len(s.subjects))
	for id, v := range s.subjects {
		sub := *v
		c.subjects[id] = &sub
	}
	c.teacherSubjects = make(map[teacherSubject]bool, len(s.teacherSubjects))
	for k, v := range s.teacherSubjects {
		c.teacherSubjects[k] = v
	}
	return &c
}

// Store общее состояние всех репозиториев в памяти
type Store struct {
	mu   sync.Mutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

// WithinTx держит блокировку хранилища на всё время fn. При ошибке состояние
// возвращается к снимку, сделанному до начала.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*Store)
	return ok
}

// run выполняет операцию вне транзакции под блокировкой, внутри транзакции как есть
func (s *Store) run(ctx context.Context, fn func(d *state) error) error {
	if inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Slots() *SlotRepository {
	return &SlotRepository{store: s}
}

func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

func (s *Store) Recurring() *RecurringRepository {
	return &RecurringRepository{store: s}
}

func (s *Store) Directory() *Directory {
	return &Directory{store: s}
}
