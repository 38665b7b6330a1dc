package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/notification"
)

// Transactor выполняет fn в одной транзакции. Вложенный вызов присоединяется к внешней.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type SlotRepository interface {
	Create(ctx context.Context, slot *model.AvailabilitySlot) error
	// Update меняет интервал и предмет только у свободного слота, возвращает число строк
	Update(ctx context.Context, slot *model.AvailabilitySlot) (int64, error)
	// Delete удаляет только свободный слот, возвращает число строк
	Delete(ctx context.Context, id int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.AvailabilitySlot, error)
	ListByTeacherDate(ctx context.Context, teacherID int64, date time.Time) ([]*model.AvailabilitySlot, error)
	List(ctx context.Context, filter model.SlotFilter) ([]*model.AvailabilitySlot, error)
	// FindAvailable свободные слоты учителя среди ids
	FindAvailable(ctx context.Context, teacherID int64, ids []int64) ([]*model.AvailabilitySlot, error)
	// MarkBooked помечает свободные слоты учителя занятыми, возвращает число строк
	MarkBooked(ctx context.Context, teacherID int64, ids []int64, bookingID int64) (int64, error)
	// Release освобождает слоты; bookingID ограничивает слотами этого бронирования
	Release(ctx context.Context, ids []int64, bookingID *int64) (int64, error)
	// LockTeacher сериализует изменения календаря учителя до конца транзакции
	LockTeacher(ctx context.Context, teacherID int64) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	AddSessions(ctx context.Context, bookingID int64, sessions []model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	// GetForUpdate блокирует строку бронирования до конца транзакции
	GetForUpdate(ctx context.Context, id int64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, booking *model.Booking) error
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	Delete(ctx context.Context, id int64) error
}

type TeacherDirectory interface {
	GetTeacher(ctx context.Context, id int64) (*model.Teacher, error)
	GetTeacherByTelegramChatID(ctx context.Context, chatID int64) (*model.Teacher, error)
	TeachesSubject(ctx context.Context, teacherID, subjectID int64) (bool, error)
	GetSubject(ctx context.Context, id int64) (*model.Subject, error)
}

type StudentDirectory interface {
	GetStudent(ctx context.Context, id int64) (*model.Student, error)
}

type RecurringRepository interface {
	Create(ctx context.Context, rule *model.RecurringAvailability) error
	GetByGroupID(ctx context.Context, groupID string) ([]*model.RecurringAvailability, error)
	GetAllActive(ctx context.Context) ([]*model.RecurringAvailability, error)
	DeactivateByGroupID(ctx context.Context, groupID string) error
}

// Notifier доставка уведомлений, ошибки не влияют на бронирование
type Notifier interface {
	Notify(ctx context.Context, n notification.Notification) error
}
