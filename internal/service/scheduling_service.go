package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/notification"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultAvailabilityWindow = 30 * 24 * time.Hour

// SlotInput интервал и предмет слота от клиента
type SlotInput struct {
	Date      time.Time
	Start     model.Clock
	End       model.Clock
	SubjectID *int64
}

// BookingRequest данные заявки. Для ученика пустые контакты берутся из профиля.
type BookingRequest struct {
	SlotIDs     []int64 `json:"slot_ids" validate:"required,min=1,max=20,dive,gt=0"`
	SubjectID   *int64  `json:"subject_id" validate:"omitempty,gt=0"`
	SubjectText string  `json:"subject_text" validate:"max=200"`
	Name        string  `json:"name" validate:"required,max=200"`
	Email       string  `json:"email" validate:"required_without=Phone,omitempty,email,max=254"`
	Phone       string  `json:"phone" validate:"required_without=Email,max=32"`
}

type SchedulingOptions struct {
	Currency string
	Now      func() time.Time
}

// SchedulingService точка входа для всех операций с календарём и бронированиями
type SchedulingService struct {
	tx        Transactor
	store     *AvailabilityStore
	lifecycle *BookingLifecycle
	bookings  BookingRepository
	teachers  TeacherDirectory
	students  StudentDirectory
	notifier  Notifier
	validate  *validator.Validate
	currency  string
	now       func() time.Time
	logger    *zap.Logger
}

func NewSchedulingService(
	tx Transactor,
	store *AvailabilityStore,
	lifecycle *BookingLifecycle,
	bookings BookingRepository,
	teachers TeacherDirectory,
	students StudentDirectory,
	notifier Notifier,
	opts SchedulingOptions,
	logger *zap.Logger,
) *SchedulingService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SchedulingService{
		tx:        tx,
		store:     store,
		lifecycle: lifecycle,
		bookings:  bookings,
		teachers:  teachers,
		students:  students,
		notifier:  notifier,
		validate:  newValidator(),
		currency:  opts.Currency,
		now:       opts.Now,
		logger:    logger,
	}
}

// ListTeacherAvailability календарь учителя за период. Посторонние видят только свободные слоты.
func (s *SchedulingService) ListTeacherAvailability(ctx context.Context, viewer model.Actor, teacherID int64, from, to time.Time, subjectID *int64) ([]*model.AvailabilitySlot, error) {
	if _, err := s.getTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	if from.IsZero() {
		from = s.store.Today()
	}
	if to.IsZero() {
		to = from.Add(defaultAvailabilityWindow)
	}
	if to.Before(from) {
		return nil, validationError("to", "must not be before from")
	}

	filter := model.SlotFilter{
		TeacherID: teacherID,
		From:      from,
		To:        to,
		SubjectID: subjectID,
	}
	if !viewer.CanManageTeacher(teacherID) {
		available := model.SlotStatusAvailable
		filter.Status = &available
	}

	return s.store.List(ctx, filter)
}

// CreateSlot админ указывает учителя явно через actingAsTeacherID
func (s *SchedulingService) CreateSlot(ctx context.Context, actor model.Actor, actingAsTeacherID int64, in SlotInput) (*model.AvailabilitySlot, error) {
	if !actor.CanManageTeacher(actingAsTeacherID) {
		return nil, s.fail("create slot", ErrForbidden, zap.Int64("teacher_id", actingAsTeacherID), zap.Int64("actor_id", actor.ID))
	}
	if _, err := s.getTeacher(ctx, actingAsTeacherID); err != nil {
		return nil, err
	}

	r, err := slotRange(in)
	if err != nil {
		return nil, err
	}

	slot, err := s.store.Create(ctx, actingAsTeacherID, r, in.SubjectID)
	if err != nil {
		return nil, s.fail("create slot", err, zap.Int64("teacher_id", actingAsTeacherID), zap.Stringer("range", r))
	}
	return slot, nil
}

func (s *SchedulingService) UpdateSlot(ctx context.Context, actor model.Actor, actingAsTeacherID, slotID int64, in SlotInput) (*model.AvailabilitySlot, error) {
	if !actor.CanManageTeacher(actingAsTeacherID) {
		return nil, s.fail("update slot", ErrForbidden, zap.Int64("slot_id", slotID), zap.Int64("actor_id", actor.ID))
	}
	if err := s.ownSlot(ctx, actingAsTeacherID, slotID); err != nil {
		return nil, err
	}

	r, err := slotRange(in)
	if err != nil {
		return nil, err
	}

	slot, err := s.store.Update(ctx, slotID, r, in.SubjectID)
	if err != nil {
		return nil, s.fail("update slot", err, zap.Int64("slot_id", slotID), zap.Stringer("range", r))
	}
	return slot, nil
}

func (s *SchedulingService) DeleteSlot(ctx context.Context, actor model.Actor, actingAsTeacherID, slotID int64) error {
	if !actor.CanManageTeacher(actingAsTeacherID) {
		return s.fail("delete slot", ErrForbidden, zap.Int64("slot_id", slotID), zap.Int64("actor_id", actor.ID))
	}
	if err := s.ownSlot(ctx, actingAsTeacherID, slotID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, slotID); err != nil {
		return s.fail("delete slot", err, zap.Int64("slot_id", slotID))
	}
	return nil
}

// CreateBooking занимает слоты и создаёт заявку в одной транзакции
func (s *SchedulingService) CreateBooking(ctx context.Context, actor model.Actor, teacherID int64, req BookingRequest) (*model.Booking, error) {
	switch actor.Role {
	case model.RoleStudent, model.RoleGuest, model.RoleAdmin:
	default:
		return nil, s.fail("create booking", ErrForbidden, zap.Int64("teacher_id", teacherID), zap.Int64("actor_id", actor.ID))
	}

	var studentID *int64
	if actor.Role == model.RoleStudent {
		student, err := s.students.GetStudent(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("get student: %w", err)
		}
		if student == nil {
			return nil, fmt.Errorf("student %d: %w", actor.ID, ErrNotFound)
		}
		id := student.ID
		studentID = &id
		fillContacts(&req, student)
	}

	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	teacher, err := s.getTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if !teacher.IsActive {
		return nil, fmt.Errorf("teacher %d: %w", teacherID, ErrNotFound)
	}

	subjectText := req.SubjectText
	if req.SubjectID != nil {
		ok, err := s.teachers.TeachesSubject(ctx, teacherID, *req.SubjectID)
		if err != nil {
			return nil, fmt.Errorf("check teacher subject: %w", err)
		}
		if !ok {
			return nil, s.fail("create booking", &InvalidSubjectError{TeacherID: teacherID, SubjectID: *req.SubjectID})
		}
		if subjectText == "" {
			subject, err := s.teachers.GetSubject(ctx, *req.SubjectID)
			if err != nil {
				return nil, fmt.Errorf("get subject: %w", err)
			}
			if subject != nil {
				subjectText = subject.Name
			}
		}
	}

	ids := uniqueIDs(req.SlotIDs)
	now := s.now().UTC()
	booking := &model.Booking{
		TeacherID:     teacherID,
		StudentID:     studentID,
		StudentName:   req.Name,
		StudentPhone:  req.Phone,
		StudentEmail:  req.Email,
		SubjectID:     req.SubjectID,
		SubjectText:   subjectText,
		SlotIDs:       ids,
		PricePerHour:  teacher.PricePerHour,
		TotalPrice:    PriceFor(teacher, len(ids)),
		Status:        model.BookingStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.Create(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		claimed, err := s.store.Claim(ctx, teacherID, ids, booking.ID)
		if err != nil {
			return err
		}
		if booking.SubjectID != nil {
			for _, slot := range claimed {
				if !slot.SubjectMatches(*booking.SubjectID) {
					return validationError("subject_id", fmt.Sprintf("slot %d is reserved for another subject", slot.ID))
				}
			}
		}

		booking.Sessions = BuildSessionSnapshot(claimed)
		if err := s.bookings.AddSessions(ctx, booking.ID, booking.Sessions); err != nil {
			return fmt.Errorf("add booking sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("create booking", err,
			zap.Int64("teacher_id", teacherID),
			zap.Int64s("slot_ids", ids),
		)
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("teacher_id", teacherID),
		zap.Int64s("slot_ids", ids),
		zap.Int64("total_price", booking.TotalPrice),
	)

	s.notify(ctx, notification.EventBookingCreated, booking, teacher)
	return booking, nil
}

// UpdateBookingStatus учитель и админ решают по заявке, ученик может только отменить свою
func (s *SchedulingService) UpdateBookingStatus(ctx context.Context, actor model.Actor, bookingID int64, to model.BookingStatus) (*model.Booking, error) {
	if !to.Valid() {
		return nil, validationError("status", fmt.Sprintf("unknown status %q", to))
	}

	var booking *model.Booking
	var from model.BookingStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if !canChangeStatus(actor, b, to) {
			return ErrForbidden
		}
		from = b.Status
		if err := s.lifecycle.Transition(ctx, b, to); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, s.fail("update booking status", err,
			zap.Int64("booking_id", bookingID),
			zap.String("to", string(to)),
			zap.Int64("actor_id", actor.ID),
		)
	}

	s.logger.Info("Booking status changed",
		zap.Int64("booking_id", bookingID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int64("actor_id", actor.ID),
	)

	s.notify(ctx, notification.EventBookingStatus, booking, nil)
	return booking, nil
}

// DeleteBooking только для админа. Слоты, ещё привязанные к бронированию, освобождаются.
func (s *SchedulingService) DeleteBooking(ctx context.Context, actor model.Actor, bookingID int64) error {
	if !actor.IsAdmin() {
		return s.fail("delete booking", ErrForbidden, zap.Int64("booking_id", bookingID), zap.Int64("actor_id", actor.ID))
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := s.store.ReleaseBooking(ctx, booking.ID, booking.SlotIDs); err != nil {
			return err
		}
		if err := s.bookings.Delete(ctx, booking.ID); err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("delete booking", err, zap.Int64("booking_id", bookingID))
	}

	s.logger.Info("Booking deleted",
		zap.Int64("booking_id", bookingID),
		zap.Int64("actor_id", actor.ID),
	)
	return nil
}

// RecordPayment подтверждение от платёжного провайдера. Повтор того же статуса ничего не меняет.
func (s *SchedulingService) RecordPayment(ctx context.Context, bookingID int64, status model.PaymentStatus, reference string) (*model.Booking, error) {
	if !status.Valid() {
		return nil, validationError("payment_status", fmt.Sprintf("unknown payment status %q", status))
	}

	var (
		booking *model.Booking
		teacher *model.Teacher
		changed bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		booking = b
		if b.PaymentStatus == status {
			return nil
		}
		if !CanChangePayment(b.PaymentStatus, status) {
			return validationError("payment_status", fmt.Sprintf("cannot change from %s to %s", b.PaymentStatus, status))
		}

		teacher, err = s.getTeacher(ctx, b.TeacherID)
		if err != nil {
			return err
		}

		b.PaymentStatus = status
		if reference != "" {
			b.PaymentReference = reference
		}
		changed = true

		if status == model.PaymentStatusPaid && b.Status == model.BookingStatusPending && teacher.AutoApproveBookings {
			return s.lifecycle.Transition(ctx, b, model.BookingStatusApproved)
		}

		b.UpdatedAt = s.now().UTC()
		if err := s.bookings.UpdateStatus(ctx, b); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("record payment", err, zap.Int64("booking_id", bookingID), zap.String("payment_status", string(status)))
	}
	if !changed {
		return booking, nil
	}

	s.logger.Info("Payment recorded",
		zap.Int64("booking_id", bookingID),
		zap.String("payment_status", string(status)),
		zap.String("booking_status", string(booking.Status)),
	)

	s.notify(ctx, notification.EventPaymentRecorded, booking, teacher)
	return booking, nil
}

func (s *SchedulingService) GetBooking(ctx context.Context, actor model.Actor, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
	}
	if !canViewBooking(actor, booking) {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *SchedulingService) ListTeacherBookings(ctx context.Context, actor model.Actor, teacherID int64, status *model.BookingStatus) ([]*model.Booking, error) {
	if !actor.CanManageTeacher(teacherID) {
		return nil, ErrForbidden
	}
	bookings, err := s.bookings.List(ctx, model.BookingFilter{TeacherID: &teacherID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list teacher bookings: %w", err)
	}
	return bookings, nil
}

func (s *SchedulingService) ListStudentBookings(ctx context.Context, actor model.Actor, studentID int64) ([]*model.Booking, error) {
	if !actor.IsAdmin() && !actor.IsStudent(studentID) {
		return nil, ErrForbidden
	}
	bookings, err := s.bookings.List(ctx, model.BookingFilter{StudentID: &studentID})
	if err != nil {
		return nil, fmt.Errorf("list student bookings: %w", err)
	}
	return bookings, nil
}

// TeacherByChat учитель, привязанный к чату Telegram
func (s *SchedulingService) TeacherByChat(ctx context.Context, chatID int64) (*model.Teacher, error) {
	teacher, err := s.teachers.GetTeacherByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get teacher by chat: %w", err)
	}
	if teacher == nil {
		return nil, fmt.Errorf("teacher for chat %d: %w", chatID, ErrNotFound)
	}
	return teacher, nil
}

func (s *SchedulingService) getTeacher(ctx context.Context, teacherID int64) (*model.Teacher, error) {
	teacher, err := s.teachers.GetTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return nil, fmt.Errorf("teacher %d: %w", teacherID, ErrNotFound)
	}
	return teacher, nil
}

// ownSlot чужой слот выглядит для учителя как несуществующий
func (s *SchedulingService) ownSlot(ctx context.Context, teacherID, slotID int64) error {
	slot, err := s.store.Get(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.TeacherID != teacherID {
		return fmt.Errorf("slot %d: %w", slotID, ErrNotFound)
	}
	return nil
}

func (s *SchedulingService) lockBooking(ctx context.Context, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookings.GetForUpdate(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
	}
	return booking, nil
}

// notify вызывается после фиксации транзакции, ошибка доставки не меняет результат операции
func (s *SchedulingService) notify(ctx context.Context, event notification.Event, booking *model.Booking, teacher *model.Teacher) {
	if s.notifier == nil {
		return
	}

	if teacher == nil {
		t, err := s.teachers.GetTeacher(ctx, booking.TeacherID)
		if err != nil || t == nil {
			s.logger.Warn("Skip notification: teacher not loaded",
				zap.Int64("booking_id", booking.ID),
				zap.Error(err),
			)
			return
		}
		teacher = t
	}

	n := notification.Notification{
		Event:         event,
		BookingID:     booking.ID,
		TeacherName:   teacher.Name,
		StudentName:   booking.StudentName,
		SubjectText:   booking.SubjectText,
		Sessions:      booking.Sessions,
		TotalPrice:    booking.TotalPrice,
		Currency:      s.currency,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		Recipients: []notification.Recipient{
			{
				Role:           notification.RecipientTeacher,
				Name:           teacher.Name,
				Email:          teacher.Email,
				TelegramChatID: teacher.TelegramChatID,
			},
			s.studentRecipient(ctx, booking),
		},
	}

	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Error("Failed to dispatch notification",
			zap.String("event", string(event)),
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
	}
}

func (s *SchedulingService) studentRecipient(ctx context.Context, booking *model.Booking) notification.Recipient {
	r := notification.Recipient{
		Role:  notification.RecipientStudent,
		Name:  booking.StudentName,
		Email: booking.StudentEmail,
	}
	if booking.StudentID == nil {
		return r
	}
	student, err := s.students.GetStudent(ctx, *booking.StudentID)
	if err != nil {
		s.logger.Warn("Failed to load student for notification",
			zap.Int64("student_id", *booking.StudentID),
			zap.Error(err),
		)
		return r
	}
	if student != nil {
		r.TelegramChatID = student.TelegramChatID
	}
	return r
}

// fail логирует ошибку операции с меткой вида и возвращает её без изменений
func (s *SchedulingService) fail(op string, err error, fields ...zap.Field) error {
	kind := ErrorKind(err)
	fields = append(fields, zap.String("op", op), zap.String("error_kind", kind), zap.Error(err))
	if kind == "unexpected" {
		s.logger.Error("Operation failed", fields...)
	} else {
		s.logger.Info("Operation rejected", fields...)
	}
	return err
}

func slotRange(in SlotInput) (model.TimeRange, error) {
	r, err := model.NewTimeRange(in.Date, in.Start, in.End)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, model.ErrRangeMissingDay):
		return model.TimeRange{}, validationError("date", err.Error())
	case errors.Is(err, model.ErrInvalidClock), errors.Is(err, model.ErrRangeOutOfDay):
		return model.TimeRange{}, validationError("start", err.Error())
	default:
		return model.TimeRange{}, validationError("end", err.Error())
	}
}

func fillContacts(req *BookingRequest, student *model.Student) {
	if req.Name == "" {
		req.Name = student.Name
	}
	if req.Email == "" {
		req.Email = student.Email
	}
	if req.Phone == "" {
		req.Phone = student.Phone
	}
}

func canChangeStatus(actor model.Actor, b *model.Booking, to model.BookingStatus) bool {
	if actor.CanManageTeacher(b.TeacherID) {
		return true
	}
	if to == model.BookingStatusCancelled && b.StudentID != nil {
		return actor.IsStudent(*b.StudentID)
	}
	return false
}

func canViewBooking(actor model.Actor, b *model.Booking) bool {
	if actor.CanManageTeacher(b.TeacherID) {
		return true
	}
	return b.StudentID != nil && actor.IsStudent(*b.StudentID)
}
