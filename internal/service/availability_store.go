package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"go.uber.org/zap"
)

// AvailabilityStore хранит календарь учителя и гарантирует отсутствие двойного бронирования
type AvailabilityStore struct {
	tx       Transactor
	slots    SlotRepository
	teachers TeacherDirectory
	strict   bool
	now      func() time.Time
	location *time.Location
	logger   *zap.Logger
}

type AvailabilityStoreOptions struct {
	// StrictCalendar два разных конкретных предмета в одно время тоже конфликтуют
	StrictCalendar bool
	Now            func() time.Time
	Location       *time.Location
}

func NewAvailabilityStore(
	tx Transactor,
	slots SlotRepository,
	teachers TeacherDirectory,
	opts AvailabilityStoreOptions,
	logger *zap.Logger,
) *AvailabilityStore {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &AvailabilityStore{
		tx:       tx,
		slots:    slots,
		teachers: teachers,
		strict:   opts.StrictCalendar,
		now:      opts.Now,
		location: opts.Location,
		logger:   logger,
	}
}

// Today текущая дата в локации сервиса
func (s *AvailabilityStore) Today() time.Time {
	return model.DateOf(s.now().In(s.location))
}

// Create добавляет свободный слот, если он не пересекается с существующими
func (s *AvailabilityStore) Create(ctx context.Context, teacherID int64, r model.TimeRange, subjectID *int64) (*model.AvailabilitySlot, error) {
	return s.create(ctx, teacherID, r, subjectID, nil)
}

func (s *AvailabilityStore) create(ctx context.Context, teacherID int64, r model.TimeRange, subjectID *int64, groupID *string) (*model.AvailabilitySlot, error) {
	if err := s.validateRange(r); err != nil {
		return nil, err
	}

	slot := &model.AvailabilitySlot{
		TeacherID: teacherID,
		SubjectID: subjectID,
		Range:     r,
		Status:    model.SlotStatusAvailable,
		GroupID:   groupID,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.slots.LockTeacher(ctx, teacherID); err != nil {
			return fmt.Errorf("lock teacher calendar: %w", err)
		}
		if err := s.checkSubject(ctx, teacherID, subjectID); err != nil {
			return err
		}
		if err := s.checkConflicts(ctx, teacherID, r, subjectID, 0); err != nil {
			return err
		}
		if err := s.slots.Create(ctx, slot); err != nil {
			return fmt.Errorf("create slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", teacherID),
		zap.Stringer("range", r),
	)

	return slot, nil
}

// Update меняет интервал и предмет свободного слота
func (s *AvailabilityStore) Update(ctx context.Context, slotID int64, r model.TimeRange, subjectID *int64) (*model.AvailabilitySlot, error) {
	if err := s.validateRange(r); err != nil {
		return nil, err
	}

	var updated *model.AvailabilitySlot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.getSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if err := s.slots.LockTeacher(ctx, slot.TeacherID); err != nil {
			return fmt.Errorf("lock teacher calendar: %w", err)
		}
		if slot.IsBooked() {
			return &SlotBookedError{SlotID: slot.ID, BookingID: slot.BookingID}
		}
		if err := s.checkSubject(ctx, slot.TeacherID, subjectID); err != nil {
			return err
		}
		if err := s.checkConflicts(ctx, slot.TeacherID, r, subjectID, slot.ID); err != nil {
			return err
		}

		slot.Range = r
		slot.SubjectID = subjectID
		affected, err := s.slots.Update(ctx, slot)
		if err != nil {
			return fmt.Errorf("update slot: %w", err)
		}
		if affected == 0 {
			return s.lostSlot(ctx, slot.ID)
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated",
		zap.Int64("slot_id", slotID),
		zap.Int64("teacher_id", updated.TeacherID),
		zap.Stringer("range", r),
	)

	return updated, nil
}

// Delete удаляет свободный слот
func (s *AvailabilityStore) Delete(ctx context.Context, slotID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.getSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.IsBooked() {
			return &SlotBookedError{SlotID: slot.ID, BookingID: slot.BookingID}
		}
		affected, err := s.slots.Delete(ctx, slotID)
		if err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		if affected == 0 {
			return s.lostSlot(ctx, slot.ID)
		}

		s.logger.Info("Slot deleted",
			zap.Int64("slot_id", slotID),
			zap.Int64("teacher_id", slot.TeacherID),
		)
		return nil
	})
}

// Claim атомарно занимает все слоты за бронированием или не занимает ни одного
func (s *AvailabilityStore) Claim(ctx context.Context, teacherID int64, slotIDs []int64, bookingID int64) ([]*model.AvailabilitySlot, error) {
	ids := uniqueIDs(slotIDs)
	if len(ids) == 0 {
		return nil, validationError("slot_ids", "at least one slot is required")
	}

	var claimed []*model.AvailabilitySlot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.slots.FindAvailable(ctx, teacherID, ids)
		if err != nil {
			return fmt.Errorf("find available slots: %w", err)
		}
		if len(found) != len(ids) {
			return &UnavailableError{Requested: ids, Missing: missingIDs(ids, found)}
		}
		if started := s.startedIDs(found); len(started) > 0 {
			return &UnavailableError{Requested: ids, Missing: started}
		}

		affected, err := s.slots.MarkBooked(ctx, teacherID, ids, bookingID)
		if err != nil {
			return fmt.Errorf("mark slots booked: %w", err)
		}
		if affected != int64(len(ids)) {
			// другой запрос занял слот после нашего чтения
			return &UnavailableError{Requested: ids}
		}

		for _, slot := range found {
			slot.Status = model.SlotStatusBooked
			id := bookingID
			slot.BookingID = &id
		}
		claimed = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Release возвращает слоты в свободные. Повторный вызов ничего не меняет.
func (s *AvailabilityStore) Release(ctx context.Context, slotIDs []int64) error {
	return s.release(ctx, slotIDs, nil)
}

// ReleaseBooking освобождает только слоты, всё ещё привязанные к бронированию
func (s *AvailabilityStore) ReleaseBooking(ctx context.Context, bookingID int64, slotIDs []int64) error {
	return s.release(ctx, slotIDs, &bookingID)
}

func (s *AvailabilityStore) release(ctx context.Context, slotIDs []int64, bookingID *int64) error {
	ids := uniqueIDs(slotIDs)
	if len(ids) == 0 {
		return nil
	}
	released, err := s.slots.Release(ctx, ids, bookingID)
	if err != nil {
		return fmt.Errorf("release slots: %w", err)
	}
	s.logger.Debug("Slots released",
		zap.Int64s("slot_ids", ids),
		zap.Int64("released", released),
	)
	return nil
}

// List слоты учителя по фильтру
func (s *AvailabilityStore) List(ctx context.Context, filter model.SlotFilter) ([]*model.AvailabilitySlot, error) {
	slots, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (s *AvailabilityStore) Get(ctx context.Context, slotID int64) (*model.AvailabilitySlot, error) {
	return s.getSlot(ctx, slotID)
}

func (s *AvailabilityStore) getSlot(ctx context.Context, slotID int64) (*model.AvailabilitySlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("slot %d: %w", slotID, ErrNotFound)
	}
	return slot, nil
}

// lostSlot слот изменился между чтением и записью: его удалили или успели забронировать
func (s *AvailabilityStore) lostSlot(ctx context.Context, slotID int64) error {
	current, err := s.getSlot(ctx, slotID)
	if err != nil {
		return err
	}
	return &SlotBookedError{SlotID: slotID, BookingID: current.BookingID}
}

// startedIDs слоты, которые уже начались, бронировать нельзя
func (s *AvailabilityStore) startedIDs(slots []*model.AvailabilitySlot) []int64 {
	now := s.now()
	var started []int64
	for _, slot := range slots {
		if slot.Range.StartsAt(s.location).Before(now) {
			started = append(started, slot.ID)
		}
	}
	return started
}

func (s *AvailabilityStore) validateRange(r model.TimeRange) error {
	if r.Start >= r.End {
		return validationError("end", model.ErrEmptyRange.Error())
	}
	if r.Date.Before(s.Today()) {
		return validationError("date", "cannot create slot in the past")
	}
	return nil
}

func (s *AvailabilityStore) checkSubject(ctx context.Context, teacherID int64, subjectID *int64) error {
	if subjectID == nil {
		return nil
	}
	ok, err := s.teachers.TeachesSubject(ctx, teacherID, *subjectID)
	if err != nil {
		return fmt.Errorf("check teacher subject: %w", err)
	}
	if !ok {
		return &InvalidSubjectError{TeacherID: teacherID, SubjectID: *subjectID}
	}
	return nil
}

// checkConflicts сравнивает интервал со всеми слотами учителя на эту дату,
// включая забронированные
func (s *AvailabilityStore) checkConflicts(ctx context.Context, teacherID int64, r model.TimeRange, subjectID *int64, excludeID int64) error {
	existing, err := s.slots.ListByTeacherDate(ctx, teacherID, r.Date)
	if err != nil {
		return fmt.Errorf("list slots for date: %w", err)
	}

	for _, slot := range existing {
		if slot.ID == excludeID {
			continue
		}
		if !model.SubjectScopesOverlap(slot.SubjectID, subjectID, s.strict) {
			continue
		}
		if slot.Range.Overlaps(r) {
			return &ConflictError{
				SlotID:       slot.ID,
				Range:        slot.Range,
				SubjectID:    slot.SubjectID,
				SubjectLabel: subjectLabel(slot),
			}
		}
	}
	return nil
}

func subjectLabel(slot *model.AvailabilitySlot) string {
	if slot.SubjectID == nil {
		return "general"
	}
	if slot.SubjectName != "" {
		return slot.SubjectName
	}
	return fmt.Sprintf("subject #%d", *slot.SubjectID)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(requested []int64, found []*model.AvailabilitySlot) []int64 {
	present := make(map[int64]struct{}, len(found))
	for _, slot := range found {
		present[slot.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
