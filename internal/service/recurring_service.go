package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WeeklyWindow интервал внутри дня недели
type WeeklyWindow struct {
	Start model.Clock `json:"start"`
	End   model.Clock `json:"end"`
}

// RecurringInput группа шаблонов: каждый день недели × каждый интервал
type RecurringInput struct {
	Weekdays  []int          // 0 = Sunday, 6 = Saturday
	Windows   []WeeklyWindow
	SubjectID *int64
}

// RecurringService еженедельные шаблоны доступности и генерация слотов по ним
type RecurringService struct {
	tx         Transactor
	store      *AvailabilityStore
	recurring  RecurringRepository
	teachers   TeacherDirectory
	weeksAhead int
	logger     *zap.Logger
}

func NewRecurringService(
	tx Transactor,
	store *AvailabilityStore,
	recurring RecurringRepository,
	teachers TeacherDirectory,
	weeksAhead int,
	logger *zap.Logger,
) *RecurringService {
	if weeksAhead <= 0 {
		weeksAhead = 4
	}
	return &RecurringService{
		tx:         tx,
		store:      store,
		recurring:  recurring,
		teachers:   teachers,
		weeksAhead: weeksAhead,
		logger:     logger,
	}
}

// CreateGroup сохраняет шаблоны под общим group_id и сразу генерирует слоты.
// Даты, занятые другими слотами, пропускаются.
func (s *RecurringService) CreateGroup(ctx context.Context, actor model.Actor, actingAsTeacherID int64, in RecurringInput) (uuid.UUID, int, error) {
	if !actor.CanManageTeacher(actingAsTeacherID) {
		return uuid.Nil, 0, ErrForbidden
	}
	if err := validateRecurring(in); err != nil {
		return uuid.Nil, 0, err
	}

	teacher, err := s.teachers.GetTeacher(ctx, actingAsTeacherID)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return uuid.Nil, 0, fmt.Errorf("teacher %d: %w", actingAsTeacherID, ErrNotFound)
	}
	if in.SubjectID != nil {
		ok, err := s.teachers.TeachesSubject(ctx, actingAsTeacherID, *in.SubjectID)
		if err != nil {
			return uuid.Nil, 0, fmt.Errorf("check teacher subject: %w", err)
		}
		if !ok {
			return uuid.Nil, 0, &InvalidSubjectError{TeacherID: actingAsTeacherID, SubjectID: *in.SubjectID}
		}
	}

	groupID := uuid.New()
	rules := make([]*model.RecurringAvailability, 0, len(in.Weekdays)*len(in.Windows))
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, weekday := range in.Weekdays {
			for _, w := range in.Windows {
				rule := &model.RecurringAvailability{
					GroupID:   groupID,
					TeacherID: actingAsTeacherID,
					SubjectID: in.SubjectID,
					Weekday:   weekday,
					Start:     w.Start,
					End:       w.End,
					IsActive:  true,
				}
				if err := s.recurring.Create(ctx, rule); err != nil {
					return fmt.Errorf("create recurring availability: %w", err)
				}
				rules = append(rules, rule)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, 0, err
	}

	created := 0
	for _, rule := range rules {
		created += s.generate(ctx, rule)
	}

	s.logger.Info("Recurring availability group created",
		zap.String("group_id", groupID.String()),
		zap.Int64("teacher_id", actingAsTeacherID),
		zap.Int("rules", len(rules)),
		zap.Int("slots_created", created),
	)

	return groupID, created, nil
}

// GenerateForAll дополняет календарь по всем активным шаблонам, вызывается планировщиком
func (s *RecurringService) GenerateForAll(ctx context.Context) error {
	rules, err := s.recurring.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("get all active recurring availability: %w", err)
	}

	total := 0
	for _, rule := range rules {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		total += s.generate(ctx, rule)
	}

	s.logger.Info("Generated slots for all recurring availability",
		zap.Int("total_rules", len(rules)),
		zap.Int("total_slots_created", total),
	)
	return nil
}

// DeactivateGroup останавливает генерацию, уже созданные слоты остаются
func (s *RecurringService) DeactivateGroup(ctx context.Context, actor model.Actor, actingAsTeacherID int64, groupID string) error {
	if !actor.CanManageTeacher(actingAsTeacherID) {
		return ErrForbidden
	}
	if _, err := uuid.Parse(groupID); err != nil {
		return validationError("group_id", "must be a valid uuid")
	}

	rules, err := s.recurring.GetByGroupID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("get recurring availability by group_id: %w", err)
	}
	if len(rules) == 0 || rules[0].TeacherID != actingAsTeacherID {
		return fmt.Errorf("recurring group %s: %w", groupID, ErrNotFound)
	}

	if err := s.recurring.DeactivateByGroupID(ctx, groupID); err != nil {
		return fmt.Errorf("deactivate recurring group: %w", err)
	}

	s.logger.Info("Recurring availability group deactivated",
		zap.String("group_id", groupID),
		zap.Int64("teacher_id", actingAsTeacherID),
	)
	return nil
}

// generate создаёт слоты шаблона на weeksAhead недель вперёд начиная с сегодня
func (s *RecurringService) generate(ctx context.Context, rule *model.RecurringAvailability) int {
	today := s.store.Today()
	groupID := rule.GroupID.String()
	now := s.store.now().In(s.store.location)

	count := 0
	for i := 0; i < s.weeksAhead*7; i++ {
		date := today.AddDate(0, 0, i)
		if int(date.Weekday()) != rule.Weekday {
			continue
		}

		r, err := rule.RangeOn(date)
		if err != nil {
			s.logger.Warn("Invalid recurring rule", zap.Int64("recurring_id", rule.ID), zap.Error(err))
			return count
		}
		// Сегодняшний интервал, который уже начался, не создаём
		if r.StartsAt(s.store.location).Before(now) {
			continue
		}

		_, err = s.store.create(ctx, rule.TeacherID, r, rule.SubjectID, &groupID)
		if err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				s.logger.Debug("Recurring slot skipped, time taken",
					zap.Int64("recurring_id", rule.ID),
					zap.Stringer("range", r),
					zap.Int64("conflicting_slot_id", conflict.SlotID),
				)
				continue
			}
			s.logger.Warn("Failed to create recurring slot",
				zap.Int64("recurring_id", rule.ID),
				zap.Stringer("range", r),
				zap.String("error_kind", ErrorKind(err)),
				zap.Error(err),
			)
			continue
		}
		count++
	}
	return count
}

func validateRecurring(in RecurringInput) error {
	verr := &ValidationError{}
	if len(in.Weekdays) == 0 {
		verr.add("weekdays", "at least one weekday is required")
	}
	for _, d := range in.Weekdays {
		if d < int(time.Sunday) || d > int(time.Saturday) {
			verr.add("weekdays", fmt.Sprintf("weekday %d is out of range 0..6", d))
		}
	}
	if len(in.Windows) == 0 {
		verr.add("windows", "at least one time window is required")
	}
	for _, w := range in.Windows {
		if !w.Start.Valid() || !w.End.Valid() || w.Start >= w.End {
			verr.add("windows", fmt.Sprintf("window %s-%s is invalid", w.Start, w.End))
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
