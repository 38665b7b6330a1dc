package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const slotColumns = `
	a.id, a.teacher_id, a.subject_id, a.slot_date, a.start_minute, a.end_minute,
	a.status, a.booking_id, a.group_id::text, a.created_at, a.updated_at,
	COALESCE(s.name, '')
`

const slotFrom = `
	FROM availability_slots a
	LEFT JOIN subjects s ON s.id = a.subject_id
`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(db *base.Repository) *SlotRepository {
	return &SlotRepository{Repository: db}
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	query := `
		INSERT INTO availability_slots (teacher_id, subject_id, slot_date, start_minute, end_minute, status, booking_id, group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::uuid)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.TeacherID,
		slot.SubjectID,
		slot.Range.Date,
		int(slot.Range.Start),
		int(slot.Range.End),
		slot.Status,
		slot.BookingID,
		slot.GroupID,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// Update меняет интервал и предмет, только пока слот свободен
func (r *SlotRepository) Update(ctx context.Context, slot *model.AvailabilitySlot) (int64, error) {
	query := `
		UPDATE availability_slots
		SET slot_date = $1, start_minute = $2, end_minute = $3, subject_id = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'available'
	`

	affected, err := r.ExecAffected(ctx, query,
		slot.Range.Date,
		int(slot.Range.Start),
		int(slot.Range.End),
		slot.SubjectID,
		slot.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update slot: %w", err)
	}

	return affected, nil
}

// Delete удаляет свободный слот
func (r *SlotRepository) Delete(ctx context.Context, id int64) (int64, error) {
	query := `DELETE FROM availability_slots WHERE id = $1 AND status = 'available'`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete slot: %w", err)
	}

	return affected, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.AvailabilitySlot, error) {
	query := `SELECT ` + slotColumns + slotFrom + ` WHERE a.id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// ListByTeacherDate все слоты учителя на дату, в любом статусе
func (r *SlotRepository) ListByTeacherDate(ctx context.Context, teacherID int64, date time.Time) ([]*model.AvailabilitySlot, error) {
	query := `SELECT ` + slotColumns + slotFrom + `
		WHERE a.teacher_id = $1 AND a.slot_date = $2
		ORDER BY a.start_minute
	`

	return r.querySlots(ctx, query, teacherID, model.DateOf(date))
}

// List слоты учителя по фильтру. Общий слот попадает под любой предмет.
func (r *SlotRepository) List(ctx context.Context, filter model.SlotFilter) ([]*model.AvailabilitySlot, error) {
	conds := []string{"a.teacher_id = $1"}
	args := []any{filter.TeacherID}

	if !filter.From.IsZero() {
		args = append(args, model.DateOf(filter.From))
		conds = append(conds, fmt.Sprintf("a.slot_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, model.DateOf(filter.To))
		conds = append(conds, fmt.Sprintf("a.slot_date <= $%d", len(args)))
	}
	if filter.SubjectID != nil {
		args = append(args, *filter.SubjectID)
		conds = append(conds, fmt.Sprintf("(a.subject_id IS NULL OR a.subject_id = $%d)", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("a.status = $%d", len(args)))
	}

	query := `SELECT ` + slotColumns + slotFrom +
		` WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY a.slot_date, a.start_minute, a.id`

	return r.querySlots(ctx, query, args...)
}

// FindAvailable свободные слоты учителя среди ids, строки блокируются до конца транзакции
func (r *SlotRepository) FindAvailable(ctx context.Context, teacherID int64, ids []int64) ([]*model.AvailabilitySlot, error) {
	query := `SELECT ` + slotColumns + slotFrom + `
		WHERE a.teacher_id = $1 AND a.id = ANY($2) AND a.status = 'available'
		ORDER BY a.slot_date, a.start_minute
		FOR UPDATE OF a
	`

	return r.querySlots(ctx, query, teacherID, ids)
}

// MarkBooked занимает свободные слоты за бронированием
func (r *SlotRepository) MarkBooked(ctx context.Context, teacherID int64, ids []int64, bookingID int64) (int64, error) {
	query := `
		UPDATE availability_slots
		SET status = 'booked', booking_id = $3, updated_at = NOW()
		WHERE teacher_id = $1 AND id = ANY($2) AND status = 'available'
	`

	affected, err := r.ExecAffected(ctx, query, teacherID, ids, bookingID)
	if err != nil {
		return 0, fmt.Errorf("mark slots booked: %w", err)
	}

	return affected, nil
}

// Release освобождает занятые слоты. С bookingID трогает только слоты этого бронирования.
func (r *SlotRepository) Release(ctx context.Context, ids []int64, bookingID *int64) (int64, error) {
	query := `
		UPDATE availability_slots
		SET status = 'available', booking_id = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND status = 'booked'
		  AND ($2::bigint IS NULL OR booking_id = $2)
	`

	affected, err := r.ExecAffected(ctx, query, ids, bookingID)
	if err != nil {
		return 0, fmt.Errorf("release slots: %w", err)
	}

	return affected, nil
}

// LockTeacher advisory-блокировка календаря учителя до конца транзакции
func (r *SlotRepository) LockTeacher(ctx context.Context, teacherID int64) error {
	if _, err := r.Conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, teacherID); err != nil {
		return fmt.Errorf("lock teacher %d: %w", teacherID, err)
	}
	return nil
}

func (r *SlotRepository) querySlots(ctx context.Context, query string, args ...any) ([]*model.AvailabilitySlot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.AvailabilitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

func scanSlot(row pgx.Row) (*model.AvailabilitySlot, error) {
	var (
		slot       model.AvailabilitySlot
		date       time.Time
		start, end int
	)
	err := row.Scan(
		&slot.ID,
		&slot.TeacherID,
		&slot.SubjectID,
		&date,
		&start,
		&end,
		&slot.Status,
		&slot.BookingID,
		&slot.GroupID,
		&slot.CreatedAt,
		&slot.UpdatedAt,
		&slot.SubjectName,
	)
	if err != nil {
		return nil, err
	}

	slot.Range = model.TimeRange{
		Date:  model.DateOf(date),
		Start: model.Clock(start),
		End:   model.Clock(end),
	}
	return &slot, nil
}
