package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `
	id, teacher_id, student_id, student_name, student_phone, student_email,
	subject_id, subject_text, price_per_hour, total_price, status, payment_status,
	payment_reference, approved_at, rejected_at, cancelled_at, completed_at,
	created_at, updated_at
`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(db *base.Repository) *BookingRepository {
	return &BookingRepository{Repository: db}
}

// Create создаёт новое бронирование без занятий
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			teacher_id, student_id, student_name, student_phone, student_email,
			subject_id, subject_text, price_per_hour, total_price, status, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.TeacherID,
		booking.StudentID,
		booking.StudentName,
		booking.StudentPhone,
		booking.StudentEmail,
		booking.SubjectID,
		booking.SubjectText,
		booking.PricePerHour,
		booking.TotalPrice,
		booking.Status,
		booking.PaymentStatus,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// AddSessions сохраняет снимок занятий в порядке следования
func (r *BookingRepository) AddSessions(ctx context.Context, bookingID int64, sessions []model.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	_, err := r.Conn(ctx).CopyFrom(
		ctx,
		pgx.Identifier{"booking_sessions"},
		[]string{"booking_id", "slot_id", "session_date", "session_time", "position"},
		pgx.CopyFromSlice(len(sessions), func(i int) ([]any, error) {
			s := sessions[i]
			return []any{bookingID, s.SlotID, s.Date, s.Time, i}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("add booking sessions: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID вместе с занятиями
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

// GetForUpdate то же, что GetByID, но блокирует строку до конца транзакции
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*model.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

// UpdateStatus сохраняет статус, оплату и метки времени
func (r *BookingRepository) UpdateStatus(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, payment_status = $2, payment_reference = $3,
		    approved_at = $4, rejected_at = $5, cancelled_at = $6, completed_at = $7,
		    updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentReference,
		booking.ApprovedAt,
		booking.RejectedAt,
		booking.CancelledAt,
		booking.CompletedAt,
		booking.ID,
	).Scan(&booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("booking %d not found", booking.ID)
		}
		return fmt.Errorf("update booking status: %w", err)
	}

	return nil
}

// List бронирования по фильтру, новые первыми
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var (
		conds []string
		args  []any
	)
	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		conds = append(conds, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conds = append(conds, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	if err := r.attachSessions(ctx, bookings...); err != nil {
		return nil, err
	}

	return bookings, nil
}

// Delete удаляет бронирование, занятия удаляются каскадом
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM bookings WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("booking %d not found", id)
	}

	return nil
}

func (r *BookingRepository) getOne(ctx context.Context, query string, id int64) (*model.Booking, error) {
	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	if err := r.attachSessions(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// attachSessions одним запросом подгружает занятия и связанные слоты
func (r *BookingRepository) attachSessions(ctx context.Context, bookings ...*model.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Booking, len(bookings))
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
		ids = append(ids, b.ID)
		b.Sessions = []model.Session{}
		b.SlotIDs = []int64{}
	}

	query := `
		SELECT booking_id, slot_id, session_date, session_time
		FROM booking_sessions
		WHERE booking_id = ANY($1)
		ORDER BY booking_id, position
	`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("get booking sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookingID int64
			session   model.Session
		)
		if err := rows.Scan(&bookingID, &session.SlotID, &session.Date, &session.Time); err != nil {
			return fmt.Errorf("scan booking session: %w", err)
		}
		b := byID[bookingID]
		b.Sessions = append(b.Sessions, session)
		if session.SlotID != nil {
			b.SlotIDs = append(b.SlotIDs, *session.SlotID)
		}
	}

	return rows.Err()
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.TeacherID,
		&b.StudentID,
		&b.StudentName,
		&b.StudentPhone,
		&b.StudentEmail,
		&b.SubjectID,
		&b.SubjectText,
		&b.PricePerHour,
		&b.TotalPrice,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentReference,
		&b.ApprovedAt,
		&b.RejectedAt,
		&b.CancelledAt,
		&b.CompletedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
