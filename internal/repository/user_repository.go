package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
)

const teacherColumns = `id, name, email, telegram_chat_id, price_per_hour, is_active, auto_approve_bookings, created_at`

// UserRepository учителя и ученики. Профили ведёт внешняя система, здесь только чтение.
type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db *base.Repository) *UserRepository {
	return &UserRepository{Repository: db}
}

// GetTeacher получает учителя по ID
func (r *UserRepository) GetTeacher(ctx context.Context, id int64) (*model.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1`

	teacher, err := r.scanTeacher(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}
	return teacher, nil
}

// GetTeacherByTelegramChatID получает учителя по чату Telegram
func (r *UserRepository) GetTeacherByTelegramChatID(ctx context.Context, chatID int64) (*model.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE telegram_chat_id = $1`

	teacher, err := r.scanTeacher(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("get teacher by telegram chat: %w", err)
	}
	return teacher, nil
}

// GetStudent получает ученика по ID
func (r *UserRepository) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	query := `
		SELECT id, name, email, phone, telegram_chat_id, created_at
		FROM students
		WHERE id = $1
	`

	var student model.Student
	err := r.QueryRow(ctx, query, id).Scan(
		&student.ID,
		&student.Name,
		&student.Email,
		&student.Phone,
		&student.TelegramChatID,
		&student.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}

	return &student, nil
}

func (r *UserRepository) scanTeacher(ctx context.Context, query string, arg any) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.QueryRow(ctx, query, arg).Scan(
		&teacher.ID,
		&teacher.Name,
		&teacher.Email,
		&teacher.TelegramChatID,
		&teacher.PricePerHour,
		&teacher.IsActive,
		&teacher.AutoApproveBookings,
		&teacher.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &teacher, nil
}
