package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"go.uber.org/zap"
)

const recurringColumns = `id, group_id, teacher_id, subject_id, weekday, start_minute, end_minute, is_active, created_at, updated_at`

// RecurringRepository управляет шаблонами еженедельной доступности
type RecurringRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewRecurringRepository(db *base.Repository, logger *zap.Logger) *RecurringRepository {
	return &RecurringRepository{Repository: db, logger: logger}
}

// Create создаёт новый шаблон
func (r *RecurringRepository) Create(ctx context.Context, rule *model.RecurringAvailability) error {
	query := `
		INSERT INTO recurring_availability (group_id, teacher_id, subject_id, weekday, start_minute, end_minute, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		rule.GroupID,
		rule.TeacherID,
		rule.SubjectID,
		rule.Weekday,
		int(rule.Start),
		int(rule.End),
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create recurring availability: %w", err)
	}

	return nil
}

// GetByGroupID получает все шаблоны группы
func (r *RecurringRepository) GetByGroupID(ctx context.Context, groupID string) ([]*model.RecurringAvailability, error) {
	query := `SELECT ` + recurringColumns + `
		FROM recurring_availability
		WHERE group_id = $1::uuid
		ORDER BY weekday, start_minute
	`

	return r.queryRules(ctx, query, groupID)
}

// GetAllActive получает все активные шаблоны
func (r *RecurringRepository) GetAllActive(ctx context.Context) ([]*model.RecurringAvailability, error) {
	query := `SELECT ` + recurringColumns + `
		FROM recurring_availability
		WHERE is_active
		ORDER BY teacher_id, weekday, start_minute
	`

	return r.queryRules(ctx, query)
}

// DeactivateByGroupID деактивирует всю группу
func (r *RecurringRepository) DeactivateByGroupID(ctx context.Context, groupID string) error {
	query := `
		UPDATE recurring_availability
		SET is_active = FALSE, updated_at = NOW()
		WHERE group_id = $1::uuid
	`

	affected, err := r.ExecAffected(ctx, query, groupID)
	if err != nil {
		return fmt.Errorf("deactivate recurring group: %w", err)
	}

	r.logger.Debug("Recurring group deactivated",
		zap.String("group_id", groupID),
		zap.Int64("rules", affected),
	)

	return nil
}

func (r *RecurringRepository) queryRules(ctx context.Context, query string, args ...any) ([]*model.RecurringAvailability, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring availability: %w", err)
	}
	defer rows.Close()

	var rules []*model.RecurringAvailability
	for rows.Next() {
		var (
			rule       model.RecurringAvailability
			start, end int
		)
		err := rows.Scan(
			&rule.ID,
			&rule.GroupID,
			&rule.TeacherID,
			&rule.SubjectID,
			&rule.Weekday,
			&start,
			&end,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recurring availability: %w", err)
		}
		rule.Start = model.Clock(start)
		rule.End = model.Clock(end)
		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring availability: %w", err)
	}

	return rules, nil
}
