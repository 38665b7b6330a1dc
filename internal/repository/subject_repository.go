package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
)

type SubjectRepository struct {
	*base.Repository
}

func NewSubjectRepository(db *base.Repository) *SubjectRepository {
	return &SubjectRepository{Repository: db}
}

// GetSubject получает предмет по ID
func (r *SubjectRepository) GetSubject(ctx context.Context, id int64) (*model.Subject, error) {
	query := `SELECT id, name FROM subjects WHERE id = $1`

	var subject model.Subject
	err := r.QueryRow(ctx, query, id).Scan(&subject.ID, &subject.Name)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject by id: %w", err)
	}

	return &subject, nil
}

// TeachesSubject учитель подтверждён для предмета
func (r *SubjectRepository) TeachesSubject(ctx context.Context, teacherID, subjectID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM teacher_subjects
			WHERE teacher_id = $1 AND subject_id = $2 AND verified
		)
	`

	var ok bool
	if err := r.QueryRow(ctx, query, teacherID, subjectID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check teacher subject: %w", err)
	}

	return ok, nil
}

// Directory справочник учителей, учеников и предметов для сервисов
type Directory struct {
	*UserRepository
	*SubjectRepository
}

func NewDirectory(db *base.Repository) *Directory {
	return &Directory{
		UserRepository:    NewUserRepository(db),
		SubjectRepository: NewSubjectRepository(db),
	}
}
