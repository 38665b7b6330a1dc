package memory

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// Directory учителя, ученики и предметы. Заполняется через Add*, в проде их ведёт внешняя система.
type Directory struct {
	store *Store
}

func (r *Directory) GetTeacher(ctx context.Context, id int64) (*model.Teacher, error) {
	var teacher *model.Teacher
	err := r.store.run(ctx, func(d *state) error {
		if t, ok := d.teachers[id]; ok {
			c := *t
			teacher = &c
		}
		return nil
	})
	return teacher, err
}

func (r *Directory) GetTeacherByTelegramChatID(ctx context.Context, chatID int64) (*model.Teacher, error) {
	var teacher *model.Teacher
	err := r.store.run(ctx, func(d *state) error {
		for _, t := range d.teachers {
			if t.TelegramChatID != nil && *t.TelegramChatID == chatID {
				c := *t
				teacher = &c
				return nil
			}
		}
		return nil
	})
	return teacher, err
}

func (r *Directory) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	var student *model.Student
	err := r.store.run(ctx, func(d *state) error {
		if s, ok := d.students[id]; ok {
			c := *s
			student = &c
		}
		return nil
	})
	return student, err
}

func (r *Directory) GetSubject(ctx context.Context, id int64) (*model.Subject, error) {
	var subject *model.Subject
	err := r.store.run(ctx, func(d *state) error {
		if s, ok := d.subjects[id]; ok {
			c := *s
			subject = &c
		}
		return nil
	})
	return subject, err
}

func (r *Directory) TeachesSubject(ctx context.Context, teacherID, subjectID int64) (bool, error) {
	var ok bool
	err := r.store.run(ctx, func(d *state) error {
		ok = d.teacherSubjects[teacherSubject{teacherID: teacherID, subjectID: subjectID}]
		return nil
	})
	return ok, err
}

// AddTeacher сохраняет учителя, ID выдаётся если не задан
func (r *Directory) AddTeacher(t *model.Teacher) *model.Teacher {
	_ = r.store.run(context.Background(), func(d *state) error {
		if t.ID == 0 {
			d.nextUserID++
			t.ID = d.nextUserID
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		c := *t
		d.teachers[t.ID] = &c
		return nil
	})
	return t
}

func (r *Directory) AddStudent(s *model.Student) *model.Student {
	_ = r.store.run(context.Background(), func(d *state) error {
		if s.ID == 0 {
			d.nextUserID++
			s.ID = d.nextUserID
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
		c := *s
		d.students[s.ID] = &c
		return nil
	})
	return s
}

func (r *Directory) AddSubject(name string) *model.Subject {
	subject := &model.Subject{Name: name}
	_ = r.store.run(context.Background(), func(d *state) error {
		d.nextSubjectID++
		subject.ID = d.nextSubjectID
		c := *subject
		d.subjects[subject.ID] = &c
		return nil
	})
	return subject
}

// AssignSubject связь учитель-предмет, verified=false не даёт права вести предмет
func (r *Directory) AssignSubject(teacherID, subjectID int64, verified bool) {
	_ = r.store.run(context.Background(), func(d *state) error {
		d.teacherSubjects[teacherSubject{teacherID: teacherID, subjectID: subjectID}] = verified
		return nil
	})
}
