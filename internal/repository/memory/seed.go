package memory

import "github.com/Freeeeeet/tutor_scheduler/internal/model"

// SeedDemo минимальный набор данных для локального запуска без базы
func SeedDemo(dir *Directory) {
	math := dir.AddSubject("Математика")
	physics := dir.AddSubject("Физика")

	teacher := dir.AddTeacher(&model.Teacher{
		Name:         "Demo Teacher",
		Email:        "teacher@example.com",
		PricePerHour: 150000,
		IsActive:     true,
	})
	dir.AssignSubject(teacher.ID, math.ID, true)
	dir.AssignSubject(teacher.ID, physics.ID, true)

	dir.AddStudent(&model.Student{
		Name:  "Demo Student",
		Email: "student@example.com",
	})
}
