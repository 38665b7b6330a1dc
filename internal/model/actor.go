package model

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleGuest   Role = "guest"
)

// Actor тот, кто выполняет операцию. Приходит от внешнего слоя аутентификации.
// Для учителя ID совпадает с teacher_id, для ученика со student_id.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanManageTeacher владелец календаря или админ
func (a Actor) CanManageTeacher(teacherID int64) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleTeacher && a.ID == teacherID
}

func (a Actor) IsStudent(studentID int64) bool {
	return a.Role == RoleStudent && a.ID == studentID
}
