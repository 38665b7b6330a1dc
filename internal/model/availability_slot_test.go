package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectScopesOverlap(t *testing.T) {
	math, physics := int64(1), int64(2)
	otherMath := int64(1)

	assert.True(t, SubjectScopesOverlap(nil, nil, false))
	assert.True(t, SubjectScopesOverlap(nil, &math, false))
	assert.True(t, SubjectScopesOverlap(&math, nil, false))
	assert.True(t, SubjectScopesOverlap(&math, &otherMath, false))
	assert.False(t, SubjectScopesOverlap(&math, &physics, false))
	assert.True(t, SubjectScopesOverlap(&math, &physics, true))
}

func TestSlotFilterMatch(t *testing.T) {
	math, physics := int64(1), int64(2)
	r, _ := NewTimeRange(day, MustClock("09:00"), MustClock("10:00"))
	general := &AvailabilitySlot{TeacherID: 7, Range: r, Status: SlotStatusAvailable}
	mathSlot := &AvailabilitySlot{TeacherID: 7, Range: r, Status: SlotStatusBooked, SubjectID: &math}

	available := SlotStatusAvailable
	assert.True(t, SlotFilter{TeacherID: 7, SubjectID: &physics}.Match(general))
	assert.False(t, SlotFilter{TeacherID: 7, SubjectID: &physics}.Match(mathSlot))
	assert.True(t, SlotFilter{TeacherID: 7, SubjectID: &math}.Match(mathSlot))
	assert.False(t, SlotFilter{TeacherID: 7, Status: &available}.Match(mathSlot))
	assert.False(t, SlotFilter{TeacherID: 8}.Match(general))
	assert.False(t, SlotFilter{TeacherID: 7, From: day.AddDate(0, 0, 1)}.Match(general))
	assert.True(t, SlotFilter{TeacherID: 7, From: day, To: day}.Match(general))
}

func TestAvailabilitySlotClone(t *testing.T) {
	subject, booking := int64(3), int64(9)
	s := &AvailabilitySlot{ID: 1, SubjectID: &subject, BookingID: &booking}
	c := s.Clone()
	*c.SubjectID = 4
	*c.BookingID = 10
	assert.Equal(t, int64(3), *s.SubjectID)
	assert.Equal(t, int64(9), *s.BookingID)
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, BookingStatusPending.Active())
	assert.True(t, BookingStatusApproved.Active())
	assert.False(t, BookingStatusRejected.Active())
	assert.False(t, BookingStatus("archived").Valid())
	assert.True(t, PaymentStatusRefunded.Valid())
}

func TestActorPermissions(t *testing.T) {
	admin := Actor{ID: 1, Role: RoleAdmin}
	teacher := Actor{ID: 7, Role: RoleTeacher}
	student := Actor{ID: 7, Role: RoleStudent}

	assert.True(t, admin.CanManageTeacher(7))
	assert.True(t, teacher.CanManageTeacher(7))
	assert.False(t, teacher.CanManageTeacher(8))
	assert.False(t, student.CanManageTeacher(7))
	assert.True(t, student.IsStudent(7))
	assert.False(t, teacher.IsStudent(7))
}
