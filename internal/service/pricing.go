package service

import (
	"sort"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// PriceFor цена бронирования по ставке учителя на момент создания
func PriceFor(teacher *model.Teacher, slotCount int) int64 {
	return int64(slotCount) * teacher.PricePerHour
}

// BuildSessionSnapshot упорядоченный список занятий для отображения бронирования
func BuildSessionSnapshot(slots []*model.AvailabilitySlot) []model.Session {
	ordered := make([]*model.AvailabilitySlot, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Range.Less(ordered[j].Range)
	})

	sessions := make([]model.Session, 0, len(ordered))
	for _, slot := range ordered {
		id := slot.ID
		sessions = append(sessions, model.Session{
			SlotID: &id,
			Date:   slot.Range.DateString(),
			Time:   slot.Range.TimeString(),
		})
	}
	return sessions
}
