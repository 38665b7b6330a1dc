package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

type SlotRepository struct {
	store *Store
}

func (r *SlotRepository) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	return r.store.run(ctx, func(d *state) error {
		d.nextSlotID++
		now := time.Now().UTC()
		slot.ID = d.nextSlotID
		slot.CreatedAt = now
		slot.UpdatedAt = now
		d.slots[slot.ID] = slot.Clone()
		return nil
	})
}

func (r *SlotRepository) Update(ctx context.Context, slot *model.AvailabilitySlot) (int64, error) {
	var affected int64
	err := r.store.run(ctx, func(d *state) error {
		stored, ok := d.slots[slot.ID]
		if !ok || !stored.IsAvailable() {
			return nil
		}
		stored.Range = slot.Range
		stored.SubjectID = cloneID(slot.SubjectID)
		stored.UpdatedAt = time.Now().UTC()
		slot.UpdatedAt = stored.UpdatedAt
		affected = 1
		return nil
	})
	return affected, err
}

func (r *SlotRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.store.run(ctx, func(d *state) error {
		stored, ok := d.slots[id]
		if !ok || !stored.IsAvailable() {
			return nil
		}
		delete(d.slots, id)
		detachSlot(d, id)
		affected = 1
		return nil
	})
	return affected, err
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.AvailabilitySlot, error) {
	var slot *model.AvailabilitySlot
	err := r.store.run(ctx, func(d *state) error {
		if stored, ok := d.slots[id]; ok {
			slot = view(d, stored)
		}
		return nil
	})
	return slot, err
}

func (r *SlotRepository) ListByTeacherDate(ctx context.Context, teacherID int64, date time.Time) ([]*model.AvailabilitySlot, error) {
	return r.List(ctx, model.SlotFilter{TeacherID: teacherID, From: date, To: date})
}

func (r *SlotRepository) List(ctx context.Context, filter model.SlotFilter) ([]*model.AvailabilitySlot, error) {
	var slots []*model.AvailabilitySlot
	err := r.store.run(ctx, func(d *state) error {
		for _, stored := range d.slots {
			if filter.Match(stored) {
				slots = append(slots, view(d, stored))
			}
		}
		return nil
	})
	sortSlots(slots)
	return slots, err
}

func (r *SlotRepository) FindAvailable(ctx context.Context, teacherID int64, ids []int64) ([]*model.AvailabilitySlot, error) {
	var slots []*model.AvailabilitySlot
	err := r.store.run(ctx, func(d *state) error {
		for _, id := range ids {
			stored, ok := d.slots[id]
			if ok && stored.TeacherID == teacherID && stored.IsAvailable() {
				slots = append(slots, view(d, stored))
			}
		}
		return nil
	})
	sortSlots(slots)
	return slots, err
}

func (r *SlotRepository) MarkBooked(ctx context.Context, teacherID int64, ids []int64, bookingID int64) (int64, error) {
	var affected int64
	err := r.store.run(ctx, func(d *state) error {
		now := time.Now().UTC()
		for _, id := range ids {
			stored, ok := d.slots[id]
			if !ok || stored.TeacherID != teacherID || !stored.IsAvailable() {
				continue
			}
			b := bookingID
			stored.Status = model.SlotStatusBooked
			stored.BookingID = &b
			stored.UpdatedAt = now
			affected++
		}
		return nil
	})
	return affected, err
}

func (r *SlotRepository) Release(ctx context.Context, ids []int64, bookingID *int64) (int64, error) {
	var affected int64
	err := r.store.run(ctx, func(d *state) error {
		now := time.Now().UTC()
		for _, id := range ids {
			stored, ok := d.slots[id]
			if !ok || !stored.IsBooked() {
				continue
			}
			if bookingID != nil && (stored.BookingID == nil || *stored.BookingID != *bookingID) {
				continue
			}
			stored.Status = model.SlotStatusAvailable
			stored.BookingID = nil
			stored.UpdatedAt = now
			affected++
		}
		return nil
	})
	return affected, err
}

// LockTeacher транзакции в памяти и так выполняются по одной
func (r *SlotRepository) LockTeacher(ctx context.Context, teacherID int64) error {
	return nil
}

// view копия слота с названием предмета, как после JOIN в SQL
func view(d *state, stored *model.AvailabilitySlot) *model.AvailabilitySlot {
	slot := stored.Clone()
	if slot.SubjectID != nil {
		if subject, ok := d.subjects[*slot.SubjectID]; ok {
			slot.SubjectName = subject.Name
		}
	}
	return slot
}

// detachSlot обнуляет ссылку на удалённый слот в снимках занятий
func detachSlot(d *state, slotID int64) {
	for _, b := range d.bookings {
		for i := range b.Sessions {
			if b.Sessions[i].SlotID != nil && *b.Sessions[i].SlotID == slotID {
				b.Sessions[i].SlotID = nil
			}
		}
		b.SlotIDs = slotIDsOf(b.Sessions)
	}
}

func sortSlots(slots []*model.AvailabilitySlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Range.Date.Equal(slots[j].Range.Date) && slots[i].Range.Start == slots[j].Range.Start {
			return slots[i].ID < slots[j].ID
		}
		return slots[i].Range.Less(slots[j].Range)
	})
}

func cloneID(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
