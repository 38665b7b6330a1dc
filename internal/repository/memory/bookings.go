package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

type BookingRepository struct {
	store *Store
}

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.store.run(ctx, func(d *state) error {
		if _, ok := d.teachers[booking.TeacherID]; !ok {
			return fmt.Errorf("create booking: teacher %d does not exist", booking.TeacherID)
		}
		d.nextBookingID++
		now := time.Now().UTC()
		booking.ID = d.nextBookingID
		booking.CreatedAt = now
		booking.UpdatedAt = now
		stored := booking.Clone()
		stored.Sessions = nil
		stored.SlotIDs = nil
		d.bookings[booking.ID] = stored
		return nil
	})
}

func (r *BookingRepository) AddSessions(ctx context.Context, bookingID int64, sessions []model.Session) error {
	return r.store.run(ctx, func(d *state) error {
		stored, ok := d.bookings[bookingID]
		if !ok {
			return fmt.Errorf("add booking sessions: booking %d does not exist", bookingID)
		}
		copied := (&model.Booking{Sessions: sessions}).Clone().Sessions
		stored.Sessions = append(stored.Sessions, copied...)
		stored.SlotIDs = slotIDsOf(stored.Sessions)
		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	var booking *model.Booking
	err := r.store.run(ctx, func(d *state) error {
		if stored, ok := d.bookings[id]; ok {
			booking = stored.Clone()
		}
		return nil
	})
	return booking, err
}

// GetForUpdate блокировка уже удерживается транзакцией хранилища
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*model.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, booking *model.Booking) error {
	return r.store.run(ctx, func(d *state) error {
		stored, ok := d.bookings[booking.ID]
		if !ok {
			return fmt.Errorf("booking %d not found", booking.ID)
		}
		stored.Status = booking.Status
		stored.PaymentStatus = booking.PaymentStatus
		stored.PaymentReference = booking.PaymentReference
		c := booking.Clone()
		stored.ApprovedAt = c.ApprovedAt
		stored.RejectedAt = c.RejectedAt
		stored.CancelledAt = c.CancelledAt
		stored.CompletedAt = c.CompletedAt
		stored.UpdatedAt = time.Now().UTC()
		booking.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var bookings []*model.Booking
	err := r.store.run(ctx, func(d *state) error {
		for _, stored := range d.bookings {
			if filter.Match(stored) {
				bookings = append(bookings, stored.Clone())
			}
		}
		return nil
	})
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID > bookings[j].ID
		}
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, err
}

// Delete как внешний ключ в Postgres: нельзя удалить бронирование, пока на него ссылается слот
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	return r.store.run(ctx, func(d *state) error {
		if _, ok := d.bookings[id]; !ok {
			return fmt.Errorf("booking %d not found", id)
		}
		for _, slot := range d.slots {
			if slot.BookingID != nil && *slot.BookingID == id {
				return fmt.Errorf("delete booking: slot %d still references booking %d", slot.ID, id)
			}
		}
		delete(d.bookings, id)
		return nil
	})
}

func slotIDsOf(sessions []model.Session) []int64 {
	ids := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		if s.SlotID != nil {
			ids = append(ids, *s.SlotID)
		}
	}
	return ids
}
