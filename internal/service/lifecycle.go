package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// transitions допустимые переходы статуса бронирования
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingStatusPending: {
		model.BookingStatusApproved,
		model.BookingStatusRejected,
		model.BookingStatusCancelled,
	},
	model.BookingStatusApproved: {
		model.BookingStatusRejected,
		model.BookingStatusCancelled,
		model.BookingStatusCompleted,
	},
}

// CanTransition проверяет переход по таблице жизненного цикла
func CanTransition(from, to model.BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ReleasesSlots переход, при котором слоты возвращаются в свободные
func ReleasesSlots(to model.BookingStatus) bool {
	return to == model.BookingStatusRejected || to == model.BookingStatusCancelled
}

// BookingLifecycle применяет переходы вместе с их влиянием на слоты
type BookingLifecycle struct {
	store    *AvailabilityStore
	bookings BookingRepository
	now      func() time.Time
}

func NewBookingLifecycle(store *AvailabilityStore, bookings BookingRepository, now func() time.Time) *BookingLifecycle {
	if now == nil {
		now = time.Now
	}
	return &BookingLifecycle{store: store, bookings: bookings, now: now}
}

// Transition должен вызываться внутри транзакции: смена статуса и освобождение
// слотов фиксируются вместе или не фиксируются вовсе
func (l *BookingLifecycle) Transition(ctx context.Context, booking *model.Booking, to model.BookingStatus) error {
	if !CanTransition(booking.Status, to) {
		return &InvalidTransitionError{BookingID: booking.ID, From: booking.Status, To: to}
	}

	if ReleasesSlots(to) {
		if err := l.store.ReleaseBooking(ctx, booking.ID, booking.SlotIDs); err != nil {
			return err
		}
	}

	at := l.now().UTC()
	booking.Status = to
	booking.UpdatedAt = at
	switch to {
	case model.BookingStatusApproved:
		booking.ApprovedAt = &at
	case model.BookingStatusRejected:
		booking.RejectedAt = &at
	case model.BookingStatusCancelled:
		booking.CancelledAt = &at
	case model.BookingStatusCompleted:
		booking.CompletedAt = &at
	}

	if err := l.bookings.UpdateStatus(ctx, booking); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// CanChangePayment допустимые переходы статуса оплаты
func CanChangePayment(from, to model.PaymentStatus) bool {
	switch {
	case from == model.PaymentStatusPending && to == model.PaymentStatusPaid:
		return true
	case from == model.PaymentStatusPaid && to == model.PaymentStatusRefunded:
		return true
	}
	return false
}
