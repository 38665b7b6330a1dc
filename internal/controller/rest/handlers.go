package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
)

const dateLayout = "2006-01-02"

type slotRequest struct {
	Date      string       `json:"date" binding:"required"`
	Start     *model.Clock `json:"start" binding:"required"`
	End       *model.Clock `json:"end" binding:"required"`
	SubjectID *int64       `json:"subject_id" binding:"omitempty,gt=0"`
}

func (r slotRequest) input() (service.SlotInput, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return service.SlotInput{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return service.SlotInput{Date: date, Start: *r.Start, End: *r.End, SubjectID: r.SubjectID}, nil
}

type recurringRequest struct {
	Weekdays  []int                  `json:"weekdays" binding:"required,min=1"`
	Windows   []service.WeeklyWindow `json:"windows" binding:"required,min=1"`
	SubjectID *int64                 `json:"subject_id" binding:"omitempty,gt=0"`
}

type statusRequest struct {
	Status model.BookingStatus `json:"status" binding:"required"`
}

type paymentRequest struct {
	BookingID int64               `json:"booking_id" binding:"required,gt=0"`
	Status    model.PaymentStatus `json:"status" binding:"required"`
	Reference string              `json:"reference"`
}

func (h *Handler) listAvailability(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherID")
	if !ok {
		return
	}

	var (
		from, to  time.Time
		subjectID *int64
		err       error
	)
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(dateLayout, v); err != nil {
			badRequest(c, fmt.Errorf("from must be YYYY-MM-DD"))
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(dateLayout, v); err != nil {
			badRequest(c, fmt.Errorf("to must be YYYY-MM-DD"))
			return
		}
	}
	if v := c.Query("subject_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, fmt.Errorf("subject_id must be a positive integer"))
			return
		}
		subjectID = &id
	}

	slots, err := h.scheduling.ListTeacherAvailability(c.Request.Context(), actorFrom(c), teacherID, from, to, subjectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": nonNil(slots)})
}

func (h *Handler) createSlot(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherID")
	if !ok {
		return
	}
	in, ok := bindSlot(c)
	if !ok {
		return
	}

	slot, err := h.scheduling.CreateSlot(c.Request.Context(), actorFrom(c), teacherID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (h *Handler) updateSlot(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherID")
	if !ok {
		return
	}
	slotID, ok := pathID(c, "slotID")
	if !ok {
		return
	}
	in, ok := bindSlot(c)
	if !ok {
		return
	}

	slot, err := h.scheduling.UpdateSlot(c.Request.Context(), actorFrom(c), teacherID, slotID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (h *Handler) deleteSlot(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherID")
	if !ok {
		return
	}
	slotID, ok := pathID(c, "slotID")
	if !ok {
		return
	}

	if err := h.scheduling.DeleteSlot(c.Request.Context(), actorFrom(c), teacherID, slotID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createRecurring(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherID")
	if !ok {
		return
	}
	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	groupID, created, err := h.recurring.CreateGroup(c.Request.Context(), actorFrom(c), teacherID, service.RecurringInput{
		Weekdays:  req.Weekdays,
		Windows:   req.Windows,
		SubjectID: req.SubjectID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group_id": groupID, "slots_created": created})
}

func (h *Handler) deactivateRecurring(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherID")
	if !ok {
		return
	}

	if err := h.recurring.DeactivateGroup(c.Request.Context(), actorFrom(c), teacherID, c.Param("groupID")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createBooking(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherID")
	if !ok {
		return
	}
	var req service.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.scheduling.CreateBooking(c.Request.Context(), actorFrom(c), teacherID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *Handler) listTeacherBookings(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherID")
	if !ok {
		return
	}
	var status *model.BookingStatus
	if v := c.Query("status"); v != "" {
		s := model.BookingStatus(v)
		if !s.Valid() {
			badRequest(c, fmt.Errorf("unknown status %q", v))
			return
		}
		status = &s
	}

	bookings, err := h.scheduling.ListTeacherBookings(c.Request.Context(), actorFrom(c), teacherID, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": nonNil(bookings)})
}

func (h *Handler) listStudentBookings(c *gin.Context) {
	studentID, ok := pathID(c, "studentID")
	if !ok {
		return
	}

	bookings, err := h.scheduling.ListStudentBookings(c.Request.Context(), actorFrom(c), studentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": nonNil(bookings)})
}

func (h *Handler) getBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "bookingID")
	if !ok {
		return
	}

	booking, err := h.scheduling.GetBooking(c.Request.Context(), actorFrom(c), bookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) updateBookingStatus(c *gin.Context) {
	bookingID, ok := pathID(c, "bookingID")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.scheduling.UpdateBookingStatus(c.Request.Context(), actorFrom(c), bookingID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) deleteBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "bookingID")
	if !ok {
		return
	}

	if err := h.scheduling.DeleteBooking(c.Request.Context(), actorFrom(c), bookingID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// paymentCallback вызывается платёжным шлюзом, секрет проверен в paymentAuth
func (h *Handler) paymentCallback(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.scheduling.RecordPayment(c.Request.Context(), req.BookingID, req.Status, req.Reference)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func bindSlot(c *gin.Context) (service.SlotInput, bool) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return service.SlotInput{}, false
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, err)
		return service.SlotInput{}, false
	}
	return in, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Errorf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
