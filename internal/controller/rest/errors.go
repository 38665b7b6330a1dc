package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/tutor_scheduler/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Details any    `json:"details,omitempty"`
}

// writeError переводит доменную ошибку в HTTP-ответ
func writeError(c *gin.Context, err error) {
	kind := service.ErrorKind(err)
	resp := errorResponse{Error: err.Error(), Kind: kind}
	status := http.StatusInternalServerError

	var (
		validation  *service.ValidationError
		conflict    *service.ConflictError
		booked      *service.SlotBookedError
		subject     *service.InvalidSubjectError
		unavailable *service.UnavailableError
		transition  *service.InvalidTransitionError
	)
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		resp.Error = "not found"
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
		resp.Error = "forbidden"
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		resp.Error = "validation failed"
		resp.Details = gin.H{"fields": validation.FieldErrors}
	case errors.As(err, &conflict):
		status = http.StatusConflict
		resp.Details = gin.H{
			"slot_id":    conflict.SlotID,
			"range":      conflict.Range,
			"subject_id": conflict.SubjectID,
			"subject":    conflict.SubjectLabel,
		}
	case errors.As(err, &booked):
		status = http.StatusConflict
		resp.Details = gin.H{"slot_id": booked.SlotID, "booking_id": booked.BookingID}
	case errors.As(err, &subject):
		status = http.StatusUnprocessableEntity
		resp.Details = gin.H{"subject_id": subject.SubjectID}
	case errors.As(err, &unavailable):
		status = http.StatusConflict
		resp.Details = gin.H{"missing_slot_ids": unavailable.Missing}
	case errors.As(err, &transition):
		status = http.StatusConflict
		resp.Details = gin.H{"from": transition.From, "to": transition.To}
	default:
		resp.Error = "internal error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error: "invalid input",
		Kind:  "validation",
		Details: gin.H{
			"reason": err.Error(),
		},
	})
}
