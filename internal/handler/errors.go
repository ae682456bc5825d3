package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/scheduling"
	"github.com/glabspro/bee/internal/service/appointment"
	"github.com/glabspro/bee/internal/service/notes"
	"github.com/glabspro/bee/internal/service/plan"
	"github.com/glabspro/bee/internal/service/sede"
	apperrors "github.com/glabspro/bee/pkg/errors"
)

// Fail attaches err to the context for the error middleware and aborts.
func Fail(c *gin.Context, err error) {
	_ = c.Error(AppError(err))
	c.Abort()
}

// AppError classifies a domain error for the HTTP surface.
func AppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var conflictErr *scheduling.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		return apperrors.Conflict("treatment plan conflicts", err)

	case errors.Is(err, sede.ErrNotFound):
		return apperrors.NotFound("sede", err)
	case errors.Is(err, appointment.ErrNotFound):
		return apperrors.NotFound("appointment", err)
	case errors.Is(err, plan.ErrSessionNotFound):
		return apperrors.NotFound("plan", err)
	case errors.Is(err, scheduling.ErrDraftNotFound):
		return apperrors.NotFound("session draft", err)

	case errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrTerminalStatus),
		errors.Is(err, scheduling.ErrPlanNotEnabled),
		errors.Is(err, scheduling.ErrInvalidTransition),
		errors.Is(err, scheduling.ErrOverlap),
		errors.Is(err, scheduling.ErrDayFull):
		return apperrors.Conflict("request conflicts with current state", err)

	case errors.Is(err, scheduling.ErrCodeSpaceExhausted):
		return apperrors.Unavailable("could not allocate a booking code", err)

	case errors.Is(err, model.ErrInvalidTimeOfDay),
		errors.Is(err, model.ErrInvalidDate),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrUnknownField),
		errors.Is(err, model.ErrUnknownDay),
		errors.Is(err, scheduling.ErrIndexOutOfRange),
		errors.Is(err, scheduling.ErrUnknownPreset),
		errors.Is(err, scheduling.ErrInvalidPlan),
		errors.Is(err, appointment.ErrInvalidBooking),
		errors.Is(err, sede.ErrInvalidSede),
		errors.Is(err, notes.ErrEmptyText):
		return apperrors.BadRequest("invalid request", err)
	}
	return apperrors.Internal(err)
}

// ParamUUID parses a uuid path parameter, failing the request when it is bad.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Fail(c, apperrors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// Bind decodes the JSON body, failing the request on a decode or validation
// error.
func Bind(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		_ = c.Error(verrs)
		c.Abort()
		return false
	}
	Fail(c, apperrors.BadRequest("invalid request body", err))
	return false
}
