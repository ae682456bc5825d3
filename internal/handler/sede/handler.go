package sede

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glabspro/bee/internal/handler"
	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/scheduling"
	"github.com/glabspro/bee/internal/service/sede"
	apperrors "github.com/glabspro/bee/pkg/errors"
)

// DayViewer lists a sede's appointments for one date.
type DayViewer interface {
	DayView(sedeID uuid.UUID, date model.Date) []*model.Appointment
}

type Handler struct {
	service      *sede.Service
	appointments DayViewer
}

func NewHandler(service *sede.Service, appointments DayViewer) *Handler {
	return &Handler{service: service, appointments: appointments}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sedes := r.Group("/sedes")
	{
		sedes.GET("", h.ListSedes)
		sedes.POST("", h.CreateSede)
		sedes.GET("/:id", h.GetSede)
		sedes.PUT("/:id", h.UpdateSede)
		sedes.GET("/:id/appointments", h.DayView)

		availability := sedes.Group("/:id/availability")
		{
			availability.GET("", h.GetAvailability)
			availability.PUT("", h.SaveAvailability)
			availability.DELETE("", h.DiscardAvailability)
			availability.POST("/:day/toggle", h.ToggleDay)
			availability.POST("/:day/intervals", h.AddInterval)
			availability.PATCH("/:day/intervals/:index", h.UpdateInterval)
			availability.DELETE("/:day/intervals/:index", h.RemoveInterval)
			availability.POST("/:day/preset", h.ApplyPreset)
			availability.POST("/:day/copy-to-weekdays", h.CopyToWeekdays)
		}
	}
}

func (h *Handler) ListSedes(c *gin.Context) {
	handler.OK(c, h.service.List())
}

func (h *Handler) GetSede(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.Get(id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, s)
}

func (h *Handler) CreateSede(c *gin.Context) {
	var req sede.NewSede
	if !handler.Bind(c, &req) {
		return
	}
	s, notice, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusCreated, s, notice)
}

func (h *Handler) UpdateSede(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.SedeDetails
	if !handler.Bind(c, &req) {
		return
	}
	s, notice, err := h.service.UpdateDetails(c.Request.Context(), id, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, s, notice)
}

func (h *Handler) DayView(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if _, err := h.service.Get(id); err != nil {
		handler.Fail(c, err)
		return
	}
	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		handler.Fail(c, apperrors.BadRequest("date query parameter must be YYYY-MM-DD", err))
		return
	}
	handler.OK(c, h.appointments.DayView(id, date))
}

func (h *Handler) GetAvailability(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	wc, err := h.service.Availability(id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, wc)
}

func (h *Handler) SaveAvailability(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	s, notice, err := h.service.SaveAvailability(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, s, notice)
}

func (h *Handler) DiscardAvailability(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DiscardAvailability(id); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleDay(c *gin.Context) {
	h.edit(c, func(g *scheduling.Grid, day model.Weekday) error {
		return g.Toggle(day)
	})
}

func (h *Handler) AddInterval(c *gin.Context) {
	h.edit(c, func(g *scheduling.Grid, day model.Weekday) error {
		_, err := g.AddInterval(day)
		return err
	})
}

type updateIntervalRequest struct {
	Field model.IntervalField `json:"field" binding:"required,oneof=start end"`
	Value string              `json:"value" binding:"required,hhmm"`
}

func (h *Handler) UpdateInterval(c *gin.Context) {
	index, ok := paramIndex(c)
	if !ok {
		return
	}
	var req updateIntervalRequest
	if !handler.Bind(c, &req) {
		return
	}
	value, err := model.ParseTimeOfDay(req.Value)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	h.edit(c, func(g *scheduling.Grid, day model.Weekday) error {
		return g.UpdateInterval(day, index, req.Field, value)
	})
}

func (h *Handler) RemoveInterval(c *gin.Context) {
	index, ok := paramIndex(c)
	if !ok {
		return
	}
	h.edit(c, func(g *scheduling.Grid, day model.Weekday) error {
		return g.RemoveInterval(day, index)
	})
}

type presetRequest struct {
	Preset scheduling.Preset `json:"preset" binding:"required"`
}

func (h *Handler) ApplyPreset(c *gin.Context) {
	var req presetRequest
	if !handler.Bind(c, &req) {
		return
	}
	h.edit(c, func(g *scheduling.Grid, day model.Weekday) error {
		return g.ApplyPreset(day, req.Preset)
	})
}

func (h *Handler) CopyToWeekdays(c *gin.Context) {
	h.edit(c, func(g *scheduling.Grid, day model.Weekday) error {
		return g.CopyToWeekdays(day)
	})
}

func (h *Handler) edit(c *gin.Context, op func(*scheduling.Grid, model.Weekday) error) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	day, err := model.ParseWeekday(c.Param("day"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	wc, err := h.service.EditAvailability(id, func(g *scheduling.Grid) error {
		return op(g, day)
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, wc)
}

func paramIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		handler.Fail(c, apperrors.BadRequest("invalid interval index", err))
		return 0, false
	}
	return index, true
}
