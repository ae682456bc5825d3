package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glabspro/bee/internal/handler"
	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/service/appointment"
	apperrors "github.com/glabspro/bee/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id/status", h.UpdateStatus)
		appointments.PATCH("/:id/reassign", h.Reassign)
	}

	portal := r.Group("/portal/bookings")
	{
		portal.POST("", h.CreatePortalBooking)
		portal.GET("/:code", h.GetPortalBooking)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req appointment.DirectBooking
	if !handler.Bind(c, &req) {
		return
	}
	apt, notice, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusCreated, apt, notice)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	apt, err := h.service.Get(id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var filters model.AppointmentFilters

	if id := c.Query("sedeId"); id != "" {
		sedeID, err := uuid.Parse(id)
		if err != nil {
			handler.Fail(c, apperrors.BadRequest("invalid sedeId", err))
			return
		}
		filters.SedeID = sedeID
	}
	filters.PatientID = c.Query("patientId")
	filters.ProfessionalID = c.Query("professionalId")

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
		if !filters.Status.Valid() {
			handler.Fail(c, apperrors.BadRequest("invalid status", nil))
			return
		}
	}

	for param, dst := range map[string]*model.Date{"from": &filters.From, "to": &filters.To} {
		if v := c.Query(param); v != "" {
			d, err := model.ParseDate(v)
			if err != nil {
				handler.Fail(c, apperrors.BadRequest("invalid "+param, err))
				return
			}
			*dst = d
		}
	}

	handler.OK(c, h.service.List(&filters))
}

type statusRequest struct {
	Status model.AppointmentStatus `json:"status" binding:"required"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !handler.Bind(c, &req) {
		return
	}
	apt, notice, err := h.service.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, apt, notice)
}

func (h *Handler) Reassign(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req appointment.Reassignment
	if !handler.Bind(c, &req) {
		return
	}
	apt, notice, err := h.service.Reassign(c.Request.Context(), id, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, apt, notice)
}

func (h *Handler) CreatePortalBooking(c *gin.Context) {
	var req appointment.PortalBooking
	if !handler.Bind(c, &req) {
		return
	}
	apt, notice, err := h.service.BookFromPortal(c.Request.Context(), req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusCreated, apt, notice)
}

func (h *Handler) GetPortalBooking(c *gin.Context) {
	apt, err := h.service.GetByBookingCode(c.Param("code"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, apt)
}
