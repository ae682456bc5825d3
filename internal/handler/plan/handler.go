package plan

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glabspro/bee/internal/handler"
	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/scheduling"
	"github.com/glabspro/bee/internal/service/plan"
)

type Handler struct {
	service *plan.Service
}

func NewHandler(service *plan.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.POST("", h.OpenPlan)
		plans.GET("/:id", h.GetPlan)
		plans.DELETE("/:id", h.DiscardPlan)
		plans.PUT("/:id/size", h.ResizePlan)
		plans.POST("/:id/drafts", h.AddDraft)
		plans.PATCH("/:id/drafts/:draftId", h.UpdateDraft)
		plans.DELETE("/:id/drafts/:draftId", h.RemoveDraft)
		plans.POST("/:id/commit", h.CommitPlan)
	}
}

type openRequest struct {
	StartDate     string `json:"startDate" binding:"required,civildate"`
	SessionCount  int    `json:"sessionCount" binding:"min=0,max=104"`
	FrequencyDays int    `json:"frequencyDays" binding:"required,min=1"`
	DefaultTime   string `json:"defaultTime" binding:"required,hhmm"`
}

func (h *Handler) OpenPlan(c *gin.Context) {
	var req openRequest
	if !handler.Bind(c, &req) {
		return
	}
	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	at, err := model.ParseTimeOfDay(req.DefaultTime)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	v, err := h.service.Open(scheduling.PlanParams{
		StartDate:     start,
		SessionCount:  req.SessionCount,
		FrequencyDays: req.FrequencyDays,
		DefaultTime:   at,
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(v))
}

func (h *Handler) GetPlan(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	v, err := h.service.Get(id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, v)
}

func (h *Handler) DiscardPlan(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Discard(id); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type resizeRequest struct {
	SessionCount int `json:"sessionCount" binding:"min=0,max=104"`
}

func (h *Handler) ResizePlan(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req resizeRequest
	if !handler.Bind(c, &req) {
		return
	}
	v, err := h.service.Resize(id, req.SessionCount)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, v)
}

func (h *Handler) AddDraft(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	d, err := h.service.AddManual(id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(d))
}

type updateDraftRequest struct {
	Field scheduling.DraftField `json:"field" binding:"required,oneof=date time"`
	Value string                `json:"value" binding:"required"`
}

func (h *Handler) UpdateDraft(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	draftID, ok := handler.ParamUUID(c, "draftId")
	if !ok {
		return
	}
	var req updateDraftRequest
	if !handler.Bind(c, &req) {
		return
	}
	d, err := h.service.UpdateDraft(id, draftID, req.Field, req.Value)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) RemoveDraft(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	draftID, ok := handler.ParamUUID(c, "draftId")
	if !ok {
		return
	}
	v, err := h.service.RemoveDraft(id, draftID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, v)
}

func (h *Handler) CommitPlan(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.AppointmentFields
	if !handler.Bind(c, &req) {
		return
	}
	res, err := h.service.Commit(c.Request.Context(), id, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusCreated, res.Appointments, res.Notice)
}
