package notes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glabspro/bee/internal/handler"
	"github.com/glabspro/bee/internal/service/notes"
)

type Handler struct {
	service *notes.Service
}

func NewHandler(service *notes.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/notes")
	{
		g.POST("/summary", h.Summarize)
		g.POST("/suggestions", h.Suggest)
	}
}

type noteRequest struct {
	Text string `json:"text" binding:"required,max=20000"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

func (h *Handler) Summarize(c *gin.Context) {
	var req noteRequest
	if !handler.Bind(c, &req) {
		return
	}
	summary, notice, err := h.service.Summarize(c.Request.Context(), req.Text)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, summaryResponse{Summary: summary}, notice)
}

type suggestionResponse struct {
	Suggestion *notes.Suggestion `json:"suggestion"`
}

// Suggest answers with a null suggestion when the analyzer failed.
func (h *Handler) Suggest(c *gin.Context) {
	var req noteRequest
	if !handler.Bind(c, &req) {
		return
	}
	s, err := h.service.Suggest(c.Request.Context(), req.Text)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, suggestionResponse{Suggestion: s})
}
