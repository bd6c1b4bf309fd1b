package document

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/visit-logger/internal/handler"
	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/service/document"
)

type Handler struct {
	svc *document.Service
}

func NewHandler(svc *document.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits/:id")
	{
		visits.GET("/prescription", h.Prescription)
		visits.GET("/referral-letter", h.ReferralLetter)
		visits.POST("/referral-letter/email", h.EmailReferralLetter)
	}
}

func (h *Handler) Prescription(c *gin.Context) {
	doc, err := h.svc.Prescription(c.Request.Context(), handler.DoctorID(c), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

func (h *Handler) ReferralLetter(c *gin.Context) {
	doc, err := h.svc.ReferralLetter(c.Request.Context(), handler.DoctorID(c), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

func (h *Handler) EmailReferralLetter(c *gin.Context) {
	var req model.EmailReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, "A valid recipient email is required", err)
		return
	}

	if err := h.svc.EmailReferralLetter(c.Request.Context(), handler.DoctorID(c), c.Param("id"), req.To); err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.EmailReferralResponse{Message: "Referral letter sent", To: req.To})
}
