package visit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/visit-logger/internal/handler"
	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/service/visit"
)

type Handler struct {
	svc *visit.Service
}

func NewHandler(svc *visit.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.POST("", h.Create)
		visits.PUT("/:id", h.Update)
	}
}

// Create records a visit, or only saves patient details when the
// prescription list is empty (200 without a visit).
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateVisitRequest
	if !handler.BindJSON(c, &req, "name and prescriptions (array) are required") {
		return
	}

	res, err := h.svc.Create(c.Request.Context(), handler.DoctorID(c), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	status := http.StatusCreated
	if res.Visit == nil {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateVisitRequest
	if !handler.BindJSON(c, &req, "prescriptions (array) is required") {
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), handler.DoctorID(c), c.Param("id"), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
