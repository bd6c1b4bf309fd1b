package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/visit-logger/internal/handler"
	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/service/patient"
)

type Handler struct {
	svc *patient.Service
}

func NewHandler(svc *patient.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("/search", h.Search)
		patients.GET("/:patientId", h.Get)
		patients.GET("/:patientId/drug-history", h.GetDrugHistory)
		patients.PUT("/:patientId/drug-history", h.UpdateDrugHistory)
	}
}

func (h *Handler) Search(c *gin.Context) {
	var criteria model.SearchCriteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		handler.BadRequest(c, "Invalid search parameters", err)
		return
	}

	resp, err := h.svc.Search(c.Request.Context(), handler.DoctorID(c), criteria)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Get(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), handler.DoctorID(c), c.Param("patientId"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetDrugHistory(c *gin.Context) {
	resp, err := h.svc.DrugHistory(c.Request.Context(), handler.DoctorID(c), c.Param("patientId"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateDrugHistory(c *gin.Context) {
	var req model.DrugHistoryRequest
	if !handler.BindJSON(c, &req, "drugs must be an array") {
		return
	}

	resp, err := h.svc.ReplaceDrugHistory(c.Request.Context(), handler.DoctorID(c), c.Param("patientId"), req.Drugs)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
