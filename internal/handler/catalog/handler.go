package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/visit-logger/internal/handler"
	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/service/catalog"
)

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	medicines := r.Group("/medicines")
	{
		medicines.GET("", h.ListMedicines)
		medicines.POST("", h.CreateMedicine)
		medicines.POST("/:id/brands", h.AddBrand)
	}

	investigations := r.Group("/investigations")
	{
		investigations.GET("", h.ListInvestigations)
		investigations.POST("", h.CreateInvestigation)
	}
}

func (h *Handler) ListMedicines(c *gin.Context) {
	list, err := h.svc.ListMedicines(c.Request.Context(), handler.DoctorID(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateMedicine(c *gin.Context) {
	var req model.CreateMedicineRequest
	if !handler.BindJSON(c, &req, "Medicine name is required") {
		return
	}

	med, err := h.svc.CreateMedicine(c.Request.Context(), handler.DoctorID(c), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, med)
}

func (h *Handler) AddBrand(c *gin.Context) {
	var req model.AddBrandRequest
	if !handler.BindJSON(c, &req, "Brand name is required") {
		return
	}

	med, err := h.svc.AddBrand(c.Request.Context(), handler.DoctorID(c), c.Param("id"), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, med)
}

func (h *Handler) ListInvestigations(c *gin.Context) {
	list, err := h.svc.ListInvestigations(c.Request.Context(), handler.DoctorID(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateInvestigation(c *gin.Context) {
	var req model.CreateInvestigationRequest
	if !handler.BindJSON(c, &req, "Investigation name is required") {
		return
	}

	inv, err := h.svc.CreateInvestigation(c.Request.Context(), handler.DoctorID(c), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}
