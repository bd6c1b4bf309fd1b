package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/visit-logger/internal/handler"
)

// Checker reports whether the backing store is reachable.
type Checker func(ctx context.Context) error

type Handler struct {
	service string
	check   Checker
}

// NewHandler builds the health endpoints. A nil check always reports ready.
func NewHandler(service string, check Checker) *Handler {
	return &Handler{
		service: service,
		check:   check,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

// Root describes the service.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.service,
		"status":  "running",
		"time":    time.Now().UTC(),
	})
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, handler.OK{OK: true})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.check != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ok":     false,
				"reason": "store unavailable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, handler.OK{OK: true})
}
