package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type FeedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func HealthGroup(h *Handler) Option {
	return func(g *gin.RouterGroup) {
		health := g.Group("/health", cors(http.MethodGet, http.MethodOptions))
		{
			health.OPTIONS("", preflight)
			health.GET("", h.Health)
		}
	}
}

func FeedGroup(h *Handler) Option {
	return func(g *gin.RouterGroup) {
		feed := g.Group("/pumpfun", cors(http.MethodGet, http.MethodOptions))
		{
			feed.OPTIONS("", preflight)
			feed.GET("", h.Feed)
		}
	}
}

// Health handles GET /api/health
func (h *Handler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, HealthResponse{
		Message: "Good Job!",
		Status:  "Operational",
	})
}

// Feed handles GET /api/pumpfun
func (h *Handler) Feed(ctx *gin.Context) {
	data, err := h.feed.FetchFeed(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, FeedResponse{
			Success: false,
			Message: "Internal server error: " + err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, FeedResponse{
		Success: true,
		Data:    data,
	})
}
