package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SubmitContentRequest struct {
	Link           string `json:"link" binding:"required"`
	WalletIdentity string `json:"walletIdentity" binding:"required"`
}

type SubmitContentResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Link    string `json:"link"`
}

// ViewCountResponse 回读失败时 ViewCount 为 null，Message 说明计数未知
type ViewCountResponse struct {
	ViewCount *int64 `json:"viewCount"`
	Message   string `json:"message"`
}

func ContentGroup(h *Handler) Option {
	return func(g *gin.RouterGroup) {
		contents := g.Group("/contents", cors(http.MethodGet, http.MethodPost, http.MethodOptions))
		{
			contents.OPTIONS("", preflight)
			contents.POST("", h.SubmitContent)
			contents.GET("", h.ListContent)
		}

		view := g.Group("/contents/:id/view", cors(http.MethodPost, http.MethodOptions))
		{
			view.OPTIONS("", preflight)
			view.POST("", h.IncrementViewCount)
		}
	}
}

// SubmitContent handles POST /api/contents
func (h *Handler) SubmitContent(ctx *gin.Context) {
	var req SubmitContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.bindError(ctx, "link and wallet identity are required", err)
		return
	}

	ref, err := h.contents.SubmitContent(ctx.Request.Context(), req.Link, req.WalletIdentity)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, SubmitContentResponse{
		Message: "Content created successfully",
		ID:      ref.ID,
		Link:    ref.Link,
	})
}

// ListContent handles GET /api/contents
func (h *Handler) ListContent(ctx *gin.Context) {
	contents, err := h.contents.ListContent(ctx.Request.Context())
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, contents)
}

// IncrementViewCount handles POST /api/contents/:id/view
func (h *Handler) IncrementViewCount(ctx *gin.Context) {
	vc, err := h.contents.IncrementViewCount(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	resp := ViewCountResponse{
		ViewCount: vc.Count,
		Message:   "View count incremented",
	}
	if !vc.Confirmed {
		resp.Message = "View count incremented, but the current count could not be read"
	}

	ctx.JSON(http.StatusOK, resp)
}
