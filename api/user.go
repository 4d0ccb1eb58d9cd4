package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type RegisterUserRequest struct {
	WalletIdentity string `json:"walletIdentity" binding:"required"`
	DisplayName    string `json:"displayName" binding:"required"`
}

type RegisterUserResponse struct {
	Message        string `json:"message"`
	WalletIdentity string `json:"walletIdentity"`
	ID             string `json:"id"`
}

func UserGroup(h *Handler) Option {
	return func(g *gin.RouterGroup) {
		users := g.Group("/users", cors(http.MethodGet, http.MethodPost, http.MethodOptions))
		{
			users.OPTIONS("", preflight)
			users.POST("", h.RegisterUser)
			users.GET("", h.ListUsers)
		}
	}
}

// RegisterUser handles POST /api/users
func (h *Handler) RegisterUser(ctx *gin.Context) {
	var req RegisterUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.bindError(ctx, "wallet identity and display name are required", err)
		return
	}

	ref, err := h.users.RegisterOrUpdateUser(ctx.Request.Context(), req.WalletIdentity, req.DisplayName)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, RegisterUserResponse{
		Message:        "User registered/updated successfully",
		WalletIdentity: ref.WalletIdentity,
		ID:             ref.ID,
	})
}

// ListUsers handles GET /api/users
func (h *Handler) ListUsers(ctx *gin.Context) {
	users, err := h.users.ListUsers(ctx.Request.Context())
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}
