package api

import (
	"context"
	"net/http"

	"content-registry/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type UserService interface {
	RegisterOrUpdateUser(ctx context.Context, walletIdentity, displayName string) (*service.UserRef, error)
	ListUsers(ctx context.Context) ([]service.UserSummary, error)
}

type ContentService interface {
	SubmitContent(ctx context.Context, link, walletIdentity string) (*service.ContentRef, error)
	ListContent(ctx context.Context) ([]service.ContentSummary, error)
	IncrementViewCount(ctx context.Context, contentID string) (*service.ViewCount, error)
}

type FeedService interface {
	FetchFeed(ctx context.Context) (interface{}, error)
}

// Handler 把 http 请求解析成业务入参，调用 registry，再编码成响应
type Handler struct {
	users    UserService
	contents ContentService
	feed     FeedService
}

func NewHandler(users UserService, contents ContentService, feed FeedService) *Handler {
	return &Handler{
		users:    users,
		contents: contents,
		feed:     feed,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (h *Handler) writeError(ctx *gin.Context, err error) {
	kind := service.KindOf(err)
	resp := ErrorResponse{
		Error:   kind.String(),
		Message: err.Error(),
	}

	var e *service.Error
	if errors.As(err, &e) {
		resp.Message = e.Message
		resp.Detail = e.Detail()
	}

	entry := logrus.WithError(err).WithFields(logrus.Fields{
		"method": ctx.Request.Method,
		"path":   ctx.FullPath(),
		"kind":   kind.String(),
	})
	if kind == service.KindStore {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	ctx.JSON(kind.Status(), resp)
}

func (h *Handler) bindError(ctx *gin.Context, msg string, err error) {
	ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   service.KindValidation.String(),
		Message: msg,
		Detail:  err.Error(),
	})
}
