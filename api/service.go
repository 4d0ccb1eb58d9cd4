package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"content-registry/config"

	"github.com/gin-gonic/gin"
)

// Option 注册一组路由
type Option func(*gin.RouterGroup)

type Server struct {
	engine          *gin.Engine
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewServer 组装 gin engine，所有路由挂在 /api 下
func NewServer(conf config.Server, h *Handler) *Server {
	if !conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), allowAnyOrigin(), accessLog(), requestTimeout(conf.RequestTimeout))

	g := r.Group("/api")
	for _, opt := range []Option{
		UserGroup(h),
		ContentGroup(h),
		HealthGroup(h),
		FeedGroup(h),
	} {
		opt(g)
	}

	return &Server{
		engine: r,
		server: &http.Server{
			Addr:              conf.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: conf.ShutdownTimeout,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 启动 http server，ctx 取消后优雅退出
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
