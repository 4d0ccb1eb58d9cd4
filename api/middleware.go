package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const allowHeaders = "Content-Type, Authorization"

// allowAnyOrigin 挂在 engine 上，未匹配路由的 404 也带上跨域头
func allowAnyOrigin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		ctx.Next()
	}
}

// cors methods 为该资源支持的方法
func cors(methods ...string) gin.HandlerFunc {
	allowMethods := strings.Join(methods, ", ")
	return func(ctx *gin.Context) {
		h := ctx.Writer.Header()
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		ctx.Next()
	}
}

// preflight OPTIONS 请求返回空 body
func preflight(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// requestTimeout 给每个请求设置处理时限，超时后存储调用以 StoreError 失败
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if d <= 0 {
			ctx.Next()
			return
		}
		c, cancel := context.WithTimeout(ctx.Request.Context(), d)
		defer cancel()
		ctx.Request = ctx.Request.WithContext(c)
		ctx.Next()
	}
}

// accessLog 请求日志
func accessLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		logrus.WithFields(logrus.Fields{
			"method":  ctx.Request.Method,
			"path":    ctx.Request.URL.Path,
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  ctx.ClientIP(),
		}).Info("http request")
	}
}
