// Package server exposes a chat session over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/diogo/nimbus/internal/chat"
)

// Session is the part of chat.Session the HTTP front-end drives.
type Session interface {
	ID() string
	Submit(ctx context.Context, text string) error
	Snapshot() chat.Snapshot
	Subscribe(obs chat.Observer) (unsubscribe func())
}

// SubmitRequest is the body of POST /api/messages.
type SubmitRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the gin engine serving session.
func NewRouter(session Session, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "session": session.ID()})
	})

	api := router.Group("/api")
	api.GET("/messages", func(c *gin.Context) {
		c.JSON(http.StatusOK, session.Snapshot())
	})
	api.GET("/messages/export", func(c *gin.Context) {
		format, err := chat.ParseExportFormat(c.Query("format"))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		data, err := chat.Export(session.Snapshot(), format)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		contentType := "text/markdown; charset=utf-8"
		if format == chat.ExportJSON {
			contentType = "application/json; charset=utf-8"
		}
		c.Data(http.StatusOK, contentType, data)
	})
	api.POST("/messages", func(c *gin.Context) {
		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "text must not be empty"})
			return
		}

		// A dropped client must not abort the shared session's turn.
		if err := session.Submit(context.WithoutCancel(c.Request.Context()), req.Text); err != nil {
			if errors.Is(err, chat.ErrBusy) {
				c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, session.Snapshot())
	})
	api.GET("/stream", streamHandler(session, logger))

	return router
}

// requestLogger logs one line per request at debug level, and at warn
// level for server errors.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("http request", fields...)
			return
		}
		logger.Debug("http request", fields...)
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
// Request contexts derive from ctx, so open streams close when it ends.
// Turns already dispatched run to completion.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
