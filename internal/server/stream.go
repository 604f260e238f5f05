package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/diogo/nimbus/internal/chat"
)

const writeWait = 10 * time.Second

// Frame types pushed over /api/stream.
const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// StreamFrame is one message written to a stream client.
type StreamFrame struct {
	Type     string         `json:"type"`
	Snapshot *chat.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// outbox coalesces snapshots so a slow client never blocks the session:
// only the latest snapshot is kept, errors are queued.
type outbox struct {
	mu     sync.Mutex
	latest *chat.Snapshot
	errs   []string
	wake   chan struct{}
}

func newOutbox() *outbox {
	return &outbox{wake: make(chan struct{}, 1)}
}

func (o *outbox) offerSnapshot(snap chat.Snapshot) {
	o.mu.Lock()
	o.latest = &snap
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) offerError(msg string) {
	o.mu.Lock()
	o.errs = append(o.errs, msg)
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []StreamFrame {
	o.mu.Lock()
	defer o.mu.Unlock()

	frames := make([]StreamFrame, 0, len(o.errs)+1)
	for _, e := range o.errs {
		frames = append(frames, StreamFrame{Type: FrameError, Error: e})
	}
	if o.latest != nil {
		frames = append(frames, StreamFrame{Type: FrameSnapshot, Snapshot: o.latest})
	}
	o.errs = nil
	o.latest = nil
	return frames
}

// streamHandler upgrades to a websocket that receives a snapshot after every
// session change. Clients submit by sending a SubmitRequest as JSON.
func streamHandler(session Session, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		ctx := c.Request.Context()
		box := newOutbox()
		readerDone := make(chan struct{})

		go func() {
			defer close(readerDone)
			for {
				var req SubmitRequest
				if err := conn.ReadJSON(&req); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						logger.Debug("websocket read failed", zap.Error(err))
					}
					return
				}
				if strings.TrimSpace(req.Text) == "" {
					box.offerError("text must not be empty")
					continue
				}
				if err := session.Submit(context.WithoutCancel(ctx), req.Text); err != nil {
					box.offerError(err.Error())
				}
			}
		}()

		defer func() {
			conn.Close()
			<-readerDone
		}()

		unsubscribe := session.Subscribe(box.offerSnapshot)
		defer unsubscribe()
		box.offerSnapshot(session.Snapshot())

		logger.Debug("stream client connected")
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			case <-readerDone:
				logger.Debug("stream client disconnected")
				return
			case <-box.wake:
				for _, frame := range box.drain() {
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteJSON(frame); err != nil {
						logger.Debug("websocket write failed", zap.Error(err))
						return
					}
				}
			}
		}
	}
}
