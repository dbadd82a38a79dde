package controller

import (
	"context"
	"encoding/json"
	"jsonweblog/internal/broadcast"
	"jsonweblog/internal/metrics"
	"jsonweblog/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type FeedController struct {
	feedService service.FeedService
	recorder    metrics.Recorder
	upgrader    websocket.Upgrader
}

func NewFeedController(feedService service.FeedService, recorder metrics.Recorder) *FeedController {
	return &FeedController{
		feedService: feedService,
		recorder:    recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func RegisterFeedRoutes(router *gin.Engine, controller *FeedController) {
	router.GET("/ws", controller.Stream)
}

// Stream godoc
// @Summary      Live log feed
// @Description  WebSocket upgrade. Sends the retained records first, then every new record, one JSON text message per record. A slow client loses its oldest undelivered records.
// @Tags         feed
// @Success      101
// @Router       /ws [get]
func (c *FeedController) Stream(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", ctx.Request.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := c.feedService.Connect(ctx.Request.RemoteAddr)
	defer c.feedService.Disconnect(sub)

	streamCtx, cancel := context.WithCancel(ctx.Request.Context())
	defer cancel()

	go c.readLoop(conn, cancel)
	go c.pingLoop(streamCtx, conn, cancel)

	c.writeLoop(streamCtx, conn, sub)
}

// readLoop discards client messages and cancels the stream once the
// connection is closed or stops answering pings.
func (c *FeedController) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

func (c *FeedController) pingLoop(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// WriteControl may run concurrently with WriteMessage.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cancel()
				return
			}
		}
	}
}

func (c *FeedController) writeLoop(ctx context.Context, conn *websocket.Conn, sub *broadcast.Subscription) {
	for {
		record, err := sub.Next(ctx)
		if err != nil {
			return
		}

		data, err := json.Marshal(record)
		if err != nil {
			// Counted like a queue overflow so the gap shows in stats.
			c.recorder.RecordDropped(1)
			log.Warn().Err(err).Uint64("sequence", record.Sequence).Str("subscriber_id", sub.ID()).Msg("Failed to encode record for feed, dropped")
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Str("subscriber_id", sub.ID()).Msg("WebSocket write failed")
			return
		}
	}
}
