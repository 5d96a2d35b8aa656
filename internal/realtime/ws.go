package realtime

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 10 * time.Second

// Upgrade rejects plain HTTP requests to a WebSocket route.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler streams hub events to a WebSocket client. greet returns the
// events sent right after connecting, before any published event.
func Handler(h *Hub, greet func() []Event) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sub := h.Subscribe()
		defer h.Unsubscribe(sub)

		logger := log.With().Str("remote", conn.RemoteAddr().String()).Logger()
		logger.Debug().Msg("dashboard connected")
		defer func() {
			logger.Debug().Int64("dropped", sub.Dropped()).Msg("dashboard disconnected")
		}()

		// Clients only listen; reading detects when they go away.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(ev Event) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug().Err(err).Str("event", ev.Name).Msg("websocket write failed")
				return false
			}
			return true
		}

		if greet != nil {
			for _, ev := range greet() {
				if !send(ev) {
					return
				}
			}
		}

		for {
			select {
			case ev, ok := <-sub.C:
				if !ok || !send(ev) {
					return
				}
			case <-closed:
				return
			}
		}
	})
}
