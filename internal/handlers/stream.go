package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/taskflowhq/board-api/internal/broadcast"
	"github.com/taskflowhq/board-api/internal/constants"
	apierrors "github.com/taskflowhq/board-api/internal/errors"
	"github.com/taskflowhq/board-api/internal/models"
)

const streamWriteTimeout = 5 * time.Second

// StreamHandler upgrades a connection to WebSocket and forwards the
// organization's broadcast events to it. Identity and membership are
// verified by the middleware chain before the subscription is accepted; the
// subscription lives exactly as long as the connection.
type StreamHandler struct {
	hub    *broadcast.Hub
	logger *logrus.Logger
}

func NewStreamHandler(hub *broadcast.Hub, logger *logrus.Logger) *StreamHandler {
	return &StreamHandler{
		hub:    hub,
		logger: logger,
	}
}

// Subscribe streams the organization's events until the client disconnects.
// Events arrive in publish order; a disconnect simply ends delivery.
func (h *StreamHandler) Subscribe(c *gin.Context) {
	orgInterface, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}
	org, ok := orgInterface.(models.Organization)
	if !ok {
		apierrors.InternalError(c, "Invalid organization data")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	sub := h.hub.Subscribe(org.ID)
	defer h.hub.Unsubscribe(sub)

	// CloseRead discards inbound frames and cancels the context when the
	// client goes away.
	ctx := conn.CloseRead(c.Request.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "")
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.WithError(err).Error("could not encode stream event")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
