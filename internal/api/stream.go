package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/notify"
	"github.com/hivedesk/hivedesk/internal/repository"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens at the JWT middleware; the origin isn't part of it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler upgrades clients to websocket and forwards broker
// events. Subscribing happens BEFORE the upgrade: if the broker is down
// the client gets a plain 503 and falls back to one-shot fetching,
// instead of a websocket that dies silently.
type StreamHandler struct {
	broker      *notify.Broker
	communities repository.CommunityRepository
	logger      *zap.Logger
}

func NewStreamHandler(broker *notify.Broker, communities repository.CommunityRepository, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{broker: broker, communities: communities, logger: logger}
}

// Announcements handles GET /v1/stream/announcements. Every announcement
// event arrives on one channel; this connection forwards only the ones
// the caller would see in their own views — broadcasts and anything
// targeted at them. Credentials payloads for other users never cross
// this socket.
func (h *StreamHandler) Announcements(c *gin.Context) {
	uid := callerID(c)

	sub, err := h.broker.Subscribe(c.Request.Context(), notify.ChannelAnnouncements)
	if err != nil {
		h.logger.Warn("announcement stream unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates unavailable, poll instead"})
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	closed := watchClose(conn)
	ch := sub.Channel()
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ann models.Announcement
			if err := json.Unmarshal([]byte(msg.Payload), &ann); err != nil {
				h.logger.Warn("bad announcement event", zap.Error(err))
				continue
			}
			if !ann.IsBroadcast() && ann.TargetUID != uid {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		}
	}
}

// Feed handles GET /v1/stream/communities/:id/feed — live messages for
// one community, members only.
func (h *StreamHandler) Feed(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	community, err := h.communities.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get community", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load community"})
		return
	}
	if community == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
		return
	}
	if callerRole(c) != models.RoleAdmin && !community.HasMember(callerID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this community"})
		return
	}

	sub, err := h.broker.Subscribe(c.Request.Context(), notify.FeedChannel(community.ID))
	if err != nil {
		h.logger.Warn("feed stream unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates unavailable, poll instead"})
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	closed := watchClose(conn)
	ch := sub.Channel()
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		}
	}
}

// watchClose drains the client's read side so close frames are
// processed; the returned channel closes when the peer goes away.
func watchClose(conn *websocket.Conn) <-chan struct{} {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return closed
}
