package service

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/observability"
)

const (
	socketSendBufferSize    = 32
	socketKeepAliveInterval = 30 * time.Second
)

// PresenceRegistry maps participant identities to their live socket sessions.
// Rooms are keyed by participant (kind:id), not by conversation, so one
// channel carries events across all of a user's conversations and devices.
// Created once at server start; empty rooms are pruned on leave.
type PresenceRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[*SocketSession]struct{}
	log   zerolog.Logger
}

// NewPresenceRegistry creates an empty registry.
func NewPresenceRegistry(logger zerolog.Logger) *PresenceRegistry {
	return &PresenceRegistry{
		rooms: make(map[string]map[*SocketSession]struct{}),
		log:   logger.With().Str("component", "presence_registry").Logger(),
	}
}

// Join adds the session to its participant's room. A participant may hold
// several simultaneous sessions (multi-tab, multi-device).
func (r *PresenceRegistry) Join(session *SocketSession) {
	key := session.participant.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[key]; !exists {
		r.rooms[key] = make(map[*SocketSession]struct{})
	}
	r.rooms[key][session] = struct{}{}

	observability.SocketSessionsActive().Inc()
	r.log.Debug().Str("room", key).Msg("socket session joined")
}

// Leave removes the session and prunes the room once empty.
func (r *PresenceRegistry) Leave(session *SocketSession) {
	key := session.participant.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.rooms[key]
	if !ok {
		return
	}
	if _, exists := sessions[session]; !exists {
		return
	}

	delete(sessions, session)
	if len(sessions) == 0 {
		delete(r.rooms, key)
	}

	observability.SocketSessionsActive().Dec()
	r.log.Debug().Str("room", key).Msg("socket session left")
}

// Broadcast fans an event out to every live session in the room. Delivery is
// at-most-once: an empty room drops the event silently and a full send buffer
// drops it for that session only. Never blocks the caller.
func (r *PresenceRegistry) Broadcast(key string, event dto.SocketEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for session := range r.rooms[key] {
		select {
		case session.send <- event:
		default:
			observability.SocketEventsDropped().Inc()
			r.log.Warn().Str("room", key).Str("event", event.Event).Msg("dropping socket event for slow client")
		}
	}
}

// RoomSize reports the number of live sessions for a participant. It is a
// presence approximation, not authoritative across processes.
func (r *PresenceRegistry) RoomSize(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[key])
}

// Rooms reports the number of non-empty rooms.
func (r *PresenceRegistry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// SocketSession is one live websocket connection bound to a participant.
type SocketSession struct {
	conn        *websocket.Conn
	send        chan dto.SocketEvent
	participant models.ParticipantRef
	registry    *PresenceRegistry
	closed      chan struct{}
	once        sync.Once
	log         zerolog.Logger
}

func (s *SocketSession) writer() {
	defer s.close()

	for {
		select {
		case event, ok := <-s.send:
			if !ok {
				return
			}
			if err := s.conn.WriteJSON(event); err != nil {
				s.log.Debug().Err(err).Msg("socket write loop terminated")
				return
			}
		case <-time.After(socketKeepAliveInterval):
			if err := s.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				s.log.Debug().Err(err).Msg("socket ping failed")
				return
			}
		case <-s.closed:
			return
		}
	}
}

// reader drains incoming frames until the peer disconnects. Clients send
// nothing after the connection handshake; the loop exists to observe closes.
func (s *SocketSession) reader() {
	defer s.close()

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.log.Debug().Err(err).Msg("socket read loop ended")
			return
		}
	}
}

func (s *SocketSession) close() {
	s.once.Do(func() {
		close(s.closed)
		s.registry.Leave(s)
		_ = s.conn.Close()
	})
}

// UnreadCounter yields the owner's current unread notification count; the
// gateway pushes it once on connect so fresh sessions start with an accurate
// badge.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, owner models.ParticipantRef) (int64, error)
}

// SocketGateway upgrades authenticated connections into registry sessions.
type SocketGateway struct {
	registry *PresenceRegistry
	unread   UnreadCounter
	logger   zerolog.Logger
}

// NewSocketGateway creates a gateway bound to the shared registry.
func NewSocketGateway(registry *PresenceRegistry, unread UnreadCounter, logger zerolog.Logger) *SocketGateway {
	return &SocketGateway{
		registry: registry,
		unread:   unread,
		logger:   logger.With().Str("component", "socket_gateway").Logger(),
	}
}

// ServeConnection owns the connection for its lifetime: joins the room,
// pushes the initial unread badge, then pumps until disconnect. Registry
// cleanup on disconnect never cancels persistence writes already in flight.
func (g *SocketGateway) ServeConnection(ctx context.Context, conn *websocket.Conn, participant models.ParticipantRef) {
	if ctx == nil {
		ctx = context.Background()
	}

	session := &SocketSession{
		conn:        conn,
		send:        make(chan dto.SocketEvent, socketSendBufferSize),
		participant: participant,
		registry:    g.registry,
		closed:      make(chan struct{}),
		log:         g.logger.With().Str("room", participant.Key()).Logger(),
	}

	g.registry.Join(session)
	observability.SocketConnectionsTotal().Inc()

	if g.unread != nil {
		if count, err := g.unread.UnreadCount(ctx, participant); err == nil {
			select {
			case session.send <- dto.NewUnreadCountUpdateEvent(count):
			default:
			}
		} else {
			g.logger.Warn().Err(err).Msg("failed to load unread count on connect")
		}
	}

	go session.writer()
	session.reader()
}
