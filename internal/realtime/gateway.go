package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/services/room"
	"github.com/duelboard/duelboard/internal/services/session"
)

// Error codes carried in outbound error events
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeRoomNotFound   = "ROOM_NOT_FOUND"
	codeGameEnded      = "GAME_ALREADY_ENDED"
	codeInvalidMove    = "INVALID_MOVE"
)

// Gateway routes inbound room events to the lifecycle manager and move
// engine, and outbound broadcasts to room members. Each connection is
// bound at upgrade time to the identity resolved from the session
// cookie, so reconnects land on the same room slot.
type Gateway struct {
	sessions *session.Service
	rooms    *room.Manager
	hubs     *HubManager
	engine   MoveEngine
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// Config holds configuration for the realtime gateway
type Config struct {
	// CheckOrigin overrides origin validation; nil keeps the gorilla
	// same-origin default
	CheckOrigin func(r *http.Request) bool
}

// NewGateway creates a new realtime gateway. The move engine may be nil,
// in which case move events are rejected.
func NewGateway(sessions *session.Service, rooms *room.Manager, hubs *HubManager, engine MoveEngine, cfg Config, logger *slog.Logger) *Gateway {
	return &Gateway{
		sessions: sessions,
		rooms:    rooms,
		hubs:     hubs,
		engine:   engine,
		logger:   logger.With(slog.String("component", "gateway")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// ServeHTTP upgrades the connection and runs its event loop
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var cookieValue string
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		cookieValue = cookie.Value
	}

	identity, err := g.sessions.Resolve(r.Context(), cookieValue)
	if err != nil {
		g.logger.Error("identity resolution failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	// The cookie must ride on the 101 handshake itself; headers set on
	// the ResponseWriter are discarded by the upgrade
	header := http.Header{}
	header.Add("Set-Cookie", g.sessions.Cookie(identity).String())

	conn, err := g.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}

	client := newClient(conn, model.ConnectionID(uuid.NewString()), identity.Key())

	g.logger.Info("connection opened",
		slog.String("connection", string(client.connectionID)),
		slog.String("identity", string(client.identityKey)),
	)

	go client.writePump()
	g.readLoop(client)
}

// readLoop dispatches inbound envelopes until the connection drops
func (g *Gateway) readLoop(client *Client) {
	defer g.disconnect(client)

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(g.deadline())
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(g.deadline())
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			client.Send(errorEvent(codeInvalidRequest, "malformed event"))
			continue
		}

		g.dispatch(client, env)
	}
}

// dispatch validates one envelope and routes it. Malformed payloads are
// rejected before they touch any state.
func (g *Gateway) dispatch(client *Client, env Envelope) {
	switch env.Type {
	case EventCreateRoom:
		var p CreateRoomPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
			return
		}
		if err := p.Validate(); err != nil {
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
			return
		}
		g.handleCreateRoom(client, p)

	case EventJoinRoom:
		var p JoinRoomPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
			return
		}
		if err := p.Validate(); err != nil {
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
			return
		}
		g.handleJoinRoom(client, p)

	case EventMove:
		var p MovePayload
		if err := decodePayload(env.Payload, &p); err != nil {
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
			return
		}
		if err := p.Validate(); err != nil {
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
			return
		}
		g.handleMove(client, p)

	case EventResign:
		var p ResignPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
			return
		}
		if err := p.Validate(); err != nil {
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
			return
		}
		g.handleResign(client, p)

	default:
		client.Send(errorEvent(codeInvalidRequest, "unknown event type"))
	}
}

func (g *Gateway) handleCreateRoom(client *Client, p CreateRoomPayload) {
	if client.roomID != "" {
		client.Send(errorEvent(codeInvalidRequest, "already in a room"))
		return
	}

	snapshot, err := g.rooms.CreateRoom(client.connectionID, p.Name, client.identityKey)
	if err != nil {
		client.Send(errorEvent(codeInvalidRequest, err.Error()))
		return
	}

	if g.engine != nil {
		g.engine.InitGame(snapshot.ID)
	}

	hub := g.hubs.GetOrCreateHub(snapshot.ID)
	hub.Register(client)
	client.roomID = snapshot.ID

	client.Send(marshalEvent(EventRoomCreated, map[string]any{
		"room":  snapshotRoom(snapshot),
		"color": string(model.ColorWhite),
	}))
}

func (g *Gateway) handleJoinRoom(client *Client, p JoinRoomPayload) {
	if client.roomID != "" {
		client.Send(errorEvent(codeInvalidRequest, "already in a room"))
		return
	}

	roomID := model.RoomID(p.RoomID)
	previous, _ := g.rooms.Room(roomID)
	reconnecting := previous != nil && previous.PlayerByIdentity(client.identityKey) != nil

	snapshot, err := g.rooms.JoinRoom(roomID, client.connectionID, p.Name, client.identityKey)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRoomNotFound):
			client.Send(errorEvent(codeRoomNotFound, "room not found"))
		case errors.Is(err, model.ErrGameEnded):
			client.Send(errorEvent(codeGameEnded, "game has already ended"))
		default:
			client.Send(errorEvent(codeInvalidRequest, err.Error()))
		}
		return
	}

	member := snapshot.PlayerByConnection(client.connectionID)
	if member == nil {
		client.Send(errorEvent(codeInvalidRequest, "failed to join room"))
		return
	}

	hub := g.hubs.GetOrCreateHub(roomID)
	hub.Register(client)
	client.roomID = roomID

	client.Send(marshalEvent(EventRoomJoined, map[string]any{
		"room":  snapshotRoom(snapshot),
		"color": string(member.Color),
		"role":  string(member.Role),
	}))

	// A reconnecting member never left as far as their peers are
	// concerned, so only genuinely new members are announced
	if !reconnecting {
		hub.BroadcastExcept(marshalEvent(EventPlayerJoined, map[string]any{
			"player": PlayerSnapshot{
				Name:  member.Name,
				Color: string(member.Color),
				Role:  string(member.Role),
			},
			"room": snapshotRoom(snapshot),
		}), client)
	}

	// Transition into active happens when the second player arrives
	if snapshot.Status == model.RoomStatusActive &&
		(previous == nil || previous.Status == model.RoomStatusWaiting) {
		hub.Broadcast(marshalEvent(EventGameStarted, map[string]any{
			"room": snapshotRoom(snapshot),
		}))
	}
}

func (g *Gateway) handleMove(client *Client, p MovePayload) {
	roomID := model.RoomID(p.RoomID)

	snapshot, err := g.rooms.Room(roomID)
	if err != nil {
		client.Send(errorEvent(codeRoomNotFound, "room not found"))
		return
	}
	if snapshot.Status != model.RoomStatusActive {
		client.Send(errorEvent(codeInvalidRequest, "game is not active"))
		return
	}

	player, err := g.rooms.PlayerByConnection(roomID, client.connectionID)
	if err != nil || player.Role != model.RolePlayer || player.Color == "" {
		client.Send(errorEvent(codeInvalidRequest, "you are not a player in this game"))
		return
	}

	if g.engine == nil {
		client.Send(errorEvent(codeInvalidRequest, "no rules engine configured"))
		return
	}

	result, err := g.engine.ApplyMove(roomID, player.Color, MoveRequest{
		From:      p.From,
		To:        p.To,
		Promotion: p.Promotion,
	})
	if err != nil {
		client.Send(errorEvent(codeInvalidRequest, err.Error()))
		return
	}
	if !result.Accepted {
		client.Send(errorEvent(codeInvalidMove, result.Reason))
		return
	}

	hub := g.hubs.GetOrCreateHub(roomID)
	hub.Broadcast(marshalEvent(EventMoveMade, map[string]any{
		"move":     MoveRequest{From: p.From, To: p.To, Promotion: p.Promotion},
		"position": result.Position,
		"by":       player.Name,
	}))

	if result.Terminal {
		hub.Broadcast(marshalEvent(EventGameEnded, map[string]any{
			"result": result.Result,
			"winner": string(result.Winner),
		}))
		_ = g.rooms.EndGame(roomID)
	}
}

func (g *Gateway) handleResign(client *Client, p ResignPayload) {
	roomID := model.RoomID(p.RoomID)

	player, err := g.rooms.PlayerByConnection(roomID, client.connectionID)
	if err != nil || player.Role != model.RolePlayer || player.Color == "" {
		client.Send(errorEvent(codeInvalidRequest, "invalid resignation request"))
		return
	}

	winner := model.ColorWhite
	if player.Color == model.ColorWhite {
		winner = model.ColorBlack
	}

	result := MoveResult{Terminal: true, Result: "resignation", Winner: winner}
	if g.engine != nil {
		if r, err := g.engine.Resign(roomID, player.Color); err == nil {
			result = r
		}
	}

	hub := g.hubs.GetOrCreateHub(roomID)
	hub.Broadcast(marshalEvent(EventGameEnded, map[string]any{
		"result":   result.Result,
		"winner":   string(result.Winner),
		"resigned": player.Name,
	}))

	_ = g.rooms.EndGame(roomID)
}

// disconnect runs the leave path for a dropped connection
func (g *Gateway) disconnect(client *Client) {
	defer func() {
		client.closeSend()
		_ = client.conn.Close()
	}()

	g.logger.Info("connection closed",
		slog.String("connection", string(client.connectionID)),
	)

	if client.roomID == "" {
		return
	}
	roomID := client.roomID

	// Leave the hub first, on every path, so no broadcast can reach a
	// client whose send channel is about to close
	hub := g.hubs.GetHub(roomID)
	if hub != nil {
		hub.Unregister(client)
	}

	player, err := g.rooms.PlayerByConnection(roomID, client.connectionID)
	if err != nil {
		// The identity reconnected on another connection and superseded
		// this one; the member keeps their seat
		return
	}

	if err := g.rooms.RemovePlayer(roomID, client.connectionID); err != nil {
		return
	}

	snapshot, err := g.rooms.Room(roomID)
	if err != nil {
		// Room deleted outright (it was active or ended and is now empty)
		if g.engine != nil {
			g.engine.RemoveGame(roomID)
		}
		g.hubs.RemoveHub(roomID)
		return
	}

	if hub != nil {
		hub.Broadcast(marshalEvent(EventPlayerLeft, map[string]any{
			"player": PlayerSnapshot{
				Name:  player.Name,
				Color: string(player.Color),
				Role:  string(player.Role),
			},
			"room": snapshotRoom(snapshot),
		}))

		if snapshot.Status == model.RoomStatusEnded {
			hub.Broadcast(marshalEvent(EventGameEnded, map[string]any{
				"result": "resignation",
				"reason": "player disconnected",
			}))
		}
	}
}

func (g *Gateway) deadline() time.Time {
	return time.Now().Add(pongWait)
}
