package room

import (
	"log/slog"
	"sync"
	"time"

	"github.com/duelboard/duelboard/internal/dependencies/clock"
	"github.com/duelboard/duelboard/internal/dependencies/random"
	"github.com/duelboard/duelboard/internal/model"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6
	// CodeAlphabet is the characters used in room codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// maxCodeAttempts bounds collision retries; exhaustion fails loudly
	// instead of recursing forever
	maxCodeAttempts = 10
)

// Manager owns the room/player state machine. Rooms are process-owned:
// operations on one room serialize through its entry lock, operations on
// different rooms run concurrently. Emptied waiting rooms are deleted
// after a grace period by a cancellable per-room timer.
type Manager struct {
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	grace time.Duration

	mu    sync.RWMutex // guards map membership; entry locks guard room state
	rooms map[model.RoomID]*entry
}

// entry pairs a room with its serialization lock and pending-deletion
// timer. deleteGen is bumped whenever a timer is scheduled or cancelled
// so a stale callback can detect it lost the race.
type entry struct {
	mu        sync.Mutex
	room      *model.Room
	timer     *time.Timer
	deleteGen uint64
}

// Config holds configuration for the room lifecycle manager
type Config struct {
	// GracePeriod is the delay before deleting an emptied waiting room,
	// allowing reconnection
	GracePeriod time.Duration
}

// DefaultConfig returns default room lifecycle configuration
func DefaultConfig() Config {
	return Config{
		GracePeriod: 120 * time.Second,
	}
}

// NewManager creates a new room lifecycle manager
func NewManager(clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *Manager {
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = DefaultConfig().GracePeriod
	}
	return &Manager{
		clock:  clk,
		random: rnd,
		logger: logger.With(slog.String("component", "rooms")),
		grace:  cfg.GracePeriod,
		rooms:  make(map[model.RoomID]*entry),
	}
}

// CreateRoom creates a room with the caller as its first player (white).
func (m *Manager) CreateRoom(connectionID model.ConnectionID, name string, identityKey model.IdentityKey) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id model.RoomID
	found := false
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		id = model.RoomID(m.random.String(CodeLength, CodeAlphabet))
		if _, exists := m.rooms[id]; !exists {
			found = true
			break
		}
	}
	if !found {
		return nil, model.ErrRoomCodeSpaceExhausted
	}

	room := &model.Room{
		ID: id,
		Players: []model.Player{
			{
				ConnectionID: connectionID,
				IdentityKey:  identityKey,
				Name:         name,
				Color:        model.ColorWhite,
				Role:         model.RolePlayer,
			},
		},
		Status:    model.RoomStatusWaiting,
		CreatedAt: m.clock.Now(),
	}

	m.rooms[id] = &entry{room: room}

	m.logger.Info("room created",
		slog.String("room", string(id)),
		slog.String("identity", string(identityKey)),
	)

	return room.Clone(), nil
}

// JoinRoom adds a member to a room, or reconnects an identity that is
// already a member. Reconnection replaces the connection id and keeps
// the member's slot, color and role; it never consumes a new slot.
// Joining supersedes any scheduled deletion for the room.
func (m *Manager) JoinRoom(roomID model.RoomID, connectionID model.ConnectionID, name string, identityKey model.IdentityKey) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.rooms[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.room.Status == model.RoomStatusEnded {
		return nil, model.ErrGameEnded
	}

	m.cancelTimerLocked(e)

	if existing := e.room.PlayerByIdentity(identityKey); existing != nil {
		existing.ConnectionID = connectionID
		if name != "" {
			existing.Name = name
		}
		m.logger.Info("player reconnected",
			slog.String("room", string(roomID)),
			slog.String("identity", string(identityKey)),
		)
		return e.room.Clone(), nil
	}

	player := model.Player{
		ConnectionID: connectionID,
		IdentityKey:  identityKey,
		Name:         name,
		Role:         model.RoleSpectator,
	}
	if e.room.PlayerCount() < 2 {
		player.Role = model.RolePlayer
		player.Color = model.ColorBlack
		if !e.room.ColorTaken(model.ColorWhite) {
			player.Color = model.ColorWhite
		}
	}

	e.room.Players = append(e.room.Players, player)

	if e.room.Status == model.RoomStatusWaiting && e.room.PlayerCount() >= 2 {
		e.room.Status = model.RoomStatusActive
		m.logger.Info("game started", slog.String("room", string(roomID)))
	}

	m.logger.Info("player joined",
		slog.String("room", string(roomID)),
		slog.String("identity", string(identityKey)),
		slog.String("role", string(player.Role)),
	)

	return e.room.Clone(), nil
}

// RemovePlayer removes the member holding the given connection. An
// emptied waiting room is scheduled for deletion after the grace period
// rather than deleted immediately; an emptied active or ended room goes
// at once. An active room left with fewer than two players ends.
func (m *Manager) RemovePlayer(roomID model.RoomID, connectionID model.ConnectionID) error {
	m.mu.RLock()

	e, ok := m.rooms[roomID]
	if !ok {
		m.mu.RUnlock()
		return model.ErrRoomNotFound
	}

	e.mu.Lock()

	idx := -1
	for i := range e.room.Players {
		if e.room.Players[i].ConnectionID == connectionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		e.mu.Unlock()
		m.mu.RUnlock()
		return model.ErrPlayerNotInRoom
	}

	removed := e.room.Players[idx]
	e.room.Players = append(e.room.Players[:idx], e.room.Players[idx+1:]...)

	m.logger.Info("player removed",
		slog.String("room", string(roomID)),
		slog.String("identity", string(removed.IdentityKey)),
	)

	deleteNow := false
	if len(e.room.Players) == 0 {
		if e.room.Status == model.RoomStatusWaiting {
			m.scheduleDeletionLocked(roomID, e)
		} else {
			deleteNow = true
		}
	} else if e.room.Status == model.RoomStatusActive && e.room.PlayerCount() < 2 {
		e.room.Status = model.RoomStatusEnded
		m.logger.Info("game ended: not enough players", slog.String("room", string(roomID)))
	}

	e.mu.Unlock()
	m.mu.RUnlock()

	if deleteNow {
		m.deleteIfEmpty(roomID)
	}
	return nil
}

// EndGame forces a room's status to ended. Idempotent.
func (m *Manager) EndGame(roomID model.RoomID) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.rooms[roomID]
	if !ok {
		return model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.room.Status != model.RoomStatusEnded {
		e.room.Status = model.RoomStatusEnded
		m.logger.Info("game ended", slog.String("room", string(roomID)))
	}
	return nil
}

// CancelPendingDeletion cancels a scheduled deletion, reporting whether
// one was pending. Used when an identity reconnects out of band.
func (m *Manager) CancelPendingDeletion(roomID model.RoomID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.rooms[roomID]
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return m.cancelTimerLocked(e)
}

// Room returns a snapshot of a room
func (m *Manager) Room(roomID model.RoomID) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.rooms[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room.Clone(), nil
}

// PlayerByConnection returns a snapshot of the member holding the given
// connection in a room
func (m *Manager) PlayerByConnection(roomID model.RoomID, connectionID model.ConnectionID) (*model.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.rooms[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.room.PlayerByConnection(connectionID)
	if p == nil {
		return nil, model.ErrPlayerNotInRoom
	}
	copied := *p
	return &copied, nil
}

// Cleanup cancels all outstanding deletion timers. Call at process
// shutdown only.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.rooms {
		e.mu.Lock()
		m.cancelTimerLocked(e)
		e.mu.Unlock()
	}
}

// scheduleDeletionLocked arms the grace-period timer for a room. The old
// timer, if any, is cancelled first so at most one is ever outstanding.
// Caller holds the entry lock.
func (m *Manager) scheduleDeletionLocked(roomID model.RoomID, e *entry) {
	m.cancelTimerLocked(e)
	e.deleteGen++
	gen := e.deleteGen
	e.timer = time.AfterFunc(m.grace, func() {
		m.reapRoom(roomID, gen)
	})
	m.logger.Info("room deletion scheduled",
		slog.String("room", string(roomID)),
		slog.Duration("grace", m.grace),
	)
}

// cancelTimerLocked stops any pending deletion timer and invalidates its
// generation. Caller holds the entry lock. Reports whether a timer was
// pending.
func (m *Manager) cancelTimerLocked(e *entry) bool {
	if e.timer == nil {
		return false
	}
	e.timer.Stop()
	e.timer = nil
	e.deleteGen++
	return true
}

// reapRoom runs when a grace-period timer fires. The generation check
// makes a cancelled-but-already-fired timer a no-op, and the room must
// still be an empty waiting room to be deleted.
func (m *Manager) reapRoom(roomID model.RoomID, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.rooms[roomID]
	if !ok {
		return
	}
	if e.deleteGen != gen {
		return
	}
	if len(e.room.Players) != 0 || e.room.Status != model.RoomStatusWaiting {
		return
	}

	delete(m.rooms, roomID)
	m.logger.Info("room deleted after grace period", slog.String("room", string(roomID)))
}

// deleteIfEmpty removes a room immediately if it is still empty
func (m *Manager) deleteIfEmpty(roomID model.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.rooms[roomID]
	if !ok {
		return
	}
	if len(e.room.Players) != 0 {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	delete(m.rooms, roomID)
	m.logger.Info("room deleted", slog.String("room", string(roomID)))
}
