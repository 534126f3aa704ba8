package model

import "time"

// RoomID is a human-readable code for joining rooms
type RoomID string

// ConnectionID is a transport-level identifier for one live connection
type ConnectionID string

// RoomStatus represents the current state of a room
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting" // Waiting for opponent
	RoomStatusActive  RoomStatus = "active"  // Game in progress
	RoomStatusEnded   RoomStatus = "ended"   // Terminal
)

// Color is a player's assigned side
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// PlayerRole distinguishes players from spectators
type PlayerRole string

const (
	RolePlayer    PlayerRole = "player"
	RoleSpectator PlayerRole = "spectator"
)

// Player represents a room member. Identity, not connection, is what
// makes a member unique: rejoining with the same IdentityKey replaces
// ConnectionID and keeps the existing slot.
type Player struct {
	ConnectionID ConnectionID `json:"connection_id"`
	IdentityKey  IdentityKey  `json:"identity_key"`
	Name         string       `json:"name"`
	Color        Color        `json:"color,omitempty"` // empty for spectators
	Role         PlayerRole   `json:"role"`
}

// Room represents one match and its members
type Room struct {
	ID        RoomID     `json:"id"`
	Players   []Player   `json:"players"`
	Status    RoomStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// PlayerByIdentity returns the member with the given identity key, or nil
func (r *Room) PlayerByIdentity(key IdentityKey) *Player {
	for i := range r.Players {
		if r.Players[i].IdentityKey == key {
			return &r.Players[i]
		}
	}
	return nil
}

// PlayerByConnection returns the member with the given connection id, or nil
func (r *Room) PlayerByConnection(connID ConnectionID) *Player {
	for i := range r.Players {
		if r.Players[i].ConnectionID == connID {
			return &r.Players[i]
		}
	}
	return nil
}

// PlayerCount returns the number of members with the player role
func (r *Room) PlayerCount() int {
	count := 0
	for _, p := range r.Players {
		if p.Role == RolePlayer {
			count++
		}
	}
	return count
}

// ColorTaken reports whether any player-role member holds the given color
func (r *Room) ColorTaken(c Color) bool {
	for _, p := range r.Players {
		if p.Role == RolePlayer && p.Color == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand outside the lifecycle manager
func (r *Room) Clone() *Room {
	players := make([]Player, len(r.Players))
	copy(players, r.Players)
	return &Room{
		ID:        r.ID,
		Players:   players,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}
