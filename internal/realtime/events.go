package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/duelboard/duelboard/internal/model"
)

// Inbound event types
const (
	EventCreateRoom = "create_room"
	EventJoinRoom   = "join_room"
	EventMove       = "move"
	EventResign     = "resign"
)

// Outbound event types
const (
	EventRoomCreated  = "room_created"
	EventRoomJoined   = "room_joined"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventGameStarted  = "game_started"
	EventMoveMade     = "move_made"
	EventGameEnded    = "game_ended"
	EventError        = "error"
)

// Envelope is the tagged-variant wire format for gateway events. The
// payload is validated per type before it reaches any state.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomPayload carries a create_room request
type CreateRoomPayload struct {
	Name string `json:"name"`
}

// JoinRoomPayload carries a join_room request
type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// MovePayload carries a move request
type MovePayload struct {
	RoomID    string `json:"room_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// ResignPayload carries a resign request
type ResignPayload struct {
	RoomID string `json:"room_id"`
}

// decodePayload unmarshals and validates one payload variant
func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}

// Validate checks required fields before the payload touches state
func (p *CreateRoomPayload) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Validate checks required fields before the payload touches state
func (p *JoinRoomPayload) Validate() error {
	if p.RoomID == "" {
		return fmt.Errorf("room_id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Validate checks required fields before the payload touches state
func (p *MovePayload) Validate() error {
	if p.RoomID == "" {
		return fmt.Errorf("room_id is required")
	}
	if p.From == "" || p.To == "" {
		return fmt.Errorf("from and to are required")
	}
	return nil
}

// Validate checks required fields before the payload touches state
func (p *ResignPayload) Validate() error {
	if p.RoomID == "" {
		return fmt.Errorf("room_id is required")
	}
	return nil
}

// RoomSnapshot is the room state shared with clients
type RoomSnapshot struct {
	ID      string           `json:"id"`
	Status  string           `json:"status"`
	Players []PlayerSnapshot `json:"players"`
}

// PlayerSnapshot is the member state shared with clients
type PlayerSnapshot struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Role  string `json:"role"`
}

// snapshotRoom converts a room to its wire form. Connection and identity
// keys stay server-side.
func snapshotRoom(r *model.Room) RoomSnapshot {
	players := make([]PlayerSnapshot, len(r.Players))
	for i, p := range r.Players {
		players[i] = PlayerSnapshot{
			Name:  p.Name,
			Color: string(p.Color),
			Role:  string(p.Role),
		}
	}
	return RoomSnapshot{
		ID:      string(r.ID),
		Status:  string(r.Status),
		Players: players,
	}
}

// marshalEvent builds an outbound envelope
func marshalEvent(eventType string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	data, err := json.Marshal(Envelope{Type: eventType, Payload: raw})
	if err != nil {
		return nil
	}
	return data
}

// errorEvent builds an outbound error envelope
func errorEvent(code, message string) []byte {
	return marshalEvent(EventError, map[string]string{
		"code":    code,
		"message": message,
	})
}
