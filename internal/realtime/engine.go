package realtime

import "github.com/duelboard/duelboard/internal/model"

// MoveRequest is a proposed move forwarded to the rules engine
type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// MoveResult is the rules engine's verdict on a move or resignation
type MoveResult struct {
	Accepted bool
	Reason   string // rejection reason when not accepted
	Position string // new position encoding
	Terminal bool   // the game is over
	Result   string // terminal result (checkmate, stalemate, draw, resignation)
	Winner   model.Color
}

// MoveEngine is the move-legality collaborator: it consumes the current
// position plus a proposed move and produces accepted/rejected, the new
// position, and terminal-state flags. Rules validation itself lives
// outside the coordinator.
type MoveEngine interface {
	InitGame(roomID model.RoomID)
	ApplyMove(roomID model.RoomID, color model.Color, move MoveRequest) (MoveResult, error)
	Resign(roomID model.RoomID, color model.Color) (MoveResult, error)
	RemoveGame(roomID model.RoomID)
}
