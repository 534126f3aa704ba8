package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/duelboard/duelboard/internal/dependencies/mocks"
	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	manager *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	// Short grace so deletion tests stay fast
	s.manager = NewManager(s.clock, s.random, Config{GracePeriod: 50 * time.Millisecond}, testutil.NopLogger())
}

func (s *ManagerSuite) TearDownTest() {
	s.manager.Cleanup()
}

func (s *ManagerSuite) createRoom(code string) *model.Room {
	s.random.QueueString(code)
	room, err := s.manager.CreateRoom("conn-a", "Alice", "guest:alice")
	s.Require().NoError(err)
	return room
}

// CreateRoom tests

func (s *ManagerSuite) TestCreateRoomFirstPlayerIsWhite() {
	room := s.createRoom("ABC234")

	s.Equal(model.RoomID("ABC234"), room.ID)
	s.Equal(model.RoomStatusWaiting, room.Status)
	s.Require().Len(room.Players, 1)
	s.Equal(model.ColorWhite, room.Players[0].Color)
	s.Equal(model.RolePlayer, room.Players[0].Role)
	s.Equal("Alice", room.Players[0].Name)
	s.Equal(s.clock.Now(), room.CreatedAt)
}

func (s *ManagerSuite) TestCreateRoomRetriesOnCollision() {
	s.createRoom("ABC234")

	// First candidate collides, second succeeds
	s.random.QueueString("ABC234", "XYZ789")
	room, err := s.manager.CreateRoom("conn-b", "Bob", "guest:bob")
	s.Require().NoError(err)
	s.Equal(model.RoomID("XYZ789"), room.ID)
}

func (s *ManagerSuite) TestCreateRoomFailsWhenCodesExhausted() {
	s.createRoom("ABC234")

	// Every candidate collides
	for i := 0; i < 10; i++ {
		s.random.QueueString("ABC234")
	}
	_, err := s.manager.CreateRoom("conn-b", "Bob", "guest:bob")
	s.ErrorIs(err, model.ErrRoomCodeSpaceExhausted)
}

// JoinRoom tests

func (s *ManagerSuite) TestJoinRoomSecondPlayerIsBlackAndStartsGame() {
	room := s.createRoom("ABC234")

	joined, err := s.manager.JoinRoom(room.ID, "conn-b", "Bob", "guest:bob")
	s.Require().NoError(err)

	s.Equal(model.RoomStatusActive, joined.Status)
	s.Require().Len(joined.Players, 2)
	s.Equal(model.ColorBlack, joined.Players[1].Color)
	s.Equal(model.RolePlayer, joined.Players[1].Role)
}

func (s *ManagerSuite) TestJoinRoomUnknownRoom() {
	_, err := s.manager.JoinRoom("NOPE42", "conn-b", "Bob", "guest:bob")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ManagerSuite) TestJoinRoomThirdIdentityIsSpectator() {
	room := s.createRoom("ABC234")
	_, err := s.manager.JoinRoom(room.ID, "conn-b", "Bob", "guest:bob")
	s.Require().NoError(err)

	joined, err := s.manager.JoinRoom(room.ID, "conn-c", "Carol", "guest:carol")
	s.Require().NoError(err)

	s.Require().Len(joined.Players, 3)
	s.Equal(model.RoleSpectator, joined.Players[2].Role)
	s.Empty(joined.Players[2].Color)
}

func (s *ManagerSuite) TestJoinRoomEndedGameRejected() {
	room := s.createRoom("ABC234")
	s.Require().NoError(s.manager.EndGame(room.ID))

	_, err := s.manager.JoinRoom(room.ID, "conn-b", "Bob", "guest:bob")
	s.ErrorIs(err, model.ErrGameEnded)
}

func (s *ManagerSuite) TestJoinRoomVacatedWhiteGoesToNextPlayer() {
	room := s.createRoom("ABC234")

	// White leaves the still-waiting room; the next identity to join
	// takes the vacant white seat instead of defaulting to black
	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-a"))

	joined, err := s.manager.JoinRoom(room.ID, "conn-c", "Carol", "guest:carol")
	s.Require().NoError(err)

	carol := joined.PlayerByIdentity("guest:carol")
	s.Require().NotNil(carol)
	s.Equal(model.ColorWhite, carol.Color)
	s.Equal(model.RolePlayer, carol.Role)
}

// Reconnection tests

func (s *ManagerSuite) TestReconnectKeepsSlotAndColor() {
	room := s.createRoom("ABC234")
	_, err := s.manager.JoinRoom(room.ID, "conn-b", "Bob", "guest:bob")
	s.Require().NoError(err)

	rejoined, err := s.manager.JoinRoom(room.ID, "conn-b2", "Bob", "guest:bob")
	s.Require().NoError(err)

	s.Len(rejoined.Players, 2, "reconnection must not consume a slot")
	bob := rejoined.PlayerByIdentity("guest:bob")
	s.Require().NotNil(bob)
	s.Equal(model.ConnectionID("conn-b2"), bob.ConnectionID)
	s.Equal(model.ColorBlack, bob.Color)
	s.Equal(model.RolePlayer, bob.Role)
}

func (s *ManagerSuite) TestReconnectEmptyNameKeepsOldName() {
	room := s.createRoom("ABC234")

	rejoined, err := s.manager.JoinRoom(room.ID, "conn-a2", "", "guest:alice")
	s.Require().NoError(err)

	s.Equal("Alice", rejoined.Players[0].Name)
}

func (s *ManagerSuite) TestRejoinAfterGameEndedRejected() {
	room := s.createRoom("ABC234")
	_, err := s.manager.JoinRoom(room.ID, "conn-b", "Bob", "guest:bob")
	s.Require().NoError(err)

	// Bob leaving the active pair ends the game; even Bob cannot rejoin
	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-b"))

	_, err = s.manager.JoinRoom(room.ID, "conn-b2", "Bob", "guest:bob")
	s.ErrorIs(err, model.ErrGameEnded)
}

// RemovePlayer tests

func (s *ManagerSuite) TestRemovePlayerUnknownConnection() {
	room := s.createRoom("ABC234")
	s.ErrorIs(s.manager.RemovePlayer(room.ID, "conn-x"), model.ErrPlayerNotInRoom)
}

func (s *ManagerSuite) TestRemoveLastPlayerFromWaitingDefersDeletion() {
	room := s.createRoom("ABC234")

	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-a"))

	// Still present inside the grace period
	_, err := s.manager.Room(room.ID)
	s.NoError(err)

	// Gone after it elapses
	s.Eventually(func() bool {
		_, err := s.manager.Room(room.ID)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func (s *ManagerSuite) TestRejoinWithinGraceCancelsDeletion() {
	room := s.createRoom("ABC234")
	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-a"))

	_, err := s.manager.JoinRoom(room.ID, "conn-a2", "Alice", "guest:alice")
	s.Require().NoError(err)

	// Well past the grace period the room must still exist
	time.Sleep(150 * time.Millisecond)
	snapshot, err := s.manager.Room(room.ID)
	s.Require().NoError(err)
	s.Len(snapshot.Players, 1)
}

func (s *ManagerSuite) TestRemoveFromActivePairEndsGame() {
	room := s.createRoom("ABC234")
	_, err := s.manager.JoinRoom(room.ID, "conn-b", "Bob", "guest:bob")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-a"))

	snapshot, err := s.manager.Room(room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusEnded, snapshot.Status)
}

func (s *ManagerSuite) TestRemoveSpectatorDoesNotEndGame() {
	room := s.createRoom("ABC234")
	_, err := s.manager.JoinRoom(room.ID, "conn-b", "Bob", "guest:bob")
	s.Require().NoError(err)
	_, err = s.manager.JoinRoom(room.ID, "conn-c", "Carol", "guest:carol")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-c"))

	snapshot, err := s.manager.Room(room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusActive, snapshot.Status)
}

func (s *ManagerSuite) TestEmptiedEndedRoomDeletedImmediately() {
	room := s.createRoom("ABC234")
	_, err := s.manager.JoinRoom(room.ID, "conn-b", "Bob", "guest:bob")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-a"))
	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-b"))

	_, err = s.manager.Room(room.ID)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// EndGame tests

func (s *ManagerSuite) TestEndGameIsIdempotent() {
	room := s.createRoom("ABC234")

	s.Require().NoError(s.manager.EndGame(room.ID))
	s.Require().NoError(s.manager.EndGame(room.ID))

	snapshot, err := s.manager.Room(room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusEnded, snapshot.Status)
}

func (s *ManagerSuite) TestEndGameUnknownRoom() {
	s.ErrorIs(s.manager.EndGame("NOPE42"), model.ErrRoomNotFound)
}

// Pending deletion tests

func (s *ManagerSuite) TestCancelPendingDeletion() {
	room := s.createRoom("ABC234")
	s.Require().NoError(s.manager.RemovePlayer(room.ID, "conn-a"))

	s.True(s.manager.CancelPendingDeletion(room.ID))
	s.False(s.manager.CancelPendingDeletion(room.ID), "nothing pending the second time")

	// The cancelled timer must never fire
	time.Sleep(150 * time.Millisecond)
	_, err := s.manager.Room(room.ID)
	s.NoError(err)
}

// Snapshot tests

func (s *ManagerSuite) TestRoomReturnsSnapshot() {
	room := s.createRoom("ABC234")

	snapshot, err := s.manager.Room(room.ID)
	s.Require().NoError(err)

	// Mutating the snapshot must not leak into manager state
	snapshot.Players[0].Name = "Mallory"

	fresh, err := s.manager.Room(room.ID)
	s.Require().NoError(err)
	s.Equal("Alice", fresh.Players[0].Name)
}

func (s *ManagerSuite) TestPlayerByConnection() {
	room := s.createRoom("ABC234")

	player, err := s.manager.PlayerByConnection(room.ID, "conn-a")
	s.Require().NoError(err)
	s.Equal(model.IdentityKey("guest:alice"), player.IdentityKey)

	_, err = s.manager.PlayerByConnection(room.ID, "conn-x")
	s.ErrorIs(err, model.ErrPlayerNotInRoom)

	_, err = s.manager.PlayerByConnection("NOPE42", "conn-a")
	s.ErrorIs(err, model.ErrRoomNotFound)
}
