package factory

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/services/session"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// tokenFromLink pulls the raw token out of a captured magic-link URL
func (s *IntegrationSuite) tokenFromLink(link string) string {
	u, err := url.Parse(link)
	s.Require().NoError(err)
	return u.Query().Get("token")
}

// Test: guest mint, magic-link login, and upgrade to an account session
func (s *IntegrationSuite) TestGuestLoginUpgradeFlow() {
	// Step 1: First contact mints a guest identity
	guest, err := s.app.SessionService.Resolve(s.ctx, "")
	s.Require().NoError(err)
	s.False(guest.IsAccount())
	s.NotEmpty(guest.GuestID)

	// Step 2: Request a login link
	s.app.MockRandom.QueueHex(strings.Repeat("ab", 32))
	err = s.app.MagicLinkService.Start(s.ctx, "Alice@Example.com", "203.0.113.9", "cli")
	s.Require().NoError(err)

	sent := s.app.Emails.Last()
	s.Require().NotNil(sent)
	s.Equal("alice@example.com", sent.Email)

	// Step 3: Redeem the token
	user, err := s.app.MagicLinkService.Verify(s.ctx, s.tokenFromLink(sent.URL))
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)
	s.Equal("alice", user.DisplayName)

	// Step 4: Upgrade the session
	upgraded, err := s.app.SessionService.RotateToAccount(s.ctx, guest, session.Account{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	})
	s.Require().NoError(err)
	s.True(upgraded.IsAccount())
	s.NotEqual(guest.SessionKey, upgraded.SessionKey)
	s.Equal(guest.GuestID, upgraded.GuestID, "guest lineage carries forward")

	// Step 5: The old session key no longer resolves to the old identity
	_, err = s.app.Storage.GetSession(s.ctx, guest.SessionKey)
	s.ErrorIs(err, model.ErrSessionNotFound)

	// Step 6: The new key resolves to the account
	resolved, err := s.app.SessionService.Resolve(s.ctx, string(upgraded.SessionKey))
	s.Require().NoError(err)
	s.Equal(user.ID, resolved.AccountID)
}

// Test: a magic link can only be redeemed once
func (s *IntegrationSuite) TestMagicLinkSingleUse() {
	s.app.MockRandom.QueueHex(strings.Repeat("cd", 32))
	s.Require().NoError(s.app.MagicLinkService.Start(s.ctx, "bob@example.com", "", ""))

	token := s.tokenFromLink(s.app.Emails.Last().URL)

	_, err := s.app.MagicLinkService.Verify(s.ctx, token)
	s.Require().NoError(err)

	_, err = s.app.MagicLinkService.Verify(s.ctx, token)
	s.ErrorIs(err, model.ErrTokenUsed)
}

// Test: logout discards the account and the old guest lineage
func (s *IntegrationSuite) TestLogoutFlow() {
	guest, err := s.app.SessionService.Resolve(s.ctx, "")
	s.Require().NoError(err)

	fresh, err := s.app.SessionService.RotateToGuest(s.ctx, guest)
	s.Require().NoError(err)
	s.False(fresh.IsAccount())
	s.NotEqual(guest.GuestID, fresh.GuestID)
	s.NotEqual(guest.SessionKey, fresh.SessionKey)

	_, err = s.app.Storage.GetSession(s.ctx, guest.SessionKey)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Test: full room lifecycle driven by two identities
func (s *IntegrationSuite) TestRoomLifecycleFlow() {
	alice, err := s.app.SessionService.Resolve(s.ctx, "")
	s.Require().NoError(err)
	bob, err := s.app.SessionService.Resolve(s.ctx, "")
	s.Require().NoError(err)

	// Alice creates a room
	s.app.MockRandom.QueueString("ABC234")
	room, err := s.app.RoomManager.CreateRoom("conn-a", "Alice", alice.Key())
	s.Require().NoError(err)
	s.Equal(model.RoomID("ABC234"), room.ID)
	s.Equal(model.RoomStatusWaiting, room.Status)
	s.Equal(model.ColorWhite, room.Players[0].Color)

	// Bob joins and the game starts
	room, err = s.app.RoomManager.JoinRoom(room.ID, "conn-b", "Bob", bob.Key())
	s.Require().NoError(err)
	s.Equal(model.RoomStatusActive, room.Status)
	s.Equal(model.ColorBlack, room.Players[1].Color)

	// Bob reconnects under a new connection; his seat and color survive
	room, err = s.app.RoomManager.JoinRoom(room.ID, "conn-b2", "Bob", bob.Key())
	s.Require().NoError(err)
	s.Len(room.Players, 2)

	player := room.PlayerByIdentity(bob.Key())
	s.Require().NotNil(player)
	s.Equal(model.ConnectionID("conn-b2"), player.ConnectionID)
	s.Equal(model.ColorBlack, player.Color)

	// Game ends; a later join is rejected
	s.Require().NoError(s.app.RoomManager.EndGame(room.ID))
	carol, err := s.app.SessionService.Resolve(s.ctx, "")
	s.Require().NoError(err)
	_, err = s.app.RoomManager.JoinRoom(room.ID, "conn-c", "Carol", carol.Key())
	s.ErrorIs(err, model.ErrGameEnded)
}

// Test: login requests are rate limited per key within the fixed window
func (s *IntegrationSuite) TestRateLimitWindow() {
	now := s.app.MockClock.Now()

	for i := 0; i < 5; i++ {
		s.True(s.app.RateLimiter.Allow("203.0.113.9", now))
	}
	s.False(s.app.RateLimiter.Allow("203.0.113.9", now))

	// Another key is unaffected
	s.True(s.app.RateLimiter.Allow("198.51.100.1", now))

	// The window rolls over
	s.True(s.app.RateLimiter.Allow("203.0.113.9", now.Add(61*time.Second)))
}
