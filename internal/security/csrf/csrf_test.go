package csrf

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duelboard/duelboard/internal/dependencies/mocks"
	"github.com/duelboard/duelboard/internal/model"
)

func newTestGuard() (*Guard, *mocks.MockRandom) {
	rnd := mocks.NewMockRandom()
	return New(rnd, Config{}), rnd
}

func TestIssueReturnsMatchingPair(t *testing.T) {
	guard, rnd := newTestGuard()
	rnd.QueueHex("deadbeefcafe")

	token, cookie := guard.Issue()

	assert.Equal(t, "deadbeefcafe", token)
	assert.Equal(t, token, cookie.Value)
	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)
}

func TestIssueSecureCookie(t *testing.T) {
	rnd := mocks.NewMockRandom()
	guard := New(rnd, Config{SecureCookies: true})
	rnd.QueueHex("deadbeefcafe")

	_, cookie := guard.Issue()
	assert.True(t, cookie.Secure)
}

func TestRequireAcceptsMatchingPair(t *testing.T) {
	guard, _ := newTestGuard()
	require.NoError(t, guard.Require("tok", "tok"))
}

func TestRequireRejectsMismatch(t *testing.T) {
	guard, _ := newTestGuard()
	assert.ErrorIs(t, guard.Require("tok", "other"), model.ErrCSRFInvalid)
}

func TestRequireRejectsMissingHeader(t *testing.T) {
	guard, _ := newTestGuard()
	assert.ErrorIs(t, guard.Require("", "tok"), model.ErrCSRFInvalid)
}

func TestRequireRejectsMissingCookie(t *testing.T) {
	guard, _ := newTestGuard()
	assert.ErrorIs(t, guard.Require("tok", ""), model.ErrCSRFInvalid)
}

func TestRequireRejectsBothMissing(t *testing.T) {
	guard, _ := newTestGuard()
	assert.ErrorIs(t, guard.Require("", ""), model.ErrCSRFInvalid)
}
