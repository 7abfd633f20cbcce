package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", "prepview-test", 0, 0)
	require.NoError(t, err)
	return m
}

func TestMintAndParseRoundTrip(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.Mint("user-1", TokenAccess)
	require.NoError(t, err)

	userID, err := m.Parse(tok, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	m := newTestManager(t)

	refresh, err := m.Mint("user-1", TokenRefresh)
	require.NoError(t, err)

	_, err = m.Parse(refresh, TokenAccess)
	assert.Error(t, err)

	// and the other way around
	access, err := m.Mint("user-1", TokenAccess)
	require.NoError(t, err)
	_, err = m.Parse(access, TokenRefresh)
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager("other-secret", "prepview-test", 0, 0)
	require.NoError(t, err)

	tok, err := other.Mint("user-1", TokenAccess)
	require.NoError(t, err)

	_, err = m.Parse(tok, TokenAccess)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	m, err := NewManager("test-secret", "", -1, 0)
	require.NoError(t, err)
	m.accessTTL = -time.Minute

	tok, err := m.Mint("user-1", TokenAccess)
	require.NoError(t, err)

	_, err = m.Parse(tok, TokenAccess)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Parse("not-a-jwt", TokenAccess)
	assert.Error(t, err)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", "", 0, 0)
	assert.Error(t, err)
}
