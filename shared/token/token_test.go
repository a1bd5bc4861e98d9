package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	signed, err := m.Issue(7, "ada@example.com")
	require.NoError(t, err)

	claims, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "7", claims.Subject)
}

func TestParseRejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	other, err := NewManager("other-secret", time.Hour).Issue(7, "ada@example.com")
	require.NoError(t, err)
	_, err = m.Parse(other)
	assert.Error(t, err, "wrong secret")

	expired, err := NewManager("test-secret", -time.Minute).Issue(7, "ada@example.com")
	require.NoError(t, err)
	_, err = m.Parse(expired)
	assert.Error(t, err, "expired")

	_, err = m.Parse("not-a-token")
	assert.Error(t, err, "garbage")
}
