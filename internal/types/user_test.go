package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserRefreshTokenLifecycle(t *testing.T) {
	u := NewUser("id-1", "a@example.com", "alice", "hash", RoleUser)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsRefreshTokenValid(), "a fresh user holds no refresh token")

	u.SetRefreshToken("token-1", time.Now().Add(time.Hour))
	assert.True(t, u.IsRefreshTokenValid())

	u.SetRefreshToken("token-2", time.Now().Add(-time.Minute))
	assert.False(t, u.IsRefreshTokenValid(), "expired token must not validate")

	u.ClearRefreshToken()
	assert.Nil(t, u.RefreshToken)
	assert.Nil(t, u.RefreshTokenExpiresAt)
}

func TestUserDeactivateClearsRefreshToken(t *testing.T) {
	u := NewUser("id-1", "a@example.com", "alice", "hash", RoleUser)
	u.SetRefreshToken("token", time.Now().Add(time.Hour))

	u.Deactivate()

	assert.False(t, u.IsActive)
	assert.Nil(t, u.RefreshToken, "deactivation must clear the refresh token")
	assert.False(t, u.IsRefreshTokenValid())

	u.Activate()
	assert.True(t, u.IsActive)
	assert.Nil(t, u.RefreshToken, "reactivation does not resurrect the token")
}

func TestPostPublishIdempotent(t *testing.T) {
	p := NewPost("p-1", "title", "content", "author-1")
	assert.False(t, p.IsPublished)
	assert.Nil(t, p.PublishedAt)

	p.Publish()
	assert.True(t, p.IsPublished)
	first := p.PublishedAt
	assert.NotNil(t, first)

	p.Publish()
	assert.Equal(t, first, p.PublishedAt, "publishing twice keeps the original timestamp")

	p.Unpublish()
	assert.False(t, p.IsPublished)
	assert.Nil(t, p.PublishedAt)
}

func TestDomainErrorRoundTrip(t *testing.T) {
	err := NewDomainError(CodeEmailExists, "Email already registered")

	de := AsDomainError(err)
	assert.NotNil(t, de)
	assert.Equal(t, CodeEmailExists, de.Code)

	assert.Nil(t, AsDomainError(assert.AnError), "plain errors are not business failures")
}

func TestNewPaginatedResult(t *testing.T) {
	r := NewPaginatedResult([]int{1, 2, 3}, 25, 2, 10)
	assert.Equal(t, 3, len(r.Items))
	assert.Equal(t, int64(25), r.Total)
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNextPage)
	assert.True(t, r.HasPreviousPage)

	empty := NewPaginatedResult[int](nil, 0, 1, 10)
	assert.NotNil(t, empty.Items, "items are never nil in a response")
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNextPage)
	assert.False(t, empty.HasPreviousPage)
}
