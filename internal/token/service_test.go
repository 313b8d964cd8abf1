package token_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"app/internal/token"

	"github.com/stretchr/testify/assert"
)

// =====================
// Fake: RevokedTokenRepository
// =====================

type memRevokedRepo struct {
	mu   sync.Mutex
	jtis map[string]time.Time
}

func newMemRevokedRepo() *memRevokedRepo {
	return &memRevokedRepo{jtis: map[string]time.Time{}}
}

func (r *memRevokedRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jtis[jti] = expiresAt
	return nil
}

func (r *memRevokedRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jtis[jti]
	return ok, nil
}

func (r *memRevokedRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for jti, exp := range r.jtis {
		if exp.Before(now) {
			delete(r.jtis, jti)
			n++
		}
	}
	return n, nil
}

// =====================
// Fake: Clock（テストから時間を進められる）
// =====================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(clock *fakeClock, revoked *memRevokedRepo) *token.Service {
	return token.NewService("test-secret", 15*time.Minute, 7*24*time.Hour, revoked, clock)
}

func TestService_IssueAndValidateAccess(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newService(clock, newMemRevokedRepo())

	pair, err := svc.Issue(ctx, 42)
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int((15 * time.Minute).Seconds()), pair.AccessExpiresIn)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), pair.RefreshExpiresIn)

	userID, err := svc.ValidateAccess(ctx, pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestService_ValidateAccess_RejectsRefreshToken(t *testing.T) {
	//refresh tokenではリソースアクセスできない
	ctx := context.Background()
	svc := newService(newFakeClock(), newMemRevokedRepo())

	pair, err := svc.Issue(ctx, 42)
	assert.NoError(t, err)

	_, err = svc.ValidateAccess(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestService_ValidateAccess_Expired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newService(clock, newMemRevokedRepo())

	pair, err := svc.Issue(ctx, 42)
	assert.NoError(t, err)

	//access TTLを過ぎたら署名が正しくても401扱い
	clock.Advance(16 * time.Minute)

	_, err = svc.ValidateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestService_ValidateAccess_Tampered(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newService(clock, newMemRevokedRepo())

	//別のシークレットで署名されたトークンは弾く
	other := token.NewService("other-secret", 15*time.Minute, 7*24*time.Hour, newMemRevokedRepo(), clock)
	pair, err := other.Issue(ctx, 42)
	assert.NoError(t, err)

	_, err = svc.ValidateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = svc.ValidateAccess(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestService_Refresh_SameIdentity(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newService(clock, newMemRevokedRepo())

	pair, err := svc.Issue(ctx, 7)
	assert.NoError(t, err)

	//accessが切れた後でもrefreshは有効
	clock.Advance(time.Hour)

	access, expiresIn, err := svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, int((15 * time.Minute).Seconds()), expiresIn)

	userID, err := svc.ValidateAccess(ctx, access)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), userID)
}

func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeClock(), newMemRevokedRepo())

	pair, err := svc.Issue(ctx, 7)
	assert.NoError(t, err)

	_, _, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestService_Refresh_Expired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newService(clock, newMemRevokedRepo())

	pair, err := svc.Issue(ctx, 7)
	assert.NoError(t, err)

	clock.Advance(7*24*time.Hour + time.Minute)

	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestService_Revoke_BlocksRefresh(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	revoked := newMemRevokedRepo()
	svc := newService(clock, revoked)

	pair, err := svc.Issue(ctx, 7)
	assert.NoError(t, err)

	//ローテーション無効なので、失効前は何度でも使える
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)

	assert.NoError(t, svc.Revoke(ctx, pair.RefreshToken))

	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	//二重失効も問題なし（冪等）
	assert.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
}

func TestService_Revoke_IgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeClock(), newMemRevokedRepo())

	//不正なトークンの失効はエラーにしない
	assert.NoError(t, svc.Revoke(ctx, "not-a-jwt"))
}
