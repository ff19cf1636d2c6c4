package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dthink_backend/internal/models"
)

func testUser() *models.User {
	limits, _ := json.Marshal(map[string]int{"projects": 10})
	return &models.User{
		BaseModel: models.BaseModel{ID: "11111111-1111-1111-1111-111111111111"},
		Email:     "ada@example.com",
		Username:  "ada",
		Role:      models.UserRoleUser,
		Status:    models.UserStatusActive,
		CustomLimits: limits,
	}
}

func TestMemoryStore_CreateAndResolve(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	user := testUser()

	token, err := store.Create(user)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	snap, err := store.Resolve(token)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, user.ID, snap.UserID)
	assert.Equal(t, "ada", snap.Username)
	assert.Equal(t, models.UserRoleUser, snap.Role)
	assert.Nil(t, snap.PlanID)
	assert.Equal(t, 10, snap.CustomLimits["projects"])
}

func TestMemoryStore_ResolveUnknownToken(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)

	snap, err := store.Resolve("no-such-token")
	require.NoError(t, err)
	assert.Nil(t, snap)

	snap, err = store.Resolve("")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestMemoryStore_TokensAreUnique(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	user := testUser()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := store.Create(user)
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestMemoryStore_ExpiredBehavesLikeAbsent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(30 * time.Minute)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	token, err := store.Create(testUser())
	require.NoError(t, err)

	current = current.Add(31 * time.Minute)

	snap, err := store.Resolve(token)
	require.NoError(t, err)
	assert.Nil(t, snap)

	// The expired entry is dropped, not resurrected later.
	current = current.Add(-10 * time.Minute)
	snap, err = store.Resolve(token)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestMemoryStore_ResolveSlidesExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(30 * time.Minute)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	token, err := store.Create(testUser())
	require.NoError(t, err)

	// Touch the session every 20 minutes; it must stay alive well past the
	// original window.
	for i := 0; i < 5; i++ {
		current = current.Add(20 * time.Minute)
		snap, err := store.Resolve(token)
		require.NoError(t, err)
		require.NotNil(t, snap)
	}
}

func TestMemoryStore_RefreshUpdatesSnapshot(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	user := testUser()

	token, err := store.Create(user)
	require.NoError(t, err)

	user.Role = models.UserRoleAdmin
	snap, err := store.Refresh(token, user)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, models.UserRoleAdmin, snap.Role)

	resolved, err := store.Resolve(token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, models.UserRoleAdmin, resolved.Role)
}

func TestMemoryStore_RefreshUnknownToken(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)

	snap, err := store.Refresh("unknown", testUser())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestMemoryStore_RefreshUserUpdatesAllSessions(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	user := testUser()

	tokenA, err := store.Create(user)
	require.NoError(t, err)
	tokenB, err := store.Create(user)
	require.NoError(t, err)

	other := testUser()
	other.ID = "22222222-2222-2222-2222-222222222222"
	other.Username = "grace"
	tokenOther, err := store.Create(other)
	require.NoError(t, err)

	planID := "33333333-3333-3333-3333-333333333333"
	user.SubscriptionPlanID = &planID
	require.NoError(t, store.RefreshUser(user))

	for _, token := range []string{tokenA, tokenB} {
		snap, err := store.Resolve(token)
		require.NoError(t, err)
		require.NotNil(t, snap)
		require.NotNil(t, snap.PlanID)
		assert.Equal(t, planID, *snap.PlanID)
	}

	snap, err := store.Resolve(tokenOther)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Nil(t, snap.PlanID)
}

func TestMemoryStore_Destroy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)

	token, err := store.Create(testUser())
	require.NoError(t, err)

	require.NoError(t, store.Destroy(token))

	snap, err := store.Resolve(token)
	require.NoError(t, err)
	assert.Nil(t, snap)

	// Destroying again is a no-op.
	require.NoError(t, store.Destroy(token))
}

func TestMemoryStore_Prune(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(30 * time.Minute)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	stale, err := store.Create(testUser())
	require.NoError(t, err)

	current = current.Add(40 * time.Minute)
	fresh, err := store.Create(testUser())
	require.NoError(t, err)

	pruned, err := store.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	snap, err := store.Resolve(stale)
	require.NoError(t, err)
	assert.Nil(t, snap)

	snap, err = store.Resolve(fresh)
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	user := testUser()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			token, err := store.Create(user)
			if err != nil {
				t.Error(err)
				return
			}
			for j := 0; j < 50; j++ {
				if _, err := store.Resolve(token); err != nil {
					t.Error(err)
					return
				}
			}
			if n%2 == 0 {
				_ = store.Destroy(token)
			} else {
				_ = store.RefreshUser(user)
			}
		}(i)
	}
	wg.Wait()
}

func TestMemoryStore_ConcurrentResolveAndRefreshUser(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	user := testUser()
	token, err := store.Create(user)
	require.NoError(t, err)

	// Hammer a single token: Resolve slides its expiry while RefreshUser
	// swaps its snapshot. Run with -race.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap, err := store.Resolve(token)
				if err != nil {
					t.Error(err)
					return
				}
				if snap == nil || snap.UserID != user.ID {
					t.Error("resolved snapshot lost its user")
					return
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if err := store.RefreshUser(user); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	snap, err := store.Resolve(token)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, user.ID, snap.UserID)
}

func TestSnapshotSkipsMalformedLimits(t *testing.T) {
	t.Parallel()

	user := testUser()
	user.CustomLimits = []byte(`{"projects": "lots"}`)

	snap := NewSnapshot(user)
	assert.Nil(t, snap.CustomLimits)
}

func TestNewTokenIsOpaque(t *testing.T) {
	t.Parallel()

	token, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.NotContains(t, token, "ada")

	other, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func BenchmarkMemoryStoreResolve(b *testing.B) {
	store := NewMemoryStore(time.Hour)
	tokens := make([]string, 100)
	for i := range tokens {
		token, err := store.Create(testUser())
		if err != nil {
			b.Fatal(err)
		}
		tokens[i] = token
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Resolve(tokens[i%len(tokens)]); err != nil {
			b.Fatal(err)
		}
	}
}

func ExampleNewToken() {
	token, _ := NewToken()
	fmt.Println(len(token))
	// Output: 64
}
