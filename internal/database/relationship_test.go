package database

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/keepsake/internal/models"
	"github.com/jason-s-yu/keepsake/internal/relationship"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DATABASE_URL and resets the tables. These tests need a real
// Postgres instance and are skipped without one.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := ConnectDB(ctx, dsn, logrus.New())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE relationships, users`)
	require.NoError(t, err)
	return pool
}

func newPending(requester, receiver uuid.UUID) *models.Relationship {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Relationship{
		ID:          uuid.New(),
		RequesterID: requester,
		ReceiverID:  receiver,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRelationshipStorePairUniqueness(t *testing.T) {
	store := NewRelationshipStore(testPool(t))
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, store.Insert(ctx, newPending(a, b)))
	assert.ErrorIs(t, store.Insert(ctx, newPending(b, a)), relationship.ErrDuplicatePair)
	assert.ErrorIs(t, store.Insert(ctx, newPending(a, b)), relationship.ErrDuplicatePair)

	fwd, err := store.FindByPair(ctx, a, b)
	require.NoError(t, err)
	rev, err := store.FindByPair(ctx, b, a)
	require.NoError(t, err)
	require.NotNil(t, fwd)
	assert.Equal(t, fwd.ID, rev.ID)
}

func TestRelationshipStoreConcurrentInserts(t *testing.T) {
	store := NewRelationshipStore(testPool(t))
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, rel := range []*models.Relationship{newPending(a, b), newPending(b, a)} {
		wg.Add(1)
		go func(i int, rel *models.Relationship) {
			defer wg.Done()
			errs[i] = store.Insert(ctx, rel)
		}(i, rel)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, relationship.ErrDuplicatePair)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestRelationshipStoreAcceptAndDelete(t *testing.T) {
	store := NewRelationshipStore(testPool(t))
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	rel := newPending(a, b)
	require.NoError(t, store.Insert(ctx, rel))

	_, err := store.Accept(ctx, rel.ID, a)
	assert.ErrorIs(t, err, relationship.ErrNotFound)

	accepted, err := store.Accept(ctx, rel.ID, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)
	assert.True(t, rel.CreatedAt.Equal(accepted.CreatedAt))

	friends, err := store.ListAccepted(ctx, a)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, b, friends[0].Other(a))

	assert.ErrorIs(t, store.Delete(ctx, rel.ID, a), relationship.ErrNotFound)
	require.NoError(t, store.Delete(ctx, rel.ID, b))

	_, err = store.GetByID(ctx, rel.ID)
	assert.ErrorIs(t, err, relationship.ErrNotFound)
	gone, err := store.FindByPair(ctx, a, b)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRelationshipStoreListsAndPairs(t *testing.T) {
	store := NewRelationshipStore(testPool(t))
	ctx := context.Background()
	me, x, y, z := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, store.Insert(ctx, newPending(x, me)))
	require.NoError(t, store.Insert(ctx, newPending(me, y)))

	incoming, err := store.ListIncoming(ctx, me)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, x, incoming[0].RequesterID)

	outgoing, err := store.ListOutgoing(ctx, me)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, y, outgoing[0].ReceiverID)

	pairs, err := store.FindForPairs(ctx, me, []uuid.UUID{x, y, z})
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
	assert.Equal(t, models.FriendshipPending, pairs[x].StatusFor(me))
	assert.Equal(t, models.FriendshipSent, pairs[y].StatusFor(me))
	assert.Equal(t, models.FriendshipNone, pairs[z].StatusFor(me))
}

func TestUserDirectorySearch(t *testing.T) {
	dir := NewUserDirectory(testPool(t))
	ctx := context.Background()
	me := models.UserSummary{ID: uuid.New(), Username: "me", DisplayName: "Annabel Me"}
	ann := models.UserSummary{ID: uuid.New(), Username: "ann", DisplayName: "Ann Perkins"}
	pct := models.UserSummary{ID: uuid.New(), Username: "pct", DisplayName: "100% Real"}
	for _, u := range []models.UserSummary{me, ann, pct} {
		require.NoError(t, dir.UpsertUser(ctx, u))
	}

	users, err := dir.FindByNameSubstring(ctx, "ANN", me.ID, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ann, users[0])

	// % is matched literally, not as a wildcard
	users, err = dir.FindByNameSubstring(ctx, "0%", me.ID, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, pct.ID, users[0].ID)

	users, err = dir.FindByNameSubstring(ctx, "%", me.ID, 10)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	ann.DisplayName = "Ann Perkins-Traeger"
	require.NoError(t, dir.UpsertUser(ctx, ann))
	found, err := dir.FindByIDs(ctx, []uuid.UUID{ann.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ann Perkins-Traeger", found[0].DisplayName)
}
