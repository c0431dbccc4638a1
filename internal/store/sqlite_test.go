package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeWakeling/newswire/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedUser(t *testing.T, st *SQLiteStore, username, display string) int64 {
	t.Helper()
	id, err := st.CreateUser(context.Background(), username, display, []byte("hash"))
	require.NoError(t, err)
	return id
}

func seedStory(t *testing.T, st *SQLiteStore, authorID int64, cat model.Category, reg model.Region, date string) int64 {
	t.Helper()
	d, err := time.Parse(model.StoreDateLayout, date)
	require.NoError(t, err)
	story := model.Story{
		Headline: "headline",
		Category: cat,
		Region:   reg,
		AuthorID: authorID,
		Date:     d,
		Details:  "details",
	}
	require.NoError(t, st.CreateStory(context.Background(), &story))
	return story.Key
}

func TestCreateAndGetStory(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	authorID := seedUser(t, st, "joe", "Joe")

	story := model.Story{
		Headline: "Rates held again",
		Category: model.CategoryPolitics,
		Region:   model.RegionUK,
		AuthorID: authorID,
		Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Details:  "Bank leaves base rate unchanged.",
	}
	require.NoError(t, st.CreateStory(ctx, &story))
	assert.NotZero(t, story.Key, "create should assign a key")

	got, err := st.GetStory(ctx, story.Key)
	require.NoError(t, err)
	assert.Equal(t, "Rates held again", got.Headline)
	assert.Equal(t, model.CategoryPolitics, got.Category)
	assert.Equal(t, model.RegionUK, got.Region)
	assert.Equal(t, "Joe", got.Author, "author display name comes from the user row")
	assert.Equal(t, "2024-03-05", got.Date.Format(model.StoreDateLayout))
}

func TestGetStory_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetStory(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryStories_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	author := seedUser(t, st, "joe", "Joe")

	seedStory(t, st, author, model.CategoryPolitics, model.RegionUK, "2024-01-10")
	seedStory(t, st, author, model.CategoryTechnology, model.RegionUK, "2024-02-20")
	seedStory(t, st, author, model.CategoryTechnology, model.RegionWorld, "2024-03-30")

	t.Run("category", func(t *testing.T) {
		got, err := st.QueryStories(ctx, model.Filter{Category: model.CategoryTechnology})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, s := range got {
			assert.Equal(t, model.CategoryTechnology, s.Category)
		}
	})

	t.Run("region", func(t *testing.T) {
		got, err := st.QueryStories(ctx, model.Filter{Region: model.RegionUK})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, s := range got {
			assert.Equal(t, model.RegionUK, s.Region)
		}
	})

	t.Run("conjunction", func(t *testing.T) {
		got, err := st.QueryStories(ctx, model.Filter{
			Category: model.CategoryTechnology,
			Region:   model.RegionUK,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "2024-02-20", got[0].Date.Format(model.StoreDateLayout))
	})

	t.Run("no match", func(t *testing.T) {
		got, err := st.QueryStories(ctx, model.Filter{Category: model.CategoryArt})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestQueryStories_DateLowerBoundInclusive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	author := seedUser(t, st, "joe", "Joe")

	seedStory(t, st, author, model.CategoryArt, model.RegionEurope, "2024-02-19")
	seedStory(t, st, author, model.CategoryArt, model.RegionEurope, "2024-02-20")
	seedStory(t, st, author, model.CategoryArt, model.RegionEurope, "2024-02-21")

	since := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	got, err := st.QueryStories(ctx, model.Filter{Since: since})
	require.NoError(t, err)
	require.Len(t, got, 2, "the bound is on-or-after, not strictly after")
	assert.Equal(t, "2024-02-20", got[0].Date.Format(model.StoreDateLayout))
}

func TestQueryStories_WildcardEqualsEpochBound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	author := seedUser(t, st, "joe", "Joe")

	seedStory(t, st, author, model.CategoryTrivia, model.RegionWorld, "1999-12-31")
	seedStory(t, st, author, model.CategoryTrivia, model.RegionWorld, "2024-06-01")

	wildcard, err := st.QueryStories(ctx, model.Filter{})
	require.NoError(t, err)

	epoch, err := st.QueryStories(ctx, model.Filter{Since: time.Unix(0, 0).UTC()})
	require.NoError(t, err)

	assert.Equal(t, wildcard, epoch)
	assert.Len(t, wildcard, 2)
}

func TestQueryStories_AscendingDateOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	author := seedUser(t, st, "joe", "Joe")

	// Inserted out of order on purpose.
	seedStory(t, st, author, model.CategoryPolitics, model.RegionUK, "2024-03-15")
	seedStory(t, st, author, model.CategoryPolitics, model.RegionUK, "2024-01-01")
	seedStory(t, st, author, model.CategoryPolitics, model.RegionUK, "2024-02-10")

	got, err := st.QueryStories(ctx, model.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Date.Before(got[i-1].Date), "results must be in ascending date order")
	}
}

func TestDeleteStory_IdempotentToCaller(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	author := seedUser(t, st, "joe", "Joe")
	key := seedStory(t, st, author, model.CategoryArt, model.RegionUK, "2024-04-01")

	require.NoError(t, st.DeleteStory(ctx, key))

	// Deleting again is a clean not-found, never a crash.
	assert.ErrorIs(t, st.DeleteStory(ctx, key), ErrNotFound)

	_, err := st.GetStory(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateUser(ctx, "joe", "Joe Bloggs", []byte("bcrypt-hash"))
	require.NoError(t, err)

	u, err := st.GetUser(ctx, "joe")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Joe Bloggs", u.DisplayName)
	assert.Equal(t, []byte("bcrypt-hash"), u.PasswordHash)

	_, err = st.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNoUser)

	// Usernames are unique.
	_, err = st.CreateUser(ctx, "joe", "Impostor", []byte("x"))
	assert.Error(t, err)
}
