package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bylinehq/byline/pkg/article"
)

// setupTestStore opens an in-memory database with the schema applied.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func createTestArticle(t *testing.T, s *Store) *article.Article {
	t.Helper()

	a, err := s.CreateArticle(context.Background(), CreateParams{
		Prompt:        "the history of sourdough",
		TargetLength:  article.LengthMedium,
		ResearchScope: article.ScopeThorough,
	})
	require.NoError(t, err)

	return a
}

func TestCreateAndGetArticle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := createTestArticle(t, s)
	assert.Equal(t, article.StatusPending, a.Status)
	assert.Equal(t, "Article about: the history of sourdough", a.Title)

	got, err := s.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.Prompt, got.Prompt)
	assert.Equal(t, article.LengthMedium, got.TargetLength)
	assert.Equal(t, article.ScopeThorough, got.ResearchScope)
	assert.Equal(t, article.StatusPending, got.Status)
	assert.Empty(t, got.CurrentAgent)
}

func TestGetArticleNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetArticle(context.Background(), "11111111-2222-3333-4444-555555555555")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	a := createTestArticle(t, s)

	require.NoError(t, s.UpdateStatus(ctx, a.ID, article.StatusWriting, article.RoleWriter))

	got, err := s.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, article.StatusWriting, got.Status)
	assert.Equal(t, article.RoleWriter, got.CurrentAgent)

	t.Run("empty agent clears the column", func(t *testing.T) {
		require.NoError(t, s.UpdateStatus(ctx, a.ID, article.StatusCompleted, ""))

		got, err := s.GetArticle(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, article.StatusCompleted, got.Status)
		assert.Empty(t, got.CurrentAgent)
	})

	t.Run("rejects status outside the closed set", func(t *testing.T) {
		err := s.UpdateStatus(ctx, a.ID, "archived", "")
		assert.ErrorIs(t, err, ErrInvalidStatus)

		// The rejected transition must not have touched the row.
		got, getErr := s.GetArticle(ctx, a.ID)
		require.NoError(t, getErr)
		assert.Equal(t, article.StatusCompleted, got.Status)
	})

	t.Run("unknown article", func(t *testing.T) {
		err := s.UpdateStatus(ctx, "11111111-2222-3333-4444-555555555555", article.StatusPaused, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSetError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	a := createTestArticle(t, s)

	require.NoError(t, s.UpdateStatus(ctx, a.ID, article.StatusWriting, article.RoleWriter))
	require.NoError(t, s.SetError(ctx, a.ID, "failed after research by researcher: boom"))

	got, err := s.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, article.StatusError, got.Status)
	assert.Equal(t, "failed after research by researcher: boom", got.StatusMessage)
	// The active agent stays visible for diagnosis.
	assert.Equal(t, article.RoleWriter, got.CurrentAgent)
}

func TestAppendAndListRevisions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	a := createTestArticle(t, s)

	_, err := s.AppendRevision(ctx, a.ID, "the plan", article.RoleManager, article.StagePlanning)
	require.NoError(t, err)
	_, err = s.AppendRevision(ctx, a.ID, "the findings", article.RoleResearcher, article.StageResearch)
	require.NoError(t, err)

	revs, err := s.ListRevisions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, article.StagePlanning, revs[0].Stage)
	assert.Equal(t, article.RoleManager, revs[0].Agent)
	assert.Equal(t, "the plan", revs[0].Content)
	assert.Equal(t, article.StageResearch, revs[1].Stage)
	assert.False(t, revs[1].CreatedAt.Before(revs[0].CreatedAt))

	t.Run("duplicates are allowed", func(t *testing.T) {
		_, err := s.AppendRevision(ctx, a.ID, "the plan, again", article.RoleManager, article.StagePlanning)
		require.NoError(t, err)

		revs, err := s.ListRevisions(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, revs, 3)
	})

	t.Run("rejects unknown stage", func(t *testing.T) {
		_, err := s.AppendRevision(ctx, a.ID, "x", article.RoleManager, "outline")
		assert.Error(t, err)
	})

	t.Run("empty history", func(t *testing.T) {
		other := createTestArticle(t, s)
		revs, err := s.ListRevisions(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, revs)
	})
}

func TestListByStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := createTestArticle(t, s)
	second := createTestArticle(t, s)
	createTestArticle(t, s) // stays pending

	require.NoError(t, s.UpdateStatus(ctx, first.ID, article.StatusCompleted, ""))
	require.NoError(t, s.UpdateStatus(ctx, second.ID, article.StatusCompleted, ""))

	completed, err := s.ListByStatus(ctx, article.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, first.ID, completed[0].ID, "oldest first")

	pending, err := s.ListByStatus(ctx, article.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = s.ListByStatus(ctx, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListArticles(t *testing.T) {
	s := setupTestStore(t)

	createTestArticle(t, s)
	createTestArticle(t, s)

	all, err := s.ListArticles(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
