package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"form-filler/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func page(run, url string, ts time.Time, outcome entity.Outcome) entity.PageResult {
	r := entity.NewPageResult(run, url)
	r.Timestamp = ts
	r.Outcome = outcome
	r.Reason = "reason " + url
	return r
}

func TestSaveResults_UpsertAndRead(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	first := page("r1", "https://a.test", base, entity.OutcomeUnsuccessful)
	first.Counters = entity.Counters{ElementsSeen: 4, ElementsReady: 2, FieldsFilled: 1}
	first.CaptchaFound = true
	first.ProcessingTime = 1500 * time.Millisecond
	first.Issue = entity.IssuePartialFill
	first.Summary = "s"
	second := page("r1", "https://b.test", base.Add(time.Second), entity.OutcomeSuccess)

	require.NoError(t, s.SaveResults(ctx, []entity.PageResult{first}))
	require.NoError(t, s.SaveResults(ctx, []entity.PageResult{first, second}))

	got, err := s.Results(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "https://a.test", got[0].URL)
	assert.Equal(t, first.Counters, got[0].Counters)
	assert.True(t, got[0].CaptchaFound)
	assert.Equal(t, 1500*time.Millisecond, got[0].ProcessingTime)
	assert.Equal(t, entity.IssuePartialFill, got[0].Issue)
	assert.True(t, base.Equal(got[0].Timestamp))
	assert.Equal(t, entity.OutcomeSuccess, got[1].Outcome)

	first.Outcome = entity.OutcomeSuccess
	require.NoError(t, s.SaveResults(ctx, []entity.PageResult{first}))
	got, err = s.Results(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entity.OutcomeSuccess, got[0].Outcome)
}

func TestLatestRun(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()

	_, err := s.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)

	base := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, s.SaveResults(ctx, []entity.PageResult{
		page("old", "https://a.test", base, entity.OutcomeSuccess),
		page("new", "https://a.test", base.Add(time.Hour), entity.OutcomeSuccess),
	}))

	run, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", run)
}

func TestUnknownPatterns(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()

	for _, text := range []string{"fax number", "preferred pronoun"} {
		require.NoError(t, s.Record(ctx, entity.UnknownPattern{
			Timestamp:    time.UnixMilli(1_700_000_000_000),
			CombinedText: text,
			Attributes:   entity.Attributes{"name": "x"},
			ElementType:  "input",
		}))
	}

	got, err := s.UnknownPatterns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "preferred pronoun", got[0].CombinedText)
	assert.Equal(t, "x", got[0].Attributes.Get("name"))
	assert.Equal(t, "input", got[1].ElementType)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveResults(context.Background(), []entity.PageResult{
		page("r", "https://a.test", time.Now(), entity.OutcomeSuccess),
	}))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Results(context.Background(), "r")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
