package store

import (
	"context"
	"errors"
	"testing"

	"form-filler/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

type memResults struct {
	saved int
	err   error
}

func (m *memResults) SaveResults(ctx context.Context, results []entity.PageResult) error {
	m.saved += len(results)
	return m.err
}

type memPatterns struct{ n int }

func (m *memPatterns) Record(ctx context.Context, p entity.UnknownPattern) error {
	m.n++
	return nil
}

func TestResults_SavesEverywhere(t *testing.T) {
	boom := errors.New("disk full")
	a, b := &memResults{err: boom}, &memResults{}

	err := Results{a, b}.SaveResults(context.Background(), []entity.PageResult{{URL: "u"}})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.saved)
	assert.Equal(t, 1, b.saved)
}

func TestPatterns(t *testing.T) {
	a, b := &memPatterns{}, &memPatterns{}

	assert.NoError(t, Patterns{a, b}.Record(context.Background(), entity.UnknownPattern{}))
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
	assert.NoError(t, Results(nil).SaveResults(context.Background(), nil))
}
