package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chorecal/internal/config"
	"chorecal/internal/engine"
	"chorecal/internal/model"
)

type countingSource struct {
	fetches int
}

func (s *countingSource) FetchItems(_ context.Context, _ model.Filter) ([]model.RecurringItem, error) {
	s.fetches++
	today := model.DateOf(time.Now())
	return []model.RecurringItem{{
		ID:        "1",
		Name:      "Dishes",
		Frequency: model.FrequencyDaily,
		Instances: []model.Instance{{ID: "10", DueDate: today}},
	}}, nil
}

func (s *countingSource) ToggleCompletion(context.Context, model.ID, model.ID) error {
	return nil
}

func TestRunOnceReusesCacheAndExports(t *testing.T) {
	conf := config.DefaultConfig()
	conf.Export.ICSPath = filepath.Join(t.TempDir(), "chores.ics")

	src := &countingSource{}
	eng := engine.New(src, engine.Options{CacheTTL: time.Hour})

	require.NoError(t, runOnce(context.Background(), eng, conf, false))
	require.NoError(t, runOnce(context.Background(), eng, conf, false))
	assert.Equal(t, 1, src.fetches)

	data, err := os.ReadFile(conf.Export.ICSPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Dishes")

	// A reset forces the next run back to the source.
	eng.Reset()
	require.NoError(t, runOnce(context.Background(), eng, conf, false))
	assert.Equal(t, 2, src.fetches)
}
