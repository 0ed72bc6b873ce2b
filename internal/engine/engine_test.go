package engine

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chorecal/internal/model"
)

type toggle struct{ item, instance model.ID }

type fakeSource struct {
	items      []model.RecurringItem
	byAssignee map[model.ID][]model.RecurringItem
	fetches    int
	toggles    []toggle
	err        error
}

func (f *fakeSource) FetchItems(_ context.Context, filter model.Filter) ([]model.RecurringItem, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	if f.byAssignee != nil {
		return f.byAssignee[filter.AssigneeID], nil
	}
	return f.items, nil
}

func (f *fakeSource) ToggleCompletion(_ context.Context, itemID, instanceID model.ID) error {
	if f.err != nil {
		return f.err
	}
	f.toggles = append(f.toggles, toggle{itemID, instanceID})
	for i := range f.items {
		if f.items[i].ID != itemID {
			continue
		}
		for j := range f.items[i].Instances {
			if f.items[i].Instances[j].ID == instanceID {
				f.items[i].Instances[j].IsComplete = !f.items[i].Instances[j].IsComplete
			}
		}
	}
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup() (*Engine, *fakeSource, *clock) {
	clk := &clock{t: time.Date(2026, 10, 17, 10, 0, 0, 0, time.Local)}
	yesterday := model.DateOf(clk.t.AddDate(0, 0, -1))
	tomorrow := model.DateOf(clk.t.AddDate(0, 0, 1))

	src := &fakeSource{items: []model.RecurringItem{
		{
			ID:        "1",
			Name:      "Dishes",
			Frequency: model.FrequencyDaily,
			Instances: []model.Instance{{ID: "10", DueDate: yesterday}, {ID: "11", DueDate: tomorrow}},
		},
		{ID: "2", Name: "Pay rent", Frequency: model.FrequencyMonthly},
		{ID: "3", Name: "Vacuum", Frequency: model.FrequencyWeekly},
	}}
	e := New(src, Options{CacheTTL: 5 * time.Minute, Clock: clk.now})
	return e, src, clk
}

func TestEventsAreMemoized(t *testing.T) {
	e, src, _ := setup()
	ctx := context.Background()

	first, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.fetches)

	// A different filter is a different entry.
	_, err = e.Events(ctx, model.Filter{AssigneeID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches)
}

func TestCacheExpiresAndBucketsByDay(t *testing.T) {
	e, src, clk := setup()
	ctx := context.Background()

	_, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)

	clk.t = clk.t.Add(5 * time.Minute)
	_, err = e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches)

	// Tomorrow's instance turns active on the next day.
	clk.t = clk.t.AddDate(0, 0, 1)
	evs, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, src.fetches)
	assert.Equal(t, model.StatusActive, evs[1].Status)
}

func TestToggleInvalidatesCache(t *testing.T) {
	e, src, _ := setup()
	ctx := context.Background()

	evs, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOverdue, evs[0].Status)

	require.NoError(t, e.ToggleCompletion(ctx, "1", "10"))
	assert.Equal(t, []toggle{{"1", "10"}}, src.toggles)

	evs, err = e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches)
	assert.Equal(t, model.StatusCompleted, evs[0].Status)
}

func TestToggleErrorKeepsCache(t *testing.T) {
	e, src, _ := setup()
	ctx := context.Background()

	_, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)

	src.err = errors.New("backend down")
	assert.Error(t, e.ToggleCompletion(ctx, "1", "10"))

	_, err = e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, src.fetches)
}

func TestFetchErrorIsReturned(t *testing.T) {
	e, src, _ := setup()
	src.err = errors.New("backend down")

	_, err := e.Events(context.Background(), model.Filter{})
	assert.Error(t, err)
}

func TestRefreshAndReset(t *testing.T) {
	e, src, _ := setup()
	ctx := context.Background()

	_, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	_, err = e.Refresh(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches)

	e.Reset()
	_, err = e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, src.fetches)
}

func TestStatusOfUsesCurrentClock(t *testing.T) {
	e, _, clk := setup()

	_, ok := e.StatusOf("11")
	assert.False(t, ok, "nothing fetched yet")

	_, err := e.Events(context.Background(), model.Filter{})
	require.NoError(t, err)

	st, ok := e.StatusOf("11")
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, st)

	clk.t = clk.t.AddDate(0, 0, 2)
	st, ok = e.StatusOf("11")
	require.True(t, ok)
	assert.Equal(t, model.StatusOverdue, st)

	_, ok = e.StatusOf("nope")
	assert.False(t, ok)
}

func TestDue(t *testing.T) {
	e, _, clk := setup()
	_, err := e.Events(context.Background(), model.Filter{})
	require.NoError(t, err)

	var ids []model.ID
	for _, it := range e.Due(clk.t) {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []model.ID{"2"}, ids)

	ids = ids[:0]
	for _, it := range e.Due(clk.t.Add(3 * time.Hour)) {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []model.ID{"1", "2", "3"}, ids)
}

func TestStatusOfFollowsServedFilter(t *testing.T) {
	e, src, clk := setup()
	yesterday := model.DateOf(clk.t.AddDate(0, 0, -1))
	src.byAssignee = map[model.ID][]model.RecurringItem{
		"alice": {{ID: "1", AssigneeID: "alice", Instances: []model.Instance{{ID: "a1", DueDate: yesterday}}}},
		"bob":   {{ID: "2", AssigneeID: "bob", Instances: []model.Instance{{ID: "b1", DueDate: yesterday}}}},
	}
	ctx := context.Background()
	alice := model.Filter{AssigneeID: "alice"}

	_, err := e.Events(ctx, alice)
	require.NoError(t, err)
	_, err = e.Events(ctx, model.Filter{AssigneeID: "bob"})
	require.NoError(t, err)

	evs, err := e.Events(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches, "third call is served from cache")
	require.Len(t, evs, 1)
	assert.Equal(t, "1-a1", evs[0].Key)

	st, ok := e.StatusOf("a1")
	require.True(t, ok)
	assert.Equal(t, evs[0].Status, st)
	assert.Equal(t, model.StatusOverdue, st)
}

func TestCallerEditsDoNotReachCache(t *testing.T) {
	e, _, _ := setup()
	ctx := context.Background()

	evs, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	require.Equal(t, model.StatusOverdue, evs[0].Status)
	evs[0].Status = model.StatusCompleted
	evs[0].Title = "edited"

	again, err := e.Events(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOverdue, again[0].Status)
	assert.Equal(t, "Dishes", again[0].Title)
}
