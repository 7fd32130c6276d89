package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndEvents(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Event{
		RunID:           "run-1",
		SourcePath:      "/src/photo.jpg",
		DestinationPath: "/dst/Images/photo.jpg",
		Category:        "Images",
		Outcome:         internal.OutcomeMoved,
		Size:            2048,
	}))
	require.NoError(t, s.Record(ctx, Event{RunID: "run-2", SourcePath: "/src/x", Outcome: internal.OutcomeFailed}))

	events, err := s.Events(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "/dst/Images/photo.jpg", events[0].DestinationPath)
	assert.Equal(t, internal.OutcomeMoved, events[0].Outcome)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestStore_Statistics(t *testing.T) {
	s := newStore(t)
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	events := []Event{
		{RunID: "a", Timestamp: now.AddDate(0, 0, -1), SourcePath: "/s/1.jpg", Category: "Images", Outcome: internal.OutcomeMoved, Size: 100},
		{RunID: "a", Timestamp: now.AddDate(0, 0, -1), SourcePath: "/s/2.jpg", Category: "Images", Outcome: internal.OutcomeRenamed, Size: 50},
		{RunID: "a", Timestamp: now.AddDate(0, 0, -1), SourcePath: "/s/3.jpg", Category: "Images", Outcome: internal.OutcomeDuplicate, Size: 50},
		{RunID: "b", Timestamp: now, SourcePath: "/s/4.pdf", Category: "Documents", Outcome: internal.OutcomeMoved, Size: 10},
		{RunID: "b", Timestamp: now.AddDate(0, 0, -60), SourcePath: "/s/5.pdf", Category: "Documents", Outcome: internal.OutcomeMoved, Size: 10},
		{RunID: "b", Timestamp: now, SourcePath: "/s/6.pdf", Outcome: internal.OutcomeFailed},
	}
	for _, ev := range events {
		require.NoError(t, s.Record(ctx, ev))
	}

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalFiles)
	assert.Equal(t, int64(170), stats.TotalSize)
	assert.Equal(t, int64(2), stats.Runs)
	require.Len(t, stats.ByCategory, 2)
	assert.Equal(t, CategoryStat{Category: "Images", Count: 2, Size: 150}, stats.ByCategory[0])
	assert.Equal(t, int64(1), stats.ByOutcome[internal.OutcomeDuplicate])
	assert.Equal(t, int64(1), stats.ByOutcome[internal.OutcomeFailed])
	assert.True(t, stats.LastRun.Equal(now), "last run %v", stats.LastRun)

	// 60 天前的记录不在时间线中
	var total int64
	for _, d := range stats.Timeline {
		total += d.Count
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, stats.Timeline, 2)
}

func TestStore_StatisticsEmpty(t *testing.T) {
	stats, err := newStore(t).Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalFiles)
	assert.True(t, stats.LastRun.IsZero())
}

func TestJSONLSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLSink(&buf)

	require.NoError(t, sink.Record(context.Background(), Event{RunID: "r", SourcePath: "/a", Outcome: internal.OutcomeMoved}))
	require.NoError(t, sink.Record(context.Background(), Event{RunID: "r", SourcePath: "/b", Outcome: internal.OutcomeSkipped}))
	require.NoError(t, sink.Close())

	scanner := bufio.NewScanner(&buf)
	var outcomes []internal.Outcome
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		outcomes = append(outcomes, ev.Outcome)
	}
	assert.Equal(t, []internal.Outcome{internal.OutcomeMoved, internal.OutcomeSkipped}, outcomes)
}

type failingSink struct{ NopSink }

func (failingSink) Record(context.Context, Event) error { return errors.New("disk full") }

func TestMultiSink(t *testing.T) {
	ch := NewChanSink(1)
	multi := MultiSink{failingSink{}, ch}

	err := multi.Record(context.Background(), Event{SourcePath: "/a"})
	assert.Error(t, err)

	// 前一个失败不影响后面的 Sink
	ev := <-ch.Events()
	assert.Equal(t, "/a", ev.SourcePath)
	require.NoError(t, multi.Close())
}

func TestChanSink(t *testing.T) {
	ch := NewChanSink(1)
	require.NoError(t, ch.Record(context.Background(), Event{SourcePath: "/a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ch.Record(ctx, Event{SourcePath: "/b"}), context.DeadlineExceeded)

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.Error(t, ch.Record(context.Background(), Event{}))

	var got []string
	for ev := range ch.Events() {
		got = append(got, ev.SourcePath)
	}
	assert.Equal(t, []string{"/a"}, got)
}
