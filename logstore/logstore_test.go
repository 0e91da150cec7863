package logstore

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/amartya2002/uptime-checker-core/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestQuery_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	recs, err := s.Query()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAppendAndQuery(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	s.now = func() time.Time { return fixed }

	code := 200
	require.NoError(t, s.Append(model.LogRecord{ItemID: "a", ItemName: "A", Status: model.StatusUp, StatusCode: &code, DurationMs: 12}))
	require.NoError(t, s.Append(model.LogRecord{ItemID: "b", ItemName: "B", Status: model.StatusDown, Error: "connection refused"}))
	require.NoError(t, s.Append(model.LogRecord{ItemID: "a", ItemName: "A", Status: model.StatusDown, Error: "timeout"}))

	all, err := s.Query()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, time.UTC, all[0].Timestamp.Location())
	assert.True(t, fixed.Equal(all[0].Timestamp))
	require.NotNil(t, all[0].StatusCode)
	assert.Equal(t, 200, *all[0].StatusCode)

	onlyA, err := s.Query("a")
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, "timeout", onlyA[1].Error)
}

func TestQuery_SkipsMalformedLines(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s, err := New(t.TempDir(), zap.New(core))
	require.NoError(t, err)

	require.NoError(t, s.Append(model.LogRecord{ItemID: "a", Status: model.StatusUp}))
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, s.Append(model.LogRecord{ItemID: "b", Status: model.StatusDown}))

	recs, err := s.Query()
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed log line").Len())
}

func TestClearForItem(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(model.LogRecord{ItemID: "a", Status: model.StatusUp}))
	require.NoError(t, s.Append(model.LogRecord{ItemID: "b", Status: model.StatusUp}))

	require.NoError(t, s.ClearForItem("a"))
	recs, err := s.Query()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].ItemID)

	require.NoError(t, s.ClearForItems([]string{"b"}))
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "file should be removed when no records remain")
}

func TestClearAll_MissingFileIsFine(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.ClearAll())

	require.NoError(t, s.Append(model.LogRecord{ItemID: "a", Status: model.StatusUp}))
	require.NoError(t, s.ClearAll())
	recs, err := s.Query()
	require.NoError(t, err)
	assert.Empty(t, recs)
}
