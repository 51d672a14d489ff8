package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.jsonl"))
	records, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, records)
}

// TestFileRepository_AppendLoad ensures appended records are read back in order.
func TestFileRepository_AppendLoad(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "history.jsonl")
	repo := NewFileRepository(file)
	ctx := context.Background()

	ts := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	want := []*Record{
		{
			FiredAt: ts.Add(2 * time.Millisecond),
			Alarm: &domain.Alarm{
				Name:          "once",
				ScheduledTime: ts.Add(time.Millisecond),
			},
		},
		{
			FiredAt: ts.Add(time.Minute),
			Alarm: &domain.Alarm{
				Name:            "",
				ScheduledTime:   ts.Add(time.Minute),
				PeriodInMinutes: domain.Float(0.5),
			},
		},
	}

	for _, record := range want {
		require.NoError(t, repo.Append(ctx, record))
	}

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		require.True(t, want[i].FiredAt.Equal(got[i].FiredAt))
		require.Equal(t, want[i].Alarm.Name, got[i].Alarm.Name)
		require.True(t, want[i].Alarm.ScheduledTime.Equal(got[i].Alarm.ScheduledTime))
		require.Equal(t, want[i].Alarm.PeriodInMinutes, got[i].Alarm.PeriodInMinutes)
	}

	info, err := os.Stat(file)
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}

// TestFileRepository_AppendNil rejects empty records.
func TestFileRepository_AppendNil(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "history.jsonl"))
	require.ErrorIs(t, repo.Append(context.Background(), nil), errRecordIsNotSet)
	require.ErrorIs(t, repo.Append(context.Background(), new(Record)), errRecordIsNotSet)
}

// TestFileRepository_Malformed reports the broken line.
func TestFileRepository_Malformed(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "history.jsonl")
	require.NoError(t, os.WriteFile(file, []byte("{\"alarm\":{}}\n"), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.ErrorIs(t, err, errMalformedRecord)
	require.ErrorContains(t, err, "line 1")
}

// TestListener journals fired alarms through the repository.
func TestListener(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "history.jsonl"))
	firedAt := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	listener := Listener(repo, func() time.Time { return firedAt })

	listener(context.Background(), &domain.Alarm{Name: "tick", ScheduledTime: firedAt})

	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "tick", records[0].Alarm.Name)
	require.True(t, firedAt.Equal(records[0].FiredAt))
}
