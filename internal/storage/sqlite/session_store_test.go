package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbell-data/velocity.coach/internal/engine/reps"
)

func setupTestStore(t *testing.T) *SessionStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSessionStore(db)
	require.NoError(t, err)
	return store
}

func sampleRecord(n int, mean float64) reps.Record {
	return reps.Record{
		RecordID:           "rep_test_" + string(rune('a'+n)),
		RepNumber:          n,
		MeanVelocity:       mean,
		PeakVelocity:       mean + 0.1,
		EccentricVelocity:  mean - 0.05,
		EccentricDuration:  900 * time.Millisecond,
		ConcentricDuration: 600 * time.Millisecond,
		TotalDuration:      1650 * time.Millisecond,
		Timestamp:          time.Unix(1700000000, 0).Add(time.Duration(n) * 3 * time.Second),
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	store := setupTestStore(t)

	session := &Session{
		SessionID: "ses_test",
		Exercise:  "Back Squat",
		LoadKg:    120,
	}
	records := []reps.Record{sampleRecord(1, 0.65), sampleRecord(2, 0.58)}
	records[1].VelocityDropPercent = 10.77

	require.NoError(t, store.SaveSession(session, records))
	assert.NotZero(t, session.CreatedAtNs, "save should stamp creation time")

	got, err := store.GetSession("ses_test")
	require.NoError(t, err)
	assert.Equal(t, "Back Squat", got.Exercise)
	assert.Equal(t, 120.0, got.LoadKg)

	repRows, err := store.GetSessionReps("ses_test")
	require.NoError(t, err)
	require.Len(t, repRows, 2)

	want := Rep{
		RecordID:        records[0].RecordID,
		SessionID:       "ses_test",
		RepNumber:       1,
		MeanVelocityMps: 0.65,
		PeakVelocityMps: 0.75,
		EccentricMps:    0.60,
		EccentricMs:     900,
		ConcentricMs:    600,
		TotalMs:         1650,
		TSUnixNanos:     records[0].Timestamp.UnixNano(),
	}
	if diff := cmp.Diff(want, repRows[0]); diff != "" {
		t.Errorf("rep row mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 10.77, repRows[1].VelocityDropPercent, 1e-9)
}

func TestInsertRepIndividually(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.InsertSession(&Session{
		SessionID: "ses_live",
		Exercise:  "Deadlift",
		LoadKg:    180,
	}))
	require.NoError(t, store.InsertRep("ses_live", sampleRecord(1, 0.42)))

	repRows, err := store.GetSessionReps("ses_live")
	require.NoError(t, err)
	require.Len(t, repRows, 1)
	assert.Equal(t, "ses_live", repRows[0].SessionID)
}

func TestGetSessionNotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetSession("ses_missing")
	assert.Error(t, err)
}

func TestDuplicateRepIDRejected(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.InsertSession(&Session{SessionID: "ses_dup", Exercise: "Bench Press", LoadKg: 80}))
	rec := sampleRecord(1, 0.5)
	require.NoError(t, store.InsertRep("ses_dup", rec))
	assert.Error(t, store.InsertRep("ses_dup", rec))
}

func TestListSessionsNewestFirst(t *testing.T) {
	store := setupTestStore(t)

	old := &Session{SessionID: "ses_old", Exercise: "Back Squat", LoadKg: 100, CreatedAtNs: 1000}
	recent := &Session{SessionID: "ses_new", Exercise: "Back Squat", LoadKg: 110, CreatedAtNs: 2000}
	require.NoError(t, store.InsertSession(old))
	require.NoError(t, store.InsertSession(recent))

	sessions, err := store.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "ses_new", sessions[0].SessionID)
}
