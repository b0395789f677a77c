package audit_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-secure-access/audit"
	"github.com/jrsteele09/go-secure-access/internal/config"
)

// fakeSessionCounter reports a fixed live-session count.
type fakeSessionCounter int

func (f fakeSessionCounter) Count() int { return int(f) }

var logTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLog(options ...audit.Option) *audit.Log {
	options = append([]audit.Option{audit.WithNowTime(func() time.Time { return logTime })}, options...)
	return audit.NewLog(options...)
}

// TestRecord_AssignsIdentity tests that the log stamps each entry with an ID
// and the record time
func TestRecord_AssignsIdentity(t *testing.T) {
	log := newTestLog()

	stored := log.Record(audit.Entry{
		Kind:     audit.KindAuthentication,
		Username: "alice",
		Granted:  true,
		Reason:   "authenticated",
	})

	require.NotEmpty(t, stored.ID)
	require.Len(t, stored.ID, 36, "IDs are UUID strings")
	require.Equal(t, logTime, stored.LoggedAt)
	require.Equal(t, logTime, stored.OccurredAt, "zero OccurredAt defaults to the record time")
}

// TestRecord_PreservesOccurredAt tests that a caller-supplied event time
// survives recording
func TestRecord_PreservesOccurredAt(t *testing.T) {
	log := newTestLog()
	occurred := logTime.Add(-3 * time.Second)

	stored := log.Record(audit.Entry{
		Kind:       audit.KindAccess,
		Resource:   "email_system",
		OccurredAt: occurred,
	})

	require.Equal(t, occurred, stored.OccurredAt)
	require.Equal(t, logTime, stored.LoggedAt)
}

// TestRecord_AssignsDistinctIDs tests that no two entries share an ID
func TestRecord_AssignsDistinctIDs(t *testing.T) {
	log := newTestLog()

	first := log.Record(audit.Entry{Kind: audit.KindAuthentication})
	second := log.Record(audit.Entry{Kind: audit.KindAuthentication})

	require.NotEqual(t, first.ID, second.ID)
}

// TestSize_GrowsWithEveryRecord tests the append-only invariant: size only
// ever goes up
func TestSize_GrowsWithEveryRecord(t *testing.T) {
	log := newTestLog()
	require.Zero(t, log.Size())

	for i := 1; i <= 5; i++ {
		log.Record(audit.Entry{Kind: audit.KindAccess, Resource: fmt.Sprintf("resource-%d", i)})
		require.Equal(t, i, log.Size())
	}
}

// TestEntries_InsertionOrderAndCopy tests that Entries returns the full trail
// in order, and that mutating the returned slice leaves the log untouched
func TestEntries_InsertionOrderAndCopy(t *testing.T) {
	log := newTestLog()

	log.Record(audit.Entry{Kind: audit.KindAuthentication, Username: "alice"})
	log.Record(audit.Entry{Kind: audit.KindAccess, Username: "bob"})
	log.Record(audit.Entry{Kind: audit.KindAccess, Username: "carol"})

	entries := log.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "alice", entries[0].Username)
	require.Equal(t, "bob", entries[1].Username)
	require.Equal(t, "carol", entries[2].Username)

	entries[0].Username = "mallory"

	require.Equal(t, "alice", log.Entries()[0].Username)
}

// TestSummary_WithoutCollaborators tests the defaults: no counter means zero
// active sessions, and the config echo stays zero-valued
func TestSummary_WithoutCollaborators(t *testing.T) {
	log := newTestLog()
	log.Record(audit.Entry{Kind: audit.KindAuthentication})

	summary := log.Summary()

	require.Zero(t, summary.ActiveSessions)
	require.Equal(t, 1, summary.TotalEntries)
	require.Empty(t, summary.Config.AccessLevels)
}

// TestSummary_ReportsCounterAndConfig tests the wired summary: live sessions
// from the counter, entry total from the log, config from the snapshot
func TestSummary_ReportsCounterAndConfig(t *testing.T) {
	snapshot := config.DefaultSecurity().Snapshot()
	log := newTestLog(
		audit.WithSessionCounter(fakeSessionCounter(4)),
		audit.WithConfigSnapshot(snapshot),
	)

	log.Record(audit.Entry{Kind: audit.KindAuthentication})
	log.Record(audit.Entry{Kind: audit.KindAccess})

	summary := log.Summary()

	require.Equal(t, 4, summary.ActiveSessions)
	require.Equal(t, 2, summary.TotalEntries)
	require.Equal(t, snapshot, summary.Config)
	require.True(t, summary.Config.Enable2FA)
	require.Equal(t, 3600, summary.Config.SessionTimeoutSeconds)
	require.Equal(t, []string{"admin", "user", "guest"}, summary.Config.AccessLevels)
}

// TestLog_ConcurrentRecords hammers Record from many goroutines; every entry
// must land exactly once
func TestLog_ConcurrentRecords(t *testing.T) {
	const (
		goroutines        = 100
		entriesPerRoutine = 10
	)

	log := audit.NewLog()

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < entriesPerRoutine; j++ {
				log.Record(audit.Entry{
					Kind:     audit.KindAccess,
					Username: fmt.Sprintf("user-%d", n),
					Resource: fmt.Sprintf("resource-%d", j),
				})
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, goroutines*entriesPerRoutine, log.Size())
	require.Len(t, log.Entries(), goroutines*entriesPerRoutine)
}
