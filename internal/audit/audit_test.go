package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juergengeck/trust.core/internal/audit"
	"github.com/juergengeck/trust.core/pkg/logger"
)

func waitForEvents(t *testing.T, l *audit.Log, n int) []audit.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got := l.Query(audit.Query{})
		if len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d audit events", n)
	return nil
}

// Every lifecycle operation produces exactly one audit event.
func TestRecord_ProducesOneEventPerCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := audit.New(ctx, logger.NewSimple("test"))
	defer l.Close()

	l.Record(ctx, string(audit.EventCertificateIssued), "ca-1", "subject-1", "cert-1", "hash-1", 1, "", nil, true, "")
	l.Record(ctx, string(audit.EventCertificateRevoked), "ca-1", "subject-1", "cert-1", "hash-2", 2, "compromised", nil, true, "")

	events := waitForEvents(t, l, 2)
	require.Len(t, events, 2)

	// newest first
	assert.Equal(t, audit.EventCertificateRevoked, events[0].EventType)
	assert.Equal(t, audit.EventCertificateIssued, events[1].EventType)
}

func TestQuery_FiltersByEventTypeAndSubject(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := audit.New(ctx, logger.NewSimple("test"))
	defer l.Close()

	l.Record(ctx, string(audit.EventCertificateIssued), "ca-1", "alice", "cert-1", "", 1, "", nil, true, "")
	l.Record(ctx, string(audit.EventCertificateIssued), "ca-1", "bob", "cert-2", "", 1, "", nil, true, "")
	l.Record(ctx, string(audit.EventTrustEstablished), "ca-1", "alice", "", "", 0, "", nil, true, "")

	waitForEvents(t, l, 3)

	byType := l.Query(audit.Query{EventType: audit.EventCertificateIssued})
	assert.Len(t, byType, 2)

	bySubject := l.Query(audit.Query{Subject: "alice"})
	assert.Len(t, bySubject, 2)

	both := l.Query(audit.Query{EventType: audit.EventCertificateIssued, Subject: "alice"})
	require.Len(t, both, 1)
	assert.Equal(t, "cert-1", both[0].CertificateID)
}

func TestQuery_RecordsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := audit.New(ctx, logger.NewSimple("test"))
	defer l.Close()

	l.Record(ctx, string(audit.EventCertificateIssued), "ca-1", "alice", "", "", 0, "", nil, false, "subject key missing")

	events := waitForEvents(t, l, 1)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Equal(t, "subject key missing", events[0].Error)
}

func TestPrune_RemovesOlderThanRetention(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := audit.New(ctx, logger.NewSimple("test"))
	defer l.Close()

	l.Record(ctx, string(audit.EventCertificateIssued), "ca-1", "alice", "", "", 0, "", nil, true, "")
	waitForEvents(t, l, 1)

	removed := l.Prune(time.Now().Add(time.Hour), time.Minute)
	assert.Equal(t, 1, removed)
	assert.Empty(t, l.Query(audit.Query{}))
}
