// Package audit implements the append-only Audit Log: every CA and trust
// operation is recorded as an AuditEvent, queryable by actor, subject,
// certificate, or time range, newest first. Recording runs through a
// channel-fed background goroutine started in New and stopped via Close,
// rather than a synchronous call per event.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/juergengeck/trust.core/pkg/logger"
)

// EventType enumerates the recognized audit event kinds.
type EventType string

const (
	EventCertificateIssued   EventType = "certificate_issued"
	EventCertificateExtended EventType = "certificate_extended"
	EventCertificateReduced  EventType = "certificate_reduced"
	EventCertificateRevoked  EventType = "certificate_revoked"
	EventCertificateVerified EventType = "certificate_verified"
	EventTrustEstablished    EventType = "trust_established"
	EventTrustRevoked        EventType = "trust_revoked"
	EventVCExported          EventType = "vc_exported"
	EventVCImported          EventType = "vc_imported"
)

// Event is one append-only audit record.
type Event struct {
	ID                 string         `json:"id"`
	EventType          EventType      `json:"event_type"`
	Timestamp          int64          `json:"timestamp"`
	Actor              string         `json:"actor"`
	Subject            string         `json:"subject,omitempty"`
	CertificateID      string         `json:"certificate_id,omitempty"`
	CertificateHash    string         `json:"certificate_hash,omitempty"`
	CertificateVersion int            `json:"certificate_version,omitempty"`
	Reason             string         `json:"reason,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Success            bool           `json:"success"`
	Error              string         `json:"error,omitempty"`
}

// Query filters Events; zero-value fields are not applied.
type Query struct {
	Actor         string
	Subject       string
	CertificateID string
	EventType     EventType
	Since         int64 // inclusive, ms since epoch; 0 = no lower bound
	Until         int64 // inclusive, ms since epoch; 0 = no upper bound
	Limit         int   // 0 = unbounded
}

// Log is the append-only audit log. Recording happens on a buffered
// channel drained by a background goroutine; queries and pruning operate
// directly on the in-memory slice under a mutex.
type Log struct {
	log *logger.Log

	ch chan Event
	wg sync.WaitGroup

	mu     sync.Mutex
	events []Event
}

// New creates and starts the audit log's background recorder.
func New(ctx context.Context, log *logger.Log) *Log {
	l := &Log{
		log: log.New("audit"),
		ch:  make(chan Event, 64),
	}
	l.wg.Add(1)
	go l.drain(ctx)
	l.log.Info("started")
	return l
}

// Close stops the background recorder and waits for the channel to drain.
func (l *Log) Close() {
	close(l.ch)
	l.wg.Wait()
	l.log.Info("stopped")
}

func (l *Log) drain(ctx context.Context) {
	defer l.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-l.ch:
			if !ok {
				return
			}
			l.mu.Lock()
			l.events = append(l.events, ev)
			l.mu.Unlock()
		}
	}
}

// Record appends a new audit event. It satisfies ca.AuditRecorder
// structurally so the CA Engine can hold a Log without an import cycle.
func (l *Log) Record(ctx context.Context, eventType, actor, subject, certID, certHash string, certVersion int, reason string, metadata map[string]any, success bool, errText string) {
	ev := Event{
		ID:                 uuid.NewString(),
		EventType:          EventType(eventType),
		Timestamp:          time.Now().UnixMilli(),
		Actor:              actor,
		Subject:            subject,
		CertificateID:      certID,
		CertificateHash:    certHash,
		CertificateVersion: certVersion,
		Reason:             reason,
		Metadata:           metadata,
		Success:            success,
		Error:              errText,
	}

	select {
	case l.ch <- ev:
	case <-ctx.Done():
	}
}

// Query returns matching events ordered newest-first.
func (l *Log) Query(q Query) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, 0, len(l.events))
	// Walk from the most recently appended event so that events sharing a
	// millisecond timestamp still come out newest-first after the stable
	// sort below.
	for i := len(l.events) - 1; i >= 0; i-- {
		ev := l.events[i]
		if q.Actor != "" && ev.Actor != q.Actor {
			continue
		}
		if q.Subject != "" && ev.Subject != q.Subject {
			continue
		}
		if q.CertificateID != "" && ev.CertificateID != q.CertificateID {
			continue
		}
		if q.EventType != "" && ev.EventType != q.EventType {
			continue
		}
		if q.Since != 0 && ev.Timestamp < q.Since {
			continue
		}
		if q.Until != 0 && ev.Timestamp > q.Until {
			continue
		}
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Prune removes events older than retention, measured against now. It
// never rewrites surviving events, only drops expired ones.
func (l *Log) Prune(now time.Time, retention time.Duration) int {
	cutoff := now.Add(-retention).UnixMilli()

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.events[:0:0]
	removed := 0
	for _, ev := range l.events {
		if ev.Timestamp < cutoff {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	l.events = kept
	return removed
}
