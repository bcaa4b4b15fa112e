// Package ca implements the CA Engine: root creation, issuance,
// extension/reduction/revocation, chain verification, and history queries
// over versioned Certificate objects. A constructor wires in the object
// store, keychain, config and logger, with every operation a method on
// the resulting *Engine.
package ca

import (
	"context"
	"sync"

	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/juergengeck/trust.core/pkg/logger"
	"github.com/juergengeck/trust.core/pkg/model"
	"github.com/juergengeck/trust.core/pkg/ports"
)

// ObjectKind is the Object Store "kind" certificates are persisted under.
const ObjectKind = "certificate"

// State is the CA Engine's lifecycle state machine.
type State string

const (
	StateUninitialised State = "Uninitialised"
	StateInitialised   State = "Initialised"
	StateCAReady       State = "CAReady"
)

// EventType enumerates the events the Engine emits to subscribers.
type EventType string

const (
	EventRootCreated         EventType = "RootCreated"
	EventCertificateIssued   EventType = "CertificateIssued"
	EventCertificateExtended EventType = "CertificateExtended"
	EventCertificateReduced  EventType = "CertificateReduced"
	EventCertificateRevoked  EventType = "CertificateRevoked"
)

// Event is emitted after a successful state transition.
type Event struct {
	Type        EventType
	Certificate *certificate.Certificate
}

// AuditRecorder is the narrow slice of the Audit Log the CA Engine needs.
// Declared here (rather than importing internal/audit) so the two
// packages don't form an import cycle; internal/audit.Log satisfies this
// interface structurally.
type AuditRecorder interface {
	Record(ctx context.Context, eventType, actor, subject, certID, certHash string, certVersion int, reason string, metadata map[string]any, success bool, errText string)
}

// Propagator is the narrow slice of the Propagation Service the CA Engine
// needs to hand off freshly persisted versions for internal sync.
type Propagator interface {
	Enqueue(ctx context.Context, certID string, version int, obj []byte, urgent bool)
}

// Engine is one CA instance.
type Engine struct {
	identity string // this instance's identity hash; issuer of the root

	store     ports.ObjectStore
	keychain  ports.Keychain
	cfg       *model.Config
	log       *logger.Log
	auditor   AuditRecorder
	propagator Propagator
	serials   *certificate.SerialGenerator

	stateMu sync.Mutex
	state   State
	root    *certificate.Certificate

	idLocksMu sync.Mutex
	idLocks   map[string]*sync.Mutex

	subsMu sync.Mutex
	subs   []func(Event)
}

// New creates a CA Engine bound to identity (this instance's own identity
// hash, used as issuer/subject of its root certificate).
func New(identity string, store ports.ObjectStore, keychain ports.Keychain, cfg *model.Config, log *logger.Log) *Engine {
	return &Engine{
		identity: identity,
		store:    store,
		keychain: keychain,
		cfg:      cfg,
		log:      log.New("ca"),
		serials:  certificate.NewSerialGenerator(),
		state:    StateUninitialised,
		idLocks:  make(map[string]*sync.Mutex),
	}
}

// SetAuditor wires in the audit log.
func (e *Engine) SetAuditor(a AuditRecorder) { e.auditor = a }

// SetPropagator wires in the propagation service.
func (e *Engine) SetPropagator(p Propagator) { e.propagator = p }

// Subscribe registers fn to receive Engine events.
func (e *Engine) Subscribe(fn func(Event)) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.subs = append(e.subs, fn)
}

func (e *Engine) emit(ev Event) {
	e.subsMu.Lock()
	subs := append([]func(Event){}, e.subs...)
	e.subsMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// Init transitions Uninitialised -> Initialised. It is idempotent.
func (e *Engine) Init(ctx context.Context) error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == StateUninitialised {
		e.state = StateInitialised
	}
	e.log.Info("initialised")
	return nil
}

// Shutdown transitions back to Uninitialised.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.state = StateUninitialised
	e.root = nil
	e.log.Info("shutdown")
	return nil
}

// requireReady returns coreerr.ErrNotReady unless the Engine is CAReady.
func (e *Engine) requireReady() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state != StateCAReady {
		return coreerr.New(coreerr.KindNotReady)
	}
	return nil
}

// lockFor returns the per-identity-hash mutex used to serialize
// certificate-lifecycle operations over the same id.
func (e *Engine) lockFor(id string) *sync.Mutex {
	e.idLocksMu.Lock()
	defer e.idLocksMu.Unlock()
	l, ok := e.idLocks[id]
	if !ok {
		l = &sync.Mutex{}
		e.idLocks[id] = l
	}
	return l
}

func (e *Engine) audit(ctx context.Context, eventType, subject, certID, certHash string, certVersion int, reason string, metadata map[string]any, success bool, errText string) {
	if e.auditor == nil {
		return
	}
	e.auditor.Record(ctx, eventType, e.identity, subject, certID, certHash, certVersion, reason, metadata, success, errText)
}

func (e *Engine) propagate(ctx context.Context, certID string, version int, obj []byte, urgent bool) {
	if e.propagator == nil {
		return
	}
	e.propagator.Enqueue(ctx, certID, version, obj, urgent)
}
