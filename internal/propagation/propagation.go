// Package propagation implements the dual propagation protocol: an
// automatic internal sync hand-off (persisting a new version is
// sufficient for the Peer Transport to pick it up) and a manual external
// channel (export_external / import_external) operating on Verifiable
// Credential documents.
package propagation

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/juergengeck/trust.core/internal/vcbridge"
	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/juergengeck/trust.core/pkg/logger"
	"github.com/juergengeck/trust.core/pkg/ports"
)

// InternalStatus is a certificate version's internal-propagation state.
type InternalStatus string

const (
	StatusPending InternalStatus = "pending"
	StatusSyncing InternalStatus = "syncing"
	StatusSynced  InternalStatus = "synced"
	StatusFailed  InternalStatus = "failed"
	StatusOffline InternalStatus = "offline"
)

// job is one queued internal-propagation task.
type job struct {
	certID  string
	version int
	obj     []byte
	urgent  bool
	retries int
}

// AuditRecorder is the narrow audit slice the service needs.
type AuditRecorder interface {
	Record(ctx context.Context, eventType, actor, subject, certID, certHash string, certVersion int, reason string, metadata map[string]any, success bool, errText string)
}

// Service is the Propagation Service.
type Service struct {
	identity  string
	transport ports.PeerTransport
	store     ports.ObjectStore
	auditor   AuditRecorder
	log       *logger.Log

	queue  chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	statusMu sync.Mutex
	status   map[string]InternalStatus // certID -> status of its latest enqueued version
}

// New creates a Propagation Service and starts its background drain loop.
// The loop stops when ctx is cancelled or when Close is called.
func New(ctx context.Context, identity string, transport ports.PeerTransport, store ports.ObjectStore, auditor AuditRecorder, log *logger.Log) *Service {
	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		cancel:    cancel,
		identity:  identity,
		transport: transport,
		store:     store,
		auditor:   auditor,
		log:       log.New("propagation"),
		queue:     make(chan job, 256),
		status:    make(map[string]InternalStatus),
	}
	s.wg.Add(1)
	go s.drain(ctx)
	s.log.Info("started")
	return s
}

// Close stops the background drain loop and any pending retries, and waits
// for them to exit. Jobs still queued at that point are not published.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
	close(s.queue)
	s.log.Info("stopped")
}

// Enqueue hands a freshly persisted certificate version to the internal
// propagation queue. It satisfies ca.Propagator structurally.
func (s *Service) Enqueue(ctx context.Context, certID string, version int, obj []byte, urgent bool) {
	s.setStatus(certID, StatusPending)
	j := job{certID: certID, version: version, obj: obj, urgent: urgent}
	select {
	case s.queue <- j:
	case <-ctx.Done():
	}
}

func (s *Service) setStatus(certID string, status InternalStatus) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status[certID] = status
}

// Status returns the last known internal-propagation status for certID.
func (s *Service) Status(certID string) (InternalStatus, bool) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st, ok := s.status[certID]
	return st, ok
}

// maxRetries bounds the exponential backoff retried in drain before a job
// is parked as failed; urgent (revocation) jobs retry indefinitely since
// revocations must propagate regardless of transient transport failures.
const maxRetries = 5

// drain processes the internal queue, retrying with exponential backoff
// on failure and marking offline when the transport reports no
// connection, never holding the per-id lock (the CA Engine's, not this
// service's) across network I/O.
func (s *Service) drain(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-s.queue:
			if !ok {
				return
			}
			s.process(ctx, j)
		}
	}
}

func (s *Service) process(ctx context.Context, j job) {
	if !s.transport.Connected(ctx) {
		s.setStatus(j.certID, StatusOffline)
		s.requeueAfter(ctx, j, time.Second)
		return
	}

	s.setStatus(j.certID, StatusSyncing)
	err := s.transport.Publish(ctx, "certificate", j.certID, j.version, j.obj, j.urgent)
	if err != nil {
		s.log.Info("publish failed", "certID", j.certID, "error", err.Error())
		s.setStatus(j.certID, StatusFailed)
		if j.urgent || j.retries < maxRetries {
			j.retries++
			backoff := time.Duration(1<<uint(j.retries)) * 100 * time.Millisecond
			s.requeueAfter(ctx, j, backoff)
		}
		return
	}

	s.setStatus(j.certID, StatusSynced)
}

func (s *Service) requeueAfter(ctx context.Context, j job, delay time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		select {
		case s.queue <- j:
		case <-ctx.Done():
		}
	}()
}

// ExportOptions are the recognized export_external channel options.
// Renderer/Mailer/Writer/Publisher are caller-provided; Method is a
// free-form audit-trail tag.
type ExportOptions struct {
	QRCode      bool
	QRRenderer  func(jsonLD []byte) ([]byte, error)
	EmailAddr   string
	Mailer      func(ctx context.Context, addr string, jsonLD []byte) error
	DownloadTo  string
	FileWriter  func(path string, jsonLD []byte) error
	WebEndpoint string
	HTTPPutter  func(ctx context.Context, url string, jsonLD []byte) error
	Method      string
}

// ExportedVC is the result of ExportExternal.
type ExportedVC struct {
	Document []byte // sanitized JSON-LD, as handed to every channel
	QRImage  []byte // only set when options.QRCode and a renderer is given
}

// ExportExternal converts the given certificate version via the VC
// Bridge, serializes JSON-LD, and hands it to whichever channels options
// selects.
func (s *Service) ExportExternal(ctx context.Context, c *certificate.Certificate, opts ExportOptions) (*ExportedVC, error) {
	vc, err := vcbridge.CertToVC(c)
	if err != nil {
		s.audit(ctx, "vc_exported", c.Subject, c.ID, c.Version, false, err.Error())
		return nil, err
	}

	doc, err := json.Marshal(vc.Sanitize())
	if err != nil {
		err = coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
		s.audit(ctx, "vc_exported", c.Subject, c.ID, c.Version, false, err.Error())
		return nil, err
	}

	result := &ExportedVC{Document: doc}

	if opts.QRCode && opts.QRRenderer != nil {
		img, err := opts.QRRenderer(doc)
		if err != nil {
			s.audit(ctx, "vc_exported", c.Subject, c.ID, c.Version, false, err.Error())
			return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
		}
		result.QRImage = img
	}

	if opts.EmailAddr != "" && opts.Mailer != nil {
		if err := opts.Mailer(ctx, opts.EmailAddr, doc); err != nil {
			s.audit(ctx, "vc_exported", c.Subject, c.ID, c.Version, false, err.Error())
			return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
		}
	}

	if opts.DownloadTo != "" && opts.FileWriter != nil {
		if err := opts.FileWriter(opts.DownloadTo, doc); err != nil {
			s.audit(ctx, "vc_exported", c.Subject, c.ID, c.Version, false, err.Error())
			return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
		}
	}

	if opts.WebEndpoint != "" && opts.HTTPPutter != nil {
		if err := opts.HTTPPutter(ctx, opts.WebEndpoint, doc); err != nil {
			s.audit(ctx, "vc_exported", c.Subject, c.ID, c.Version, false, err.Error())
			return nil, coreerr.NewDetails(coreerr.KindTimedOut, err.Error())
		}
	}

	s.audit(ctx, "vc_exported", c.Subject, c.ID, c.Version, true, "")
	s.log.Info("exported", "id", c.ID, "version", c.Version, "method", opts.Method)

	return result, nil
}

// DefaultQRRenderer is the stock ExportOptions.QRRenderer: a 256px PNG
// encoding the sanitized JSON-LD document as a QR code, for channels that
// want a scannable transfer rather than a file or web endpoint.
func DefaultQRRenderer(jsonLD []byte) ([]byte, error) {
	qrCode, err := qrcode.New(string(jsonLD), qrcode.Medium)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode.Image(256)); err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}
	return buf.Bytes(), nil
}

func (s *Service) audit(ctx context.Context, eventType, subject, certID string, version int, success bool, errText string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, eventType, s.identity, subject, certID, "", version, "", nil, success, errText)
}
