// Package logger provides the structured logger used across trust.core.
package logger

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log wraps logr.Logger so call sites don't depend on zap directly.
type Log struct {
	logr.Logger
}

// New creates a logger configured for production or development use.
func New(name, logPath string, production bool) (*Log, error) {
	var zc zap.Config

	switch production {
	case true:
		zc = zap.NewProductionConfig()
	case false:
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zc.DisableCaller = true
	zc.DisableStacktrace = true

	if logPath != "" {
		if err := os.MkdirAll(logPath, fs.ModeDir); err != nil {
			return nil, err
		}

		zc.OutputPaths = []string{
			filepath.Join(logPath, fmt.Sprintf("%s.log", name)),
		}
	}

	z, err := zc.Build()
	if err != nil {
		return nil, err
	}

	log := zapr.NewLogger(z)

	return &Log{Logger: log.WithName(name)}, nil
}

// NewSimple creates a logger for tests and one-off tools.
func NewSimple(name string) *Log {
	return &Log{Logger: zapr.NewLogger(zap.L().Named(name))}
}

// New creates a named sub-logger.
func (l *Log) New(name string) *Log {
	return &Log{Logger: l.WithName(name)}
}

// WithCertificate returns a sub-logger with certificate_id bound to every
// subsequent entry, so a lifecycle transition and its later verification
// can be correlated in log output without repeating the key at every call
// site.
func (l *Log) WithCertificate(id string) *Log {
	return &Log{Logger: l.WithValues("certificate_id", id)}
}

// WithPeer returns a sub-logger with peer bound to every subsequent entry,
// for trust-graph code (edge upsert/revoke) that logs repeatedly about the
// same remote identity.
func (l *Log) WithPeer(peerHash string) *Log {
	return &Log{Logger: l.WithValues("peer", peerHash)}
}

// Info logs at the informational level.
func (l *Log) Info(msg string, args ...interface{}) {
	l.Logger.V(0).WithValues(args...).Info(msg)
}

// Debug logs at the debug level.
func (l *Log) Debug(msg string, args ...interface{}) {
	l.Logger.V(1).WithValues(args...).Info(msg)
}

// Trace logs at the trace level.
func (l *Log) Trace(msg string, args ...interface{}) {
	l.Logger.V(2).WithValues(args...).Info(msg)
}
