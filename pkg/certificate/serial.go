package certificate

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// SerialGenerator produces serial numbers unique within one issuer: a
// monotonically increasing counter combined with the issuance timestamp
// and a short random tag. The random tag is diagnostic only; the counter
// is what guarantees uniqueness.
type SerialGenerator struct {
	counter uint64
}

// NewSerialGenerator creates a serial number generator for one issuer.
func NewSerialGenerator() *SerialGenerator {
	return &SerialGenerator{}
}

// Next returns the next serial number for issuedAtMS.
func (g *SerialGenerator) Next(issuedAtMS int64) string {
	n := atomic.AddUint64(&g.counter, 1)
	tag := uuid.New().String()[:8]
	return fmt.Sprintf("%d-%d-%s", issuedAtMS, n, tag)
}
