package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Sequence yields instance-name suffixes. Implementations must be safe for
// concurrent use and must not repeat a value while an instance holding it is
// still open.
type Sequence interface {
	Next() string
}

// Counter is a process-wide numeric sequence starting at 1. It wraps back to
// 1 instead of passing math.MaxInt32.
type Counter struct {
	n atomic.Int32
}

// Next returns the next counter value in decimal.
func (c *Counter) Next() string {
	for {
		cur := c.n.Load()
		next := cur + 1
		if cur >= math.MaxInt32-1 {
			next = 1
		}
		if c.n.CompareAndSwap(cur, next) {
			return strconv.FormatInt(int64(next), 10)
		}
	}
}

// UUIDSequence returns random v4 UUIDs without dashes.
type UUIDSequence struct{}

// Next returns a fresh 32-character hex string.
func (UUIDSequence) Next() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewSequence returns the sequence for kind: "counter" (or "") or "uuid".
func NewSequence(kind string) (Sequence, error) {
	switch kind {
	case "", "counter":
		return &Counter{}, nil
	case "uuid":
		return UUIDSequence{}, nil
	default:
		return nil, fmt.Errorf("convert: unknown naming kind %q", kind)
	}
}
