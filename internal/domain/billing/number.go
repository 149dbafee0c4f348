package billing

import (
	"fmt"
	"sync/atomic"
	"time"
)

// NumberGenerator hands out bill numbers
type NumberGenerator interface {
	Next() string
}

// Sequence generates "BILL-<unix millis>-<counter>" numbers. The counter
// keeps numbers unique within a process even when two bills share a millisecond;
// across processes the unique index on bills.bill_number is the backstop.
type Sequence struct {
	prefix  string
	counter atomic.Uint64
	now     func() time.Time
}

// NewSequence creates a generator with the given prefix ("BILL" when empty)
func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = "BILL"
	}
	return &Sequence{prefix: prefix, now: time.Now}
}

// Next returns the next bill number
func (s *Sequence) Next() string {
	n := s.counter.Add(1)
	return fmt.Sprintf("%s-%d-%04d", s.prefix, s.now().UnixMilli(), n%10000)
}
