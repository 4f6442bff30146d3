package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NumberGenerator produces human-readable order numbers.
type NumberGenerator interface {
	Next() string
}

// TimestampNumbers yields ORD-<unix millis>-<3 digits>. Two orders in the same
// millisecond collide with probability 1/1000; the unique index rejects the second.
type TimestampNumbers struct {
	now  func() time.Time
	rand func(n int) int
}

func NewTimestampNumbers() *TimestampNumbers {
	return &TimestampNumbers{now: time.Now, rand: rand.IntN}
}

func (g *TimestampNumbers) Next() string {
	return fmt.Sprintf("ORD-%d-%03d", g.now().UnixMilli(), g.rand(1000))
}
