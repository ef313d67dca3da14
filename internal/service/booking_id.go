package service

import (
	"fmt"
	"math/rand"
	"time"
)

// BookingIDGenerator produces identifiers of the form BK-<6><3>: the last
// six digits of the Unix millisecond clock followed by a random salt in
// 100..999.  Uniqueness is enforced by the database; callers regenerate on
// collision.
type BookingIDGenerator struct {
	now  func() time.Time
	salt func() int
}

func NewBookingIDGenerator() *BookingIDGenerator {
	return &BookingIDGenerator{
		now:  time.Now,
		salt: func() int { return rand.Intn(900) + 100 },
	}
}

func (g *BookingIDGenerator) Next() string {
	ms := g.now().UnixMilli() % 1_000_000
	return fmt.Sprintf("BK-%06d%03d", ms, g.salt())
}
