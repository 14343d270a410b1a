package billnumber

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique, human-readable bill numbers. It is injected
// into the ledger so the numbering strategy can be swapped without touching
// persistence code.
type Generator interface {
	Next(now time.Time) string
}

// RandomSuffixGenerator emits numbers like BILL-20260830-4F2A1C: the date
// keeps them human-sortable, the random suffix makes collisions across
// concurrent checkouts vanishingly unlikely.
type RandomSuffixGenerator struct {
	Prefix string
}

// New returns the default generator with the given prefix.
func New(prefix string) *RandomSuffixGenerator {
	if prefix == "" {
		prefix = "BILL"
	}
	return &RandomSuffixGenerator{Prefix: prefix}
}

func (g *RandomSuffixGenerator) Next(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:6])
	return fmt.Sprintf("%s-%s-%s", g.Prefix, now.Format("20060102"), suffix)
}
