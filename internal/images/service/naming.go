package service

import (
	"fmt"

	"github.com/TheCampingLog/image-server/pkg/clock"
)

// NameGenerator names stored files "{unix-millis}_{original}".
// Two uploads of the same name in the same millisecond get the same name;
// the exclusive write turns that into ErrStoreConflict.
type NameGenerator struct {
	clock clock.Clock
}

func NewNameGenerator(c clock.Clock) *NameGenerator {
	if c == nil {
		c = &clock.SystemClock{}
	}
	return &NameGenerator{clock: c}
}

// Generate does not sanitize original; callers reject unsafe names first.
func (g *NameGenerator) Generate(original string) string {
	return fmt.Sprintf("%d_%s", g.clock.Now(), original)
}
