package portrait

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewID_Format(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	id := NewID("u1", at, 3)

	assert.Regexp(t, regexp.MustCompile(`^u1-1700000000123-3-[0-9a-z]{8}$`), id)
}

func TestNewID_DistinctWithinSameTick(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	seen := make(map[string]bool)
	for range 100 {
		id := NewID("u1", at, 0)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
