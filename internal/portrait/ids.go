package portrait

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID builds a portrait id from the issuer, the trigger time and the slot.
// The ULID entropy tail keeps ids distinct when the same issuer triggers the
// same slot twice within one clock tick.
func NewID(issuer string, at time.Time, slot int) string {
	u := ulid.MustNew(ulid.Timestamp(at), rand.Reader)
	entropy := u.String()[10:] // drop the 10-char timestamp prefix

	var b strings.Builder
	b.WriteString(issuer)
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(at.UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(slot))
	b.WriteByte('-')
	b.WriteString(strings.ToLower(entropy[:8]))
	return b.String()
}
