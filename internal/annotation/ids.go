package annotation

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/glossa/internal/document"
)

// DefaultIDPrefix starts every generated annotation id.
const DefaultIDPrefix = "note"

// IDGenerator produces candidate annotation ids. The engine rejects
// candidates that collide with an id it has seen and asks again.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

// NewID implements IDGenerator.
func (f IDFunc) NewID() string {
	return f()
}

// TimeIDs generates ids of the form <prefix>-<unix millis>-<8 hex digits>.
// The random suffix keeps ids created within one millisecond apart. A prefix
// that stored markup could not carry is replaced by DefaultIDPrefix.
type TimeIDs struct {
	Prefix string
	Now    func() time.Time
}

// NewID implements IDGenerator.
func (g TimeIDs) NewID() string {
	prefix := g.Prefix
	if !document.IDPattern.MatchString(prefix) {
		prefix = DefaultIDPrefix
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return prefix + "-" + strconv.FormatInt(now().UnixMilli(), 10) + "-" + uuid.NewString()[:8]
}
