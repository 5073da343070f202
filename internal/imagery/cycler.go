// internal/imagery/cycler.go
package imagery

import (
	"encoding/base64"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Source yields the next image payload in rotation.
// ok == false means no image is available for this tick.
type Source interface {
	Next() (data string, ok bool)
}

// Cycler walks a Catalog round-robin and returns base64 file contents.
// It is safe for concurrent use: a shared Cycler is one global rotation.
type Cycler struct {
	cat *Catalog
	log logrus.FieldLogger

	// onReadError is called once per failed read. May be nil.
	onReadError func()

	readFile func(string) ([]byte, error)

	mu    sync.Mutex
	index int
}

// NewCycler returns a cycler positioned at the first catalog entry.
func NewCycler(cat *Catalog, log logrus.FieldLogger, onReadError func()) *Cycler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cycler{
		cat:         cat,
		log:         log,
		onReadError: onReadError,
		readFile:    os.ReadFile,
	}
}

// Next returns the current file encoded as standard base64 and advances.
// The index advances before the read, so an unreadable file costs one
// tick and is retried only on its next turn.
func (c *Cycler) Next() (string, bool) {
	n := c.cat.Len()
	if n == 0 {
		return "", false
	}

	c.mu.Lock()
	path := c.cat.at(c.index)
	c.index = (c.index + 1) % n
	c.mu.Unlock()

	raw, err := c.readFile(path)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Error("image read failed")
		if c.onReadError != nil {
			c.onReadError()
		}
		return "", false
	}

	return base64.StdEncoding.EncodeToString(raw), true
}

// Reset moves the rotation back to the first entry.
func (c *Cycler) Reset() {
	c.mu.Lock()
	c.index = 0
	c.mu.Unlock()
}
