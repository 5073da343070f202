// internal/imagery/catalog.go
package imagery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are matched when no extension list is configured.
// Order matters: it is the order of the rotation groups.
var DefaultExtensions = []string{".jpg", ".png"}

// Catalog is the immutable, ordered list of image files found at startup.
type Catalog struct {
	paths []string
}

// Discover scans dir once for files whose extension is in exts
// (case-insensitive). Files are grouped by extension in exts order and
// ordered by name inside a group. Subdirectories are not descended.
func Discover(dir string, exts []string) (*Catalog, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("imagery: scan %s: %w", dir, err)
	}

	groups := make([][]string, len(exts))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for i, want := range exts {
			if ext == strings.ToLower(want) {
				groups[i] = append(groups[i], filepath.Join(dir, e.Name()))
				break
			}
		}
	}

	var paths []string
	for _, g := range groups {
		sort.Strings(g)
		paths = append(paths, g...)
	}

	return &Catalog{paths: paths}, nil
}

// NewCatalog wraps an explicit path list. The slice is copied.
func NewCatalog(paths []string) *Catalog {
	return &Catalog{paths: append([]string(nil), paths...)}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.paths)
}

// Paths returns a copy of the rotation order.
func (c *Catalog) Paths() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.paths...)
}

func (c *Catalog) at(i int) string {
	return c.paths[i]
}
