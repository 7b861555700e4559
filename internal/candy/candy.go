package candy

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultNoteExt is the extension of the file that carries a candy's note.
const DefaultNoteExt = ".txt"

// Candy is a single deliverable item: an optional note plus attachments.
// Only its Name is ever persisted.
type Candy struct {
	Name        string
	Note        string
	HasNote     bool
	Attachments []string
}

func (c Candy) String() string {
	return fmt.Sprintf("Candy '%s', '%s', %s", c.Name, c.Note, strings.Join(c.Attachments, ", "))
}

// Catalog groups raw file identifiers by candy name.
type Catalog map[string][]string

// NewCatalog groups files by base name with the extension stripped.
func NewCatalog(files []string) Catalog {
	c := make(Catalog)
	for _, f := range files {
		name := NameOf(f)
		c[name] = append(c[name], f)
	}
	return c
}

// NameOf returns the candy name a file belongs to.
func NameOf(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Names returns the candy names in sorted order.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Available returns sorted names that are not in excluded.
func (c Catalog) Available(excluded map[string]struct{}) []string {
	var out []string
	for _, name := range c.Names() {
		if _, ok := excluded[name]; ok {
			continue
		}
		out = append(out, name)
	}
	return out
}
