package candy

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNoCandyAvailable means every candy of the catalog was already delivered.
var ErrNoCandyAvailable = errors.New("no candy available")

// RandSource picks an index in [0, n).
type RandSource interface {
	Intn(n int) int
}

// ReadFileFunc reads a note file.
type ReadFileFunc func(path string) ([]byte, error)

type Selector struct {
	rnd      RandSource
	noteExt  string
	readFile ReadFileFunc
}

// NewSelector creates a selector. A nil rnd gets a crypto-seeded source,
// an empty noteExt defaults to DefaultNoteExt.
func NewSelector(rnd RandSource, noteExt string) *Selector {
	if rnd == nil {
		rnd = NewRand()
	}
	if noteExt == "" {
		noteExt = DefaultNoteExt
	}
	return &Selector{rnd: rnd, noteExt: noteExt, readFile: os.ReadFile}
}

// WithReadFile replaces the note reader, mostly for tests.
func (s *Selector) WithReadFile(f ReadFileFunc) *Selector {
	s.readFile = f
	return s
}

// Pick selects one not yet delivered candy uniformly at random.
func (s *Selector) Pick(catalog Catalog, excluded map[string]struct{}) (Candy, error) {
	available := catalog.Available(excluded)
	if len(available) == 0 {
		return Candy{}, ErrNoCandyAvailable
	}
	name := available[s.rnd.Intn(len(available))]
	return s.materialize(name, catalog[name])
}

func (s *Selector) materialize(name string, files []string) (Candy, error) {
	c := Candy{Name: name}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, f := range sorted {
		if !c.HasNote && strings.EqualFold(filepath.Ext(f), s.noteExt) {
			data, err := s.readFile(f)
			if err != nil {
				return Candy{}, fmt.Errorf("read note %s: %w", f, err)
			}
			c.Note = strings.TrimRight(string(data), "\r\n")
			c.HasNote = true
			continue
		}
		c.Attachments = append(c.Attachments, f)
	}
	return c, nil
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewRand returns a goroutine-safe source seeded from crypto/rand.
func NewRand() RandSource {
	var b [8]byte
	seed := int64(1)
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return NewSeededRand(seed)
}

// NewSeededRand returns a reproducible source.
func NewSeededRand(seed int64) RandSource {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}
