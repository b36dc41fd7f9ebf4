package voice

import (
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Catalog holds the master list of voices reported by the engine. Filters
// return new slices and never touch the master list.
type Catalog struct {
	mu       sync.RWMutex
	voices   []Voice
	sortList bool
	loads    int
}

// NewCatalog returns an empty catalog. When sortVoices is set, loaded
// voices are ordered by locale and then by name, ignoring case.
func NewCatalog(sortVoices bool) *Catalog {
	return &Catalog{sortList: sortVoices}
}

// Load replaces the catalog with voices. Engines may announce the same
// catalog several times; when the catalog is already populated with the same
// voices nothing is rebuilt and Load returns false.
func (c *Catalog) Load(voices []Voice) bool {
	list := make([]Voice, len(voices))
	copy(list, voices)
	if c.sortList {
		SortVoices(list)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.voices) > 0 && sameVoices(c.voices, list) {
		return false
	}
	c.voices = list
	c.loads++
	return true
}

// Rebuilds returns how many times the catalog contents were replaced.
func (c *Catalog) Rebuilds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads
}

// Len returns the number of voices in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.voices)
}

// Voices returns a copy of the master list.
func (c *Catalog) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// First returns the first voice of the catalog.
func (c *Catalog) First() (Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.voices) == 0 {
		return Voice{}, false
	}
	return c.voices[0], true
}

// FilterByName returns the voices whose name contains substr, ignoring
// case. An empty substr returns the whole catalog in order.
func (c *Catalog) FilterByName(substr string) []Voice {
	needle := strings.ToLower(substr)
	return c.filter(func(v Voice) bool {
		return strings.Contains(strings.ToLower(v.Name), needle)
	})
}

// FilterByLang returns the voices whose locale equals code once both are
// normalized. An empty code returns the whole catalog.
func (c *Catalog) FilterByLang(code string) []Voice {
	want := NormalizeLang(code)
	if want == "" {
		return c.Voices()
	}
	return c.filter(func(v Voice) bool {
		return NormalizeLang(v.Lang) == want
	})
}

// FuzzyFilter ranks voices by a fuzzy match of pattern against their
// display string. An empty pattern returns the whole catalog in order.
func (c *Catalog) FuzzyFilter(pattern string) []Voice {
	all := c.Voices()
	if pattern == "" {
		return all
	}
	targets := make([]string, len(all))
	for i, v := range all {
		targets[i] = v.String()
	}
	matches := fuzzy.Find(pattern, targets)
	out := make([]Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out
}

// Find looks up the voice a descriptor refers to. A voice matching both
// name and locale wins; otherwise the first voice with the same name is
// used. When nothing matches the zero Voice is returned with ok false.
func (c *Catalog) Find(d Descriptor) (Voice, bool) {
	if d.IsZero() {
		return Voice{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, v := range c.voices {
		if d.Matches(v) {
			return v, true
		}
	}
	for _, v := range c.voices {
		if v.Name == d.Name {
			return v, true
		}
	}
	return Voice{}, false
}

// Lookup finds a voice by engine ID or name.
func (c *Catalog) Lookup(nameOrID string) (Voice, bool) {
	if nameOrID == "" {
		return Voice{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.voices {
		if v.ID == nameOrID || v.Name == nameOrID {
			return v, true
		}
	}
	for _, v := range c.voices {
		if strings.EqualFold(v.Name, nameOrID) {
			return v, true
		}
	}
	return Voice{}, false
}

func (c *Catalog) filter(keep func(Voice) bool) []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voice, 0, len(c.voices))
	for _, v := range c.voices {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// SortVoices orders voices in place by locale and then by name, both
// compared without regard to case.
func SortVoices(voices []Voice) {
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(voices, func(i, j int) bool {
		li, lj := NormalizeLang(voices[i].Lang), NormalizeLang(voices[j].Lang)
		if li != lj {
			return li < lj
		}
		return col.CompareString(voices[i].Name, voices[j].Name) < 0
	})
}

func sameVoices(a, b []Voice) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
