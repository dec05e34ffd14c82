// Package exercises maps muscle names to suggested exercises. Names match
// case- and accent-insensitively in Portuguese or English.
package exercises

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Entry is one muscle group and the exercises that train it.
type Entry struct {
	Muscle    string
	Aliases   []string
	Exercises []string
}

var builtin = []Entry{
	{"Peitoral", []string{"chest", "pecs", "peito"}, []string{"Supino reto", "Supino inclinado", "Crucifixo", "Flexão de braço"}},
	{"Ombros", []string{"shoulders", "deltoides", "ombro"}, []string{"Desenvolvimento", "Elevação lateral", "Elevação frontal"}},
	{"Bíceps", []string{"biceps"}, []string{"Rosca direta", "Rosca alternada", "Rosca martelo"}},
	{"Antebraço", []string{"forearms", "forearm"}, []string{"Rosca punho", "Rosca inversa"}},
	{"Abdômen", []string{"abs", "abdominals", "abdomen"}, []string{"Abdominal supra", "Prancha", "Elevação de pernas"}},
	{"Oblíquos", []string{"obliques"}, []string{"Abdominal oblíquo", "Prancha lateral", "Rotação russa"}},
	{"Quadríceps", []string{"quadriceps", "quads"}, []string{"Agachamento", "Leg press", "Cadeira extensora"}},
	{"Adutores", []string{"adductors"}, []string{"Cadeira adutora", "Agachamento sumô"}},
	{"Tibial", []string{"tibialis"}, []string{"Elevação de ponta de pé", "Caminhada nos calcanhares"}},
	{"Trapézio", []string{"traps", "trapezius"}, []string{"Encolhimento", "Remada alta"}},
	{"Dorsais", []string{"lats", "back", "costas"}, []string{"Puxada frontal", "Barra fixa", "Remada curvada"}},
	{"Tríceps", []string{"triceps"}, []string{"Tríceps pulley", "Tríceps testa", "Mergulho"}},
	{"Lombar", []string{"lower back", "erectors"}, []string{"Levantamento terra", "Hiperextensão lombar"}},
	{"Glúteos", []string{"glutes", "gluteos"}, []string{"Elevação pélvica", "Agachamento búlgaro", "Glúteo na polia"}},
	{"Posteriores", []string{"hamstrings", "posterior de coxa"}, []string{"Mesa flexora", "Stiff"}},
	{"Panturrilhas", []string{"calves", "panturrilha"}, []string{"Panturrilha em pé", "Panturrilha sentado"}},
}

// Builtin returns a copy of the built-in catalogue.
func Builtin() []Entry {
	out := make([]Entry, len(builtin))
	for i, e := range builtin {
		out[i] = Entry{
			Muscle:    e.Muscle,
			Aliases:   append([]string(nil), e.Aliases...),
			Exercises: append([]string(nil), e.Exercises...),
		}
	}
	return out
}

// Catalog answers exercise lookups, memoizing results per normalized name.
type Catalog struct {
	index   map[string]int
	entries []Entry
	memo    *cache.Cache
}

// New builds a catalog over entries. A ttl of zero or less keeps memoized
// results forever.
func New(entries []Entry, ttl time.Duration) *Catalog {
	c := &Catalog{
		index:   make(map[string]int),
		entries: entries,
	}
	if ttl > 0 {
		c.memo = cache.New(ttl, ttl*2)
	} else {
		c.memo = cache.New(cache.NoExpiration, 0)
	}
	for i, e := range entries {
		c.index[Normalize(e.Muscle)] = i
		for _, alias := range e.Aliases {
			if key := Normalize(alias); key != "" {
				if _, taken := c.index[key]; !taken {
					c.index[key] = i
				}
			}
		}
	}
	return c
}

// NewBuiltin builds a catalog over the built-in entries.
func NewBuiltin(ttl time.Duration) *Catalog {
	return New(Builtin(), ttl)
}

// Lookup returns the exercises for a muscle name, or an empty list when the
// name is unknown. The result is a fresh slice.
func (c *Catalog) Lookup(name string) []string {
	key := Normalize(name)
	if cached, found := c.memo.Get(key); found {
		return append([]string{}, cached.([]string)...)
	}

	result := []string{}
	if i, ok := c.index[key]; ok {
		result = append(result, c.entries[i].Exercises...)
	}
	c.memo.Set(key, result, cache.DefaultExpiration)
	return append([]string{}, result...)
}

// Muscles returns the canonical muscle names in sorted order.
func (c *Catalog) Muscles() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Muscle)
	}
	sort.Strings(names)
	return names
}

// Cached returns how many lookups are memoized.
func (c *Catalog) Cached() int {
	return c.memo.ItemCount()
}

// Normalize folds case, strips diacritics and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
