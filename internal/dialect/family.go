package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Family identifies a backend family such as POSTGRESQL and owns one
// dialect bit for the version-agnostic dialect plus one bit per version.
type Family struct {
	name     string
	base     entry
	versions []entry
}

type entry struct {
	name    string
	version string
	combo   Combo
}

var (
	mu        sync.RWMutex
	next      int
	families  []*Family
	byName    = map[string]*Family{}
	byDialect = map[string]Combo{}
)

// Register declares a family with its known versions. Registering the same
// family again with the same versions returns the existing family.
func Register(name string, versions ...string) (*Family, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" || strings.ContainsAny(name, "|, ") {
		return nil, fmt.Errorf("invalid dialect family name %q", name)
	}

	sorted := append([]string(nil), versions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareVersions(sorted[i], sorted[j]) < 0
	})
	for i := 1; i < len(sorted); i++ {
		if CompareVersions(sorted[i-1], sorted[i]) == 0 {
			return nil, fmt.Errorf("dialect %s: duplicate version %q", name, sorted[i])
		}
	}

	mu.Lock()
	defer mu.Unlock()

	if f, ok := byName[name]; ok {
		if !sameVersions(f.versions, sorted) {
			return nil, fmt.Errorf("dialect %s already registered with different versions", name)
		}
		return f, nil
	}

	if next+len(sorted)+1 > MaxDialects {
		return nil, fmt.Errorf("dialect %s: no dialect bits left", name)
	}

	f := &Family{name: name}
	f.base = entry{name: name, combo: bit(next)}
	next++
	for _, v := range sorted {
		e := entry{
			name:    name + "_" + strings.ReplaceAll(v, ".", "_"),
			version: v,
			combo:   bit(next),
		}
		next++
		f.versions = append(f.versions, e)
	}

	families = append(families, f)
	byName[name] = f
	for _, d := range f.dialects() {
		byDialect[d.name] = d.combo
	}
	return f, nil
}

// MustRegister is Register for package-level initialization.
func MustRegister(name string, versions ...string) *Family {
	f, err := Register(name, versions...)
	if err != nil {
		panic(err)
	}
	return f
}

// Families returns the registered families in registration order.
func Families() []*Family {
	mu.RLock()
	defer mu.RUnlock()
	return append([]*Family(nil), families...)
}

// Lookup returns a registered family by name.
func Lookup(name string) (*Family, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := byName[strings.ToUpper(name)]
	return f, ok
}

func sameVersions(have []entry, want []string) bool {
	if len(have) != len(want) {
		return false
	}
	for i := range have {
		if CompareVersions(have[i].version, want[i]) != 0 {
			return false
		}
	}
	return true
}

// Name returns the family name.
func (f *Family) Name() string { return f.name }

// Base returns the version-agnostic dialect of the family.
func (f *Family) Base() Combo { return f.base.combo }

// All returns every dialect of the family.
func (f *Family) All() Combo {
	c := f.base.combo
	for _, v := range f.versions {
		c = c.Union(v.combo)
	}
	return c
}

// Versions returns the declared versions in ascending order.
func (f *Family) Versions() []string {
	out := make([]string, len(f.versions))
	for i, v := range f.versions {
		out[i] = v.version
	}
	return out
}

// Version returns the single dialect for version v. It panics on an unknown
// version; versions are fixed at registration.
func (f *Family) Version(v string) Combo {
	for _, e := range f.versions {
		if CompareVersions(e.version, v) == 0 {
			return e.combo
		}
	}
	panic(fmt.Sprintf("dialect %s has no version %q", f.name, v))
}

// AtLeast returns the family's versions >= v.
func (f *Family) AtLeast(v string) Combo {
	var c Combo
	for _, e := range f.versions {
		if CompareVersions(e.version, v) >= 0 {
			c = c.Union(e.combo)
		}
	}
	return c
}

// Between returns the family's versions in [lo, hi].
func (f *Family) Between(lo, hi string) Combo {
	var c Combo
	for _, e := range f.versions {
		if CompareVersions(e.version, lo) >= 0 && CompareVersions(e.version, hi) <= 0 {
			c = c.Union(e.combo)
		}
	}
	return c
}

// Latest returns the newest version, or the base dialect if there is none.
func (f *Family) Latest() Combo {
	if len(f.versions) == 0 {
		return f.base.combo
	}
	return f.versions[len(f.versions)-1].combo
}

func (f *Family) dialects() []entry {
	return append([]entry{f.base}, f.versions...)
}

// Dialects returns the names of the family's dialects: the base name first,
// then one per version.
func (f *Family) Dialects() []string {
	ds := f.dialects()
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.name
	}
	return out
}

// Parse resolves a dialect expression: a single name (POSTGRESQL,
// POSTGRESQL_9_4), a family wildcard (POSTGRESQL_ALL), ANY, or a union of
// those separated by "|" or ",".
func Parse(text string) (Combo, error) {
	var c Combo
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == '|' || r == ',' })
	if len(parts) == 0 {
		return c, fmt.Errorf("empty dialect")
	}

	mu.RLock()
	defer mu.RUnlock()
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		switch {
		case p == "ANY" || p == "ALL":
			return Any(), nil
		case strings.HasSuffix(p, "_ALL"):
			f, ok := byName[strings.TrimSuffix(p, "_ALL")]
			if !ok {
				return Combo{}, fmt.Errorf("unknown dialect %q", p)
			}
			c = c.Union(f.All())
		default:
			d, ok := byDialect[p]
			if !ok {
				return Combo{}, fmt.Errorf("unknown dialect %q", p)
			}
			c = c.Union(d)
		}
	}
	return c, nil
}

// MustParse is Parse for tests and static tables.
func MustParse(text string) Combo {
	c, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return c
}

// CompareVersions compares dotted numeric versions component by component.
// Missing components count as zero; non-numeric components compare as text.
func CompareVersions(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		var sa, sb string
		if i < len(pa) {
			sa = pa[i]
		}
		if i < len(pb) {
			sb = pb[i]
		}
		ia, errA := strconv.Atoi(orZero(sa))
		ib, errB := strconv.Atoi(orZero(sb))
		if errA == nil && errB == nil {
			if ia != ib {
				if ia < ib {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
