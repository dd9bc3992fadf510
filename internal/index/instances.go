package index

import (
	"sort"
)

// PeripheralInstanceSet records which instances of each peripheral family
// the pin table uses.
type PeripheralInstanceSet struct {
	bases map[string]map[string]bool
}

func NewPeripheralInstanceSet() *PeripheralInstanceSet {
	return &PeripheralInstanceSet{bases: make(map[string]map[string]bool)}
}

func (s *PeripheralInstanceSet) Add(base, instance string) {
	if s.bases[base] == nil {
		s.bases[base] = make(map[string]bool)
	}
	s.bases[base][instance] = true
}

// Has reports whether a peripheral key such as FTM0 is in use.
func (s *PeripheralInstanceSet) Has(key string) bool {
	for base, insts := range s.bases {
		if len(key) < len(base) || key[:len(base)] != base {
			continue
		}
		if insts[key[len(base):]] {
			return true
		}
	}
	return false
}

func (s *PeripheralInstanceSet) Bases() []string {
	out := make([]string, 0, len(s.bases))
	for b := range s.bases {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Instances returns the instance ids of base, shorter ids first.
func (s *PeripheralInstanceSet) Instances(base string) []string {
	out := make([]string, 0, len(s.bases[base]))
	for i := range s.bases[base] {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool {
		if len(out[a]) != len(out[b]) {
			return len(out[a]) < len(out[b])
		}
		return out[a] < out[b]
	})
	return out
}

// Keys returns every peripheral key, grouped by base.
func (s *PeripheralInstanceSet) Keys() []string {
	var out []string
	for _, b := range s.Bases() {
		for _, i := range s.Instances(b) {
			out = append(out, b+i)
		}
	}
	return out
}
