package index

import (
	"sort"
)

// Signal is an interned peripheral function, e.g. FTM0_6 or PTA_3.
type Signal struct {
	family   Family
	base     string
	instance string
	channel  string
}

func (s *Signal) Family() Family   { return s.family }
func (s *Signal) Base() string     { return s.base }
func (s *Signal) Instance() string { return s.instance }
func (s *Signal) Channel() string  { return s.channel }

// Key is the display name and identity of the signal.
func (s *Signal) Key() string {
	return SignalKey(s.base, s.instance, s.channel)
}

// Peripheral names the owning peripheral instance, e.g. FTM0.
func (s *Signal) Peripheral() string { return s.base + s.instance }

func (s *Signal) String() string { return s.Key() }

func SignalKey(base, instance, channel string) string {
	return base + instance + "_" + channel
}

type SignalRegistry struct {
	signals map[string]*Signal
}

func NewSignalRegistry() *SignalRegistry {
	return &SignalRegistry{signals: make(map[string]*Signal)}
}

// Intern returns the unique signal for (base, instance, channel).
func (r *SignalRegistry) Intern(base, instance, channel string) *Signal {
	key := SignalKey(base, instance, channel)
	if s, ok := r.signals[key]; ok {
		return s
	}
	f, _ := ParseFamily(base)
	s := &Signal{family: f, base: base, instance: instance, channel: channel}
	r.signals[key] = s
	return s
}

// InternMatch interns the signal described by a recognised cell.
func (r *SignalRegistry) InternMatch(m Match) *Signal {
	return r.Intern(m.Family().String(), m.Instance(), m.Channel())
}

// MatchKey is the key InternMatch would give m.
func MatchKey(m Match) string {
	return SignalKey(m.Family().String(), m.Instance(), m.Channel())
}

func (r *SignalRegistry) Lookup(key string) (*Signal, bool) {
	s, ok := r.signals[key]
	return s, ok
}

func (r *SignalRegistry) Len() int { return len(r.signals) }

// Keys returns every signal key in ascending order.
func (r *SignalRegistry) Keys() []string {
	keys := make([]string, 0, len(r.signals))
	for k := range r.signals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
