package index

import (
	"errors"
	"fmt"
	"sort"
)

var ErrAliasConflict = errors.New("alias conflict")

// AliasResolver keeps a one to one mapping between aliases and pins.
type AliasResolver struct {
	byAlias map[string]string
	byPin   map[string]string
}

func NewAliasResolver() *AliasResolver {
	return &AliasResolver{
		byAlias: make(map[string]string),
		byPin:   make(map[string]string),
	}
}

// Register binds alias to pin. Repeating an existing binding is a no-op;
// rebinding either side is an ErrAliasConflict.
func (a *AliasResolver) Register(alias, pin string) error {
	if cur, ok := a.byAlias[alias]; ok {
		if cur == pin {
			return nil
		}
		return fmt.Errorf("%w: %s already names %s", ErrAliasConflict, alias, cur)
	}
	if cur, ok := a.byPin[pin]; ok {
		return fmt.Errorf("%w: %s already has alias %s", ErrAliasConflict, pin, cur)
	}
	a.byAlias[alias] = pin
	a.byPin[pin] = alias
	return nil
}

// AliasOf returns the alias of pin, if any.
func (a *AliasResolver) AliasOf(pin string) (string, bool) {
	s, ok := a.byPin[pin]
	return s, ok
}

// Resolve returns the pin named by alias.
func (a *AliasResolver) Resolve(alias string) (string, bool) {
	p, ok := a.byAlias[alias]
	return p, ok
}

// Decorate returns `pin (alias)` or just pin.
func (a *AliasResolver) Decorate(pin string) string {
	if s, ok := a.byPin[pin]; ok {
		return pin + "(" + s + ")"
	}
	return pin
}

// Aliases returns every alias in ascending order.
func (a *AliasResolver) Aliases() []string {
	out := make([]string, 0, len(a.byAlias))
	for k := range a.byAlias {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (a *AliasResolver) Len() int { return len(a.byAlias) }
