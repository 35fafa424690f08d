package rule

import (
	"fmt"

	"github.com/gnolang/tclean/internal/options"
)

// Registry holds rules in registration order, which is also the order in
// which their operations are composed.
type Registry struct {
	rules  []Rule
	byName map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Rule)}
}

func (r *Registry) Register(rl Rule) error {
	if _, ok := r.byName[rl.Name()]; ok {
		return fmt.Errorf("rule %q already registered", rl.Name())
	}
	r.byName[rl.Name()] = rl
	r.rules = append(r.rules, rl)
	return nil
}

func (r *Registry) MustRegister(rules ...Rule) {
	for _, rl := range rules {
		if err := r.Register(rl); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

func (r *Registry) Lookup(name string) (Rule, bool) {
	rl, ok := r.byName[name]
	return rl, ok
}

// Enabled returns the rules enabled under o, in registration order.
func (r *Registry) Enabled(o options.Options) []Rule {
	var out []Rule
	for _, rl := range r.rules {
		if rl.Enabled(o) {
			out = append(out, rl)
		}
	}
	return out
}

// Keys returns every option key read by a registered rule.
func (r *Registry) Keys() []options.Key {
	var keys []options.Key
	seen := make(map[options.Key]bool)
	for _, rl := range r.rules {
		for _, k := range rl.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
