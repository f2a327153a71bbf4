package signature

import "github.com/NOMARJ/sigil/finding"

// Registry holds the active rule set for a scan: the built-in rules
// plus any merged external signatures. Rules keep a stable order so
// scan output is reproducible across runs.
type Registry struct {
	rules []Rule
	index map[string]int // rule id -> position in rules
}

// NewRegistry creates a registry initialized with the built-in rules.
func NewRegistry() *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, rule := range Builtin() {
		r.index[rule.ID] = len(r.rules)
		r.rules = append(r.rules, rule)
	}
	return r
}

// Merge upserts external signatures into the registry by id: a
// signature with an existing rule's id replaces that rule in place,
// otherwise the compiled rule is appended. Signatures that fail to
// compile are skipped. Returns the number of signatures applied.
func (r *Registry) Merge(sigs []CloudSignature) int {
	applied := 0
	for _, sig := range sigs {
		rule, err := sig.Compile()
		if err != nil {
			continue
		}
		if pos, ok := r.index[rule.ID]; ok {
			r.rules[pos] = rule
		} else {
			r.index[rule.ID] = len(r.rules)
			r.rules = append(r.rules, rule)
		}
		applied++
	}
	return applied
}

// Rules returns all active rules in registration order. The returned
// slice must not be modified.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// RulesForPhase returns the active rules belonging to the given phase.
func (r *Registry) RulesForPhase(phase finding.Phase) []Rule {
	var out []Rule
	for _, rule := range r.rules {
		if rule.Phase == phase {
			out = append(out, rule)
		}
	}
	return out
}

// Lookup returns the rule registered under the given id.
func (r *Registry) Lookup(id string) (Rule, bool) {
	pos, ok := r.index[id]
	if !ok {
		return Rule{}, false
	}
	return r.rules[pos], true
}

// Len returns the number of active rules.
func (r *Registry) Len() int {
	return len(r.rules)
}
