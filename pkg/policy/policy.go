// Package policy holds the per-caller access table: which providers a caller
// may reach and which tools on each. Grant order is priority order; it decides
// both collision resolution during listing and dispatch order during
// invocation. The table is immutable after load and shared by all requests.
package policy

import (
	"fmt"

	"github.com/mcpcp/mcpcp/pkg/naming"
)

// AllTools is the configuration sentinel granting every tool of a provider.
const AllTools = "*"

// ToolSpec is either the all-tools grant or an explicit set of bare names.
type ToolSpec struct {
	all   bool
	names map[string]struct{}
}

// NewToolSpec builds a ToolSpec from configured names. A single AllTools
// entry grants everything; AllTools mixed with explicit names is rejected so
// a typo cannot silently widen a grant.
func NewToolSpec(names []string) (ToolSpec, error) {
	if len(names) == 1 && names[0] == AllTools {
		return ToolSpec{all: true}, nil
	}
	spec := ToolSpec{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if name == AllTools {
			return ToolSpec{}, fmt.Errorf("%q must be the only entry in a tool grant", AllTools)
		}
		if name == "" {
			return ToolSpec{}, fmt.Errorf("empty tool name in grant")
		}
		spec.names[name] = struct{}{}
	}
	return spec, nil
}

// AllToolsSpec returns the universal grant.
func AllToolsSpec() ToolSpec {
	return ToolSpec{all: true}
}

// Allows reports whether the spec admits the given bare tool name.
func (s ToolSpec) Allows(bare string) bool {
	if s.all {
		return true
	}
	_, ok := s.names[bare]
	return ok
}

// IsAll reports whether this is the all-tools grant.
func (s ToolSpec) IsAll() bool {
	return s.all
}

// Grant names one provider a caller may use and the tools allowed on it.
type Grant struct {
	Provider string
	Tools    ToolSpec
}

// Table maps caller subjects to their ordered grants. Zero value is an empty
// table, which denies everything.
type Table struct {
	grants map[string][]Grant
}

type DuplicateProviderError struct {
	Caller   string
	Provider string
}

func (e *DuplicateProviderError) Error() string {
	return fmt.Sprintf("policy for caller %q names provider %q more than once", e.Caller, e.Provider)
}

func (e *DuplicateProviderError) Is(target error) bool {
	_, ok := target.(*DuplicateProviderError)
	return ok
}

// NewTable validates and builds a policy table. Within one caller's list a
// provider may appear at most once, and every provider name must be a valid
// qualified-name prefix.
func NewTable(grants map[string][]Grant) (*Table, error) {
	table := &Table{grants: make(map[string][]Grant, len(grants))}
	for caller, list := range grants {
		seen := make(map[string]struct{}, len(list))
		for _, g := range list {
			if err := naming.ValidateProviderName(g.Provider); err != nil {
				return nil, fmt.Errorf("policy for caller %q: %w", caller, err)
			}
			if _, dup := seen[g.Provider]; dup {
				return nil, &DuplicateProviderError{Caller: caller, Provider: g.Provider}
			}
			seen[g.Provider] = struct{}{}
		}
		table.grants[caller] = append([]Grant(nil), list...)
	}
	return table, nil
}

// ForCaller returns the caller's grants in priority order. An unknown caller
// gets an empty list, which callers must treat as deny, never as
// unrestricted.
func (t *Table) ForCaller(subject string) []Grant {
	if t == nil {
		return nil
	}
	return t.grants[subject]
}

// Callers returns the number of subjects with configured policy.
func (t *Table) Callers() int {
	if t == nil {
		return 0
	}
	return len(t.grants)
}
