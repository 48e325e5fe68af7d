// Package naming implements the qualified tool name scheme used between the
// proxy and its upstream providers. A qualified name is the provider name,
// the separator, then the provider-local ("bare") tool name. Bare names may
// themselves contain the separator, so decoding always happens against a
// known provider prefix rather than by splitting on the separator.
package naming

import (
	"fmt"
	"strings"
)

// Separator joins a provider name and a bare tool name. Provider names must
// never contain it, otherwise qualified names stop being reversible.
const Separator = "_"

type InvalidProviderNameError struct {
	Name   string
	Reason string
}

func (e *InvalidProviderNameError) Error() string {
	return fmt.Sprintf("invalid provider name %q: %s", e.Name, e.Reason)
}

func (e *InvalidProviderNameError) Is(target error) bool {
	_, ok := target.(*InvalidProviderNameError)
	return ok
}

// ValidateProviderName checks that a provider name can serve as a qualified
// name prefix.
func ValidateProviderName(name string) error {
	if name == "" {
		return &InvalidProviderNameError{Name: name, Reason: "must not be empty"}
	}
	if strings.Contains(name, Separator) {
		return &InvalidProviderNameError{Name: name, Reason: fmt.Sprintf("must not contain separator %q", Separator)}
	}
	return nil
}

// Qualify prefixes a bare tool name with its owning provider.
func Qualify(provider, bare string) string {
	return provider + Separator + bare
}

// Unqualify strips the given provider's prefix from a qualified name. It
// returns false when the name does not carry that provider's prefix, which
// callers treat as "this entry does not belong to this provider".
func Unqualify(provider, qualified string) (bare string, ok bool) {
	prefix := provider + Separator
	if !strings.HasPrefix(qualified, prefix) {
		return "", false
	}
	bare = qualified[len(prefix):]
	if bare == "" {
		return "", false
	}
	return bare, true
}
