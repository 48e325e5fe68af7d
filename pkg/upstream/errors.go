package upstream

import (
	"errors"
	"fmt"
	"strings"
)

// ErrToolNotFound marks a "this provider does not implement that tool"
// failure, the only failure the router may recover from by falling back to
// the next candidate provider.
var ErrToolNotFound = errors.New("tool not found")

type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("no registered address for provider %q", e.Name)
}

func (e *UnknownProviderError) Is(target error) bool {
	_, ok := target.(*UnknownProviderError)
	return ok
}

// UnreachableError wraps a transport failure reaching a provider.
type UnreachableError struct {
	Provider string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("provider %q unreachable: %v", e.Provider, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

func (e *UnreachableError) Is(target error) bool {
	_, ok := target.(*UnreachableError)
	return ok
}

// IsToolNotFound reports whether an upstream call failed because the provider
// does not know the tool. Fakes return ErrToolNotFound directly; over the
// wire the MCP server answers tools/call for an unknown name with an
// invalid-params error whose message names the tool and says it was not
// found, so the message shape is matched as well.
func IsToolNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrToolNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "tool") && strings.Contains(msg, "not found")
}
