package proxy

import "fmt"

// AccessDeniedError means the caller's policy does not admit the operation:
// either the caller has no policy at all, or no grant names a provider that
// could serve the requested tool. Distinct from authentication failure and
// from ToolNotFoundError.
type AccessDeniedError struct {
	Caller string
	Tool   string
}

func (e *AccessDeniedError) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("access denied for caller %q", e.Caller)
	}
	return fmt.Sprintf("access denied: caller %q may not call tool %q", e.Caller, e.Tool)
}

func (e *AccessDeniedError) Is(target error) bool {
	_, ok := target.(*AccessDeniedError)
	return ok
}

// ToolNotFoundError means every provider the policy made eligible for the
// tool was asked and none of them implements it.
type ToolNotFoundError struct {
	Caller string
	Tool   string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found on any provider eligible for caller %q", e.Tool, e.Caller)
}

func (e *ToolNotFoundError) Is(target error) bool {
	_, ok := target.(*ToolNotFoundError)
	return ok
}
