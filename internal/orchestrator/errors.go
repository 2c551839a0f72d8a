package orchestrator

import "fmt"

// ConfigurationError reports an invalid run setup: an empty roster, an
// unresolvable agent name, or pattern params that do not fit the pattern.
// It is raised before any agent call is issued.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func configErrf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// InvocationError reports a failed agent call: a timeout, an API error, or
// an exhausted retry budget. Retriable marks failures the caller may retry.
type InvocationError struct {
	Agent     string
	Message   string
	Retriable bool
	Err       error
}

func (e *InvocationError) Error() string {
	if e.Agent == "" {
		return "invocation error: " + e.Message
	}
	return fmt.Sprintf("invocation error: agent %s: %s", e.Agent, e.Message)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// RoutingParseError reports a router decision that was not valid structured
// output. The raw router text is preserved for inspection. It fails the run;
// an unparseable decision is never mapped to an empty selection.
type RoutingParseError struct {
	Raw string
	Err error
}

func (e *RoutingParseError) Error() string {
	return fmt.Sprintf("routing decision not parseable: %v", e.Err)
}

func (e *RoutingParseError) Unwrap() error {
	return e.Err
}
