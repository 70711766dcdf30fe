package shell

import (
	"context"
	"strings"
	"sync"
)

// MockCall records a single Run invocation
type MockCall struct {
	Dir     string
	Command string
}

// MockRunner implements Runner for testing. Responses are matched by command prefix.
type MockRunner struct {
	mu        sync.Mutex
	calls     []MockCall
	responses map[string]string
	failures  map[string]*CommandError
}

// NewMockRunner creates a new MockRunner
func NewMockRunner() *MockRunner {
	return &MockRunner{
		responses: make(map[string]string),
		failures:  make(map[string]*CommandError),
	}
}

// Respond makes every command starting with prefix return output
func (m *MockRunner) Respond(prefix, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prefix] = output
}

// Fail makes every command starting with prefix exit with the given code and stderr
func (m *MockRunner) Fail(prefix string, exitCode int, stderr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[prefix] = &CommandError{ExitCode: exitCode, Stderr: stderr}
}

func (m *MockRunner) Run(ctx context.Context, dir, command string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Dir: dir, Command: command})

	if prefix, ok := longestPrefix(m.failures, command); ok {
		failure := *m.failures[prefix]
		failure.Command = command
		failure.Dir = dir
		return "", &failure
	}
	if prefix, ok := longestPrefix(m.responses, command); ok {
		return strings.TrimSpace(m.responses[prefix]), nil
	}
	return "", nil
}

// Calls returns a copy of all recorded invocations
func (m *MockRunner) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

func longestPrefix[V any](table map[string]V, command string) (string, bool) {
	best := ""
	found := false
	for prefix := range table {
		if strings.HasPrefix(command, prefix) && (!found || len(prefix) > len(best)) {
			best = prefix
			found = true
		}
	}
	return best, found
}
