package npm

import (
	"context"
	"sync"
)

// InstallCall records one Install invocation
type InstallCall struct {
	Dir   string
	Specs []string
}

// MockInstaller implements Installer for testing
type MockInstaller struct {
	mu            sync.Mutex
	installs      []InstallCall
	publishes     []string
	publishOutput string
	installErr    error
	publishErr    error
}

func NewMockInstaller() *MockInstaller {
	return &MockInstaller{publishOutput: "+ package@0.0.0"}
}

// SetPublishOutput sets the output returned by Publish
func (m *MockInstaller) SetPublishOutput(output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishOutput = output
}

// FailInstall makes every Install return err
func (m *MockInstaller) FailInstall(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installErr = err
}

// FailPublish makes every Publish return err
func (m *MockInstaller) FailPublish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErr = err
}

func (m *MockInstaller) Install(ctx context.Context, dir string, specs ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installs = append(m.installs, InstallCall{Dir: dir, Specs: append([]string(nil), specs...)})
	if m.installErr != nil {
		return "", m.installErr
	}
	return "", nil
}

func (m *MockInstaller) Publish(ctx context.Context, dir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishes = append(m.publishes, dir)
	if m.publishErr != nil {
		return "", m.publishErr
	}
	return m.publishOutput, nil
}

// Installs returns the recorded Install calls
func (m *MockInstaller) Installs() []InstallCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]InstallCall(nil), m.installs...)
}

// Publishes returns the directories passed to Publish
func (m *MockInstaller) Publishes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.publishes...)
}
