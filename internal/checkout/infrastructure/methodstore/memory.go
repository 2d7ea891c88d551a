package methodstore

import (
	"context"
	"sync"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
)

type Memory struct {
	mu      sync.Mutex
	methods map[string]catalog.Method
}

func NewMemory() *Memory {
	return &Memory{methods: make(map[string]catalog.Method)}
}

func (m *Memory) Save(_ context.Context, session string, method catalog.Method) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[session] = method
	return nil
}

func (m *Memory) Load(_ context.Context, session string) (catalog.Method, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	method, ok := m.methods[session]
	return method, ok, nil
}

func (m *Memory) Clear(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.methods, session)
	return nil
}
