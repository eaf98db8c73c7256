package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockBackend is a mock translation backend for testing.
type MockBackend struct {
	Translations map[string]string // Map of source text to translation
	Err          error             // Returned by every call when set
	CallCount    int               // Number of times Translate was called
	LastRequest  *Request          // Last request received

	mu sync.Mutex
}

// NewMockBackend creates a new mock backend with default translations.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Translations: map[string]string{
			"Hello":                "Hola",
			"World":                "Mundo",
			"Hello World":          "Hola Mundo",
			"Clear skies tonight.": "Cielos despejados esta noche.",
		},
	}
}

// Translate returns the mock translation of req.Text.
func (m *MockBackend) Translate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastRequest = &req

	if m.Err != nil {
		return "", m.Err
	}
	if translation, ok := m.Translations[req.Text]; ok {
		return translation, nil
	}
	// Return bracketed text for unknown translations
	return fmt.Sprintf("[%s]", req.Text), nil
}

// Reset resets the call count and last request.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount = 0
	m.LastRequest = nil
}

// Verify MockBackend implements Backend
var _ Backend = (*MockBackend)(nil)
