package formatters

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates formatter instances by name
type Factory struct {
	mu         sync.RWMutex
	formatters map[string]FormatterConstructor
}

// FormatterConstructor is a function that creates a formatter
type FormatterConstructor func() (Formatter, error)

// Names of the built-in formatters.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewFactory creates a new formatter factory with default formatters registered
func NewFactory() *Factory {
	f := &Factory{
		formatters: make(map[string]FormatterConstructor),
	}

	_ = f.Register(FormatText, func() (Formatter, error) {
		return NewTextFormatter(), nil
	})

	_ = f.Register(FormatJSON, func() (Formatter, error) {
		return NewJSONFormatter(), nil
	})

	return f
}

// Register registers a new formatter constructor
func (f *Factory) Register(name string, constructor FormatterConstructor) error {
	if name == "" {
		return fmt.Errorf("formatter name cannot be empty")
	}
	if constructor == nil {
		return fmt.Errorf("formatter constructor cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.formatters[name] = constructor
	return nil
}

// CreateFormatter creates a formatter by name
func (f *Factory) CreateFormatter(name string) (Formatter, error) {
	f.mu.RLock()
	constructor, exists := f.formatters[name]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("formatter %q not registered", name)
	}

	return constructor()
}

// ListFormatters returns the registered names in sorted order
func (f *Factory) ListFormatters() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.formatters))
	for name := range f.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultFactory is the global formatter factory
var DefaultFactory = NewFactory()

// Register registers a formatter with the default factory
func Register(name string, constructor FormatterConstructor) error {
	return DefaultFactory.Register(name, constructor)
}

// CreateFormatter creates a formatter using the default factory
func CreateFormatter(name string) (Formatter, error) {
	return DefaultFactory.CreateFormatter(name)
}
