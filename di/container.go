package di

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
)

// RegistrationMode determines how a service is resolved.
type RegistrationMode int

const (
	Lazy      RegistrationMode = iota // constructed on first resolve
	Singleton                         // pre-created instance
)

// RegistrationInfo describes a registered service for introspection.
type RegistrationInfo struct {
	Key         string
	Mode        RegistrationMode
	Initialized bool
}

// Container holds named service registrations. Lazy constructors run at
// most once; a constructor failure is memoized and returned on later
// resolves until the entry is invalidated. A value installed with Set
// always wins over a lazy registration of the same key.
type Container struct {
	registrations map[string]*registration
	singletons    map[string]interface{}
	order         []string
	mutex         sync.RWMutex
}

type registration struct {
	key         string
	constructor reflect.Value
	instance    interface{}
	initialized bool
	lastError   error
	mutex       sync.RWMutex
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		registrations: make(map[string]*registration),
		singletons:    make(map[string]interface{}),
	}
}

// Register binds key to a constructor invoked on first resolve.
// Accepted shapes: func() T, func() (T, error), func(*Container) T and
// func(*Container) (T, error). Registering a key again replaces the
// constructor along with any memoized instance or failure.
func (c *Container) Register(key string, constructor interface{}) error {
	fn := reflect.ValueOf(constructor)
	if err := validateConstructor(fn); err != nil {
		return fmt.Errorf("register %s: %w", key, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.registrations[key] = &registration{key: key, constructor: fn}
	c.track(key)
	return nil
}

// Set installs a pre-created value under key, displacing whatever a
// registered constructor would build. Resolve prefers set values until
// Invalidate removes them again.
func (c *Container) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.singletons[key] = value
	c.track(key)
}

// Has reports whether key is known, registered or set.
func (c *Container) Has(key string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if _, exists := c.singletons[key]; exists {
		return true
	}
	_, exists := c.registrations[key]
	return exists
}

// Resolve returns the service bound to key, constructing it on first
// use. A value installed with Set takes priority over a lazy
// registration of the same key.
func (c *Container) Resolve(key string) (interface{}, error) {
	c.mutex.RLock()
	if singleton, exists := c.singletons[key]; exists {
		c.mutex.RUnlock()
		return singleton, nil
	}
	reg, exists := c.registrations[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, apperrors.ServiceNotFound(key)
	}
	return c.resolveLazy(reg)
}

func (c *Container) resolveLazy(reg *registration) (interface{}, error) {
	reg.mutex.RLock()
	if reg.initialized {
		instance := reg.instance
		reg.mutex.RUnlock()
		return instance, nil
	}
	if reg.lastError != nil {
		err := reg.lastError
		reg.mutex.RUnlock()
		return nil, err
	}
	reg.mutex.RUnlock()

	return c.initialize(reg)
}

func (c *Container) initialize(reg *registration) (interface{}, error) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	// Double-check pattern
	if reg.initialized {
		return reg.instance, nil
	}
	if reg.lastError != nil {
		return nil, reg.lastError
	}

	instance, err := c.callConstructor(reg.constructor)
	if err != nil {
		reg.lastError = fmt.Errorf("construct %s: %w", reg.key, err)
		logger.Error("Service construction failed", map[string]interface{}{
			"service": reg.key,
			"error":   err.Error(),
		})
		return nil, reg.lastError
	}

	reg.instance = instance
	reg.initialized = true
	logger.Debug("Service constructed", map[string]interface{}{
		"service": reg.key,
	})
	return instance, nil
}

// MustResolve is Resolve for services that must exist. It panics when
// resolution fails.
func (c *Container) MustResolve(key string) interface{} {
	instance, err := c.Resolve(key)
	if err != nil {
		panic(err)
	}
	return instance
}

// GetResolver defers resolution of key until the returned function is
// called. Route handlers hold these so mounting routes never constructs
// the services behind them.
func (c *Container) GetResolver(key string) func() (interface{}, error) {
	return func() (interface{}, error) {
		return c.Resolve(key)
	}
}

// Invalidate drops the memoized instance or failure for key so the next
// resolve runs the constructor again. A value installed with Set is
// removed, which uncovers the lazy registration underneath if one
// exists. Unknown keys are an error.
func (c *Container) Invalidate(key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	known := false
	if _, exists := c.singletons[key]; exists {
		delete(c.singletons, key)
		known = true
	}
	if reg, exists := c.registrations[key]; exists {
		reg.mutex.Lock()
		reg.instance = nil
		reg.initialized = false
		reg.lastError = nil
		reg.mutex.Unlock()
		known = true
	}

	if !known {
		return apperrors.ServiceNotFound(key)
	}
	return nil
}

// Refresh invalidates key and resolves it again.
func (c *Container) Refresh(key string) (interface{}, error) {
	if err := c.Invalidate(key); err != nil {
		return nil, err
	}
	return c.Resolve(key)
}

// Registrations lists every known service in registration order.
func (c *Container) Registrations() []RegistrationInfo {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]RegistrationInfo, 0, len(c.order))
	for _, key := range c.order {
		if _, exists := c.singletons[key]; exists {
			result = append(result, RegistrationInfo{Key: key, Mode: Singleton, Initialized: true})
			continue
		}
		reg, exists := c.registrations[key]
		if !exists {
			continue
		}
		reg.mutex.RLock()
		result = append(result, RegistrationInfo{Key: key, Mode: Lazy, Initialized: reg.initialized})
		reg.mutex.RUnlock()
	}
	return result
}

// Close releases constructed services that implement Close() error, in
// reverse registration order. Lazy services that were never resolved
// are skipped.
func (c *Container) Close() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var errs []error
	for i := len(c.order) - 1; i >= 0; i-- {
		key := c.order[i]
		if singleton, exists := c.singletons[key]; exists {
			errs = append(errs, closeInstance(key, singleton))
			continue
		}
		reg, exists := c.registrations[key]
		if !exists {
			continue
		}
		reg.mutex.RLock()
		initialized := reg.initialized
		instance := reg.instance
		reg.mutex.RUnlock()
		if initialized {
			errs = append(errs, closeInstance(key, instance))
		}
	}
	return errors.Join(errs...)
}

// track records key in registration order once. Callers hold c.mutex.
func (c *Container) track(key string) {
	for _, existing := range c.order {
		if existing == key {
			return
		}
	}
	c.order = append(c.order, key)
}

func closeInstance(key string, instance interface{}) error {
	closer, ok := instance.(interface{ Close() error })
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	return nil
}

var (
	containerType = reflect.TypeOf((*Container)(nil))
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

func validateConstructor(fn reflect.Value) error {
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("constructor must be a function, got %s", fn.Kind())
	}

	t := fn.Type()
	switch t.NumIn() {
	case 0:
	case 1:
		if t.In(0) != containerType {
			return fmt.Errorf("constructor argument must be *di.Container, got %s", t.In(0))
		}
	default:
		return fmt.Errorf("constructor takes at most one argument, got %d", t.NumIn())
	}

	if n := t.NumOut(); n != 1 && n != 2 {
		return errors.New("constructor must return either (instance) or (instance, error)")
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(errorType) {
		return errors.New("constructor must return either (instance) or (instance, error)")
	}
	return nil
}

func (c *Container) callConstructor(fn reflect.Value) (interface{}, error) {
	var args []reflect.Value
	if fn.Type().NumIn() == 1 {
		args = []reflect.Value{reflect.ValueOf(c)}
	}
	return handleConstructorResults(fn.Call(args))
}

func handleConstructorResults(results []reflect.Value) (interface{}, error) {
	if len(results) == 2 {
		if err, _ := results[1].Interface().(error); err != nil {
			return nil, err
		}
	}
	return results[0].Interface(), nil
}
