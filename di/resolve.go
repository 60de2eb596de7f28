package di

import "fmt"

// MustResolve resolves a service with type safety, panics on error.
// Use this in handlers when a dependency is required.
//
// Example:
//
//	store := di.MustResolve[*users.Store](c, names.Users)
func MustResolve[T any](c *Container, key string) T {
	instance, err := c.Resolve(key)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", key, err))
	}
	result, ok := instance.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("di: service %s is %T, expected %T", key, instance, zero))
	}
	return result
}

// Resolve resolves a service with type safety, returns error on failure.
// Use this when you want to handle resolution errors gracefully.
//
// Example:
//
//	store, err := di.Resolve[*users.Store](c, names.Users)
//	if err != nil {
//	    return fmt.Errorf("failed to get user store: %w", err)
//	}
func Resolve[T any](c *Container, key string) (T, error) {
	var zero T
	instance, err := c.Resolve(key)
	if err != nil {
		return zero, fmt.Errorf("di: failed to resolve %s: %w", key, err)
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("di: service %s is %T, expected %T", key, instance, zero)
	}
	return result, nil
}

// TryResolve resolves a service, returns zero value and false on any
// failure. Use this when a dependency is optional.
//
// Example:
//
//	if metrics, ok := di.TryResolve[*observability.Metrics](c, "metrics"); ok {
//	    metrics.RecordRequestStart(ctx)
//	}
func TryResolve[T any](c *Container, key string) (T, bool) {
	var zero T
	instance, err := c.Resolve(key)
	if err != nil {
		return zero, false
	}
	result, ok := instance.(T)
	if !ok {
		return zero, false
	}
	return result, true
}

// GetTypedResolver returns a type-safe resolver function that defers
// resolution until called.
func GetTypedResolver[T any](c *Container, key string) func() (T, error) {
	return func() (T, error) {
		return Resolve[T](c, key)
	}
}
