package persistence

import "context"

// Backend is a string key/value store with browser local-storage semantics:
// a missing key is reported as absent, never as an error.
type Backend interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Pinger is implemented by backends with a remote dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ScopedKey prefixes key with a visitor namespace.
func ScopedKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
