// Package credentials stores the API keys used by the check-in services.
//
// Services only need a Store. Setup commands also use Writer. Two
// implementations exist: MemoryStore and FileStore (TOML or YAML on disk).
package credentials
