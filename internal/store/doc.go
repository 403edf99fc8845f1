// Package store defines the persistence interfaces the scheduler and
// services depend on, together with the common error values shared by all
// store implementations. Concrete implementations live under
// internal/platform.
package store
