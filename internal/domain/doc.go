// Package domain contains the core entities of the application, independent
// of storage, transport, and generation backends.
package domain
