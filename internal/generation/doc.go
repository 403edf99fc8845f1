// Package generation provides the interfaces and error taxonomy for
// producing generated assets through external backends. It abstracts the
// details of the backend API (Gemini), allowing the scheduler to dispatch
// work by asset kind without coupling to specific external services.
package generation
