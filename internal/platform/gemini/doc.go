// Package gemini implements the generation.Generator interface using
// Google's Imagen models via the Gemini API. It renders per-asset-kind
// prompts from a job's parameter bag, calls the image API with exponential
// backoff for transient failures, and persists the returned bytes through
// an artifact sink.
package gemini
