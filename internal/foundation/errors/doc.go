// Package errors provides the classified error primitives used across plugindocs.
//
// Every failure that can cross a package boundary is expressed as a
// ClassifiedError carrying a category, a severity and structured context.
// Callers decide fatality from the category instead of matching strings:
//
//   - CategoryConfig: malformed or missing configuration, always fatal
//   - CategoryValidation: archive contents violate the documentation layout
//   - CategoryNotFound / CategoryNetwork: fetch failures (see IsFetchError)
//   - CategoryResolution: a production resolution that left sources unresolved
//
// Example usage:
//
//	err := errors.NotFoundError("documentation asset not found").
//		WithContext("repository", repo).
//		WithContext("tag", tag).
//		Build()
//
// The CLI and HTTP adapters translate classified errors into exit codes and
// JSON payloads respectively.
package errors
