// Package domain defines the core business types for tweetwash.
//
// This package contains pure domain logic with ZERO external dependencies
// outside the Go standard library. All types in this package are:
//
// - Independent of infrastructure (no file watching, HTTP, CLI, etc.)
// - Technology-agnostic (no framework coupling)
// - Testable in isolation without mocks
//
// Other packages (sanitise, config, stream) depend on these types; the
// dependency direction is always Infrastructure → Domain, never the
// reverse.
package domain
