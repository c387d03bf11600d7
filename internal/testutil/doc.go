// Package testutil contains helper doubles used across tests to reduce
// boilerplate when exercising the orchestrator: a canned knowledge source,
// a scripted provider and failing/recording cache wrappers. These helpers
// are intentionally minimal and are not intended for production usage.
package testutil
