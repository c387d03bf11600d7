// Package cache contains concrete ResponseCache implementations. The cache
// contract resides in the core package; depend on core.ResponseCache in
// your code and select an implementation at wiring time.
//
// InMemoryCache is a volatile process-local map suited to a single
// interactive session. The sqlite subpackage provides a persistent backend
// for reuse across process restarts. Either way the cache is advisory:
// the orchestrator treats every cache failure as a miss.
package cache
