// Package memory provides in-process store adapters.
//
// Each store guards its map with its own sync.RWMutex: readers share the
// lock, a writer excludes everyone else on that store only. Reads return
// copies, never references into the map. Challenge expiry is evaluated
// lazily against the store's clock; no goroutine is started.
package memory
