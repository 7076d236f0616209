// Package cache stores compiled artifacts, such as compiled expression
// programs, so each source is compiled once and reused by every validation.
//
// Cache is a generic, thread-safe LRU bounded by a fixed capacity.
// GetOrCompile is the usual entry point:
//
//	programs := cache.New[uint64, cel.Program](256)
//	prg, err := programs.GetOrCompile(key, func(key uint64) (cel.Program, error) {
//		return compile(src)
//	})
//
// Failed compilations are never stored, so a broken source is reported on
// every lookup. Stats exposes hit, miss and eviction counters.
package cache
