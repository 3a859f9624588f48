// Package parallel provides a chunked parallel map over index ranges.
// Callers are responsible for ensuring the mapped function only writes to
// its own slots, which keeps results independent of worker count.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, items) into contiguous chunks, one per available
// CPU, and runs fn(start, end) for each chunk concurrently.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunk
		end := start + chunk
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over the whole range when
// items is at or below threshold, avoiding goroutine overhead for small
// inputs.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
