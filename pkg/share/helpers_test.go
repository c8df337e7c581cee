package share

import (
	"sync"
	"sync/atomic"
)

type recordingObserver struct {
	mu        sync.Mutex
	mutations map[string]int
	retries   atomic.Int64
	dropped   atomic.Int64
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{mutations: make(map[string]int)}
}

func (o *recordingObserver) CellMutated(cell, op string) {
	o.mu.Lock()
	o.mutations[cell+"/"+op]++
	o.mu.Unlock()
}

func (o *recordingObserver) CASRetried(string) { o.retries.Add(1) }

func (o *recordingObserver) UpdateDropped(string) { o.dropped.Add(1) }

func (o *recordingObserver) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mutations[key]
}

// hammer runs fn from n goroutines released at the same moment
func hammer(n int, fn func(i int)) {
	var start, wg sync.WaitGroup
	start.Add(1)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			start.Wait()
			fn(i)
		}(i)
	}
	start.Done()
	wg.Wait()
}
