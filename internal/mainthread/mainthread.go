// Package mainthread funnels work onto a single locked OS thread. Some
// native APIs only behave when called from one thread for the life of
// the process; this package provides that thread.
package mainthread

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

var (
	startOnce sync.Once
	jobs      chan func()
	workerGID atomic.Int64
)

func start() {
	jobs = make(chan func(), 16)
	ready := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		workerGID.Store(gid())
		close(ready)
		for job := range jobs {
			job()
		}
	}()
	<-ready
}

// Do runs fn on the dedicated thread and waits for it to finish. Calls
// made from within a running job execute inline instead of queueing,
// which would deadlock.
func Do(fn func()) {
	startOnce.Do(start)

	if gid() == workerGID.Load() {
		fn()
		return
	}

	done := make(chan struct{})
	jobs <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// gid extracts the current goroutine id from the stack header
// ("goroutine N [...]"). The runtime offers no direct accessor.
func gid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	id, _ := strconv.ParseInt(string(s), 10, 64)
	return id
}
