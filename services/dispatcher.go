////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package services provides the process-local work dispatcher: a fixed pool
// of worker goroutines fed from a FIFO queue, with a barrier that waits for
// the queue to drain. Tasks run to completion and may enqueue further tasks;
// no ordering is guaranteed between them.
package services

import (
	"runtime"
	"sync"
)

// Task is a unit of queued work. The returned bool is informational only and
// is discarded by the pool.
type Task func() bool

// Dispatcher owns the worker pool. The zero value is not usable; construct
// with NewDispatcher.
type Dispatcher struct {
	mux     sync.Mutex
	cond    *sync.Cond
	queue   []Task
	active  uint
	quit    bool
	threads uint
	wg      sync.WaitGroup
}

// NewDispatcher starts a pool of the given number of worker goroutines.
// A thread count of zero selects the hardware parallelism.
func NewDispatcher(threads uint) *Dispatcher {
	if threads == 0 {
		threads = uint(runtime.NumCPU())
	}
	d := &Dispatcher{threads: threads}
	d.cond = sync.NewCond(&d.mux)
	d.wg.Add(int(threads))
	for i := uint(0); i < threads; i++ {
		go d.work()
	}
	return d
}

// Threads returns the size of the pool.
func (d *Dispatcher) Threads() uint {
	return d.threads
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	d.mux.Lock()
	for {
		for len(d.queue) == 0 && !d.quit {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.quit {
			d.mux.Unlock()
			return
		}
		t := d.queue[0]
		d.queue = d.queue[1:]
		d.active++
		d.mux.Unlock()

		t()

		d.mux.Lock()
		d.active--
		if len(d.queue) == 0 && d.active == 0 {
			d.cond.Broadcast()
		}
	}
}

// Dispatch appends a task to the queue. It never blocks on queue capacity,
// so tasks are free to dispatch follow-up work.
func (d *Dispatcher) Dispatch(t Task) {
	d.mux.Lock()
	d.queue = append(d.queue, t)
	d.mux.Unlock()
	d.cond.Broadcast()
}

// Finish blocks until the queue is empty and every worker is idle. Tasks
// dispatched while Finish waits are included in the barrier.
func (d *Dispatcher) Finish() {
	d.mux.Lock()
	for len(d.queue) != 0 || d.active != 0 {
		d.cond.Wait()
	}
	d.mux.Unlock()
}

// Stop drains the queue and terminates the pool. The dispatcher cannot be
// reused afterward.
func (d *Dispatcher) Stop() {
	d.mux.Lock()
	d.quit = true
	d.mux.Unlock()
	d.cond.Broadcast()
	d.wg.Wait()
}
