// Package locking holds the atomic pin counter GlobalPool uses to track how
// many callers currently hold a frame (spec.md I4: every pin is matched by
// an unpin, a frame is only evictable once its count reaches zero).
package locking

import (
	"fmt"
	"sync/atomic"
)

type RefCount struct {
	count int32
}

func (r *RefCount) Inc() {
	atomic.AddInt32(&r.count, 1)
}

func (r *RefCount) Dec() bool {
	newCount := atomic.AddInt32(&r.count, -1)
	if newCount < 0 {
		panic("refcount dropped below zero")
	}
	return newCount == 0
}

func (r *RefCount) Get() int32 {
	return atomic.LoadInt32(&r.count)
}

func (r *RefCount) String() string {
	return fmt.Sprintf("RefCount: %d", r.Get())
}
