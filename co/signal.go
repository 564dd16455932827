// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
	"time"
)

// Signal a rendezvous point for goroutines waiting for or announcing the occurrence of an event.
// It's more friendly than sync.Cond, since it's channel based. That means you can do channel selection
// to wait for an event, or wait with a timeout.
//
// The zero value is ready to use.
type Signal struct {
	l  sync.Mutex
	ch chan bool
}

func (s *Signal) init() {
	if s.ch == nil {
		s.ch = make(chan bool, 1)
	}
}

// NotifyOne wakes one goroutine that is waiting on s.
// The notification is kept until consumed if nobody is waiting.
func (s *Signal) NotifyOne() {
	s.l.Lock()

	s.init()
	select {
	case s.ch <- true:
	default:
	}

	s.l.Unlock()
}

// NotifyAll wakes all goroutines that are waiting on s.
// Only waiters created before the call observe it.
func (s *Signal) NotifyAll() {
	s.l.Lock()

	s.init()
	close(s.ch)
	s.ch = make(chan bool, 1)

	s.l.Unlock()
}

// NewWaiter creates a Waiter for acquiring channel to wait for.
// A NotifyAll issued after NewWaiter returns is never missed by the waiter.
func (s *Signal) NewWaiter() *Waiter {
	s.l.Lock()

	s.init()
	w := &Waiter{s: s, ref: s.ch}

	s.l.Unlock()
	return w
}

// Waiter waits for notifications of a Signal.
type Waiter struct {
	s   *Signal
	ref chan bool
}

// C returns the channel to wait for.
// Value read from channel indicates notify-one or notify-all. true for notify-one, otherwise notify-all.
func (w *Waiter) C() <-chan bool {
	ch := w.ref

	w.s.l.Lock()
	w.ref = w.s.ch
	w.s.l.Unlock()

	return ch
}

// WaitTimeout blocks until the signal is notified or d elapses.
// It returns true if it timed out.
func (w *Waiter) WaitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.C():
		return false
	case <-timer.C:
		return true
	}
}
