// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"context"
	"fmt"
	"runtime/debug"
	"runtime/pprof"
	"sync"
)

// PanicError is the panic recovered from a go routine started by Goes.
type PanicError struct {
	Name  string // name of the go routine, may be empty
	Value any    // the value passed to panic
	Stack []byte
}

func (e *PanicError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("go routine panicked: %v", e.Value)
	}
	return fmt.Sprintf("go routine %q panicked: %v", e.Name, e.Value)
}

// Unwrap returns the panic value if it's an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Goes to run and manage life-cycle of go routines.
// A panic in a go routine does not crash the process, it's recorded and
// returned by Wait.
type Goes struct {
	wg    sync.WaitGroup
	mu    sync.Mutex
	panic *PanicError
}

// Go run f in go routine.
func (g *Goes) Go(f func()) {
	g.GoNamed("", f)
}

// GoNamed run f in go routine labeled with name.
// The name shows up in goroutine profiles and in the recorded PanicError.
func (g *Goes) GoNamed(name string, f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.recover(name)

		if name == "" {
			f()
			return
		}
		pprof.Do(context.Background(), pprof.Labels("goroutine", name), func(context.Context) {
			f()
		})
	}()
}

// run runs f in the calling go routine, recording a panic instead of unwinding.
func (g *Goes) run(f func()) {
	defer g.recover("")
	f()
}

func (g *Goes) recover(name string) {
	if r := recover(); r != nil {
		g.mu.Lock()
		if g.panic == nil {
			g.panic = &PanicError{Name: name, Value: r, Stack: debug.Stack()}
		}
		g.mu.Unlock()
	}
}

// Wait wait for all go routines started by 'Go' done.
// It returns the first recorded panic, if any.
func (g *Goes) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.panic != nil {
		return g.panic
	}
	return nil
}

// Done return the done channel for exiting of all go routines.
func (g *Goes) Done() chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}
