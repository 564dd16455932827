// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"runtime"
)

// Enqueue function to enqueue parallel works.
type Enqueue func(work func())

// Parallel to run a batch of work using as many CPU as it can.
// It returns after all enqueued works are done. A panic in a work is
// returned as *PanicError, remaining works still run.
func Parallel(cb func(Enqueue)) error {
	var goes Goes

	n := runtime.NumCPU()
	ch := make(chan func(), n*2)
	for range n {
		goes.Go(func() {
			for work := range ch {
				goes.run(work)
			}
		})
	}

	func() {
		defer close(ch)
		cb(func(work func()) { ch <- work })
	}()
	return goes.Wait()
}
