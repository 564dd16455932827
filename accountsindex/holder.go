// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"sync/atomic"
	"time"

	"github.com/vechain/accountsindex/co"
)

// Holder is the backing store shared by all bins of an index and by the
// background go routine. Bins record their stats into it.
type Holder struct {
	stats          Stats
	reportInterval time.Duration
}

// NewHolder creates a Holder with default options.
func NewHolder() *Holder {
	return newHolder(Options{}.withDefaults())
}

func newHolder(opts Options) *Holder {
	return &Holder{
		reportInterval: opts.ReportInterval,
	}
}

// Stats returns the stats shared by all bins using the holder.
func (h *Holder) Stats() *Stats {
	return &h.stats
}

// Background runs the maintenance loop until exit is set. wake interrupts the
// wait between two rounds so that an exit request is seen at once. A wake-up
// without exit starts one round early, the following wait is a full interval.
func (h *Holder) Background(exit *atomic.Bool, wake *co.Signal) {
	waiter := wake.NewWaiter()
	for {
		if exit.Load() {
			return
		}
		if !waiter.WaitTimeout(h.reportInterval) {
			// woken up, wait on a fresh channel next round
			waiter.C()
		}
		if exit.Load() {
			return
		}
		h.stats.Report()
	}
}
