// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"sync"
	"sync/atomic"

	"github.com/vechain/accountsindex/co"
)

// Storage owns the backing store of an index and the background go routine
// maintaining it. The go routine is started on creation and stopped by Close.
type Storage struct {
	opts   Options
	holder *Holder

	exit *atomic.Bool
	wake *co.Signal
	goes co.Goes
	once sync.Once
}

// NewStorage creates the backing store and starts its background go routine.
// Invalid options cause a panic, they are to be checked with Options.Validate.
func NewStorage(opts Options) *Storage {
	if err := opts.Validate(); err != nil {
		panic(err)
	}
	opts = opts.withDefaults()

	holder := newHolder(opts)
	return startStorage(opts, holder, holder.Background)
}

func startStorage(opts Options, holder *Holder, background func(exit *atomic.Bool, wake *co.Signal)) *Storage {
	s := &Storage{
		opts:   opts,
		holder: holder,
		exit:   new(atomic.Bool),
		wake:   new(co.Signal),
	}

	exit, wake := s.exit, s.wake
	s.goes.GoNamed(opts.ThreadName, func() {
		background(exit, wake)
	})
	logger.Debug("index storage started", "thread", opts.ThreadName)
	return s
}

// Holder returns the backing store, to build bins against.
func (s *Storage) Holder() *Holder {
	return s.holder
}

// Options returns the options the storage was created with, defaults applied.
func (s *Storage) Options() Options {
	return s.opts
}

// Close stops the background go routine and blocks until it exits.
// If the go routine panicked, Close panics with the *co.PanicError.
// Calls after the first one do nothing.
func (s *Storage) Close() {
	s.once.Do(func() {
		s.exit.Store(true)
		s.wake.NotifyAll()
		if err := s.goes.Wait(); err != nil {
			logger.Error("index background go routine terminated abnormally", "thread", s.opts.ThreadName, "err", err)
			panic(err)
		}
		logger.Debug("index storage stopped", "thread", s.opts.ThreadName)
	})
}
