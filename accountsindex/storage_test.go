// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/accountsindex/co"
)

func TestNewStorage(t *testing.T) {
	s := NewStorage(Options{BinCount: 4})
	defer s.Close()

	assert.Equal(t, Options{BinCount: 4, ReportInterval: DefaultReportInterval, ThreadName: DefaultThreadName}, s.Options())
	assert.NotNil(t, s.Holder())

	assert.Panics(t, func() { NewStorage(Options{BinCount: 3}) })
}

func TestStorageCloseJoins(t *testing.T) {
	var exited atomic.Bool
	holder := NewHolder()

	s := startStorage(Options{}.withDefaults(), holder, func(exit *atomic.Bool, wake *co.Signal) {
		defer exited.Store(true)
		holder.Background(exit, wake)
	})

	start := time.Now()
	s.Close()
	assert.True(t, exited.Load())
	// woken up instead of waiting out the report interval
	assert.Less(t, time.Since(start), DefaultReportInterval)

	// later calls do nothing
	s.Close()
}

func TestStorageRepeatedShutdown(t *testing.T) {
	for i := 0; i < 100; i++ {
		var exited atomic.Bool
		holder := newHolder(Options{ReportInterval: time.Millisecond})

		s := startStorage(Options{ThreadName: "test"}, holder, func(exit *atomic.Bool, wake *co.Signal) {
			defer exited.Store(true)
			holder.Background(exit, wake)
		})
		time.Sleep(time.Duration(rand.Intn(200)) * time.Microsecond)
		s.Close()
		require.True(t, exited.Load(), "iteration %d", i)
	}
}

func TestStorageClosePropagatesPanic(t *testing.T) {
	s := startStorage(Options{ThreadName: "faulty"}, NewHolder(), func(*atomic.Bool, *co.Signal) {
		panic("boom")
	})

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		s.Close()
	}()

	require.IsType(t, &co.PanicError{}, recovered)
	perr := recovered.(*co.PanicError)
	assert.Equal(t, "faulty", perr.Name)
	assert.Equal(t, "boom", perr.Value)
	assert.Equal(t, `go routine "faulty" panicked: boom`, perr.Error())

	// reported once
	assert.NotPanics(t, s.Close)
}

func TestHolderBackgroundReports(t *testing.T) {
	s := NewStorage(Options{ReportInterval: 5 * time.Millisecond})
	defer s.Close()

	stats := s.Holder().Stats()
	updateStat(&stats.Items, 10)

	assert.Eventually(t, func() bool {
		return stats.Snapshot() == StatsSnapshot{}
	}, time.Second, time.Millisecond)
}

func TestHolderBackgroundExitsWhenAsked(t *testing.T) {
	holder := newHolder(Options{ReportInterval: time.Hour})
	exit := new(atomic.Bool)
	wake := new(co.Signal)

	// already asked, no round at all
	exit.Store(true)
	updateStat(&holder.Stats().Keys, 1)
	holder.Background(exit, wake)
	assert.Equal(t, uint64(1), holder.Stats().Keys.Load())

	exit.Store(false)
	done := make(chan struct{})
	go func() {
		defer close(done)
		holder.Background(exit, wake)
	}()

	exit.Store(true)
	wake.NotifyAll()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("background loop did not exit")
	}
	// exiting skips the report
	assert.Equal(t, uint64(1), holder.Stats().Keys.Load())
}

func TestHolderBackgroundReportsOncePerWakeup(t *testing.T) {
	holder := newHolder(Options{ReportInterval: time.Hour})
	exit := new(atomic.Bool)
	wake := new(co.Signal)

	done := make(chan struct{})
	go func() {
		defer close(done)
		holder.Background(exit, wake)
	}()
	defer func() {
		exit.Store(true)
		wake.NotifyAll()
		<-done
	}()

	// let the loop block on its waiter
	time.Sleep(20 * time.Millisecond)

	stats := holder.Stats()
	updateStat(&stats.Keys, 1)
	wake.NotifyAll()
	require.Eventually(t, func() bool {
		return stats.Keys.Load() == 0
	}, 5*time.Second, time.Millisecond)

	// the next round waits again instead of reporting at once
	updateStat(&stats.Keys, 5)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, uint64(5), stats.Keys.Load())
}
