// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accountsindex implements the in-memory accounts index.
// For every account it tracks the (slot, version) pairs of all known updates,
// and tells which displaced versions can be reclaimed.
package accountsindex

import (
	"math/bits"
	"slices"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/vechain/accountsindex/co"
	"github.com/vechain/accountsindex/log"
	"github.com/vechain/accountsindex/thor"
)

var logger = log.WithContext("pkg", "accountsindex")

const binCalculatorBits = 16

// BinCalculator maps keys to bins by their two leading bytes.
type BinCalculator struct {
	shiftBits uint
}

// NewBinCalculator creates a calculator for binCount bins.
func NewBinCalculator(binCount int) BinCalculator {
	if err := checkBinCount(binCount); err != nil {
		panic(err)
	}
	return BinCalculator{
		shiftBits: binCalculatorBits - uint(bits.TrailingZeros(uint(binCount))),
	}
}

// Bin returns the bin of key.
func (c BinCalculator) Bin(key thor.Address) int {
	return (int(key[0])<<8 | int(key[1])) >> c.shiftBits
}

func checkBinCount(n int) error {
	if n <= 0 || n > MaxBinCount || bits.OnesCount(uint(n)) != 1 {
		return errors.Errorf("bin count %d: must be a power of two in [1, %d]", n, MaxBinCount)
	}
	return nil
}

// LowestKey returns the lowest key falling into bin.
func (c BinCalculator) LowestKey(bin int) thor.Address {
	var key thor.Address
	bin <<= c.shiftBits
	key[0] = byte(bin >> 8)
	key[1] = byte(bin)
	return key
}

// Index spreads accounts over bins sharing one backing store.
type Index[T VersionInfo] struct {
	bins []*Bin[T]
	calc BinCalculator
}

// NewIndex creates an index with the bins configured for storage.
func NewIndex[T VersionInfo](storage *Storage) *Index[T] {
	count := storage.Options().BinCount
	bins := make([]*Bin[T], count)
	for i := range bins {
		bins[i] = NewBin[T](storage.Holder())
	}
	return &Index[T]{
		bins: bins,
		calc: NewBinCalculator(count),
	}
}

// BinCount returns the number of bins.
func (x *Index[T]) BinCount() int {
	return len(x.bins)
}

// Bin returns the bin of key.
func (x *Index[T]) Bin(key thor.Address) *Bin[T] {
	return x.bins[x.calc.Bin(key)]
}

// Get returns the entry of key.
func (x *Index[T]) Get(key thor.Address) (*Entry[T], bool) {
	g := x.Bin(key).Read()
	defer g.Release()

	return g.Get(key)
}

// Upsert merges update into the entry of key, inserting the entry if missing.
// The bin is locked only to look up or insert the entry, the merge is done after.
func (x *Index[T]) Upsert(key thor.Address, update SlotListEntry[T], reclaims *SlotList[T], previousSlotEntryWasCached bool) {
	g := x.Bin(key).Write()
	existing, found := g.InsertNewEntryIfMissing(key, update)
	g.Release()

	if found {
		existing.Update(reclaims, previousSlotEntryWasCached)
	}
}

// RemoveIfSlotListEmpty removes the entry of key if its slot list is empty.
func (x *Index[T]) RemoveIfSlotListEmpty(key thor.Address) bool {
	g := x.Bin(key).Write()
	defer g.Release()

	return g.RemoveIfSlotListEmpty(key)
}

// Items returns a snapshot of the accounts within r, sorted by key.
// Only bins overlapping r are visited, in parallel.
func (x *Index[T]) Items(r KeyRange) []Item[T] {
	first, last := 0, len(x.bins)-1
	if r.Start != nil {
		first = x.calc.Bin(*r.Start)
	}
	if r.Limit != nil {
		last = x.calc.Bin(*r.Limit)
	}
	if first > last {
		return nil
	}

	perBin := make([][]Item[T], last-first+1)
	x.forEachBin(x.bins[first:last+1], func(i int, g *ReadGuard[T]) {
		perBin[i] = g.Items(r)
	})

	items := slices.Concat(perBin...)
	slices.SortFunc(items, func(a, b Item[T]) int {
		return a.Key.Compare(b.Key)
	})
	return items
}

// Len returns the number of accounts over all bins.
func (x *Index[T]) Len() int {
	var n atomic.Int64
	x.forEachBin(x.bins, func(_ int, g *ReadGuard[T]) {
		n.Add(int64(g.Len()))
	})
	return int(n.Load())
}

// forEachBin calls fn with shared access to each of bins, in parallel.
// A panic in fn is raised again once all bins are visited.
func (x *Index[T]) forEachBin(bins []*Bin[T], fn func(i int, g *ReadGuard[T])) {
	err := co.Parallel(func(enqueue co.Enqueue) {
		for i, bin := range bins {
			enqueue(func() {
				bin.View(func(g *ReadGuard[T]) { fn(i, g) })
			})
		}
	})
	if err != nil {
		panic(err)
	}
}
