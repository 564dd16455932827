// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/vechain/accountsindex/thor"
)

// RefCounter counts the durably stored versions referenced by an entry.
type RefCounter interface {
	// AddUnRef increments the count if add is true, decrements it otherwise.
	AddUnRef(add bool)
	RefCount() uint64
}

// AtomicRefCount is the lock-free RefCounter used by default.
type AtomicRefCount struct {
	n atomic.Uint64
}

// NewAtomicRefCount creates an AtomicRefCount starting at n.
func NewAtomicRefCount(n uint64) *AtomicRefCount {
	c := &AtomicRefCount{}
	c.n.Store(n)
	return c
}

// AddUnRef implements RefCounter.
func (c *AtomicRefCount) AddUnRef(add bool) {
	if add {
		c.n.Add(1)
	} else {
		c.n.Add(^uint64(0))
	}
}

// RefCount implements RefCounter.
func (c *AtomicRefCount) RefCount() uint64 {
	return c.n.Load()
}

// Entry is the index entry of one account. It's shared by the bin and any caller
// holding it, and outlives its removal from the bin.
//
// The slot list is guarded by a lock of its own, independent of the bin's lock,
// so that entries of different accounts can be read and merged concurrently.
type Entry[T VersionInfo] struct {
	lock     sync.RWMutex
	slotList SlotList[T]
	refs     RefCounter
}

// NewEntry creates an entry with the given slot list and ref count.
func NewEntry[T VersionInfo](slotList SlotList[T], refCount uint64) *Entry[T] {
	return NewEntryWithCounter(slotList, NewAtomicRefCount(refCount))
}

// NewEntryWithCounter creates an entry counting refs with refs.
func NewEntryWithCounter[T VersionInfo](slotList SlotList[T], refs RefCounter) *Entry[T] {
	return &Entry[T]{
		slotList: slotList,
		refs:     refs,
	}
}

// newEntryFromUpdate creates the entry of an account seen for the first time.
// A stored version is counted from the start, a cached one is not.
func newEntryFromUpdate[T VersionInfo](update SlotListEntry[T]) *Entry[T] {
	var refCount uint64
	if !update.Info.IsCached() {
		refCount = 1
	}
	return NewEntry(SlotList[T]{update}, refCount)
}

// ReadSlotList calls fn with shared access to the slot list.
// fn must not retain the list.
func (e *Entry[T]) ReadSlotList(fn func(list SlotList[T])) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	fn(e.slotList)
}

// WriteSlotList calls fn with exclusive access to the slot list.
func (e *Entry[T]) WriteSlotList(fn func(list *SlotList[T])) {
	e.lock.Lock()
	defer e.lock.Unlock()

	fn(&e.slotList)
}

// SlotList returns a copy of the slot list.
func (e *Entry[T]) SlotList() SlotList[T] {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return slices.Clone(e.slotList)
}

// RefCount returns the count of stored versions referenced.
func (e *Entry[T]) RefCount() uint64 {
	return e.refs.RefCount()
}

// AddUnRef adjusts the ref count. It never blocks slot list access.
func (e *Entry[T]) AddUnRef(add bool) {
	e.refs.AddUnRef(add)
}

// Update merges update into the slot list, pushing displaced versions to reclaims.
// previousSlotEntryWasCached asserts that a version at the same slot, if any, is a cached one.
func (e *Entry[T]) Update(update SlotListEntry[T], reclaims *SlotList[T], previousSlotEntryWasCached bool) {
	e.lock.Lock()
	addRef := updateSlotList(&e.slotList, update.Slot, update.Info, reclaims, previousSlotEntryWasCached)
	e.lock.Unlock()

	if addRef {
		e.refs.AddUnRef(true)
	}
}

// pendingUpdate extracts the only update carried by an entry built for insertion.
func (e *Entry[T]) pendingUpdate() SlotListEntry[T] {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if n := len(e.slotList); n != 1 {
		panic(errors.Errorf("entry to insert must carry exactly one update, got %d", n))
	}
	return e.slotList[0]
}

// Existing is returned by a two-phase insert that found the account already
// indexed. The insert is completed by merging Pending into Entry, which does
// not require the bin's lock.
type Existing[T VersionInfo] struct {
	Entry   *Entry[T]
	Pending SlotListEntry[T]
	Key     thor.Address
}

// Update merges the pending update into the existing entry.
func (x Existing[T]) Update(reclaims *SlotList[T], previousSlotEntryWasCached bool) {
	x.Entry.Update(x.Pending, reclaims, previousSlotEntryWasCached)
}
