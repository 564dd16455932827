// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"iter"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/accountsindex/thor"
)

// Bin is one bin of the accounts index, mapping accounts to their entries.
//
// The map is only reachable through guards: a ReadGuard grants lookups, a
// WriteGuard additionally grants inserting and removing accounts. Merging into
// an entry already obtained needs no guard at all.
type Bin[T VersionInfo] struct {
	lock    sync.RWMutex
	m       map[thor.Address]*Entry[T]
	storage *Holder
}

// NewBin creates an empty bin recording its stats into storage.
func NewBin[T VersionInfo](storage *Holder) *Bin[T] {
	return &Bin[T]{
		m:       make(map[thor.Address]*Entry[T]),
		storage: storage,
	}
}

// Read acquires shared access to the bin. The guard must be released.
func (b *Bin[T]) Read() *ReadGuard[T] {
	b.lock.RLock()
	return &ReadGuard[T]{view[T]{b}}
}

// Write acquires exclusive access to the bin. The guard must be released.
func (b *Bin[T]) Write() *WriteGuard[T] {
	b.lock.Lock()
	return &WriteGuard[T]{view[T]{b}}
}

// View calls fn with shared access to the bin.
func (b *Bin[T]) View(fn func(g *ReadGuard[T])) {
	g := b.Read()
	defer g.Release()
	fn(g)
}

// Update calls fn with exclusive access to the bin.
func (b *Bin[T]) Update(fn func(g *WriteGuard[T])) {
	g := b.Write()
	defer g.Release()
	fn(g)
}

// insert and remove must be called with the write lock held.
func (b *Bin[T]) insert(key thor.Address, e *Entry[T]) {
	b.m[key] = e
	metricAccounts().Add(1)
}

func (b *Bin[T]) remove(key thor.Address) {
	delete(b.m, key)
	metricAccounts().Add(-1)
}

// Item is an account and its entry.
type Item[T VersionInfo] struct {
	Key   thor.Address
	Entry *Entry[T]
}

// KeyRange is a range of keys. Start is included, Limit is excluded unless
// IncludeLimit is set. A nil bound leaves that side unbounded, so the zero
// KeyRange contains all keys.
type KeyRange struct {
	Start        *thor.Address
	Limit        *thor.Address
	IncludeLimit bool
}

// Contains returns whether key is within the range.
func (r KeyRange) Contains(key thor.Address) bool {
	if r.Start != nil && key.Compare(*r.Start) < 0 {
		return false
	}
	if r.Limit != nil {
		c := key.Compare(*r.Limit)
		if c > 0 || (c == 0 && !r.IncludeLimit) {
			return false
		}
	}
	return true
}

// view implements operations allowed under shared access.
type view[T VersionInfo] struct {
	bin *Bin[T]
}

func (v *view[T]) mustBin() *Bin[T] {
	if v.bin == nil {
		panic(errors.New("bin guard used after release"))
	}
	return v.bin
}

// Get returns the entry of key.
func (v *view[T]) Get(key thor.Address) (*Entry[T], bool) {
	start := time.Now()
	b := v.mustBin()

	e, ok := b.m[key]
	b.storage.Stats().recordLookup(ok, start)
	return e, ok
}

// Entry returns a cursor at key, occupied if the key is present.
func (v *view[T]) Entry(key thor.Address) Cursor[T] {
	start := time.Now()
	b := v.mustBin()

	e, ok := b.m[key]
	b.storage.Stats().recordLookup(ok, start)
	return Cursor[T]{key: key, entry: e}
}

// Items returns a snapshot of the accounts within r.
func (v *view[T]) Items(r KeyRange) []Item[T] {
	b := v.mustBin()
	updateStat(&b.storage.Stats().Items, 1)

	items := make([]Item[T], 0, len(b.m))
	for k, e := range b.m {
		if r.Contains(k) {
			items = append(items, Item[T]{Key: k, Entry: e})
		}
	}
	return items
}

// Keys returns a sequence of the accounts in the bin. The sequence reads the bin
// as it is when ranged over, and must be ranged over before the guard is released.
func (v *view[T]) Keys() iter.Seq[thor.Address] {
	b := v.mustBin()
	updateStat(&b.storage.Stats().Keys, 1)

	return func(yield func(thor.Address) bool) {
		for k := range v.mustBin().m {
			if !yield(k) {
				return
			}
		}
	}
}

// Len returns the number of accounts in the bin.
func (v *view[T]) Len() int {
	return len(v.mustBin().m)
}

// IsEmpty returns whether the bin has no account.
func (v *view[T]) IsEmpty() bool {
	return v.Len() == 0
}

// ReadGuard grants shared access to a bin.
type ReadGuard[T VersionInfo] struct {
	view[T]
}

// Release releases the shared access. The guard is unusable afterwards.
func (g *ReadGuard[T]) Release() {
	b := g.mustBin()
	g.bin = nil
	b.lock.RUnlock()
}

// WriteGuard grants exclusive access to a bin.
type WriteGuard[T VersionInfo] struct {
	view[T]
}

// Release releases the exclusive access. The guard is unusable afterwards.
func (g *WriteGuard[T]) Release() {
	b := g.mustBin()
	g.bin = nil
	b.lock.Unlock()
}

// Entry returns a cursor at key which can insert the entry, or remove it once
// its slot list is empty.
func (g *WriteGuard[T]) Entry(key thor.Address) WriteCursor[T] {
	return WriteCursor[T]{
		Cursor: g.view.Entry(key),
		guard:  g,
	}
}

// RemoveIfSlotListEmpty removes the entry of key if its slot list is empty.
// It returns whether the entry was removed.
func (g *WriteGuard[T]) RemoveIfSlotListEmpty(key thor.Address) bool {
	b := g.mustBin()

	e, ok := b.m[key]
	if !ok {
		return false
	}
	return b.removeIfSlotListEmpty(key, e)
}

func (b *Bin[T]) removeIfSlotListEmpty(key thor.Address, e *Entry[T]) bool {
	// no merge can sneak in between the check and the removal.
	e.lock.RLock()
	defer e.lock.RUnlock()

	if len(e.slotList) != 0 {
		return false
	}
	b.remove(key)
	return true
}

// InsertNewEntryIfMissing inserts an entry holding update if key is missing.
//
// If key is present the bin is left untouched and the existing entry is returned
// with found set, along with the update, so that the caller can merge it after
// releasing the guard.
func (g *WriteGuard[T]) InsertNewEntryIfMissing(key thor.Address, update SlotListEntry[T]) (existing Existing[T], found bool) {
	b := g.mustBin()

	if e, ok := b.m[key]; ok {
		return Existing[T]{Entry: e, Pending: update, Key: key}, true
	}
	b.insert(key, newEntryFromUpdate(update))
	return Existing[T]{}, false
}

// InsertEntryIfMissing works as InsertNewEntryIfMissing with a caller built entry,
// which must carry exactly one update. If key is present the update is extracted
// from newEntry, which is then dropped.
func (g *WriteGuard[T]) InsertEntryIfMissing(key thor.Address, newEntry *Entry[T]) (existing Existing[T], found bool) {
	b := g.mustBin()

	if e, ok := b.m[key]; ok {
		return Existing[T]{Entry: e, Pending: newEntry.pendingUpdate(), Key: key}, true
	}
	b.insert(key, newEntry)
	return Existing[T]{}, false
}

// Upsert merges update into the entry of key, or inserts a new entry if key is missing.
// Versions displaced by the merge are pushed to reclaims.
func (g *WriteGuard[T]) Upsert(key thor.Address, update SlotListEntry[T], reclaims *SlotList[T], previousSlotEntryWasCached bool) {
	b := g.mustBin()

	if e, ok := b.m[key]; ok {
		e.Update(update, reclaims, previousSlotEntryWasCached)
		return
	}
	b.insert(key, newEntryFromUpdate(update))
}

// Cursor points at a key of a bin, either occupied by an entry or vacant.
type Cursor[T VersionInfo] struct {
	key   thor.Address
	entry *Entry[T]
}

// Key returns the key the cursor points at.
func (c Cursor[T]) Key() thor.Address {
	return c.key
}

// Occupied returns whether the key has an entry.
func (c Cursor[T]) Occupied() bool {
	return c.entry != nil
}

// Get returns the entry, nil if vacant.
func (c Cursor[T]) Get() *Entry[T] {
	return c.entry
}

// WriteCursor is a Cursor obtained under exclusive access.
type WriteCursor[T VersionInfo] struct {
	Cursor[T]
	guard *WriteGuard[T]
}

// Insert puts e at the vacant key and returns it.
func (c *WriteCursor[T]) Insert(e *Entry[T]) *Entry[T] {
	if c.Occupied() {
		panic(errors.Errorf("insert into occupied key %v", c.key))
	}
	c.guard.mustBin().insert(c.key, e)
	c.entry = e
	return e
}

// RemoveIfSlotListEmpty removes the entry at the key if its slot list is empty.
// It returns whether the entry was removed, the cursor turns vacant if so.
func (c *WriteCursor[T]) RemoveIfSlotListEmpty() bool {
	if !c.Occupied() {
		return false
	}
	if !c.guard.mustBin().removeIfSlotListEmpty(c.key, c.entry) {
		return false
	}
	c.entry = nil
	return true
}
