// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"github.com/pkg/errors"
)

// Slot is the ledger position at which an account may have a version.
type Slot uint64

// VersionInfo is the per-slot payload of an account version.
type VersionInfo interface {
	// IsCached reports whether the version lives only in the volatile write cache,
	// i.e. it's not durably stored yet.
	IsCached() bool
}

// SlotListEntry is one known update of an account.
type SlotListEntry[T VersionInfo] struct {
	Slot Slot
	Info T
}

// SlotList lists the known updates of an account, in no particular order.
// It holds at most one entry per slot.
type SlotList[T VersionInfo] []SlotListEntry[T]

// Find returns the version at slot.
func (l SlotList[T]) Find(slot Slot) (info T, found bool) {
	for _, e := range l {
		if e.Slot == slot {
			return e.Info, true
		}
	}
	return
}

// Slots returns slots of all entries.
func (l SlotList[T]) Slots() []Slot {
	slots := make([]Slot, 0, len(l))
	for _, e := range l {
		slots = append(slots, e.Slot)
	}
	return slots
}

// updateSlotList merges one update into list.
//
// An update at a slot already in the list replaces the existing version, which is
// pushed to reclaims unless the caller asserts it was a cached one. Otherwise the
// update is appended.
// It returns true if the caller should add a ref to the entry owning the list.
func updateSlotList[T VersionInfo](
	list *SlotList[T],
	slot Slot,
	info T,
	reclaims *SlotList[T],
	previousSlotEntryWasCached bool,
) bool {
	addRef := !info.IsCached()

	for i := range *list {
		cur := &(*list)[i]
		if cur.Slot != slot {
			continue
		}

		previousWasCached := cur.Info.IsCached()
		// a stored version is counted once, no matter how many times it's replaced.
		addRef = addRef && previousWasCached

		if previousSlotEntryWasCached && !previousWasCached {
			panic(errors.Errorf("slot %d: previous entry asserted cached but found stored", slot))
		}

		displaced := *cur
		cur.Info = info
		if !previousSlotEntryWasCached {
			*reclaims = append(*reclaims, displaced)
		}

		for _, other := range (*list)[i+1:] {
			if other.Slot == slot {
				panic(errors.Errorf("slot %d appears more than once in slot list", slot))
			}
		}
		return addRef
	}

	*list = append(*list, SlotListEntry[T]{Slot: slot, Info: info})
	return addRef
}
