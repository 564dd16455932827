// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotList = SlotList[AccountInfo]

func stored(id uint64) AccountInfo { return StoredAccountInfo(id, id*100, 128, id) }
func cached(lamports uint64) AccountInfo { return CachedAccountInfo(lamports) }

func entryAt(slot Slot, info AccountInfo) SlotListEntry[AccountInfo] {
	return SlotListEntry[AccountInfo]{Slot: slot, Info: info}
}

func TestUpdateSlotList_AppendNewSlot(t *testing.T) {
	for _, info := range []AccountInfo{stored(1), cached(1)} {
		list := slotList{entryAt(1, stored(9)), entryAt(2, cached(9))}
		var reclaims slotList

		addRef := updateSlotList(&list, 3, info, &reclaims, false)

		assert.Equal(t, !info.IsCached(), addRef)
		assert.Empty(t, reclaims)
		assert.Empty(t, cmp.Diff(slotList{entryAt(1, stored(9)), entryAt(2, cached(9)), entryAt(3, info)}, list))
	}
}

func TestUpdateSlotList_Replace(t *testing.T) {
	tests := []struct {
		name        string
		previous    AccountInfo
		update      AccountInfo
		assertion   bool
		wantAddRef  bool
		wantReclaim bool
	}{
		{"stored over stored", stored(1), stored(2), false, false, true},
		{"cached over stored", stored(1), cached(2), false, false, true},
		{"cached over cached", cached(1), cached(2), false, false, true},
		{"stored over cached", cached(1), stored(2), false, true, true},
		{"stored over asserted cached", cached(1), stored(2), true, true, false},
		{"cached over asserted cached", cached(1), cached(2), true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := slotList{entryAt(4, stored(7)), entryAt(5, tt.previous), entryAt(6, cached(7))}
			var reclaims slotList

			addRef := updateSlotList(&list, 5, tt.update, &reclaims, tt.assertion)

			assert.Equal(t, tt.wantAddRef, addRef)
			assert.Empty(t, cmp.Diff(slotList{entryAt(4, stored(7)), entryAt(5, tt.update), entryAt(6, cached(7))}, list))
			if tt.wantReclaim {
				assert.Empty(t, cmp.Diff(slotList{entryAt(5, tt.previous)}, reclaims))
			} else {
				assert.Empty(t, reclaims)
			}
		})
	}
}

func TestUpdateSlotList_ReclaimsAppendOnly(t *testing.T) {
	list := slotList{entryAt(1, stored(1))}
	reclaims := slotList{entryAt(0, stored(0))}

	updateSlotList(&list, 1, stored(2), &reclaims, false)
	assert.Equal(t, slotList{entryAt(0, stored(0)), entryAt(1, stored(1))}, reclaims)
}

func TestUpdateSlotList_AssertedCachedMismatch(t *testing.T) {
	list := slotList{entryAt(5, stored(1))}
	var reclaims slotList

	assert.PanicsWithError(t, "slot 5: previous entry asserted cached but found stored", func() {
		updateSlotList(&list, 5, stored(2), &reclaims, true)
	})
}

func TestUpdateSlotList_DuplicateSlot(t *testing.T) {
	list := slotList{entryAt(5, stored(1)), entryAt(6, stored(1)), entryAt(5, stored(2))}
	var reclaims slotList

	assert.PanicsWithError(t, "slot 5 appears more than once in slot list", func() {
		updateSlotList(&list, 5, stored(3), &reclaims, false)
	})
}

func TestSlotListFindAndSlots(t *testing.T) {
	list := slotList{entryAt(3, stored(1)), entryAt(9, cached(2))}

	info, found := list.Find(9)
	assert.True(t, found)
	assert.Equal(t, cached(2), info)

	_, found = list.Find(4)
	assert.False(t, found)

	assert.Equal(t, []Slot{3, 9}, list.Slots())
}

// mergeOp is a random merge of one update into an entry.
type mergeOp struct {
	Slot         uint8
	Cached       bool
	AssertCached bool
	Lamports     uint64
}

type mergeTest []mergeOp

func (mergeTest) Generate(r *rand.Rand, _ int) reflect.Value {
	var ops mergeTest
	fuzz.New().RandSource(r).NilChance(0).NumElements(1, 100).Fuzz(&ops)
	for i := range ops {
		ops[i].Slot %= 8 // few slots to get many replacements
	}
	return reflect.ValueOf(ops)
}

// runMergeTest replays ops against an entry and a plain model.
func runMergeTest(ops mergeTest) error {
	var (
		entry     *Entry[AccountInfo]
		model     = make(map[Slot]AccountInfo)
		reclaims  slotList
		reclaimed int
		refs      uint64
	)

	for i, op := range ops {
		slot := Slot(op.Slot)
		info := stored(op.Lamports >> 1)
		if op.Cached {
			info = cached(op.Lamports)
		}

		prev, has := model[slot]
		// only assert what's true, a false assertion is fatal.
		assertCached := op.AssertCached && has && prev.IsCached()

		switch {
		case !has && !info.IsCached():
			refs++
		case has && prev.IsCached() && !info.IsCached():
			refs++
		}
		if has && !assertCached {
			reclaimed++
		}
		model[slot] = info

		if entry == nil {
			entry = newEntryFromUpdate(entryAt(slot, info))
		} else {
			entry.Update(entryAt(slot, info), &reclaims, assertCached)
		}

		list := entry.SlotList()
		seen := make(map[Slot]bool)
		for _, e := range list {
			if seen[e.Slot] {
				return fmt.Errorf("op %d: duplicate slot %d", i, e.Slot)
			}
			seen[e.Slot] = true
			if model[e.Slot] != e.Info {
				return fmt.Errorf("op %d: slot %d holds %v, want %v", i, e.Slot, e.Info, model[e.Slot])
			}
		}
		if len(list) != len(model) {
			return fmt.Errorf("op %d: %d entries, want %d", i, len(list), len(model))
		}
		if len(reclaims) != reclaimed {
			return fmt.Errorf("op %d: %d reclaims, want %d", i, len(reclaims), reclaimed)
		}
		if entry.RefCount() != refs {
			return fmt.Errorf("op %d: ref count %d, want %d", i, entry.RefCount(), refs)
		}
	}
	return nil
}

func TestRandomMerges(t *testing.T) {
	if err := quick.Check(func(ops mergeTest) bool {
		if err := runMergeTest(ops); err != nil {
			t.Log(err)
			return false
		}
		return true
	}, nil); err != nil {
		if cerr, ok := err.(*quick.CheckError); ok {
			t.Fatalf("random test iteration %d failed: %s", cerr.Count, spew.Sdump(cerr.In))
		}
		t.Fatal(err)
	}
}

func TestRunMergeTestKnownSequence(t *testing.T) {
	require.NoError(t, runMergeTest(mergeTest{
		{Slot: 5, Cached: true},
		{Slot: 5, AssertCached: true, Lamports: 1},
		{Slot: 7, Lamports: 2},
		{Slot: 7, Lamports: 3},
		{Slot: 7, Cached: true},
	}))
}
