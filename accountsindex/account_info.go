// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"fmt"
	"math"
)

const (
	// CacheVirtualStoreID is the store id of versions living in the write cache.
	CacheVirtualStoreID = math.MaxUint64
	// CacheVirtualOffset is the offset of versions living in the write cache.
	CacheVirtualOffset = math.MaxUint64
)

// AccountInfo locates one version of an account in the account storage.
type AccountInfo struct {
	StoreID    uint64 // id of the storage holding the version
	Offset     uint64 // offset within the storage
	StoredSize uint64
	Lamports   uint64
}

// CachedAccountInfo returns the info of a version held by the write cache.
func CachedAccountInfo(lamports uint64) AccountInfo {
	return AccountInfo{
		StoreID:  CacheVirtualStoreID,
		Offset:   CacheVirtualOffset,
		Lamports: lamports,
	}
}

// StoredAccountInfo returns the info of a version durably written to a storage.
func StoredAccountInfo(storeID, offset, storedSize, lamports uint64) AccountInfo {
	return AccountInfo{
		StoreID:    storeID,
		Offset:     offset,
		StoredSize: storedSize,
		Lamports:   lamports,
	}
}

// IsCached implements VersionInfo.
func (a AccountInfo) IsCached() bool {
	return a.StoreID == CacheVirtualStoreID
}

// IsZeroLamport returns whether the version marks a closed account.
func (a AccountInfo) IsZeroLamport() bool {
	return a.Lamports == 0
}

func (a AccountInfo) String() string {
	if a.IsCached() {
		return fmt.Sprintf("cached(lamports=%d)", a.Lamports)
	}
	return fmt.Sprintf("stored(id=%d, offset=%d, size=%d, lamports=%d)", a.StoreID, a.Offset, a.StoredSize, a.Lamports)
}
