// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"math"
	"sync/atomic"
	"time"
)

// Stats collects lookup statistics of all bins sharing a Holder.
type Stats struct {
	GetsFromMem  atomic.Uint64 // lookups that found the key
	GetMemUs     atomic.Uint64 // microseconds spent in lookups that found the key
	GetsMissing  atomic.Uint64 // lookups that missed
	GetMissingUs atomic.Uint64 // microseconds spent in lookups that missed
	Items        atomic.Uint64 // items snapshots taken
	Keys         atomic.Uint64 // keys enumerations started
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	GetsFromMem  uint64
	GetMemUs     uint64
	GetsMissing  uint64
	GetMissingUs uint64
	Items        uint64
	Keys         uint64
}

// Snapshot reads the counters without resetting them.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		GetsFromMem:  s.GetsFromMem.Load(),
		GetMemUs:     s.GetMemUs.Load(),
		GetsMissing:  s.GetsMissing.Load(),
		GetMissingUs: s.GetMissingUs.Load(),
		Items:        s.Items.Load(),
		Keys:         s.Keys.Load(),
	}
}

// Report resets the counters and publishes what they held to the log and metrics.
func (s *Stats) Report() StatsSnapshot {
	snap := StatsSnapshot{
		GetsFromMem:  s.GetsFromMem.Swap(0),
		GetMemUs:     s.GetMemUs.Swap(0),
		GetsMissing:  s.GetsMissing.Swap(0),
		GetMissingUs: s.GetMissingUs.Swap(0),
		Items:        s.Items.Swap(0),
		Keys:         s.Keys.Swap(0),
	}

	logger.Info("accounts index stats",
		"gets_from_mem", snap.GetsFromMem,
		"get_mem_us", snap.GetMemUs,
		"gets_missing", snap.GetsMissing,
		"get_missing_us", snap.GetMissingUs,
		"items", snap.Items,
		"keys", snap.Keys,
	)

	hit := map[string]string{"event": "hit"}
	miss := map[string]string{"event": "miss"}
	metricGetsCount().AddWithLabel(toInt64(snap.GetsFromMem), hit)
	metricGetsCount().AddWithLabel(toInt64(snap.GetsMissing), miss)
	metricGetsUs().AddWithLabel(toInt64(snap.GetMemUs), hit)
	metricGetsUs().AddWithLabel(toInt64(snap.GetMissingUs), miss)
	metricScansCount().AddWithLabel(toInt64(snap.Items), map[string]string{"type": "items"})
	metricScansCount().AddWithLabel(toInt64(snap.Keys), map[string]string{"type": "keys"})
	metricReports().Add(1)

	return snap
}

// recordLookup accounts a lookup started at start.
func (s *Stats) recordLookup(hit bool, start time.Time) {
	if hit {
		updateTimeStat(&s.GetMemUs, start)
		updateStat(&s.GetsFromMem, 1)
	} else {
		updateTimeStat(&s.GetMissingUs, start)
		updateStat(&s.GetsMissing, 1)
	}
}

// updateStat adds value to stat, saturating at the max value.
func updateStat(stat *atomic.Uint64, value uint64) {
	if value == 0 {
		return
	}
	for {
		old := stat.Load()
		n := old + value
		if n < old {
			n = math.MaxUint64
		}
		if stat.CompareAndSwap(old, n) {
			return
		}
	}
}

// updateTimeStat adds the microseconds elapsed since start. A clock going
// backwards adds nothing.
func updateTimeStat(stat *atomic.Uint64, start time.Time) {
	if d := time.Since(start); d > 0 {
		updateStat(stat, uint64(d.Microseconds()))
	}
}

func toInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
