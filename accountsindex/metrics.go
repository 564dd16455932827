// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"github.com/vechain/accountsindex/metrics"
)

var (
	metricGetsCount  = metrics.LazyLoadCounterVec("gets_count", []string{"event"})
	metricGetsUs     = metrics.LazyLoadCounterVec("gets_us", []string{"event"})
	metricScansCount = metrics.LazyLoadCounterVec("scans_count", []string{"type"})
	metricReports    = metrics.LazyLoadCounter("stats_reports_count")
	metricAccounts   = metrics.LazyLoadGauge("accounts")
)
