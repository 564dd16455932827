// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	noop := defaultNoopMetrics()

	assert.Nil(t, noop.GetOrCreateHandler())
	assert.NotPanics(t, func() {
		noop.GetOrCreateCountMeter("count1").Add(1)
		noop.GetOrCreateCountVecMeter("countVec1", []string{"zeroOrOne"}).
			AddWithLabel(1, map[string]string{"thisIsNonsense": "butDoesntBreak"})
		noop.GetOrCreateGaugeMeter("gauge1").Set(1)
		noop.GetOrCreateGaugeMeter("gauge1").Add(1)
	})
}
