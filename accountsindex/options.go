// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsindex

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBinCount is the default number of bins of an index.
	DefaultBinCount = 8192
	// MaxBinCount is the max number of bins, bounded by the two key bytes used to pick a bin.
	MaxBinCount = 1 << binCalculatorBits
	// DefaultReportInterval is the default interval of stats reports.
	DefaultReportInterval = 10 * time.Second
	// DefaultThreadName is the default name of the background go routine.
	DefaultThreadName = "accounts-index-flusher"
)

// Options optional parameters for the accounts index.
// Zero values are replaced by defaults.
type Options struct {
	// BinCount is the number of bins, a power of two no more than MaxBinCount.
	BinCount int `yaml:"bin_count"`
	// ReportInterval is the interval at which the background go routine reports stats.
	ReportInterval time.Duration `yaml:"report_interval"`
	// ThreadName labels the background go routine.
	ThreadName string `yaml:"thread_name"`
}

func (o Options) withDefaults() Options {
	if o.BinCount == 0 {
		o.BinCount = DefaultBinCount
	}
	if o.ReportInterval == 0 {
		o.ReportInterval = DefaultReportInterval
	}
	if o.ThreadName == "" {
		o.ThreadName = DefaultThreadName
	}
	return o
}

// Validate checks the options after defaults applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	if err := checkBinCount(o.BinCount); err != nil {
		return err
	}
	if o.ReportInterval < 0 {
		return errors.Errorf("report interval %v: must be positive", o.ReportInterval)
	}
	return nil
}

// LoadOptions decodes options from YAML. Unknown fields are rejected and an empty
// document yields the defaults.
func LoadOptions(r io.Reader) (Options, error) {
	var opts Options

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return Options{}, errors.Wrap(err, "decode accounts index options")
	}
	if err := opts.Validate(); err != nil {
		return Options{}, errors.Wrap(err, "invalid accounts index options")
	}
	return opts.withDefaults(), nil
}
