/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"io"
	"sort"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/uber-go/tally"
	statsdreporter "github.com/uber-go/tally/statsd"
)

var logger = logging.NewLogger("txsubmit")

const tagSeparator = "."

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewScope returns the root metrics scope. If cfg is nil then a no-op scope
// is returned. The returned closer flushes and closes the reporter.
func NewScope(cfg *api.StatsdConfig) (tally.Scope, io.Closer, error) {
	if cfg == nil {
		return tally.NoopScope, nopCloser{}, nil
	}

	reporter, err := newStatsdReporter(cfg)
	if err != nil {
		return nil, nil, err
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   cfg.Prefix,
		Reporter: reporter,
	}, cfg.FlushInterval)

	logger.Debugf("Reporting metrics to statsd at [%s] with prefix [%s]", cfg.Address, cfg.Prefix)
	return scope, closer, nil
}

func newStatsdReporter(cfg *api.StatsdConfig) (tally.StatsReporter, error) {
	if cfg.Address == "" {
		return nil, errors.New(errors.MissingConfigDataError, "missing statsd server address")
	}
	if cfg.FlushInterval <= 0 {
		return nil, errors.New(errors.MissingConfigDataError, "missing statsd flush interval")
	}
	if cfg.FlushBytes <= 0 {
		return nil, errors.New(errors.MissingConfigDataError, "missing statsd flush bytes")
	}

	statter, err := statsd.NewBufferedClient(cfg.Address, "", cfg.FlushInterval, cfg.FlushBytes)
	if err != nil {
		return nil, errors.Wrap(errors.SystemError, err, "failed to create statsd client")
	}

	return &statsdReporter{
		StatsReporter: statsdreporter.NewReporter(statter, statsdreporter.Options{}),
		statter:       statter,
	}, nil
}

// statsdReporter folds tags into the metric name since statsd has no tags
type statsdReporter struct {
	tally.StatsReporter
	statter statsd.Statter
}

func (r *statsdReporter) Close() error {
	return r.statter.Close()
}

func (r *statsdReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.StatsReporter.ReportCounter(tagsToName(name, tags), tags, value)
}

func (r *statsdReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.StatsReporter.ReportGauge(tagsToName(name, tags), tags, value)
}

func (r *statsdReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.StatsReporter.ReportTimer(tagsToName(name, tags), tags, interval)
}

func (r *statsdReporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound,
	bucketUpperBound float64,
	samples int64,
) {
	r.StatsReporter.ReportHistogramValueSamples(tagsToName(name, tags), tags, buckets, bucketLowerBound, bucketUpperBound, samples)
}

func (r *statsdReporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound,
	bucketUpperBound time.Duration,
	samples int64,
) {
	r.StatsReporter.ReportHistogramDurationSamples(tagsToName(name, tags), tags, buckets, bucketLowerBound, bucketUpperBound, samples)
}

func (r *statsdReporter) Capabilities() tally.Capabilities {
	return r
}

func (r *statsdReporter) Reporting() bool {
	return true
}

func (r *statsdReporter) Tagging() bool {
	return true
}

func tagsToName(name string, tags map[string]string) string {
	var keys []string
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name = name + tagSeparator + k + "-" + tags[k]
	}
	return name
}
