/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/uber-go/tally"
)

const (
	submitCounterName           = "submit_count"
	submittedCounterName        = "submitted_count"
	submitErrorCounterName      = "submit_error_count"
	evaluateCounterName         = "evaluate_count"
	evaluatedCounterName        = "evaluated_count"
	endorsementCounterName      = "endorsement_count"
	endorsementErrorCounterName = "endorsement_error_count"
	submitTimerName             = "submit_time_seconds"
	endorseTimerName            = "endorse_time_seconds"
	orderTimerName              = "order_time_seconds"

	codeTag = "code"
)

// metrics holds the counters and timers of the submitter
type metrics struct {
	scope                   tally.Scope
	submitCounter           tally.Counter
	submittedCounter        tally.Counter
	evaluateCounter         tally.Counter
	evaluatedCounter        tally.Counter
	endorsementCounter      tally.Counter
	endorsementErrorCounter tally.Counter
	submitTimer             tally.Timer
	endorseTimer            tally.Timer
	orderTimer              tally.Timer
}

func newMetrics(scope tally.Scope) *metrics {
	return &metrics{
		scope:                   scope,
		submitCounter:           scope.Counter(submitCounterName),
		submittedCounter:        scope.Counter(submittedCounterName),
		evaluateCounter:         scope.Counter(evaluateCounterName),
		evaluatedCounter:        scope.Counter(evaluatedCounterName),
		endorsementCounter:      scope.Counter(endorsementCounterName),
		endorsementErrorCounter: scope.Counter(endorsementErrorCounterName),
		submitTimer:             scope.Timer(submitTimerName),
		endorseTimer:            scope.Timer(endorseTimerName),
		orderTimer:              scope.Timer(orderTimerName),
	}
}

// failed increments the error counter tagged with the error kind
func (m *metrics) failed(err error) {
	m.scope.Tagged(map[string]string{codeTag: errors.Code(err).String()}).Counter(submitErrorCounterName).Inc(1)
}
