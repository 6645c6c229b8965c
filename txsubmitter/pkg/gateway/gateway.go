/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/fabric"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/uber-go/tally"
)

var logger = logging.NewLogger("txsubmit")

// closeGracePeriod is how long a timed-out call waits for the gateway
// connection to be closed before returning
var closeGracePeriod = 2 * time.Second

// Contract submits and evaluates transactions on a chaincode
type Contract interface {
	SubmitTransaction(name string, args ...string) ([]byte, error)
	EvaluateTransaction(name string, args ...string) ([]byte, error)
}

// Connection is an open gateway connection for a single identity
type Connection interface {
	Contract(channelID, chaincodeID string) (Contract, error)
	Close()
}

// ConnectFunc opens a gateway connection for the identity with the given wallet label
type ConnectFunc func(label string) (Connection, error)

// Submitter submits transactions through the high-level gateway API
type Submitter struct {
	identities api.IdentityStore
	connect    ConnectFunc
	timeout    time.Duration

	submitCounter    tally.Counter
	submittedCounter tally.Counter
	evaluateCounter  tally.Counter
	submitTimer      tally.Timer
	scope            tally.Scope
}

// New returns a gateway Submitter. The identity store is consulted before
// connecting so that a missing identity never results in network traffic.
func New(identities api.IdentityStore, connect ConnectFunc, timeout time.Duration, scope tally.Scope) *Submitter {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &Submitter{
		identities:       identities,
		connect:          connect,
		timeout:          timeout,
		scope:            scope,
		submitCounter:    scope.Counter("gateway_submit_count"),
		submittedCounter: scope.Counter("gateway_submitted_count"),
		evaluateCounter:  scope.Counter("gateway_evaluate_count"),
		submitTimer:      scope.Timer("gateway_submit_time_seconds"),
	}
}

// Submit submits the transaction and waits for it to be committed
func (s *Submitter) Submit(ctx context.Context, request *api.Request) (*api.Result, error) {
	s.submitCounter.Inc(1)
	stopwatch := s.submitTimer.Start()
	defer stopwatch.Stop()

	result, err := s.submit(ctx, request)
	if err != nil {
		s.scope.Tagged(map[string]string{"code": errors.Code(err).String()}).Counter("gateway_submit_error_count").Inc(1)
		return nil, err
	}

	s.submittedCounter.Inc(1)
	return result, nil
}

// Evaluate runs the transaction on the peers chosen by the gateway and
// returns the result. The ledger is not updated.
func (s *Submitter) Evaluate(ctx context.Context, request *api.Request) (*api.Result, error) {
	s.evaluateCounter.Inc(1)

	payload, err := s.run(ctx, request, func(contract Contract) ([]byte, error) {
		payload, err := contract.EvaluateTransaction(request.Fcn, request.Args...)
		if err != nil {
			return nil, fabric.Classify(err, errors.ProposalFailed, "Failed to evaluate transaction")
		}
		return payload, nil
	})
	if err != nil {
		s.scope.Tagged(map[string]string{"code": errors.Code(err).String()}).Counter("gateway_evaluate_error_count").Inc(1)
		return nil, err
	}

	logger.Debugf("Transaction [%s] on chaincode [%s] has been evaluated", request.Fcn, request.ChaincodeID)
	return &api.Result{Outcome: api.Evaluated, Payload: payload}, nil
}

func (s *Submitter) submit(ctx context.Context, request *api.Request) (*api.Result, error) {
	payload, err := s.run(ctx, request, func(contract Contract) ([]byte, error) {
		payload, err := contract.SubmitTransaction(request.Fcn, request.Args...)
		if err != nil {
			return nil, fabric.Classify(err, errors.ProposalFailed, "Failed to submit transaction")
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Transaction [%s] on chaincode [%s] has been submitted", request.Fcn, request.ChaincodeID)
	return &api.Result{Outcome: api.Submitted, Payload: payload}, nil
}

type invokeFunc func(contract Contract) ([]byte, error)

// run validates the request and invokes fn on the request's contract within
// the configured timeout
func (s *Submitter) run(ctx context.Context, request *api.Request, fn invokeFunc) ([]byte, error) {
	if request == nil || request.User == "" || request.ChannelID == "" || request.ChaincodeID == "" || request.Fcn == "" {
		return nil, errors.New(errors.MissingRequiredParameterError, "user, channel ID, chaincode ID and function are required")
	}

	if _, err := s.identities.Get(request.User); err != nil {
		return nil, errors.CreateError(err, errors.GeneralError, "failed to load identity")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type response struct {
		payload []byte
		err     error
	}

	done := make(chan response, 1)
	go func() {
		payload, err := s.invoke(request, fn)
		done <- response{payload: payload, err: err}
	}()

	select {
	case r := <-done:
		return r.payload, r.err
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(closeGracePeriod):
			logger.Warnf("Gateway connection for [%s] was not closed within %s of the timeout", request.User, closeGracePeriod)
		}
		return nil, errors.Wrap(errors.TransportError, ctx.Err(), "gateway call did not complete")
	}
}

// invoke connects, calls fn and disconnects. The connection is closed exactly
// once even if the caller has stopped waiting.
func (s *Submitter) invoke(request *api.Request, fn invokeFunc) ([]byte, error) {
	conn, err := s.connect(request.User)
	if err != nil {
		return nil, fabric.Classify(err, errors.TransportError, "Failed to connect to gateway")
	}
	defer conn.Close()

	contract, err := conn.Contract(request.ChannelID, request.ChaincodeID)
	if err != nil {
		return nil, fabric.Classify(err, errors.TransportError, "Failed to get network "+request.ChannelID)
	}

	return fn(contract)
}
