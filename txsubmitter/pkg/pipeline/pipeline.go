/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/endorsement"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/uber-go/tally"
)

var logger = logging.NewLogger("txsubmit")

// DefaultTimeout bounds a single submission if no timeout is provided
const DefaultTimeout = 30 * time.Second

// Submitter drives a transaction through proposal, endorsement and ordering
type Submitter struct {
	identities api.IdentityStore
	connector  api.Connector
	policy     endorsement.Policy
	timeout    time.Duration
	metrics    *metrics
}

// Opt is a Submitter option
type Opt func(s *Submitter)

// WithPolicy sets the endorsement policy
func WithPolicy(policy endorsement.Policy) Opt {
	return func(s *Submitter) {
		s.policy = policy
	}
}

// WithTimeout sets the time allowed for a single submission
func WithTimeout(timeout time.Duration) Opt {
	return func(s *Submitter) {
		s.timeout = timeout
	}
}

// WithScope sets the metrics scope
func WithScope(scope tally.Scope) Opt {
	return func(s *Submitter) {
		s.metrics = newMetrics(scope)
	}
}

// New returns a new Submitter
func New(identities api.IdentityStore, connector api.Connector, opts ...Opt) *Submitter {
	s := &Submitter{
		identities: identities,
		connector:  connector,
		policy:     endorsement.Default(),
		timeout:    DefaultTimeout,
		metrics:    newMetrics(tally.NoopScope),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit submits the transaction and returns once the ordering service has
// accepted it. Acceptance does not mean the transaction was committed.
func (s *Submitter) Submit(ctx context.Context, request *api.Request) (*api.Result, error) {
	s.metrics.submitCounter.Inc(1)
	stopwatch := s.metrics.submitTimer.Start()
	defer stopwatch.Stop()

	result, err := s.submit(ctx, request)
	if err != nil {
		s.metrics.failed(err)
		if e, ok := errors.GetError(err); ok {
			logger.Debugf("Submission failed: %s", e.GenerateLogMsg())
		}
		return nil, err
	}

	s.metrics.submittedCounter.Inc(1)
	return result, nil
}

// Evaluate sends the proposal to the endorsers and returns the endorsed result
// once the endorsement policy is satisfied. Nothing is sent for ordering.
func (s *Submitter) Evaluate(ctx context.Context, request *api.Request) (*api.Result, error) {
	s.metrics.evaluateCounter.Inc(1)

	result, err := s.run(ctx, request, s.evaluate)
	if err != nil {
		s.metrics.failed(err)
		if e, ok := errors.GetError(err); ok {
			logger.Debugf("Evaluation failed: %s", e.GenerateLogMsg())
		}
		return nil, err
	}

	s.metrics.evaluatedCounter.Inc(1)
	return result, nil
}

type invokeFunc func(ctx context.Context, session api.Session, request *api.Request) (*api.Result, error)

func (s *Submitter) submit(ctx context.Context, request *api.Request) (*api.Result, error) {
	return s.run(ctx, request, s.invoke)
}

// run opens a session for the request's user and channel, invokes fn and
// releases the session
func (s *Submitter) run(ctx context.Context, request *api.Request, fn invokeFunc) (*api.Result, error) {
	if err := validate(request); err != nil {
		return nil, err
	}

	identity, err := s.identities.Get(request.User)
	if err != nil {
		return nil, errors.CreateError(err, errors.GeneralError, "failed to load identity")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger.Debugf("Connecting to channel [%s] as [%s]", request.ChannelID, request.User)
	session, err := s.connector.Connect(ctx, identity, request.ChannelID)
	if err != nil {
		return nil, transportError(ctx, err, "failed to connect")
	}
	defer session.Close()

	return fn(ctx, session, request)
}

func (s *Submitter) invoke(ctx context.Context, session api.Session, request *api.Request) (*api.Result, error) {
	proposal, accepted, err := s.propose(ctx, session, request)
	if err != nil {
		return nil, err
	}
	txnID := proposal.TxnID

	commitResult, err := s.order(ctx, session, &api.CommitRequest{Proposal: proposal, Responses: accepted})
	if err != nil {
		return nil, err
	}

	if commitResult.Status != api.OrdererSuccess {
		err := errors.Errorf(errors.OrderingFailed, "orderer [%s] rejected txn [%s] with status [%s]", commitResult.Orderer, txnID.ID, commitResult.Status)
		return nil, errors.WithDetails(err, commitResult.Orderer, commitResult.Status)
	}

	logger.Infof("Txn [%s] submitted to orderer [%s]", txnID.ID, commitResult.Orderer)

	return &api.Result{
		TxnID:   txnID.ID,
		Outcome: api.Submitted,
		Payload: accepted[0].Payload,
		Orderer: commitResult.Orderer,
	}, nil
}

func (s *Submitter) evaluate(ctx context.Context, session api.Session, request *api.Request) (*api.Result, error) {
	proposal, accepted, err := s.propose(ctx, session, request)
	if err != nil {
		return nil, err
	}

	logger.Infof("Txn [%s] evaluated by %d endorsers", proposal.TxnID.ID, len(accepted))

	return &api.Result{
		TxnID:   proposal.TxnID.ID,
		Outcome: api.Evaluated,
		Payload: accepted[0].Payload,
	}, nil
}

// propose creates the proposal, collects the endorsements and returns the
// responses accepted by the endorsement policy
func (s *Submitter) propose(ctx context.Context, session api.Session, request *api.Request) (*api.Proposal, []*api.EndorsementResponse, error) {
	proposal, err := session.NewProposal(request)
	if err != nil {
		return nil, nil, errors.CreateError(err, errors.SystemError, "failed to create proposal")
	}
	txnID := proposal.TxnID

	logger.Debugf("Sending proposal for txn [%s] to %v", txnID.ID, proposal.Targets)
	responses, err := s.endorse(ctx, session, proposal)
	if err != nil {
		return nil, nil, err
	}

	accepted, err := s.policy.Evaluate(responses)
	if err != nil {
		return nil, nil, errors.CreateError(err, errors.ProposalFailed, "endorsement policy not satisfied")
	}
	logger.Debugf("Txn [%s]: %d endorsements accepted by policy [%s]", txnID.ID, len(accepted), s.policy)

	return proposal, accepted, nil
}

func (s *Submitter) endorse(ctx context.Context, session api.Session, proposal *api.Proposal) ([]*api.EndorsementResponse, error) {
	stopwatch := s.metrics.endorseTimer.Start()
	defer stopwatch.Stop()

	responses, err := session.Endorse(ctx, proposal)
	if err != nil {
		return nil, transportError(ctx, err, "failed to send proposal")
	}

	s.metrics.endorsementCounter.Inc(int64(len(responses)))
	for _, r := range responses {
		if endorsement.Check(r) != nil {
			s.metrics.endorsementErrorCounter.Inc(1)
		}
	}
	return responses, nil
}

func (s *Submitter) order(ctx context.Context, session api.Session, request *api.CommitRequest) (*api.CommitResult, error) {
	stopwatch := s.metrics.orderTimer.Start()
	defer stopwatch.Stop()

	result, err := session.Order(ctx, request)
	if err != nil {
		return nil, transportError(ctx, err, "failed to send transaction to orderer")
	}
	return result, nil
}

// transportError returns a TransportError if the context is done, otherwise
// the coded error in err's chain (or a TransportError)
func transportError(ctx context.Context, err error, msg string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(errors.TransportError, err, msg+": "+ctxErr.Error())
	}
	return errors.CreateError(err, errors.TransportError, msg)
}

func validate(request *api.Request) error {
	if request == nil {
		return errors.New(errors.MissingRequiredParameterError, "request is required")
	}
	if request.User == "" {
		return errors.New(errors.MissingRequiredParameterError, "user is required")
	}
	if request.ChannelID == "" {
		return errors.New(errors.MissingRequiredParameterError, "channel ID is required")
	}
	if request.ChaincodeID == "" {
		return errors.New(errors.MissingRequiredParameterError, "chaincode ID is required")
	}
	if request.Fcn == "" {
		return errors.New(errors.MissingRequiredParameterError, "function is required")
	}
	return nil
}
