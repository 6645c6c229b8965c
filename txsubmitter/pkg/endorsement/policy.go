/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package endorsement

import (
	"bytes"
	"fmt"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
)

var logger = logging.NewLogger("txsubmit")

// Policy decides which endorsement responses are good enough to be sent for ordering
type Policy interface {
	// Evaluate returns the responses to include in the commit request or an error
	// if the policy is not satisfied. Responses are in target order.
	Evaluate(responses []*api.EndorsementResponse) ([]*api.EndorsementResponse, error)
	String() string
}

// New returns the policy for the given settings
func New(cfg api.EndorsementPolicy) (Policy, error) {
	switch cfg.Type {
	case api.PolicyAll, "":
		return Default(), nil
	case api.PolicyFirst:
		return &requireFirst{}, nil
	case api.PolicyQuorum:
		if cfg.Quorum <= 0 {
			return nil, errors.Errorf(errors.ValidationError, "invalid endorsement quorum [%d]", cfg.Quorum)
		}
		return &requireQuorum{n: cfg.Quorum}, nil
	default:
		return nil, errors.Errorf(errors.ValidationError, "unsupported endorsement policy [%s]", cfg.Type)
	}
}

// requireAll requires every response to succeed with matching proposal
// response payloads, i.e. the same simulation result from every endorser
type requireAll struct{}

func (p *requireAll) Evaluate(responses []*api.EndorsementResponse) ([]*api.EndorsementResponse, error) {
	if len(responses) == 0 {
		return nil, errors.New(errors.ProposalFailed, "no endorsement responses received")
	}

	for _, r := range responses {
		if err := Check(r); err != nil {
			return nil, err
		}
	}

	first := responses[0]
	for _, r := range responses[1:] {
		if !bytes.Equal(first.Result, r.Result) {
			err := errors.Errorf(errors.ProposalFailed, "endorsement mismatch: proposal response from [%s] does not match proposal response from [%s]", r.Endorser, first.Endorser)
			return nil, errors.WithDetails(err, describe(first), describe(r))
		}
	}

	return responses, nil
}

func (p *requireAll) String() string {
	return string(api.PolicyAll)
}

// requireFirst only inspects the first response, ignoring the rest
type requireFirst struct{}

func (p *requireFirst) Evaluate(responses []*api.EndorsementResponse) ([]*api.EndorsementResponse, error) {
	if len(responses) == 0 {
		return nil, errors.New(errors.ProposalFailed, "no endorsement responses received")
	}
	if len(responses) > 1 {
		logger.Debugf("Policy [first]: ignoring %d additional endorsement responses", len(responses)-1)
	}

	if err := Check(responses[0]); err != nil {
		return nil, err
	}
	return responses[:1], nil
}

func (p *requireFirst) String() string {
	return string(api.PolicyFirst)
}

// requireQuorum requires at least n successful responses
type requireQuorum struct {
	n int
}

func (p *requireQuorum) Evaluate(responses []*api.EndorsementResponse) ([]*api.EndorsementResponse, error) {
	var accepted []*api.EndorsementResponse
	var failures []errors.Error

	for _, r := range responses {
		if err := Check(r); err != nil {
			logger.Debugf("Policy [%s]: endorsement from [%s] rejected: %s", p, r.Endorser, err)
			failures = append(failures, err)
			continue
		}
		accepted = append(accepted, r)
	}

	if len(accepted) >= p.n {
		return accepted, nil
	}

	code := errors.ProposalFailed
	if len(failures) > 0 && allHaveCode(failures, errors.TransportError) {
		code = errors.TransportError
	}

	details := make([]interface{}, 0, len(failures))
	for _, f := range failures {
		details = append(details, f.Error())
	}

	err := errors.Errorf(code, "endorsement quorum not met: %d of %d required endorsements succeeded (%d responses)", len(accepted), p.n, len(responses))
	return nil, errors.WithDetails(err, details...)
}

func (p *requireQuorum) String() string {
	return fmt.Sprintf("%s(%d)", api.PolicyQuorum, p.n)
}

// Check returns an error if the given response is not a successful endorsement.
// A response error keeps its TransportError code; any other response error
// or a status other than 200 is a ProposalFailed error.
func Check(r *api.EndorsementResponse) errors.Error {
	if r.Err != nil {
		if e, ok := errors.GetError(r.Err); ok && (e.ErrorCode() == errors.TransportError || e.ErrorCode() == errors.ProposalFailed) {
			return e
		}
		return errors.WithDetails(errors.Wrapf(errors.ProposalFailed, r.Err, "failed to send proposal to [%s]", r.Endorser), describe(r))
	}

	if r.Status != api.StatusOK {
		err := errors.Errorf(errors.ProposalFailed, "endorser [%s] returned status %d: %s", r.Endorser, r.Status, r.Message)
		return errors.WithDetails(err, describe(r))
	}

	return nil
}

func describe(r *api.EndorsementResponse) string {
	return fmt.Sprintf("endorser:%s status:%d message:%q payload:%d bytes result:%d bytes", r.Endorser, r.Status, r.Message, len(r.Payload), len(r.Result))
}

func allHaveCode(errs []errors.Error, code errors.ErrorCode) bool {
	for _, e := range errs {
		if e.ErrorCode() != code {
			return false
		}
	}
	return true
}

// Default returns the policy used when none is configured
func Default() Policy {
	return &requireAll{}
}
