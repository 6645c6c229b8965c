/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/xeipuuv/gojsonschema"
)

var logger = logging.NewLogger("txsubmit")

const schema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "properties": {
    "channel": {"type": "string", "minLength": 1},
    "transactions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "chaincode": {"type": "string", "minLength": 1},
          "function": {"type": "string", "minLength": 1},
          "args": {"type": "array", "items": {"type": "string"}},
          "targets": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "transient": {"type": "object", "additionalProperties": {"type": "string"}}
        },
        "required": ["args"],
        "additionalProperties": false
      }
    }
  },
  "required": ["transactions"],
  "additionalProperties": false
}`

// Transaction is a single entry of a batch. Empty fields are taken from the request template.
type Transaction struct {
	ChaincodeID string            `json:"chaincode,omitempty"`
	Function    string            `json:"function,omitempty"`
	Args        []string          `json:"args"`
	Targets     []string          `json:"targets,omitempty"`
	Transient   map[string]string `json:"transient,omitempty"`
}

// Batch is an ordered list of transactions
type Batch struct {
	ChannelID    string        `json:"channel,omitempty"`
	Transactions []Transaction `json:"transactions"`
}

// Report contains the results of the transactions that were submitted
type Report struct {
	Results []*api.Result
}

// Submitted returns the number of transactions that were submitted
func (r *Report) Submitted() int {
	return len(r.Results)
}

// Load reads and validates the batch file at the given path
func Load(path string) (*Batch, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.MissingConfigDataError, err, "failed to read batch file [%s]", path)
	}
	return Parse(data)
}

// Parse validates the given JSON document and returns the batch
func Parse(data []byte) (*Batch, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	b := &Batch{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, errors.Wrap(errors.UnmarshallError, err, "failed to unmarshal batch")
	}
	return b, nil
}

func validate(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.Wrap(errors.UnmarshallError, err, "invalid batch document")
	}

	if !result.Valid() {
		var descs []string
		for _, desc := range result.Errors() {
			descs = append(descs, desc.String())
		}
		return errors.Errorf(errors.ValidationError, "invalid batch document: %s", strings.Join(descs, ", "))
	}
	return nil
}

// Run submits the transactions in order, each as its own submission.
// The run stops at the first failure; the report holds the results of the
// transactions submitted before it.
func Run(ctx context.Context, submitter api.Submitter, template api.Request, b *Batch) (*Report, error) {
	report := &Report{}

	for i, tx := range b.Transactions {
		request := newRequest(template, b.ChannelID, tx)

		logger.Debugf("Submitting batch transaction %d of %d: %s %v", i+1, len(b.Transactions), request.Fcn, request.Args)
		result, err := submitter.Submit(ctx, request)
		if err != nil {
			return report, errors.WithMessage(errors.Code(err), err, fmt.Sprintf("batch transaction %d of %d failed (%d submitted)", i+1, len(b.Transactions), report.Submitted()))
		}

		report.Results = append(report.Results, result)
	}

	return report, nil
}

func newRequest(template api.Request, channelID string, tx Transaction) *api.Request {
	request := template
	if channelID != "" {
		request.ChannelID = channelID
	}
	if tx.ChaincodeID != "" {
		request.ChaincodeID = tx.ChaincodeID
	}
	if tx.Function != "" {
		request.Fcn = tx.Function
	}
	request.Args = tx.Args
	request.Targets = tx.Targets
	if len(tx.Targets) == 0 {
		request.Targets = template.Targets
	}
	if len(tx.Transient) > 0 {
		request.TransientMap = make(map[string][]byte, len(tx.Transient))
		for k, v := range tx.Transient {
			request.TransientMap[k] = []byte(v)
		}
	}
	return &request
}
