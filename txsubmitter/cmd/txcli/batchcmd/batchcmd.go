/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package batchcmd

import (
	"context"
	"fmt"

	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/action"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/cliconfig"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/batch"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/spf13/cobra"
)

const description = `
The batch command submits the transactions of a JSON document in order. Each
transaction is a separate invocation with its own transaction ID. The batch stops
at the first failure.

Fields that are missing from a transaction are taken from the configuration and
the command-line (--ccid, --fcn, --targets).

Example document:

    {
      "channel": "channel1",
      "transactions": [
        {"args": ["request_access", "eyJ1c2VyIjoidXNlcjEifQ=="]},
        {"function": "invoke", "args": ["request_accept", "eyJhY2NlcHQiOnRydWV9"]}
      ]
    }
`

const examples = `
- Submit the transactions in access.json:
    $ ./txcli batch --config ./txsubmit.yaml --user user1 --file ./access.json

... results in the following output:

    Transaction [4f2d...] Submitted to orderer [orderer.example.com]
    Transaction [9a07...] Submitted to orderer [orderer.example.com]
    2 of 2 transactions submitted
`

// Cmd returns the Batch command
func Cmd() *cobra.Command {
	return newCmd(action.New())
}

func newCmd(baseAction action.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "batch",
		Short:        "Submit the transactions of a batch document",
		Long:         description,
		Example:      examples,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := baseAction.Initialize(); err != nil {
				return err
			}
			defer baseAction.Close()

			cfg := cliconfig.Config()
			if cfg.BatchFile() == "" {
				return errors.New(errors.MissingRequiredParameterError, "no batch file specified")
			}

			b, err := batch.Load(cfg.BatchFile())
			if err != nil {
				return err
			}

			submitter, err := baseAction.PipelineClient()
			if err != nil {
				return err
			}

			report, err := batch.Run(context.Background(), submitter, *cfg.Request(nil), b)
			for _, result := range report.Results {
				action.PrintResult(cmd.OutOrStdout(), result)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d transactions submitted\n", report.Submitted(), len(b.Transactions))
			return nil
		},
	}

	flags := cmd.Flags()
	cliconfig.InitBatchFile(flags)
	cliconfig.InitChaincodeID(flags)
	cliconfig.InitFcn(flags)
	cliconfig.InitPolicy(flags)
	cliconfig.InitQuorum(flags)
	cliconfig.InitTargets(flags)

	return cmd
}
