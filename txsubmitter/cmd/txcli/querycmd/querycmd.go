/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package querycmd

import (
	"context"

	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/action"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/cliconfig"
	"github.com/spf13/cobra"
)

const description = `
The query command evaluates a transaction: the proposal is endorsed and the chaincode
response is printed, but nothing is sent to the ordering service and the ledger is
not updated.

By default the proposal is sent to the target peers and the responses are checked
against the endorsement policy. With --gateway the evaluation goes through the Fabric
gateway, which picks the peer itself.
`

const examples = `
- Query the state of a request on a single peer:
    $ ./txcli query --config ./txsubmit.yaml --user user1 --cid channel1 --ccid mycc --targets peer0.org1.example.com get_request eyJpZCI6IjEifQ==

... results in the following output:

    Transaction [4f2d...] Evaluated
    Payload: {"id":"1","state":"accepted"}

- Query through the gateway:
    $ ./txcli query --config ./txsubmit.yaml --user user1 --gateway get_request eyJpZCI6IjEifQ==
`

// Cmd returns the Query command
func Cmd() *cobra.Command {
	return NewCmd(action.New())
}

// NewCmd returns the Query command using the given action
func NewCmd(baseAction action.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "query [args...]",
		Short:        "Evaluate a transaction without sending it for ordering",
		Long:         description,
		Example:      examples,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := baseAction.Initialize(); err != nil {
				return err
			}
			defer baseAction.Close()

			cfg := cliconfig.Config()

			var client api.Client
			var err error
			if cfg.UseGateway() {
				client, err = baseAction.GatewayClient()
			} else {
				client, err = baseAction.PipelineClient()
			}
			if err != nil {
				return err
			}

			result, err := client.Evaluate(context.Background(), cfg.Request(args))
			if err != nil {
				return err
			}

			action.PrintResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags := cmd.Flags()
	cliconfig.InitChaincodeID(flags)
	cliconfig.InitFcn(flags)
	cliconfig.InitPolicy(flags)
	cliconfig.InitQuorum(flags)
	cliconfig.InitTargets(flags)
	cliconfig.InitGateway(flags)

	return cmd
}
