/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invokecmd

import (
	"context"

	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/action"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/cliconfig"
	"github.com/spf13/cobra"
)

const description = `
The invoke command drives a transaction through each step itself: the proposal is
sent to the target peers, the responses are checked against the endorsement policy
and the endorsed transaction is sent to the ordering service.

The command completes once the orderer has accepted the transaction. It does not
wait for the transaction to be committed.

Endorsement policies:

* all (default) - every target peer must endorse with status 200 and identical results
* first - only the response of the first target is checked
* quorum - at least --quorum peers must endorse with status 200
`

const examples = `
- Invoke request_access on all configured peers:
    $ ./txcli invoke --config ./txsubmit.yaml --user user1 --cid channel1 --ccid mycc request_access eyJ1c2VyIjoidXNlcjEifQ==

... results in the following output:

    Transaction [4f2d...] Submitted to orderer [orderer.example.com]
    Payload: OK

- Invoke on two peers and accept a single endorsement:
    $ ./txcli invoke --config ./txsubmit.yaml --user user1 --targets peer0.org1.example.com,peer1.org1.example.com --policy quorum --quorum 1 request_access
`

// Cmd returns the Invoke command
func Cmd() *cobra.Command {
	return NewCmd(action.New())
}

// NewCmd returns the Invoke command using the given action
func NewCmd(baseAction action.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "invoke [args...]",
		Short:        "Endorse a transaction and send it for ordering",
		Long:         description,
		Example:      examples,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := baseAction.Initialize(); err != nil {
				return err
			}
			defer baseAction.Close()

			submitter, err := baseAction.PipelineClient()
			if err != nil {
				return err
			}

			result, err := submitter.Submit(context.Background(), cliconfig.Config().Request(args))
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

	return cmd
}
