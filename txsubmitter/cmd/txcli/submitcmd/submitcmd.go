/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package submitcmd

import (
	"context"

	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/action"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/cliconfig"
	"github.com/spf13/cobra"
)

const description = `
The submit command submits a transaction through the Fabric gateway. The gateway
endorses the proposal, sends it to the ordering service and waits for the commit.

The identity given by --user must exist in the wallet (see the import command).
All positional arguments are passed to the chaincode function as-is.
`

const examples = `
- Submit a request_accept transaction as user1:
    $ ./txcli submit --config ./txsubmit.yaml --user user1 --cid channel1 --ccid mycc request_accept eyJhY2NlcHQiOnRydWV9

... results in the following output:

    Transaction Submitted
    Payload: OK
`

// Cmd returns the Submit command
func Cmd() *cobra.Command {
	return NewCmd(action.New())
}

// NewCmd returns the Submit command using the given action
func NewCmd(baseAction action.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "submit [args...]",
		Short:        "Submit a transaction through the gateway",
		Long:         description,
		Example:      examples,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := baseAction.Initialize(); err != nil {
				return err
			}
			defer baseAction.Close()

			submitter, err := baseAction.GatewayClient()
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

	return cmd
}
