/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/action"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/batchcmd"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/importcmd"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/invokecmd"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/querycmd"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/submitcmd"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/spf13/cobra"
)

var logger = logging.NewLogger("txcli")

func newTxCLICmd() *cobra.Command {
	mainCmd := &cobra.Command{
		Use:          "txcli",
		Short:        "Submit transactions to a Hyperledger Fabric network",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	action.InitGlobalFlags(mainCmd.PersistentFlags())

	mainCmd.AddCommand(submitcmd.Cmd(), invokecmd.Cmd(), querycmd.Cmd(), batchcmd.Cmd(), importcmd.Cmd())

	return mainCmd
}

func main() {
	if err := newTxCLICmd().Execute(); err != nil {
		if e, ok := errors.GetError(err); ok {
			logger.Debugf("Command failed with error ID [%s]: %s", e.ErrorID(), e.GenerateLogMsg())
		}
		os.Exit(1)
	}
}
