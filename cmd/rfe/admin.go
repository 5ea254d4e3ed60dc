package main

import (
	"github.com/spf13/cobra"

	"github.com/openfund/rfe-app/tx"
)

var setPausedArgs struct {
	txArguments
	Resume bool
}

var setPausedCmd = &cobra.Command{
	Use:   "setpaused",
	Short: "Pause or resume intake operations (admin)",
	Run:   setPausedRun,
}

func init() {
	txFlags(setPausedCmd, &setPausedArgs.txArguments)
	setPausedCmd.Flags().BoolVarP(&setPausedArgs.Resume, "resume", "r", false, "clear the pause flag instead of setting it")
}

func setPausedRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(setPausedArgs.Url, setPausedArgs.Index, setPausedArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeSetPaused,
		Nonce:   nonce,
		Sender:  setPausedArgs.Index,
		Tx:      &tx.SetPausedTx{Paused: !setPausedArgs.Resume},
	}
	signAndBroadcast(setPausedArgs.Url, setPausedArgs.Skey, btx, setPausedArgs.NoSend)
}

var transferAdminArgs struct {
	txArguments
	NewAdmin uint64
}

var transferAdminCmd = &cobra.Command{
	Use:   "transferadmin",
	Short: "Hand the admin role to another account (admin)",
	Run:   transferAdminRun,
}

func init() {
	txFlags(transferAdminCmd, &transferAdminArgs.txArguments)
	transferAdminCmd.Flags().Uint64VarP(&transferAdminArgs.NewAdmin, "newadmin", "a", 0, "account index of the new admin")
}

func transferAdminRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(transferAdminArgs.Url, transferAdminArgs.Index, transferAdminArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeTransferAdmin,
		Nonce:   nonce,
		Sender:  transferAdminArgs.Index,
		Tx:      &tx.TransferAdminTx{NewAdmin: transferAdminArgs.NewAdmin},
	}
	signAndBroadcast(transferAdminArgs.Url, transferAdminArgs.Skey, btx, transferAdminArgs.NoSend)
}
