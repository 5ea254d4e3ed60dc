package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfund/rfe-app/crypto"
	"github.com/openfund/rfe-app/tx"
)

var registerStakeArgs struct {
	txArguments
	Amount uint64
	PubKey string
}

var registerStakeCmd = &cobra.Command{
	Use:   "registerstake",
	Short: "Add stake to an account, enrolling it when no index is given",
	Run:   registerStakeRun,
}

func init() {
	txFlags(registerStakeCmd, &registerStakeArgs.txArguments)
	registerStakeCmd.Flags().Uint64VarP(&registerStakeArgs.Amount, "amount", "a", 0, "stake amount")
	registerStakeCmd.Flags().StringVarP(&registerStakeArgs.PubKey, "pubkey", "p", "", "hex public key to enroll, defaults to the signing key")
}

func registerStakeRun(cmd *cobra.Command, args []string) {
	wtx := &tx.RegisterStakeTx{Amount: registerStakeArgs.Amount}
	nonce := registerStakeArgs.Nonce
	// Index zero means enrollment. The tx carries the public key and
	// must be signed by it, with nonce zero.
	if registerStakeArgs.Index == 0 {
		if registerStakeArgs.PubKey != "" {
			pk, err := hex.DecodeString(registerStakeArgs.PubKey)
			if err != nil {
				fmt.Printf("invalid pubkey:%v\n", registerStakeArgs.PubKey)
				return
			}
			wtx.PubKey = pk
		} else {
			pv := crypto.LoadFilePV(registerStakeArgs.Skey)
			wtx.PubKey = pv.PublicKey()
		}
		nonce = 0
	} else {
		var err error
		nonce, err = resolveNonce(registerStakeArgs.Url, registerStakeArgs.Index, registerStakeArgs.Nonce)
		if err != nil {
			return
		}
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeRegisterStake,
		Nonce:   nonce,
		Sender:  registerStakeArgs.Index,
		Tx:      wtx,
	}
	signAndBroadcast(registerStakeArgs.Url, registerStakeArgs.Skey, btx, registerStakeArgs.NoSend)
}
