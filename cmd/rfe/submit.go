package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"

	"github.com/openfund/rfe-app/crypto"
	"github.com/openfund/rfe-app/tx"
)

// txArguments are the flags shared by every tx-submitting command.
type txArguments struct {
	Url    string
	Index  uint64
	Nonce  uint64
	Skey   string
	NoSend bool
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	cmd.Flags().Uint64VarP(&args.Index, "index", "i", 0, "account index")
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "account nonce")
	cmd.Flags().StringVarP(&args.Skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "not send transaction but print signature")
}

// signAndBroadcast fills in the chain id as signing domain, signs the
// envelope with the file pv key and submits it. With noSend the
// signature is printed instead so the tx can be relayed elsewhere.
func signAndBroadcast(url string, skeyPath string, btx *tx.RFETx, noSend bool) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		fmt.Printf("get chain genesis err:%v\n", err)
		return
	}
	chainId := gres.Genesis.ChainID

	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		fmt.Printf("tx sign data err:%v\n", err)
		return
	}
	pv := crypto.LoadFilePV(skeyPath)
	sig, err := pv.Sign(dat)
	if err != nil {
		fmt.Printf("sign tx err:%v\n", err)
		return
	}
	sigs := [][]byte{sig}
	if noSend {
		fmt.Println("transaction signatures:")
		for _, sig := range sigs {
			fmt.Println(hex.EncodeToString(sig))
		}
		return
	}
	btx.Sig = sigs
	dat, err = tx.MarshalRFETx(btx)
	if err != nil {
		fmt.Printf("encode tx err:%v\n", err)
		return
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		fmt.Printf("broadcast tx err:%v\n", err)
		return
	}
	dat, _ = json.Marshal(res)
	fmt.Printf("%v\n", string(dat))
}

// resolveNonce uses the flag value when given, otherwise asks the node
// for the account's current nonce.
func resolveNonce(url string, index uint64, nonceFlag uint64) (uint64, error) {
	if nonceFlag != 0 || index == 0 {
		return nonceFlag, nil
	}
	act, err := queryAccount(url, index, "")
	if err != nil {
		fmt.Printf("query nonce err:%v\n", err)
		return 0, err
	}
	return act.Nonce, nil
}
