package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/openfund/rfe-app/state"
	"github.com/openfund/rfe-app/tx"
)

// TxHandler is implemented once per tx type. Check runs against the
// mempool state with no writes; Prepare and Process run the same
// application path against the proposal's working state. NewContext
// resets per-block bookkeeping before a proposal is (re)executed.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error)
	NewContext(ctx context.Context)
	Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error)
}
