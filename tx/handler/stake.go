package handler

import (
	"context"
	"encoding/hex"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/openfund/rfe-app/state"
	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
)

type RegisterStakeTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
	enrollSet map[string]bool
}

func NewRegisterStakeTxHandler(logger cmtlog.Logger) (h *RegisterStakeTxHandler) {
	logger = logger.With("module", "registerStakeTx")
	h = &RegisterStakeTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
		enrollSet: make(map[string]bool),
	}
	return
}

func (h *RegisterStakeTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.RegisterStakeTx)
	_, err1 := st.RegisterStake(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx RegisterStakeTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *RegisterStakeTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
	h.enrollSet = make(map[string]bool)
}

// Enrollments all arrive with sender zero, so they are deduplicated by
// pubkey instead of by account index.
func (h *RegisterStakeTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	wtx := btx.Tx.(*tx.RegisterStakeTx)
	if btx.Sender == 0 {
		pk := hex.EncodeToString(wtx.PubKey)
		if _, ok := h.enrollSet[pk]; ok {
			return nil, state.ErrOneActionInOneBlock
		}
		event, err := st.RegisterStake(wtx, btx.Sender, false)
		if err != nil {
			return nil, err
		}
		h.enrollSet[pk] = true
		res = &abcitypes.ExecTxResult{}
		if event != nil {
			res.Events = []abcitypes.Event{types.EncodeEventStakeRegistered(event)}
		}
		return res, nil
	}

	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	event, err := st.RegisterStake(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventStakeRegistered(event)}
	}
	return
}

func (h *RegisterStakeTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *RegisterStakeTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
