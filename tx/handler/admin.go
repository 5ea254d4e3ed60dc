package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/openfund/rfe-app/state"
	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
)

type SetPausedTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewSetPausedTxHandler(logger cmtlog.Logger) (h *SetPausedTxHandler) {
	logger = logger.With("module", "setPausedTx")
	h = &SetPausedTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *SetPausedTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.SetPausedTx)
	_, err1 := st.SetPaused(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx SetPausedTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *SetPausedTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *SetPausedTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.SetPausedTx)
	event, err := st.SetPaused(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventPauseSet(event)}
	}
	return
}

func (h *SetPausedTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *SetPausedTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type TransferAdminTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewTransferAdminTxHandler(logger cmtlog.Logger) (h *TransferAdminTxHandler) {
	logger = logger.With("module", "transferAdminTx")
	h = &TransferAdminTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *TransferAdminTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.TransferAdminTx)
	_, err1 := st.TransferAdmin(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx TransferAdminTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *TransferAdminTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *TransferAdminTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.TransferAdminTx)
	event, err := st.TransferAdmin(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventAdminTransferred(event)}
	}
	return
}

func (h *TransferAdminTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *TransferAdminTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
