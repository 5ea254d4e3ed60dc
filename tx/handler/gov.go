package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/openfund/rfe-app/state"
	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
)

type CreateProposalTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewCreateProposalTxHandler(logger cmtlog.Logger) (h *CreateProposalTxHandler) {
	logger = logger.With("module", "createProposalTx")
	h = &CreateProposalTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *CreateProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.CreateProposalTx)
	_, err1 := st.CreateProposal(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx CreateProposalTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *CreateProposalTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *CreateProposalTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.CreateProposalTx)
	event, err := st.CreateProposal(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalCreated(event)}
	}
	return
}

func (h *CreateProposalTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *CreateProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type VoteTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	logger = logger.With("module", "voteTx")
	h = &VoteTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.VoteTx)
	_, err1 := st.Vote(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx VoteTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *VoteTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *VoteTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.VoteTx)
	event, err := st.Vote(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventVoteCast(event)}
	}
	return
}

func (h *VoteTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *VoteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type FinalizeProposalTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewFinalizeProposalTxHandler(logger cmtlog.Logger) (h *FinalizeProposalTxHandler) {
	logger = logger.With("module", "finalizeProposalTx")
	h = &FinalizeProposalTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *FinalizeProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.FinalizeProposalTx)
	_, err1 := st.FinalizeProposal(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx FinalizeProposalTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *FinalizeProposalTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *FinalizeProposalTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.FinalizeProposalTx)
	event, err := st.FinalizeProposal(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalFinalized(event)}
	}
	return
}

func (h *FinalizeProposalTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *FinalizeProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
