package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/openfund/rfe-app/state"
	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
)

type CreateProjectTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewCreateProjectTxHandler(logger cmtlog.Logger) (h *CreateProjectTxHandler) {
	logger = logger.With("module", "createProjectTx")
	h = &CreateProjectTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *CreateProjectTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.CreateProjectTx)
	_, err1 := st.CreateProject(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx CreateProjectTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *CreateProjectTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *CreateProjectTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.CreateProjectTx)
	event, err := st.CreateProject(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProjectCreated(event)}
	}
	return
}

func (h *CreateProjectTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *CreateProjectTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type AddMilestoneTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewAddMilestoneTxHandler(logger cmtlog.Logger) (h *AddMilestoneTxHandler) {
	logger = logger.With("module", "addMilestoneTx")
	h = &AddMilestoneTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *AddMilestoneTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.AddMilestoneTx)
	_, err1 := st.AddMilestone(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx AddMilestoneTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *AddMilestoneTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *AddMilestoneTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.AddMilestoneTx)
	event, err := st.AddMilestone(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventMilestoneAdded(event)}
	}
	return
}

func (h *AddMilestoneTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *AddMilestoneTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type FundMilestoneTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewFundMilestoneTxHandler(logger cmtlog.Logger) (h *FundMilestoneTxHandler) {
	logger = logger.With("module", "fundMilestoneTx")
	h = &FundMilestoneTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *FundMilestoneTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.FundMilestoneTx)
	_, err1 := st.FundMilestone(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx FundMilestoneTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *FundMilestoneTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *FundMilestoneTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.FundMilestoneTx)
	event, err := st.FundMilestone(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventEscrowMoved(types.EventMilestoneFundedType, event)}
	}
	return
}

func (h *FundMilestoneTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *FundMilestoneTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type ApproveMilestoneTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewApproveMilestoneTxHandler(logger cmtlog.Logger) (h *ApproveMilestoneTxHandler) {
	logger = logger.With("module", "approveMilestoneTx")
	h = &ApproveMilestoneTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *ApproveMilestoneTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.ApproveMilestoneTx)
	_, err1 := st.ApproveMilestone(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx ApproveMilestoneTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *ApproveMilestoneTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *ApproveMilestoneTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.ApproveMilestoneTx)
	event, err := st.ApproveMilestone(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventEscrowMoved(types.EventMilestoneApprovedType, event)}
	}
	return
}

func (h *ApproveMilestoneTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *ApproveMilestoneTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type RejectMilestoneTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewRejectMilestoneTxHandler(logger cmtlog.Logger) (h *RejectMilestoneTxHandler) {
	logger = logger.With("module", "rejectMilestoneTx")
	h = &RejectMilestoneTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *RejectMilestoneTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.RejectMilestoneTx)
	_, err1 := st.RejectMilestone(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx RejectMilestoneTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *RejectMilestoneTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *RejectMilestoneTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.RejectMilestoneTx)
	event, err := st.RejectMilestone(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventEscrowMoved(types.EventMilestoneRejectedType, event)}
	}
	return
}

func (h *RejectMilestoneTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *RejectMilestoneTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type RefundMilestoneTxHandler struct {
	logger cmtlog.Logger

	senderSet map[uint64]bool
}

func NewRefundMilestoneTxHandler(logger cmtlog.Logger) (h *RefundMilestoneTxHandler) {
	logger = logger.With("module", "refundMilestoneTx")
	h = &RefundMilestoneTxHandler{
		logger:    logger,
		senderSet: make(map[uint64]bool),
	}
	return
}

func (h *RefundMilestoneTxHandler) Check(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	wtx := btx.Tx.(*tx.RefundMilestoneTx)
	_, err1 := st.RefundMilestone(wtx, btx.Sender, true)
	if err1 != nil {
		h.logger.Info("CheckTx RefundMilestoneTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *RefundMilestoneTxHandler) NewContext(ctx context.Context) {
	h.senderSet = make(map[uint64]bool)
}

func (h *RefundMilestoneTxHandler) handle(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	wtx := btx.Tx.(*tx.RefundMilestoneTx)
	event, err := st.RefundMilestone(wtx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventEscrowMoved(types.EventMilestoneRefundedType, event)}
	}
	return
}

func (h *RefundMilestoneTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *RefundMilestoneTxHandler) Process(ctx context.Context, st *state.State, btx *tx.RFETx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
