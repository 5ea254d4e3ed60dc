package app

import (
	"context"
	"encoding/json"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"

	"github.com/openfund/rfe-app/config"
	"github.com/openfund/rfe-app/state"
	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/tx/handler"
	"github.com/openfund/rfe-app/types"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &RFEApp{}

type RFEApp struct {
	cfg    *config.RFEAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.RFETxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewRFEApp(cfg *config.RFEAppConfig, logger cmtlog.Logger) (app *RFEApp, err error) {
	logger = logger.With("module", "app")

	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, cfg.Engine, logger)
	if err != nil {
		return nil, err
	}

	app = &RFEApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.RFETxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *RFEApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *RFEApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("RFE app stopped")
}

func (app *RFEApp) DB() *state.StateDB {
	return app.db
}

func (app *RFEApp) registerTxHandler() {
	app.txHdlrs = map[tx.RFETxType]handler.TxHandler{
		tx.RFETxTypeCreateProject:    handler.NewCreateProjectTxHandler(app.logger),
		tx.RFETxTypeAddMilestone:     handler.NewAddMilestoneTxHandler(app.logger),
		tx.RFETxTypeFundMilestone:    handler.NewFundMilestoneTxHandler(app.logger),
		tx.RFETxTypeApproveMilestone: handler.NewApproveMilestoneTxHandler(app.logger),
		tx.RFETxTypeRejectMilestone:  handler.NewRejectMilestoneTxHandler(app.logger),
		tx.RFETxTypeRefundMilestone:  handler.NewRefundMilestoneTxHandler(app.logger),
		tx.RFETxTypeCreateProposal:   handler.NewCreateProposalTxHandler(app.logger),
		tx.RFETxTypeVote:             handler.NewVoteTxHandler(app.logger),
		tx.RFETxTypeFinalizeProposal: handler.NewFinalizeProposalTxHandler(app.logger),
		tx.RFETxTypeRegisterStake:    handler.NewRegisterStakeTxHandler(app.logger),
		tx.RFETxTypeSetPaused:        handler.NewSetPausedTxHandler(app.logger),
		tx.RFETxTypeTransferAdmin:    handler.NewTransferAdminTxHandler(app.logger),
	}
}

func (app *RFEApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/validators/"] = NewValidatorQuerier(app.db, app.logger)
	app.queriers["/projects/"] = NewProjectQuerier(app.db, app.logger)
	app.queriers["/milestones/"] = NewMilestoneQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger)
}

func (app *RFEApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	for _, v := range chain.Validators {
		var acnt state.Account
		acnt.SetPubKey(v.PubKey.GetEd25519())
		acnt.Stake = uint64(v.Power) * config.StakePerPower(0)
		err = st.AddAccount(&acnt)
		if err != nil {
			app.logger.Error("InitChain add account fail", "err", err)
			return nil, err
		}
	}

	var appState types.GenesisAppState
	if len(chain.AppStateBytes) > 0 {
		if err = json.Unmarshal(chain.AppStateBytes, &appState); err != nil {
			app.logger.Error("InitChain parse app state fail", "err", err)
			return nil, err
		}
	}
	for _, gs := range appState.Stakes {
		if err = st.GrantStake(gs.PubKey, gs.Stake); err != nil {
			app.logger.Error("InitChain grant stake fail", "err", err)
			return nil, err
		}
	}
	admin := appState.Admin
	if admin == 0 {
		admin = state.StartAccountIdx
	}
	st.SetAdmin(admin)
	st.SetPauseFlag(appState.Paused)

	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *RFEApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *RFEApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *RFEApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{}, nil
}

func (app *RFEApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return nil, nil
}

func (app *RFEApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return nil, nil
}

func (app *RFEApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return nil, nil
}

func (app *RFEApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return nil, nil
}
