package app

import (
	"context"
	"encoding/json"
	"strings"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/openfund/rfe-app/state"
	"github.com/openfund/rfe-app/types"
)

func (app *RFEApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

func bytesToIndex(dat []byte) (idx uint64) {
	for _, v := range dat {
		idx <<= 8
		idx |= uint64(v)
	}
	return
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == 20 {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if len(req.Data) <= 8 {
		a, height, _ = q.db.GetAccountByIndex(bytesToIndex(req.Data))
	}
	if a != nil {
		res.Value, _ = a.Marshal()
		res.Height = int64(height)
	} else {
		res.Code = 1
	}
	return
}

type ValidatorQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewValidatorQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ValidatorQuerier) {
	q = &ValidatorQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ValidatorQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	validators, height, err := q.db.State().ValidatorAccounts()
	if err != nil {
		res.Code = 1
		return
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(validators)
	return
}

type ProjectQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProjectQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProjectQuerier) {
	q = &ProjectQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ProjectQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) > 8 {
		res.Code = 1
		return
	}
	prj, height, _ := q.db.GetProject(bytesToIndex(req.Data))
	if prj == nil {
		res.Code = 1
		return
	}
	res.Value, _ = json.Marshal(prj)
	res.Height = int64(height)
	return
}

type milestoneQuery struct {
	Project   uint64 `json:"project"`
	Milestone uint64 `json:"milestone"`
}

type milestoneView struct {
	Milestone *types.Milestone `json:"milestone"`
	Balance   uint64           `json:"balance"`
}

type MilestoneQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewMilestoneQuerier(db *state.StateDB, logger cmtlog.Logger) (q *MilestoneQuerier) {
	q = &MilestoneQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *MilestoneQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var mq milestoneQuery
	if err := json.Unmarshal(req.Data, &mq); err != nil {
		res.Code = 1
		res.Log = err.Error()
		return res, nil
	}
	m, balance, height, _ := q.db.GetMilestone(mq.Project, mq.Milestone)
	if m == nil {
		res.Code = 1
		return
	}
	res.Value, _ = json.Marshal(milestoneView{Milestone: m, Balance: balance})
	res.Height = int64(height)
	return
}

type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) > 8 {
		res.Code = 1
		return
	}
	p, height, _ := q.db.GetProposal(bytesToIndex(req.Data))
	if p == nil {
		res.Code = 1
		return
	}
	res.Value, _ = json.Marshal(p)
	res.Height = int64(height)
	return
}
