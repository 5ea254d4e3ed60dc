package state

import (
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"

	"github.com/openfund/rfe-app/config"
	"github.com/openfund/rfe-app/types"
)

type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, params config.EngineParams, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "rfedb")
	ldb, err := dbm.NewDB("rfe", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, params, logger)
	err = st.load()
	if err != nil {
		logger.Error("from rfedb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

func (db *StateDB) GetAccountByIndex(idx uint64) (acnt *Account, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	acnt, err = db.state.GetAccount(idx)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = db.state.header.Height

	return

}

func (db *StateDB) GetAccountByAddress(addr []byte) (acnt *Account, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	acnt, err = db.state.FindAccount(addr)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = db.state.header.Height

	return
}

func (db *StateDB) GetProject(idx uint64) (prj *types.Project, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	prj, err = db.state.getProject(idx)
	if err != nil {
		return
	}
	if prj != nil {
		prj = prj.Clone()
	}
	height = db.state.header.Height

	return
}

func (db *StateDB) GetMilestone(project uint64, milestone uint64) (m *types.Milestone, balance uint64, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	m, err = db.state.getMilestone(project, milestone)
	if err != nil {
		return
	}
	if m != nil {
		m = m.Clone()
		balance, err = db.state.getEscrow(project, milestone)
		if err != nil {
			return
		}
	}
	height = db.state.header.Height

	return
}

func (db *StateDB) GetProposal(idx uint64) (p *types.Proposal, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	p, err = db.state.getProposal(idx)
	if err != nil {
		return
	}
	if p != nil {
		p = p.Clone()
	}
	height = db.state.header.Height

	return
}

func (db *StateDB) GetVote(proposal uint64, voter uint64) (v *types.VoteReceipt, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	v, err = db.state.getVote(proposal, voter)
	if err != nil {
		return
	}
	if v != nil {
		v = v.Clone()
	}
	height = db.state.header.Height

	return
}
