package state

import (
	"bytes"
	"container/heap"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/openfund/rfe-app/config"
	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
	abci_types "github.com/cometbft/cometbft/abci/types"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	StartAccountIdx = 65536

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
	ModifiedFlagPK  = 1 << 2

	MaxValidators = 100
)

var (
	ErrNotFound = errors.New("not found")
)

var (
	KeyState         = "s"
	KeyAccountIndex  = "i%s"
	KeyAccountBody   = "a%v"
	KeyProjectBody   = "prj%v"
	KeyMilestoneBody = "m%v/%v"
	KeyEscrowBalance = "e%v/%v"
	KeyProposalBody  = "p%v"
	KeyProposalIndex = "pi"
	KeyVoteReceipt   = "v%v/%v"
)

var (
	ErrTxSenderNoexists     = errors.New("sender noexists")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNoexists      = errors.New("account noexists")
	ErrOneActionInOneBlock  = errors.New("one action in one block")

	ErrUnauthorized = errors.New("caller is not admin")
	ErrPaused       = errors.New("engine paused")

	ErrProjectIndexInvalid    = errors.New("project index invalid")
	ErrProjectAlreadyExists   = errors.New("project already exists")
	ErrProjectNoexists        = errors.New("project noexists")
	ErrMilestoneIndexInvalid  = errors.New("milestone index invalid")
	ErrMilestoneAlreadyExists = errors.New("milestone already exists")
	ErrMilestoneNoexists      = errors.New("milestone noexists")
	ErrAmountInvalid          = errors.New("amount invalid")
	ErrDescriptionInvalid     = errors.New("description invalid")
	ErrMilestoneNotPending    = errors.New("milestone not pending")
	ErrMilestoneNotRejected   = errors.New("milestone not rejected")
	ErrInsufficientEscrow     = errors.New("insufficient escrow")
	ErrAmountOverflow         = errors.New("amount overflow")

	ErrProposalTypeInvalid = errors.New("proposal type invalid")
	ErrMilestoneRequired   = errors.New("milestone required")
	ErrProposalNoexists    = errors.New("proposal noexists")
	ErrVotingClosed        = errors.New("voting closed")
	ErrVotingOpen          = errors.New("voting still open")
	ErrAlreadyVoted        = errors.New("already voted")
	ErrInsufficientStake   = errors.New("insufficient stake")
	ErrProposalNotPending  = errors.New("proposal not pending")
	ErrTallyOverflow       = errors.New("tally overflow")

	ErrBurnAdmin = errors.New("admin cannot be burn identity")
)

type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64
	params config.EngineParams

	header     *StateHeader
	validators []abci_types.ValidatorUpdate
	idxs       map[string]uint64
	acnts      map[uint64]*Account

	modifiedAcnts map[uint64]uint32

	projects      map[uint64]*types.Project
	modProjects   map[uint64]bool
	milestones    map[string]*types.Milestone
	modMilestones map[string]bool
	escrows       map[string]uint64
	modEscrows    map[string]bool
	delEscrows    map[string]bool

	proposalMaxIndex uint64
	proposals        map[uint64]*types.Proposal
	modProposals     map[uint64]bool
	votes            map[string]*types.VoteReceipt
	newVotes         map[string]bool
}

func newState(db *iavl.MutableTree, params config.EngineParams, logger cmtlog.Logger) *State {
	s := &State{
		logger:           logger,
		db:               db,
		dbVer:            0,
		params:           params,
		header:           new(StateHeader),
		validators:       []abci_types.ValidatorUpdate{},
		idxs:             make(map[string]uint64),
		acnts:            make(map[uint64]*Account),
		modifiedAcnts:    make(map[uint64]uint32),
		projects:         make(map[uint64]*types.Project),
		modProjects:      make(map[uint64]bool),
		milestones:       make(map[string]*types.Milestone),
		modMilestones:    make(map[string]bool),
		escrows:          make(map[string]uint64),
		modEscrows:       make(map[string]bool),
		delEscrows:       make(map[string]bool),
		proposalMaxIndex: 0,
		proposals:        make(map[uint64]*types.Proposal),
		modProposals:     make(map[uint64]bool),
		votes:            make(map[string]*types.VoteReceipt),
		newVotes:         make(map[string]bool),
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) nextState() *State {
	n := newState(s.db, s.params, s.logger)
	n.dbVer = s.dbVer
	n.proposalMaxIndex = s.proposalMaxIndex
	n.header = s.header.Clone()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

func cloneEntityMap[K comparable, V interface{ Clone() V }](source map[K]V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		res[k] = v.Clone()
	}
	return res
}

func clonePlainMap[K comparable, V any](source map[K]V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		res[k] = v
	}
	return res
}

// Clone produces an isolated copy for speculative tx application
// during PrepareProposal; a clone that fails mid-tx is simply dropped.
func (s *State) Clone() *State {
	n := &State{
		logger:           s.logger,
		db:               s.db,
		dbVer:            s.dbVer,
		params:           s.params,
		header:           s.header.Clone(),
		validators:       append([]abci_types.ValidatorUpdate{}, s.validators...),
		idxs:             clonePlainMap(s.idxs),
		acnts:            cloneEntityMap(s.acnts),
		modifiedAcnts:    clonePlainMap(s.modifiedAcnts),
		projects:         cloneEntityMap(s.projects),
		modProjects:      clonePlainMap(s.modProjects),
		milestones:       cloneEntityMap(s.milestones),
		modMilestones:    clonePlainMap(s.modMilestones),
		escrows:          clonePlainMap(s.escrows),
		modEscrows:       clonePlainMap(s.modEscrows),
		delEscrows:       clonePlainMap(s.delEscrows),
		proposalMaxIndex: s.proposalMaxIndex,
		proposals:        cloneEntityMap(s.proposals),
		modProposals:     clonePlainMap(s.modProposals),
		votes:            cloneEntityMap(s.votes),
		newVotes:         clonePlainMap(s.newVotes),
	}
	return n
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyProposalIndex))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.proposalMaxIndex = new(big.Int).SetBytes(val).Uint64()
	val, err = s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val != nil {
		err = json.Unmarshal(val, s.header)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		if s.header.RootHash == nil {
			s.header.RootHash = make([]byte, len(rootHash))
		}
		copy(s.header.RootHash, rootHash)
		if s.header.Hash == nil {
			s.header.Hash = make([]byte, len(h))
		}
		copy(s.header.Hash, h[:])
	}
	return
}

// Update flushes every dirty entity into the working tree and derives
// the new app hash. Any write error rolls the tree back, so a failed
// block leaves no partial state behind.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = json.Marshal(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	if len(s.modProposals) != 0 {
		_, err = s.db.Set([]byte(KeyProposalIndex), new(big.Int).SetUint64(s.proposalMaxIndex).Bytes())
		if err != nil {
			return
		}
		idxs := sortedKeys(s.modProposals)
		for _, idx := range idxs {
			p := s.proposals[idx]
			key := fmt.Sprintf(KeyProposalBody, idx)
			dat, _ := json.Marshal(p)
			_, err = s.db.Set([]byte(key), dat)
			if err != nil {
				return
			}
		}
	}

	for _, idx := range sortedKeys(s.modProjects) {
		p := s.projects[idx]
		key := fmt.Sprintf(KeyProjectBody, idx)
		dat, _ := json.Marshal(p)
		_, err = s.db.Set([]byte(key), dat)
		if err != nil {
			return
		}
	}

	for _, key := range sortedStringKeys(s.modMilestones) {
		m := s.milestones[key]
		dat, _ := json.Marshal(m)
		_, err = s.db.Set([]byte(key), dat)
		if err != nil {
			return
		}
	}

	for _, key := range sortedStringKeys(s.modEscrows) {
		amount := s.escrows[key]
		_, err = s.db.Set([]byte(key), new(big.Int).SetUint64(amount).Bytes())
		if err != nil {
			return
		}
	}
	for _, key := range sortedStringKeys(s.delEscrows) {
		_, _, err = s.db.Remove([]byte(key))
		if err != nil {
			return
		}
	}

	for _, key := range sortedStringKeys(s.newVotes) {
		v := s.votes[key]
		dat, _ := json.Marshal(v)
		_, err = s.db.Set([]byte(key), dat)
		if err != nil {
			return
		}
	}

	n := len(s.modifiedAcnts)
	if n > 0 {
		idxs := make([]uint64, n)
		i := 0
		for idx := range s.modifiedAcnts {
			idxs[i] = idx
			i += 1
		}
		sort.Slice(idxs, func(i, j int) bool {
			return idxs[i] < idxs[j]
		})
		for _, idx := range idxs {
			flag := s.modifiedAcnts[idx]
			acnt := s.acnts[idx]
			key := fmt.Sprintf(KeyAccountBody, acnt.Index)
			val, err = acnt.Marshal()
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
			if (flag&ModifiedFlagNew == ModifiedFlagNew) || (flag&ModifiedFlagPK == ModifiedFlagPK) {
				key = fmt.Sprintf(KeyAccountIndex, acnt.Address())
				val, err = rlp.EncodeToBytes(acnt.Index)
				if err != nil {
					return
				}
				_, err = s.db.Set([]byte(key), val)
				if err != nil {
					return
				}
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[uint64]uint32)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func sortedKeys(m map[uint64]bool) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedStringKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx >= s.header.AccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	key := fmt.Sprintf(KeyAccountBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt = new(Account)
	err = acnt.Unmarshal(val)
	if err != nil {
		acnt = nil
		return
	}
	s.acnts[idx] = acnt
	return
}

func (s *State) existPubkey(pubkey []byte) (bool, error) {
	addr := ed25519.PubKey(pubkey).Address()[:]
	saddr := cmtcrypto.Address(addr).String()
	// exist in cache
	if _, ok := s.idxs[saddr]; ok {
		return true, nil
	}
	// exist in db
	key := fmt.Sprintf(KeyAccountIndex, saddr)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return false, err
		}
	}
	if val != nil {
		return true, nil
	}
	// exist in modify
	for _, acc := range s.acnts {
		if bytes.Equal(acc.AddrBytes(), addr) {
			return true, nil
		}
	}
	return false, nil
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	idx, ok := s.idxs[saddr]
	if !ok {
		key := fmt.Sprintf(KeyAccountIndex, saddr)
		val, err := s.db.Get([]byte(key))
		if err != nil {
			if err == leveldb.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	acnt, err = s.GetAccount(idx)

	return
}

func (s *State) AddAccount(acnt *Account) (err error) {
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		err = ErrAccountAlreadyExists
		return
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.acnts[acnt.Index] = acnt.Clone()
	s.modifiedAcnts[acnt.Index] = ModifiedFlagNew
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) SetAdmin(admin uint64) {
	s.header.Admin = admin
}

func (s *State) SetPauseFlag(paused bool) {
	s.header.Paused = paused
}

func (s *State) isAdmin(idx uint64) bool {
	return s.header.Admin != 0 && s.header.Admin == idx
}

// markAction bumps the sender's nonce and flags the account dirty;
// every successful mutation routes through it.
func (s *State) markAction(a *Account) {
	a.Nonce += 1
	v := s.modifiedAcnts[a.Index]
	v |= ModifiedFlagMod
	s.modifiedAcnts[a.Index] = v
	s.acnts[a.Index] = a.Clone()
}

func (s *State) Verify(btx *tx.RFETx, allowNonceGap bool) (succ bool, err error) {
	if btx.Sender == 0 {
		// enrollment: a register_stake from an unknown identity carries
		// its own pubkey and must start at nonce zero
		rtx, ok := btx.Tx.(*tx.RegisterStakeTx)
		if !ok || len(rtx.PubKey) == 0 {
			err = ErrTxSenderNoexists
			return
		}
		if btx.Nonce != 0 {
			err = ErrTxNonceInvalid
			return
		}
		dat, err1 := btx.SigData([]byte(s.header.ChainId))
		if err1 != nil {
			return succ, err1
		}
		if len(btx.Sig) != 1 {
			err = ErrTxSigInvalid
			return
		}
		succ = ed25519.PubKey(rtx.PubKey).VerifySignature(dat, btx.Sig[0])
		if !succ {
			err = ErrTxSigInvalid
		}
		return
	}
	a, err := s.GetAccount(btx.Sender)
	if err != nil {
		return succ, err
	}
	if a == nil {
		err = ErrTxSenderNoexists
		return
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

func (s *State) Validators() (updateVals map[string]abci_types.ValidatorUpdate, err error) {
	updateVals = make(map[string]abci_types.ValidatorUpdate, 0)
	start := []byte(fmt.Sprintf(KeyAccountBody, ""))
	end := PrefixEndBytes(start)
	aIterator, err := s.db.Iterator(start, end, false)
	if err != nil {
		return nil, err
	}
	defer aIterator.Close()

	valsQueue := &PowerQueue{}
	heap.Init(valsQueue)
	for ; aIterator.Valid(); aIterator.Next() {
		var act Account
		valBytes := aIterator.Value()
		err = act.Unmarshal(valBytes)
		if err != nil {
			return nil, err
		}
		power := config.PowerPerStake(act.Stake, s.header.Height)
		if power > 0 {
			heap.Push(valsQueue, validatorWithPower{
				Index:  act.Index,
				Pubkey: act.PubKey,
				Power:  power,
			})
		}
	}

	vals := make([]abci_types.ValidatorUpdate, 0)
	for valsQueue.Len() > 0 && len(vals) < MaxValidators {
		val := heap.Pop(valsQueue).(validatorWithPower)
		vals = append(vals, abci_types.Ed25519ValidatorUpdate(val.Pubkey, val.Power))
	}
	s.validators = vals

	for _, val := range vals {
		updateVals[val.PubKey.String()] = val
	}

	return updateVals, nil
}

// ValidatorAccounts lists the accounts whose stake maps to non-zero
// validator power, for the query surface.
func (s *State) ValidatorAccounts() (vals []*Account, height uint64, err error) {
	start := []byte(fmt.Sprintf(KeyAccountBody, ""))
	end := PrefixEndBytes(start)
	aIterator, err := s.db.Iterator(start, end, false)
	if err != nil {
		return nil, 0, err
	}
	defer aIterator.Close()
	for ; aIterator.Valid(); aIterator.Next() {
		var act Account
		if err = act.Unmarshal(aIterator.Value()); err != nil {
			return nil, 0, err
		}
		if config.PowerPerStake(act.Stake, s.header.Height) > 0 {
			vals = append(vals, act.Clone())
		}
	}
	return vals, s.header.Height, nil
}

func (s *State) ValidatorsUpdate(curVals map[string]abci_types.ValidatorUpdate) (updateVals []abci_types.ValidatorUpdate, err error) {
	nextVals, err := s.Validators()
	if err != nil {
		return nil, err
	}

	for key, val := range nextVals {
		if v, ok := curVals[key]; ok {
			if v.Power != val.Power {
				updateVals = append(updateVals, val)
			}
		} else {
			updateVals = append(updateVals, val)
		}
	}

	for key, curVal := range curVals {
		if _, ok := nextVals[key]; !ok {
			curVal.Power = 0
			updateVals = append(updateVals, curVal)
		}
	}
	return
}

type validatorWithPower struct {
	Index  uint64
	Pubkey []byte
	Power  int64
}

type PowerQueue []validatorWithPower

func (pq PowerQueue) Len() int { return len(pq) }

func (pq PowerQueue) Less(i, j int) bool {
	if pq[i].Power == pq[j].Power {
		return pq[i].Index < pq[j].Index
	}
	return pq[i].Power > pq[j].Power
}

func (pq PowerQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *PowerQueue) Push(x any) {
	item := x.(validatorWithPower)
	*pq = append(*pq, item)
}

func (pq *PowerQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
