package state

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/cometbft/cometbft/crypto/ed25519"

	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
	"github.com/syndtr/goleveldb/leveldb"
)

func (s *State) getProposal(idx uint64) (p *types.Proposal, err error) {
	p = s.proposals[idx]
	if p != nil {
		return
	}
	key := fmt.Sprintf(KeyProposalBody, idx)
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
	p = new(types.Proposal)
	err = json.Unmarshal(val, p)
	if err != nil {
		return nil, err
	}
	s.proposals[idx] = p
	return
}

func (s *State) getVote(proposal uint64, voter uint64) (v *types.VoteReceipt, err error) {
	key := fmt.Sprintf(KeyVoteReceipt, proposal, voter)
	v = s.votes[key]
	if v != nil {
		return
	}
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
	v = new(types.VoteReceipt)
	err = json.Unmarshal(val, v)
	if err != nil {
		return nil, err
	}
	s.votes[key] = v
	return
}

func (s *State) setProposal(p *types.Proposal) {
	s.proposals[p.Index] = p
	s.modProposals[p.Index] = true
}

// CreateProposal does not verify the referenced project or milestone
// exists. A proposal is an advisory poll; approval of the milestone
// itself still runs through the escrow ledger's own checks.
func (s *State) CreateProposal(wtx *tx.CreateProposalTx, sender uint64, checkOnly bool) (event *types.EventProposalCreated, err error) {
	if s.header.Paused {
		return nil, ErrPaused
	}
	if wtx.Project == 0 {
		return nil, ErrProjectIndexInvalid
	}
	if wtx.ProposalType != types.ProposalTypeMilestoneApproval &&
		wtx.ProposalType != types.ProposalTypeProjectCancellation {
		return nil, ErrProposalTypeInvalid
	}
	if wtx.ProposalType == types.ProposalTypeMilestoneApproval && wtx.Milestone == 0 {
		return nil, ErrMilestoneRequired
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}

	s.proposalMaxIndex += 1
	p := &types.Proposal{
		Index:          s.proposalMaxIndex,
		Project:        wtx.Project,
		Milestone:      wtx.Milestone,
		Type:           wtx.ProposalType,
		Creator:        acnt.Index,
		CreatorAddress: acnt.Address(),
		CreatedAt:      s.header.Height,
		Deadline:       s.header.Height + s.params.VotingPeriodBlocks,
		YesVotes:       0,
		NoVotes:        0,
		Status:         types.ProposalStatusPending,
	}
	s.setProposal(p)
	s.markAction(acnt)

	event = &types.EventProposalCreated{
		Proposal:       p.Index,
		Project:        p.Project,
		Milestone:      p.Milestone,
		ProposalType:   p.Type,
		Creator:        p.Creator,
		CreatorAddress: p.CreatorAddress,
		Deadline:       p.Deadline,
	}
	return event, nil
}

// Vote snapshots the voter's stake into the receipt and the tally.
// Stake registered after the cast never moves this proposal's numbers.
func (s *State) Vote(wtx *tx.VoteTx, sender uint64, checkOnly bool) (event *types.EventVoteCast, err error) {
	if s.header.Paused {
		return nil, ErrPaused
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	p, err := s.getProposal(wtx.Proposal)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProposalNoexists
	}
	if p.Status != types.ProposalStatusPending || s.header.Height >= p.Deadline {
		return nil, ErrVotingClosed
	}
	v, err := s.getVote(wtx.Proposal, sender)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return nil, ErrAlreadyVoted
	}
	if acnt.Stake < s.params.MinVoterStake {
		return nil, ErrInsufficientStake
	}
	tally := p.NoVotes
	if wtx.Choice {
		tally = p.YesVotes
	}
	if acnt.Stake > math.MaxUint64-tally {
		return nil, ErrTallyOverflow
	}
	if checkOnly {
		return nil, nil
	}

	p = p.Clone()
	if wtx.Choice {
		p.YesVotes += acnt.Stake
	} else {
		p.NoVotes += acnt.Stake
	}
	s.setProposal(p)

	v = &types.VoteReceipt{
		Proposal:     wtx.Proposal,
		Voter:        acnt.Index,
		VoterAddress: acnt.Address(),
		Choice:       wtx.Choice,
		Stake:        acnt.Stake,
		Height:       s.header.Height,
	}
	key := fmt.Sprintf(KeyVoteReceipt, wtx.Proposal, sender)
	s.votes[key] = v
	s.newVotes[key] = true
	s.markAction(acnt)

	event = &types.EventVoteCast{
		Proposal:     v.Proposal,
		Voter:        v.Voter,
		VoterAddress: v.VoterAddress,
		Choice:       v.Choice,
		Stake:        v.Stake,
	}
	return event, nil
}

// FinalizeProposal closes a poll once its deadline height is reached.
// A tie rejects; approval needs yes strictly above no.
func (s *State) FinalizeProposal(wtx *tx.FinalizeProposalTx, sender uint64, checkOnly bool) (event *types.EventProposalFinalized, err error) {
	if !s.isAdmin(sender) {
		return nil, ErrUnauthorized
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	p, err := s.getProposal(wtx.Proposal)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProposalNoexists
	}
	if s.header.Height < p.Deadline {
		return nil, ErrVotingOpen
	}
	if p.Status != types.ProposalStatusPending {
		return nil, ErrProposalNotPending
	}
	if checkOnly {
		return nil, nil
	}

	p = p.Clone()
	if p.YesVotes > p.NoVotes {
		p.Status = types.ProposalStatusApproved
	} else {
		p.Status = types.ProposalStatusRejected
	}
	s.setProposal(p)
	s.markAction(acnt)

	event = &types.EventProposalFinalized{
		Proposal:  p.Index,
		Status:    p.Status,
		YesVotes:  p.YesVotes,
		NoVotes:   p.NoVotes,
		Finalizer: acnt.Index,
	}
	return event, nil
}

// RegisterStake accumulates voting stake; there is no withdrawal. A
// register carrying a pubkey from the zero sender enrolls a fresh
// account whose initial stake is the registered amount.
func (s *State) RegisterStake(wtx *tx.RegisterStakeTx, sender uint64, checkOnly bool) (event *types.EventStakeRegistered, err error) {
	if s.header.Paused {
		return nil, ErrPaused
	}
	if wtx.Amount == 0 {
		return nil, ErrAmountInvalid
	}
	if sender == 0 {
		if len(wtx.PubKey) == 0 {
			return nil, ErrTxSenderNoexists
		}
		exist, err := s.existPubkey(wtx.PubKey)
		if err != nil {
			return nil, err
		}
		if exist {
			return nil, ErrAccountAlreadyExists
		}
		if checkOnly {
			return nil, nil
		}

		acnt := &Account{Stake: wtx.Amount}
		acnt.SetPubKey(wtx.PubKey)
		err = s.AddAccount(acnt)
		if err != nil {
			return nil, err
		}
		na := s.acnts[acnt.Index]
		s.markAction(na)

		event = &types.EventStakeRegistered{
			Voter:        acnt.Index,
			VoterAddress: acnt.Address(),
			Amount:       wtx.Amount,
			Total:        wtx.Amount,
		}
		return event, nil
	}

	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if wtx.Amount > math.MaxUint64-acnt.Stake {
		return nil, ErrAmountOverflow
	}
	if checkOnly {
		return nil, nil
	}

	acnt = acnt.Clone()
	acnt.Stake += wtx.Amount
	s.markAction(acnt)

	event = &types.EventStakeRegistered{
		Voter:        acnt.Index,
		VoterAddress: acnt.Address(),
		Amount:       wtx.Amount,
		Total:        acnt.Stake,
	}
	return event, nil
}

// GrantStake credits stake outside the signed tx path. Only used
// while seeding genesis state, so no nonce is consumed.
func (s *State) GrantStake(pubkey []byte, amount uint64) (err error) {
	addr := ed25519.PubKey(pubkey).Address()
	acnt, err := s.FindAccount(addr[:])
	if err != nil {
		return err
	}
	if acnt == nil {
		acnt = &Account{Stake: amount}
		acnt.SetPubKey(pubkey)
		return s.AddAccount(acnt)
	}
	if amount > math.MaxUint64-acnt.Stake {
		return ErrAmountOverflow
	}
	acnt.Stake += amount
	s.modifiedAcnts[acnt.Index] |= ModifiedFlagMod
	return nil
}

// GetStake is a pure read, zero for unknown voters.
func (s *State) GetStake(voter uint64) uint64 {
	acnt, err := s.GetAccount(voter)
	if err != nil || acnt == nil {
		return 0
	}
	return acnt.Stake
}

func (s *State) SetPaused(wtx *tx.SetPausedTx, sender uint64, checkOnly bool) (event *types.EventPauseSet, err error) {
	if !s.isAdmin(sender) {
		return nil, ErrUnauthorized
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}

	s.header.Paused = wtx.Paused
	s.markAction(acnt)

	event = &types.EventPauseSet{
		Paused: wtx.Paused,
		Admin:  acnt.Index,
	}
	return event, nil
}

// TransferAdmin hands the gate to an existing account. The zero index
// is the burn identity and can never hold it.
func (s *State) TransferAdmin(wtx *tx.TransferAdminTx, sender uint64, checkOnly bool) (event *types.EventAdminTransferred, err error) {
	if !s.isAdmin(sender) {
		return nil, ErrUnauthorized
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if wtx.NewAdmin == 0 {
		return nil, ErrBurnAdmin
	}
	target, err := s.GetAccount(wtx.NewAdmin)
	if err != nil {
		if err == ErrNotFound || err == ErrAccountNoexists {
			return nil, ErrAccountNoexists
		}
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}

	from := s.header.Admin
	s.header.Admin = wtx.NewAdmin
	s.markAction(acnt)

	event = &types.EventAdminTransferred{
		From:      from,
		To:        target.Index,
		ToAddress: target.Address(),
	}
	return event, nil
}
