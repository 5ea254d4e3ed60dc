package state

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
	"github.com/syndtr/goleveldb/leveldb"
)

func (s *State) getProject(idx uint64) (prj *types.Project, err error) {
	prj = s.projects[idx]
	if prj != nil {
		return
	}
	key := fmt.Sprintf(KeyProjectBody, idx)
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
	prj = new(types.Project)
	err = json.Unmarshal(val, prj)
	if err != nil {
		return nil, err
	}
	s.projects[idx] = prj
	return
}

func (s *State) getMilestone(project uint64, milestone uint64) (m *types.Milestone, err error) {
	key := fmt.Sprintf(KeyMilestoneBody, project, milestone)
	m = s.milestones[key]
	if m != nil {
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
	m = new(types.Milestone)
	err = json.Unmarshal(val, m)
	if err != nil {
		return nil, err
	}
	s.milestones[key] = m
	return
}

// getEscrow reads the balance held for one milestone, zero when no
// entry exists. A balance deleted earlier in the block stays zero even
// though the tree still holds the old entry.
func (s *State) getEscrow(project uint64, milestone uint64) (amount uint64, err error) {
	key := fmt.Sprintf(KeyEscrowBalance, project, milestone)
	if s.delEscrows[key] {
		return 0, nil
	}
	if _, ok := s.escrows[key]; ok {
		return s.escrows[key], nil
	}
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	if val == nil {
		return 0, nil
	}
	amount = new(big.Int).SetBytes(val).Uint64()
	s.escrows[key] = amount
	return
}

func (s *State) setEscrow(project uint64, milestone uint64, amount uint64) {
	key := fmt.Sprintf(KeyEscrowBalance, project, milestone)
	s.escrows[key] = amount
	s.modEscrows[key] = true
	delete(s.delEscrows, key)
}

func (s *State) clearEscrow(project uint64, milestone uint64) {
	key := fmt.Sprintf(KeyEscrowBalance, project, milestone)
	delete(s.escrows, key)
	delete(s.modEscrows, key)
	s.delEscrows[key] = true
}

func (s *State) setMilestone(m *types.Milestone) {
	key := fmt.Sprintf(KeyMilestoneBody, m.Project, m.Index)
	s.milestones[key] = m
	s.modMilestones[key] = true
}

func (s *State) setProject(prj *types.Project) {
	s.projects[prj.Index] = prj
	s.modProjects[prj.Index] = true
}

func (s *State) CreateProject(wtx *tx.CreateProjectTx, sender uint64, checkOnly bool) (event *types.EventProjectCreated, err error) {
	if s.header.Paused {
		return nil, ErrPaused
	}
	if wtx.Project == 0 {
		return nil, ErrProjectIndexInvalid
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	prj, err := s.getProject(wtx.Project)
	if err != nil {
		return nil, err
	}
	if prj != nil {
		return nil, ErrProjectAlreadyExists
	}
	if checkOnly {
		return nil, nil
	}

	prj = &types.Project{
		Index:          wtx.Project,
		Creator:        acnt.Index,
		CreatorAddress: acnt.Address(),
		TotalEscrowed:  0,
		Height:         s.header.Height,
	}
	s.setProject(prj)
	s.markAction(acnt)

	event = &types.EventProjectCreated{
		Project:        prj.Index,
		Creator:        prj.Creator,
		CreatorAddress: prj.CreatorAddress,
	}
	return event, nil
}

func (s *State) AddMilestone(wtx *tx.AddMilestoneTx, sender uint64, checkOnly bool) (event *types.EventMilestoneAdded, err error) {
	if s.header.Paused {
		return nil, ErrPaused
	}
	if wtx.Milestone == 0 {
		return nil, ErrMilestoneIndexInvalid
	}
	if wtx.Amount == 0 {
		return nil, ErrAmountInvalid
	}
	if len(wtx.Description) == 0 || len(wtx.Description) > types.MaxDescriptionLen {
		return nil, ErrDescriptionInvalid
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	prj, err := s.getProject(wtx.Project)
	if err != nil {
		return nil, err
	}
	if prj == nil {
		return nil, ErrProjectNoexists
	}
	m, err := s.getMilestone(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return nil, ErrMilestoneAlreadyExists
	}
	if checkOnly {
		return nil, nil
	}

	m = &types.Milestone{
		Project:     wtx.Project,
		Index:       wtx.Milestone,
		Amount:      wtx.Amount,
		Description: wtx.Description,
		Status:      types.MilestoneStatusPending,
		SubmittedAt: s.header.Height,
	}
	s.setMilestone(m)
	s.markAction(acnt)

	event = &types.EventMilestoneAdded{
		Project:     m.Project,
		Milestone:   m.Index,
		Amount:      m.Amount,
		Description: m.Description,
	}
	return event, nil
}

// FundMilestone moves the depositor's value into custody. Partial
// funding is allowed and there is no cap against the milestone amount,
// so a balance can exceed it.
func (s *State) FundMilestone(wtx *tx.FundMilestoneTx, sender uint64, checkOnly bool) (event *types.EventEscrowMoved, err error) {
	if s.header.Paused {
		return nil, ErrPaused
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	prj, err := s.getProject(wtx.Project)
	if err != nil {
		return nil, err
	}
	if prj == nil {
		return nil, ErrProjectNoexists
	}
	m, err := s.getMilestone(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMilestoneNoexists
	}
	if m.Status != types.MilestoneStatusPending {
		return nil, ErrMilestoneNotPending
	}
	balance, err := s.getEscrow(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if wtx.Amount > math.MaxUint64-balance {
		return nil, ErrAmountOverflow
	}
	if wtx.Amount > math.MaxUint64-prj.TotalEscrowed {
		return nil, ErrAmountOverflow
	}
	if checkOnly {
		return nil, nil
	}

	balance += wtx.Amount
	s.setEscrow(wtx.Project, wtx.Milestone, balance)
	prj = prj.Clone()
	prj.TotalEscrowed += wtx.Amount
	s.setProject(prj)
	s.markAction(acnt)

	event = &types.EventEscrowMoved{
		Project:       wtx.Project,
		Milestone:     wtx.Milestone,
		Amount:        wtx.Amount,
		Actor:         acnt.Index,
		ActorAddress:  acnt.Address(),
		Balance:       balance,
		TotalEscrowed: prj.TotalEscrowed,
	}
	return event, nil
}

// ApproveMilestone releases the whole held balance to the project
// creator, not just milestone.Amount. Overfunded remainder has no
// other exit once the milestone goes terminal, and paying out the
// full balance keeps total_escrowed equal to the sum of balances.
func (s *State) ApproveMilestone(wtx *tx.ApproveMilestoneTx, sender uint64, checkOnly bool) (event *types.EventEscrowMoved, err error) {
	if !s.isAdmin(sender) {
		return nil, ErrUnauthorized
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	prj, err := s.getProject(wtx.Project)
	if err != nil {
		return nil, err
	}
	if prj == nil {
		return nil, ErrProjectNoexists
	}
	m, err := s.getMilestone(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMilestoneNoexists
	}
	if m.Status != types.MilestoneStatusPending {
		return nil, ErrMilestoneNotPending
	}
	balance, err := s.getEscrow(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if balance < m.Amount {
		return nil, ErrInsufficientEscrow
	}
	if checkOnly {
		return nil, nil
	}

	m = m.Clone()
	m.Status = types.MilestoneStatusApproved
	m.Approver = acnt.Index
	m.ApproverAddress = acnt.Address()
	s.setMilestone(m)

	prj = prj.Clone()
	prj.TotalEscrowed -= balance
	s.setProject(prj)
	s.clearEscrow(wtx.Project, wtx.Milestone)
	s.markAction(acnt)

	event = &types.EventEscrowMoved{
		Project:       wtx.Project,
		Milestone:     wtx.Milestone,
		Amount:        balance,
		Actor:         acnt.Index,
		ActorAddress:  acnt.Address(),
		Balance:       0,
		TotalEscrowed: prj.TotalEscrowed,
	}
	return event, nil
}

func (s *State) RejectMilestone(wtx *tx.RejectMilestoneTx, sender uint64, checkOnly bool) (event *types.EventEscrowMoved, err error) {
	if !s.isAdmin(sender) {
		return nil, ErrUnauthorized
	}
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	prj, err := s.getProject(wtx.Project)
	if err != nil {
		return nil, err
	}
	if prj == nil {
		return nil, ErrProjectNoexists
	}
	m, err := s.getMilestone(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMilestoneNoexists
	}
	if m.Status != types.MilestoneStatusPending {
		return nil, ErrMilestoneNotPending
	}
	balance, err := s.getEscrow(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}

	m = m.Clone()
	m.Status = types.MilestoneStatusRejected
	m.Approver = acnt.Index
	m.ApproverAddress = acnt.Address()
	s.setMilestone(m)
	s.markAction(acnt)

	// funds stay in custody pending refund
	event = &types.EventEscrowMoved{
		Project:       wtx.Project,
		Milestone:     wtx.Milestone,
		Amount:        0,
		Actor:         acnt.Index,
		ActorAddress:  acnt.Address(),
		Balance:       balance,
		TotalEscrowed: prj.TotalEscrowed,
	}
	return event, nil
}

// RefundMilestone pays the entire remaining balance to whichever
// account calls it. The ledger keeps no per-depositor shares, so a
// claimant may collect funds it never deposited. Refund stays open
// while the engine is paused.
func (s *State) RefundMilestone(wtx *tx.RefundMilestoneTx, sender uint64, checkOnly bool) (event *types.EventEscrowMoved, err error) {
	acnt, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	prj, err := s.getProject(wtx.Project)
	if err != nil {
		return nil, err
	}
	if prj == nil {
		return nil, ErrProjectNoexists
	}
	m, err := s.getMilestone(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMilestoneNoexists
	}
	if m.Status != types.MilestoneStatusRejected {
		return nil, ErrMilestoneNotRejected
	}
	balance, err := s.getEscrow(wtx.Project, wtx.Milestone)
	if err != nil {
		return nil, err
	}
	if balance == 0 {
		return nil, ErrInsufficientEscrow
	}
	if checkOnly {
		return nil, nil
	}

	prj = prj.Clone()
	prj.TotalEscrowed -= balance
	s.setProject(prj)
	s.clearEscrow(wtx.Project, wtx.Milestone)
	s.markAction(acnt)

	event = &types.EventEscrowMoved{
		Project:       wtx.Project,
		Milestone:     wtx.Milestone,
		Amount:        balance,
		Actor:         acnt.Index,
		ActorAddress:  acnt.Address(),
		Balance:       0,
		TotalEscrowed: prj.TotalEscrowed,
	}
	return event, nil
}
