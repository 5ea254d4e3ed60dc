package state

import (
	"math"
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/stretchr/testify/require"

	"github.com/openfund/rfe-app/config"
	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
)

func newTestState(t *testing.T) *State {
	tdb := iavl.NewMutableTree(dbm.NewMemDB(), 128, true, Cometbft2CosmosLogger(cmtlog.NewNopLogger()))
	_, err := tdb.Load()
	require.NoError(t, err)
	st := newState(tdb, config.EngineParams{VotingPeriodBlocks: 10, MinVoterStake: 1000}, cmtlog.NewNopLogger())
	require.NoError(t, st.load())
	st.header.ChainId = "rfe-test"
	st.header.Height = 1
	return st
}

func addVoter(t *testing.T, st *State, stake uint64) *Account {
	acnt := &Account{Stake: stake}
	acnt.SetPubKey(ed25519.GenPrivKey().PubKey().Bytes())
	require.NoError(t, st.AddAccount(acnt))
	return st.acnts[acnt.Index]
}

func setupMilestone(t *testing.T, st *State, creator uint64, amount uint64) {
	_, err := st.CreateProject(&tx.CreateProjectTx{Project: 1}, creator, false)
	require.NoError(t, err)
	_, err = st.AddMilestone(&tx.AddMilestoneTx{
		Project: 1, Milestone: 1, Amount: amount, Description: "deliver phase one",
	}, creator, false)
	require.NoError(t, err)
}

func TestMilestoneApproveReleasesEscrow(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	creator := addVoter(t, st, 0)
	funder := addVoter(t, st, 0)

	setupMilestone(t, st, creator.Index, 1000)
	event, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 1000}, funder.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), event.Balance)
	require.Equal(t, uint64(1000), event.TotalEscrowed)

	moved, err := st.ApproveMilestone(&tx.ApproveMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), moved.Amount)
	require.Equal(t, uint64(0), moved.Balance)
	require.Equal(t, uint64(0), moved.TotalEscrowed)

	m, err := st.getMilestone(1, 1)
	require.NoError(t, err)
	require.Equal(t, types.MilestoneStatusApproved, m.Status)
	require.Equal(t, admin.Index, m.Approver)
	balance, err := st.getEscrow(1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), balance)
}

func TestApproveUnderfundedFails(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	creator := addVoter(t, st, 0)

	setupMilestone(t, st, creator.Index, 1000)
	_, err := st.ApproveMilestone(&tx.ApproveMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.ErrorIs(t, err, ErrInsufficientEscrow)

	_, err = st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 999}, creator.Index, false)
	require.NoError(t, err)
	_, err = st.ApproveMilestone(&tx.ApproveMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.ErrorIs(t, err, ErrInsufficientEscrow)
}

func TestApproveOverfundedReleasesFullBalance(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	creator := addVoter(t, st, 0)
	funder := addVoter(t, st, 0)

	setupMilestone(t, st, creator.Index, 1000)
	_, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 600}, funder.Index, false)
	require.NoError(t, err)
	event, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 600}, funder.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1200), event.Balance)

	moved, err := st.ApproveMilestone(&tx.ApproveMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1200), moved.Amount)
	prj, err := st.getProject(1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), prj.TotalEscrowed)
}

func TestApproveRequiresAdmin(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	creator := addVoter(t, st, 0)

	setupMilestone(t, st, creator.Index, 1000)
	_, err := st.ApproveMilestone(&tx.ApproveMilestoneTx{Project: 1, Milestone: 1}, creator.Index, false)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = st.RejectMilestone(&tx.RejectMilestoneTx{Project: 1, Milestone: 1}, creator.Index, false)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestMilestoneStatusIsTerminal(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	creator := addVoter(t, st, 0)

	setupMilestone(t, st, creator.Index, 1000)
	_, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 1000}, creator.Index, false)
	require.NoError(t, err)
	_, err = st.ApproveMilestone(&tx.ApproveMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.NoError(t, err)

	_, err = st.ApproveMilestone(&tx.ApproveMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.ErrorIs(t, err, ErrMilestoneNotPending)
	_, err = st.RejectMilestone(&tx.RejectMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.ErrorIs(t, err, ErrMilestoneNotPending)
	_, err = st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 10}, creator.Index, false)
	require.ErrorIs(t, err, ErrMilestoneNotPending)
}

func TestRejectAndRefund(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	creator := addVoter(t, st, 0)
	claimant := addVoter(t, st, 0)

	setupMilestone(t, st, creator.Index, 1000)
	_, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 1000}, creator.Index, false)
	require.NoError(t, err)

	// refund before rejection is not claimable
	_, err = st.RefundMilestone(&tx.RefundMilestoneTx{Project: 1, Milestone: 1}, claimant.Index, false)
	require.ErrorIs(t, err, ErrMilestoneNotRejected)

	rejected, err := st.RejectMilestone(&tx.RejectMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(0), rejected.Amount)
	require.Equal(t, uint64(1000), rejected.Balance)

	// any account may claim; the whole balance goes to the caller
	refunded, err := st.RefundMilestone(&tx.RefundMilestoneTx{Project: 1, Milestone: 1}, claimant.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), refunded.Amount)
	require.Equal(t, claimant.Index, refunded.Actor)
	require.Equal(t, uint64(0), refunded.TotalEscrowed)

	_, err = st.RefundMilestone(&tx.RefundMilestoneTx{Project: 1, Milestone: 1}, claimant.Index, false)
	require.ErrorIs(t, err, ErrInsufficientEscrow)
}

func TestPauseBlocksIntakeOnly(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	creator := addVoter(t, st, 2000)

	setupMilestone(t, st, creator.Index, 1000)
	_, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 1000}, creator.Index, false)
	require.NoError(t, err)
	_, err = st.RejectMilestone(&tx.RejectMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.NoError(t, err)

	_, err = st.SetPaused(&tx.SetPausedTx{Paused: true}, admin.Index, false)
	require.NoError(t, err)

	_, err = st.CreateProject(&tx.CreateProjectTx{Project: 2}, creator.Index, false)
	require.ErrorIs(t, err, ErrPaused)
	_, err = st.AddMilestone(&tx.AddMilestoneTx{Project: 1, Milestone: 2, Amount: 10, Description: "x"}, creator.Index, false)
	require.ErrorIs(t, err, ErrPaused)
	_, err = st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 10}, creator.Index, false)
	require.ErrorIs(t, err, ErrPaused)
	_, err = st.CreateProposal(&tx.CreateProposalTx{Project: 1, Milestone: 1, ProposalType: types.ProposalTypeMilestoneApproval}, creator.Index, false)
	require.ErrorIs(t, err, ErrPaused)
	_, err = st.Vote(&tx.VoteTx{Proposal: 1, Choice: true}, creator.Index, false)
	require.ErrorIs(t, err, ErrPaused)
	_, err = st.RegisterStake(&tx.RegisterStakeTx{Amount: 100}, creator.Index, false)
	require.ErrorIs(t, err, ErrPaused)

	// refund and admin ops stay open while paused
	refunded, err := st.RefundMilestone(&tx.RefundMilestoneTx{Project: 1, Milestone: 1}, creator.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), refunded.Amount)
	_, err = st.TransferAdmin(&tx.TransferAdminTx{NewAdmin: creator.Index}, admin.Index, false)
	require.NoError(t, err)
	_, err = st.SetPaused(&tx.SetPausedTx{Paused: false}, creator.Index, false)
	require.NoError(t, err)
	require.False(t, st.header.Paused)
}

func TestAddMilestoneValidation(t *testing.T) {
	st := newTestState(t)
	creator := addVoter(t, st, 0)

	_, err := st.CreateProject(&tx.CreateProjectTx{Project: 0}, creator.Index, false)
	require.ErrorIs(t, err, ErrProjectIndexInvalid)
	_, err = st.CreateProject(&tx.CreateProjectTx{Project: 1}, creator.Index, false)
	require.NoError(t, err)
	_, err = st.CreateProject(&tx.CreateProjectTx{Project: 1}, creator.Index, false)
	require.ErrorIs(t, err, ErrProjectAlreadyExists)

	_, err = st.AddMilestone(&tx.AddMilestoneTx{Project: 1, Milestone: 0, Amount: 10, Description: "x"}, creator.Index, false)
	require.ErrorIs(t, err, ErrMilestoneIndexInvalid)
	_, err = st.AddMilestone(&tx.AddMilestoneTx{Project: 1, Milestone: 1, Amount: 0, Description: "x"}, creator.Index, false)
	require.ErrorIs(t, err, ErrAmountInvalid)
	_, err = st.AddMilestone(&tx.AddMilestoneTx{Project: 1, Milestone: 1, Amount: 10, Description: ""}, creator.Index, false)
	require.ErrorIs(t, err, ErrDescriptionInvalid)
	long := make([]byte, types.MaxDescriptionLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = st.AddMilestone(&tx.AddMilestoneTx{Project: 1, Milestone: 1, Amount: 10, Description: string(long)}, creator.Index, false)
	require.ErrorIs(t, err, ErrDescriptionInvalid)
	_, err = st.AddMilestone(&tx.AddMilestoneTx{Project: 2, Milestone: 1, Amount: 10, Description: "x"}, creator.Index, false)
	require.ErrorIs(t, err, ErrProjectNoexists)

	_, err = st.AddMilestone(&tx.AddMilestoneTx{Project: 1, Milestone: 1, Amount: 10, Description: "x"}, creator.Index, false)
	require.NoError(t, err)
	_, err = st.AddMilestone(&tx.AddMilestoneTx{Project: 1, Milestone: 1, Amount: 10, Description: "x"}, creator.Index, false)
	require.ErrorIs(t, err, ErrMilestoneAlreadyExists)
}

func TestFundOverflowGuard(t *testing.T) {
	st := newTestState(t)
	creator := addVoter(t, st, 0)
	setupMilestone(t, st, creator.Index, 1000)

	_, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: math.MaxUint64}, creator.Index, false)
	require.NoError(t, err)
	_, err = st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 1}, creator.Index, false)
	require.ErrorIs(t, err, ErrAmountOverflow)
}

func TestProposalLifecycle(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	voter := addVoter(t, st, 2000)

	event, err := st.CreateProposal(&tx.CreateProposalTx{
		Project: 1, Milestone: 1, ProposalType: types.ProposalTypeMilestoneApproval,
	}, voter.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), event.Proposal)
	require.Equal(t, st.header.Height+10, event.Deadline)

	cast, err := st.Vote(&tx.VoteTx{Proposal: 1, Choice: true}, voter.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(2000), cast.Stake)

	_, err = st.FinalizeProposal(&tx.FinalizeProposalTx{Proposal: 1}, admin.Index, false)
	require.ErrorIs(t, err, ErrVotingOpen)

	st.header.Height = event.Deadline
	final, err := st.FinalizeProposal(&tx.FinalizeProposalTx{Proposal: 1}, admin.Index, false)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusApproved, final.Status)
	require.Equal(t, uint64(2000), final.YesVotes)
	require.Equal(t, uint64(0), final.NoVotes)

	_, err = st.FinalizeProposal(&tx.FinalizeProposalTx{Proposal: 1}, admin.Index, false)
	require.ErrorIs(t, err, ErrProposalNotPending)
}

func TestProposalValidation(t *testing.T) {
	st := newTestState(t)
	voter := addVoter(t, st, 2000)

	_, err := st.CreateProposal(&tx.CreateProposalTx{Project: 0, ProposalType: types.ProposalTypeMilestoneApproval}, voter.Index, false)
	require.ErrorIs(t, err, ErrProjectIndexInvalid)
	_, err = st.CreateProposal(&tx.CreateProposalTx{Project: 1, ProposalType: 9}, voter.Index, false)
	require.ErrorIs(t, err, ErrProposalTypeInvalid)
	_, err = st.CreateProposal(&tx.CreateProposalTx{Project: 1, Milestone: 0, ProposalType: types.ProposalTypeMilestoneApproval}, voter.Index, false)
	require.ErrorIs(t, err, ErrMilestoneRequired)
	// cancellation proposals take no milestone
	_, err = st.CreateProposal(&tx.CreateProposalTx{Project: 1, ProposalType: types.ProposalTypeProjectCancellation}, voter.Index, false)
	require.NoError(t, err)
}

func TestTieRejects(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	yes := addVoter(t, st, 1000)
	no := addVoter(t, st, 1000)

	event, err := st.CreateProposal(&tx.CreateProposalTx{Project: 1, ProposalType: types.ProposalTypeProjectCancellation}, yes.Index, false)
	require.NoError(t, err)
	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: true}, yes.Index, false)
	require.NoError(t, err)
	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: false}, no.Index, false)
	require.NoError(t, err)

	st.header.Height = event.Deadline
	final, err := st.FinalizeProposal(&tx.FinalizeProposalTx{Proposal: event.Proposal}, admin.Index, false)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusRejected, final.Status)
}

func TestVoteRules(t *testing.T) {
	st := newTestState(t)
	voter := addVoter(t, st, 2000)
	small := addVoter(t, st, 999)

	_, err := st.Vote(&tx.VoteTx{Proposal: 7, Choice: true}, voter.Index, false)
	require.ErrorIs(t, err, ErrProposalNoexists)

	event, err := st.CreateProposal(&tx.CreateProposalTx{Project: 1, ProposalType: types.ProposalTypeProjectCancellation}, voter.Index, false)
	require.NoError(t, err)

	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: true}, small.Index, false)
	require.ErrorIs(t, err, ErrInsufficientStake)

	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: true}, voter.Index, false)
	require.NoError(t, err)
	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: false}, voter.Index, false)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	st.header.Height = event.Deadline
	late := addVoter(t, st, 2000)
	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: true}, late.Index, false)
	require.ErrorIs(t, err, ErrVotingClosed)
}

func TestVoteSnapshotsStake(t *testing.T) {
	st := newTestState(t)
	voter := addVoter(t, st, 1500)

	event, err := st.CreateProposal(&tx.CreateProposalTx{Project: 1, ProposalType: types.ProposalTypeProjectCancellation}, voter.Index, false)
	require.NoError(t, err)
	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: true}, voter.Index, false)
	require.NoError(t, err)

	// stake registered after the cast does not move the tally
	_, err = st.RegisterStake(&tx.RegisterStakeTx{Amount: 5000}, voter.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(6500), st.GetStake(voter.Index))

	p, err := st.getProposal(event.Proposal)
	require.NoError(t, err)
	require.Equal(t, uint64(1500), p.YesVotes)
	v, err := st.getVote(event.Proposal, voter.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(1500), v.Stake)
}

func TestTallyOverflow(t *testing.T) {
	st := newTestState(t)
	a := addVoter(t, st, math.MaxUint64)
	b := addVoter(t, st, math.MaxUint64)

	event, err := st.CreateProposal(&tx.CreateProposalTx{Project: 1, ProposalType: types.ProposalTypeProjectCancellation}, a.Index, false)
	require.NoError(t, err)
	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: true}, a.Index, false)
	require.NoError(t, err)
	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: true}, b.Index, false)
	require.ErrorIs(t, err, ErrTallyOverflow)
	// the opposite tally is still open
	_, err = st.Vote(&tx.VoteTx{Proposal: event.Proposal, Choice: false}, b.Index, false)
	require.NoError(t, err)
}

func TestRegisterStakeEnrollment(t *testing.T) {
	st := newTestState(t)
	pk := ed25519.GenPrivKey().PubKey().Bytes()

	event, err := st.RegisterStake(&tx.RegisterStakeTx{Amount: 1500, PubKey: pk}, 0, false)
	require.NoError(t, err)
	require.Equal(t, uint64(StartAccountIdx), event.Voter)
	require.Equal(t, uint64(1500), event.Total)
	require.Equal(t, uint64(1500), st.GetStake(event.Voter))

	_, err = st.RegisterStake(&tx.RegisterStakeTx{Amount: 100, PubKey: pk}, 0, false)
	require.ErrorIs(t, err, ErrAccountAlreadyExists)
	_, err = st.RegisterStake(&tx.RegisterStakeTx{Amount: 0, PubKey: pk}, 0, false)
	require.ErrorIs(t, err, ErrAmountInvalid)

	total, err := st.RegisterStake(&tx.RegisterStakeTx{Amount: 500}, event.Voter, false)
	require.NoError(t, err)
	require.Equal(t, uint64(2000), total.Total)
}

func TestTransferAdmin(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	next := addVoter(t, st, 0)

	_, err := st.TransferAdmin(&tx.TransferAdminTx{NewAdmin: next.Index}, next.Index, false)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = st.TransferAdmin(&tx.TransferAdminTx{NewAdmin: 0}, admin.Index, false)
	require.ErrorIs(t, err, ErrBurnAdmin)
	_, err = st.TransferAdmin(&tx.TransferAdminTx{NewAdmin: next.Index + 100}, admin.Index, false)
	require.ErrorIs(t, err, ErrAccountNoexists)

	event, err := st.TransferAdmin(&tx.TransferAdminTx{NewAdmin: next.Index}, admin.Index, false)
	require.NoError(t, err)
	require.Equal(t, admin.Index, event.From)
	require.Equal(t, next.Index, event.To)
	require.True(t, st.isAdmin(next.Index))
	require.False(t, st.isAdmin(admin.Index))
}

func TestCheckOnlyLeavesStateUntouched(t *testing.T) {
	st := newTestState(t)
	creator := addVoter(t, st, 0)
	setupMilestone(t, st, creator.Index, 1000)
	nonceBefore := st.acnts[creator.Index].Nonce

	event, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 500}, creator.Index, true)
	require.NoError(t, err)
	require.Nil(t, event)

	balance, err := st.getEscrow(1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), balance)
	require.Equal(t, nonceBefore, st.acnts[creator.Index].Nonce)
}

func TestVerifyEnrollment(t *testing.T) {
	st := newTestState(t)
	priv := ed25519.GenPrivKey()

	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeRegisterStake,
		Nonce:   0,
		Sender:  0,
		Tx:      &tx.RegisterStakeTx{Amount: 500, PubKey: priv.PubKey().Bytes()},
	}
	dat, err := btx.SigData([]byte(st.header.ChainId))
	require.NoError(t, err)
	sig, err := priv.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}

	succ, err := st.Verify(btx, false)
	require.NoError(t, err)
	require.True(t, succ)

	btx.Nonce = 1
	_, err = st.Verify(btx, false)
	require.ErrorIs(t, err, ErrTxNonceInvalid)

	// sender zero without a pubkey has no identity to verify against
	btx.Nonce = 0
	btx.Tx = &tx.CreateProjectTx{Project: 1}
	_, err = st.Verify(btx, false)
	require.ErrorIs(t, err, ErrTxSenderNoexists)
}

func TestVerifySignedAccountTx(t *testing.T) {
	st := newTestState(t)
	priv := ed25519.GenPrivKey()
	acnt := &Account{Stake: 1000}
	acnt.SetPubKey(priv.PubKey().Bytes())
	require.NoError(t, st.AddAccount(acnt))
	acnt = st.acnts[acnt.Index]

	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeCreateProject,
		Nonce:   0,
		Sender:  acnt.Index,
		Tx:      &tx.CreateProjectTx{Project: 1},
	}
	dat, err := btx.SigData([]byte(st.header.ChainId))
	require.NoError(t, err)
	sig, err := priv.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}

	succ, err := st.Verify(btx, false)
	require.NoError(t, err)
	require.True(t, succ)

	btx.Nonce = 3
	_, err = st.Verify(btx, false)
	require.ErrorIs(t, err, ErrTxNonceInvalid)
	// the mempool tolerates nonce gaps, blocks do not
	dat, err = btx.SigData([]byte(st.header.ChainId))
	require.NoError(t, err)
	sig, err = priv.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}
	succ, err = st.Verify(btx, true)
	require.NoError(t, err)
	require.True(t, succ)

	btx.Sig = [][]byte{make([]byte, len(sig))}
	_, err = st.Verify(btx, true)
	require.ErrorIs(t, err, ErrTxSigInvalid)
}

func TestUpdatePersistsAcrossStates(t *testing.T) {
	st := newTestState(t)
	admin := addVoter(t, st, 0)
	st.SetAdmin(admin.Index)
	creator := addVoter(t, st, 0)

	setupMilestone(t, st, creator.Index, 1000)
	_, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 700}, creator.Index, false)
	require.NoError(t, err)
	_, err = st.Update()
	require.NoError(t, err)
	_, err = st.save()
	require.NoError(t, err)

	next := st.nextState()
	require.Equal(t, st.header.Height+1, next.header.Height)
	prj, err := next.getProject(1)
	require.NoError(t, err)
	require.Equal(t, uint64(700), prj.TotalEscrowed)
	balance, err := next.getEscrow(1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(700), balance)

	// approval removes the balance entry from the tree
	_, err = next.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: 300}, creator.Index, false)
	require.NoError(t, err)
	_, err = next.ApproveMilestone(&tx.ApproveMilestoneTx{Project: 1, Milestone: 1}, admin.Index, false)
	require.NoError(t, err)
	_, err = next.Update()
	require.NoError(t, err)
	_, err = next.save()
	require.NoError(t, err)

	last := next.nextState()
	balance, err = last.getEscrow(1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), balance)
	m, err := last.getMilestone(1, 1)
	require.NoError(t, err)
	require.Equal(t, types.MilestoneStatusApproved, m.Status)
}

func TestValidatorsFromStake(t *testing.T) {
	st := newTestState(t)
	whale := addVoter(t, st, 2500)
	addVoter(t, st, 999) // below one power unit
	_, err := st.Update()
	require.NoError(t, err)
	_, err = st.save()
	require.NoError(t, err)

	next := st.nextState()
	vals, err := next.Validators()
	require.NoError(t, err)
	require.Len(t, vals, 1)
	for _, val := range vals {
		require.Equal(t, int64(2), val.Power)
	}

	accts, height, err := next.ValidatorAccounts()
	require.NoError(t, err)
	require.Equal(t, next.header.Height, height)
	require.Len(t, accts, 1)
	require.Equal(t, whale.Index, accts[0].Index)
}

func TestLargeEscrowBalancePersists(t *testing.T) {
	st := newTestState(t)
	creator := addVoter(t, st, 0)

	// balances above 1<<63 must survive the save/load round trip intact
	huge := uint64(1)<<63 + 5
	setupMilestone(t, st, creator.Index, huge)
	_, err := st.FundMilestone(&tx.FundMilestoneTx{Project: 1, Milestone: 1, Amount: huge}, creator.Index, false)
	require.NoError(t, err)
	_, err = st.Update()
	require.NoError(t, err)
	_, err = st.save()
	require.NoError(t, err)

	next := st.nextState()
	balance, err := next.getEscrow(1, 1)
	require.NoError(t, err)
	require.Equal(t, huge, balance)
	prj, err := next.getProject(1)
	require.NoError(t, err)
	require.Equal(t, balance, prj.TotalEscrowed)
}

func TestProposalIndexPersists(t *testing.T) {
	st := newTestState(t)
	voter := addVoter(t, st, 2000)

	e1, err := st.CreateProposal(&tx.CreateProposalTx{Project: 1, ProposalType: types.ProposalTypeProjectCancellation}, voter.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), e1.Proposal)
	_, err = st.Update()
	require.NoError(t, err)
	_, err = st.save()
	require.NoError(t, err)

	next := st.nextState()
	e2, err := next.CreateProposal(&tx.CreateProposalTx{Project: 2, ProposalType: types.ProposalTypeProjectCancellation}, voter.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(2), e2.Proposal)
}
