package handler

import (
	"context"
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"

	"github.com/openfund/rfe-app/config"
	"github.com/openfund/rfe-app/state"
	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
)

func newTestState(t *testing.T) *state.State {
	db, err := state.NewStateDB(t.TempDir(), config.DefaultEngineParams(), cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.NewState()
}

func enroll(t *testing.T, st *state.State, stake uint64) uint64 {
	h := NewRegisterStakeTxHandler(cmtlog.NewNopLogger())
	h.NewContext(context.Background())
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeRegisterStake,
		Sender:  0,
		Tx:      &tx.RegisterStakeTx{Amount: stake, PubKey: ed25519.GenPrivKey().PubKey().Bytes()},
	}
	res, err := h.Process(context.Background(), st, btx)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	require.Equal(t, types.EventStakeRegisteredType, res.Events[0].Type)
	event := types.DecodeEventStakeRegistered(res.Events[0])
	require.NotNil(t, event)
	return event.Voter
}

func TestOneActionPerSenderPerBlock(t *testing.T) {
	st := newTestState(t)
	sender := enroll(t, st, 1000)

	ctx := context.Background()
	h := NewCreateProjectTxHandler(cmtlog.NewNopLogger())
	h.NewContext(ctx)

	first := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeCreateProject,
		Sender:  sender,
		Tx:      &tx.CreateProjectTx{Project: 1},
	}
	_, err := h.Process(ctx, st, first)
	require.NoError(t, err)

	second := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeCreateProject,
		Sender:  sender,
		Tx:      &tx.CreateProjectTx{Project: 2},
	}
	_, err = h.Process(ctx, st, second)
	require.ErrorIs(t, err, state.ErrOneActionInOneBlock)

	// a new block clears the guard
	h.NewContext(ctx)
	_, err = h.Process(ctx, st, second)
	require.NoError(t, err)
}

func TestEnrollmentDedupedByPubkey(t *testing.T) {
	st := newTestState(t)

	ctx := context.Background()
	h := NewRegisterStakeTxHandler(cmtlog.NewNopLogger())
	h.NewContext(ctx)

	pk := ed25519.GenPrivKey().PubKey().Bytes()
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeRegisterStake,
		Sender:  0,
		Tx:      &tx.RegisterStakeTx{Amount: 1000, PubKey: pk},
	}
	_, err := h.Process(ctx, st, btx)
	require.NoError(t, err)
	_, err = h.Process(ctx, st, btx)
	require.ErrorIs(t, err, state.ErrOneActionInOneBlock)

	// another identity in the same block is fine
	other := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeRegisterStake,
		Sender:  0,
		Tx:      &tx.RegisterStakeTx{Amount: 1000, PubKey: ed25519.GenPrivKey().PubKey().Bytes()},
	}
	_, err = h.Process(ctx, st, other)
	require.NoError(t, err)

	// once enrolled, the pubkey is taken for good
	h.NewContext(ctx)
	_, err = h.Process(ctx, st, btx)
	require.ErrorIs(t, err, state.ErrAccountAlreadyExists)
}

func TestCheckReportsFailureCode(t *testing.T) {
	st := newTestState(t)
	sender := enroll(t, st, 1000)

	ctx := context.Background()
	h := NewFundMilestoneTxHandler(cmtlog.NewNopLogger())
	res, err := h.Check(ctx, st, &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeFundMilestone,
		Sender:  sender,
		Tx:      &tx.FundMilestoneTx{Project: 9, Milestone: 1, Amount: 10},
	})
	require.NoError(t, err)
	require.Equal(t, uint32(1), res.Code)
	require.Equal(t, state.ErrProjectNoexists.Error(), res.Log)
}
