package tx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfund/rfe-app/types"
)

func TestUnmarshalDispatchesByType(t *testing.T) {
	btx := &RFETx{
		Version: RFETxVersion1,
		Type:    RFETxTypeAddMilestone,
		Nonce:   3,
		Sender:  65536,
		Tx: &AddMilestoneTx{
			Project:     1,
			Milestone:   2,
			Amount:      1000,
			Description: "deliver phase one",
		},
		Sig: [][]byte{{0x01, 0x02}},
	}
	dat, err := MarshalRFETx(btx)
	require.NoError(t, err)

	got, err := UnmarshalRFETx(dat)
	require.NoError(t, err)
	require.Equal(t, btx.Version, got.Version)
	require.Equal(t, btx.Type, got.Type)
	require.Equal(t, btx.Nonce, got.Nonce)
	require.Equal(t, btx.Sender, got.Sender)
	require.Equal(t, btx.Sig, got.Sig)

	wtx, ok := got.Tx.(*AddMilestoneTx)
	require.True(t, ok)
	require.Equal(t, uint64(1), wtx.Project)
	require.Equal(t, uint64(2), wtx.Milestone)
	require.Equal(t, uint64(1000), wtx.Amount)
	require.Equal(t, "deliver phase one", wtx.Description)
}

func TestUnmarshalProposalType(t *testing.T) {
	btx := &RFETx{
		Version: RFETxVersion1,
		Type:    RFETxTypeCreateProposal,
		Sender:  65537,
		Tx: &CreateProposalTx{
			Project:      1,
			Milestone:    4,
			ProposalType: types.ProposalTypeMilestoneApproval,
		},
	}
	dat, err := MarshalRFETx(btx)
	require.NoError(t, err)

	got, err := UnmarshalRFETx(dat)
	require.NoError(t, err)
	wtx, ok := got.Tx.(*CreateProposalTx)
	require.True(t, ok)
	require.Equal(t, types.ProposalTypeMilestoneApproval, wtx.ProposalType)
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	_, err := UnmarshalRFETx([]byte(`{"version":1,"type":200,"tx":{}}`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)
	_, err = UnmarshalRFETx([]byte(`not json`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)
}

func TestSigDataExcludesSignature(t *testing.T) {
	btx := &RFETx{
		Version: RFETxVersion1,
		Type:    RFETxTypeVote,
		Sender:  65536,
		Tx:      &VoteTx{Proposal: 1, Choice: true},
	}
	unsigned, err := btx.SigData([]byte("rfe-test"))
	require.NoError(t, err)

	btx.Sig = [][]byte{{0xde, 0xad}}
	signed, err := btx.SigData([]byte("rfe-test"))
	require.NoError(t, err)
	require.Equal(t, unsigned, signed)

	// a different chain id yields a different signing payload
	other, err := btx.SigData([]byte("rfe-other"))
	require.NoError(t, err)
	require.NotEqual(t, unsigned, other)
}
