package tx

import (
	"encoding/json"

	"github.com/openfund/rfe-app/types"
)

// RFETx is the signed envelope every engine operation travels in.
// Sender is the account index of the caller; Sig covers the envelope
// with the chain id as the signing domain.
type RFETx struct {
	Version uint8     `json:"version"`
	Type    RFETxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Sender  uint64    `json:"sender"`
	Tx      any       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

type CreateProjectTx struct {
	Project uint64 `json:"project"`
}

type AddMilestoneTx struct {
	Project     uint64 `json:"project"`
	Milestone   uint64 `json:"milestone"`
	Amount      uint64 `json:"amount"`
	Description string `json:"description"`
}

type FundMilestoneTx struct {
	Project   uint64 `json:"project"`
	Milestone uint64 `json:"milestone"`
	Amount    uint64 `json:"amount"`
}

type ApproveMilestoneTx struct {
	Project   uint64 `json:"project"`
	Milestone uint64 `json:"milestone"`
}

type RejectMilestoneTx struct {
	Project   uint64 `json:"project"`
	Milestone uint64 `json:"milestone"`
}

type RefundMilestoneTx struct {
	Project   uint64 `json:"project"`
	Milestone uint64 `json:"milestone"`
}

// CreateProposalTx.Milestone is zero for PROJECT_CANCELLATION
// proposals; milestone indices start at 1.
type CreateProposalTx struct {
	Project      uint64             `json:"project"`
	Milestone    uint64             `json:"milestone"`
	ProposalType types.ProposalType `json:"proposalType"`
}

type VoteTx struct {
	Proposal uint64 `json:"proposal"`
	Choice   bool   `json:"choice"`
}

type FinalizeProposalTx struct {
	Proposal uint64 `json:"proposal"`
}

// RegisterStakeTx with a non-empty PubKey from sender 0 enrolls a new
// voter account; otherwise it adds to the sender's existing stake.
type RegisterStakeTx struct {
	Amount uint64 `json:"amount"`
	PubKey []byte `json:"pubkey,omitempty"`
}

type SetPausedTx struct {
	Paused bool `json:"paused"`
}

type TransferAdminTx struct {
	NewAdmin uint64 `json:"newAdmin"`
}

type rfeTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    RFETxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Sender  uint64    `json:"sender"`
	Tx      Tx        `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

func (tx *RFETx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseRFETxType(dat []byte) RFETxType {
	var tx struct {
		Type RFETxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return RFETxTypeUnknown
	}
	return tx.Type
}

func unmarshalRFETx[Tx any](dat []byte) (btx *RFETx, err error) {
	var txt rfeTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	btx = new(RFETx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalRFETx(dat []byte) (btx *RFETx, err error) {
	tp := parseRFETxType(dat)
	switch tp {
	case RFETxTypeCreateProject:
		return unmarshalRFETx[CreateProjectTx](dat)
	case RFETxTypeAddMilestone:
		return unmarshalRFETx[AddMilestoneTx](dat)
	case RFETxTypeFundMilestone:
		return unmarshalRFETx[FundMilestoneTx](dat)
	case RFETxTypeApproveMilestone:
		return unmarshalRFETx[ApproveMilestoneTx](dat)
	case RFETxTypeRejectMilestone:
		return unmarshalRFETx[RejectMilestoneTx](dat)
	case RFETxTypeRefundMilestone:
		return unmarshalRFETx[RefundMilestoneTx](dat)
	case RFETxTypeCreateProposal:
		return unmarshalRFETx[CreateProposalTx](dat)
	case RFETxTypeVote:
		return unmarshalRFETx[VoteTx](dat)
	case RFETxTypeFinalizeProposal:
		return unmarshalRFETx[FinalizeProposalTx](dat)
	case RFETxTypeRegisterStake:
		return unmarshalRFETx[RegisterStakeTx](dat)
	case RFETxTypeSetPaused:
		return unmarshalRFETx[SetPausedTx](dat)
	case RFETxTypeTransferAdmin:
		return unmarshalRFETx[TransferAdminTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalRFETx(btx *RFETx) (dat []byte, err error) {
	return json.Marshal(btx)
}
