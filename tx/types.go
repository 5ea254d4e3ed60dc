package tx

import "errors"

type RFETxType uint8

const (
	RFETxTypeUnknown          RFETxType = 0
	RFETxTypeCreateProject    RFETxType = 1
	RFETxTypeAddMilestone     RFETxType = 2
	RFETxTypeFundMilestone    RFETxType = 3
	RFETxTypeApproveMilestone RFETxType = 4
	RFETxTypeRejectMilestone  RFETxType = 5
	RFETxTypeRefundMilestone  RFETxType = 6
	RFETxTypeCreateProposal   RFETxType = 7
	RFETxTypeVote             RFETxType = 8
	RFETxTypeFinalizeProposal RFETxType = 9
	RFETxTypeRegisterStake    RFETxType = 10
	RFETxTypeSetPaused        RFETxType = 11
	RFETxTypeTransferAdmin    RFETxType = 12
)

const (
	RFETxVersion0 uint8 = 0
	RFETxVersion1 uint8 = 1
)

var (
	ErrInvalidTx         = errors.New("invalid tx")
	ErrUnsupportedTxType = errors.New("unsupported tx type")
	ErrUnmatchedTxType   = errors.New("unmatched tx type")

	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
