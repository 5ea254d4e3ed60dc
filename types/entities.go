package types

type MilestoneStatus uint64

const (
	MilestoneStatusPending  MilestoneStatus = 1
	MilestoneStatusApproved MilestoneStatus = 2
	MilestoneStatusRejected MilestoneStatus = 3
)

type ProposalType uint64

const (
	ProposalTypeMilestoneApproval   ProposalType = 1
	ProposalTypeProjectCancellation ProposalType = 2
)

type ProposalStatus uint64

const (
	ProposalStatusPending  ProposalStatus = 1
	ProposalStatusApproved ProposalStatus = 2
	ProposalStatusRejected ProposalStatus = 3
)

// MaxDescriptionLen bounds milestone descriptions, in bytes.
const MaxDescriptionLen = 500

type Project struct {
	Index          uint64 `json:"index"`
	Creator        uint64 `json:"creator"`
	CreatorAddress string `json:"creator_address"`
	TotalEscrowed  uint64 `json:"total_escrowed"`
	Height         uint64 `json:"height"`
}

// Milestone is keyed by (project, index). Status moves
// PENDING->APPROVED or PENDING->REJECTED and never back;
// a refund on a REJECTED milestone leaves the status alone.
type Milestone struct {
	Project         uint64          `json:"project"`
	Index           uint64          `json:"index"`
	Amount          uint64          `json:"amount"`
	Description     string          `json:"description"`
	Status          MilestoneStatus `json:"status"`
	SubmittedAt     uint64          `json:"submitted_at"`
	Approver        uint64          `json:"approver"`
	ApproverAddress string          `json:"approver_address"`
}

// Proposal deadlines are block heights; Milestone is zero for
// PROJECT_CANCELLATION proposals (milestone indices start at 1).
type Proposal struct {
	Index          uint64         `json:"index"`
	Project        uint64         `json:"project"`
	Milestone      uint64         `json:"milestone"`
	Type           ProposalType   `json:"type"`
	Creator        uint64         `json:"creator"`
	CreatorAddress string         `json:"creator_address"`
	CreatedAt      uint64         `json:"created_at"`
	Deadline       uint64         `json:"deadline"`
	YesVotes       uint64         `json:"yes_votes"`
	NoVotes        uint64         `json:"no_votes"`
	Status         ProposalStatus `json:"status"`
}

// VoteReceipt snapshots the voter's stake at cast time. Later stake
// registrations never move a tally that already counted this receipt.
type VoteReceipt struct {
	Proposal     uint64 `json:"proposal"`
	Voter        uint64 `json:"voter"`
	VoterAddress string `json:"voter_address"`
	Choice       bool   `json:"choice"`
	Stake        uint64 `json:"stake"`
	Height       uint64 `json:"height"`
}

func (p *Project) Clone() *Project {
	n := *p
	return &n
}

func (m *Milestone) Clone() *Milestone {
	n := *m
	return &n
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	return &n
}

func (v *VoteReceipt) Clone() *VoteReceipt {
	n := *v
	return &n
}
