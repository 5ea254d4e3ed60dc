package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primaryKey" json:"id"`
	Height uint64 `json:"height"`
}

type Project struct {
	Id             uint64 `gorm:"primaryKey" json:"id"`
	CreatorIndex   uint64 `json:"creator_index"`
	CreatorAddress string `json:"creator_address"`
	TotalEscrowed  uint64 `json:"total_escrowed"`
	Height         uint64 `json:"height"`
}

type Milestone struct {
	Id          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Project     uint64 `json:"project"`
	Milestone   uint64 `json:"milestone"`
	Amount      uint64 `json:"amount"`
	Description string `json:"description"`
	Status      uint64 `json:"status"`
	Balance     uint64 `json:"balance"`
	Height      uint64 `json:"height"`
}

type EscrowEvent struct {
	Id           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind         string `json:"kind"`
	Project      uint64 `json:"project"`
	Milestone    uint64 `json:"milestone"`
	Amount       uint64 `json:"amount"`
	ActorIndex   uint64 `json:"actor_index"`
	ActorAddress string `json:"actor_address"`
	Height       uint64 `json:"height"`
}

type Proposal struct {
	Id             uint64 `gorm:"primaryKey" json:"id"`
	Project        uint64 `json:"project"`
	Milestone      uint64 `json:"milestone"`
	ProposalType   uint64 `json:"proposal_type"`
	CreatorIndex   uint64 `json:"creator_index"`
	CreatorAddress string `json:"creator_address"`
	CreateHeight   uint64 `json:"create_height"`
	Deadline       uint64 `json:"deadline"`
	YesVotes       uint64 `json:"yes_votes"`
	NoVotes        uint64 `json:"no_votes"`
	Status         uint64 `json:"status"`
	FinalHeight    uint64 `json:"final_height"`
}

type Vote struct {
	Id           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal     uint64 `json:"proposal"`
	VoterIndex   uint64 `json:"voter_index"`
	VoterAddress string `json:"voter_address"`
	Choice       bool   `json:"choice"`
	Stake        uint64 `json:"stake"`
	Height       uint64 `json:"height"`
}

type Stake struct {
	Id      uint64 `gorm:"primaryKey" json:"id"`
	Address string `json:"address"`
	Total   uint64 `json:"total"`
	Height  uint64 `json:"height"`
}
