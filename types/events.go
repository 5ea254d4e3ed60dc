package types

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventProjectCreatedType     = "project_created"
	EventMilestoneAddedType     = "milestone_added"
	EventMilestoneFundedType    = "milestone_funded"
	EventMilestoneApprovedType  = "milestone_approved"
	EventMilestoneRejectedType  = "milestone_rejected"
	EventMilestoneRefundedType  = "milestone_refunded"
	EventProposalCreatedType    = "proposal_created"
	EventVoteCastType           = "vote_cast"
	EventProposalFinalizedType  = "proposal_finalized"
	EventStakeRegisteredType    = "stake_registered"
	EventPauseSetType           = "pause_set"
	EventAdminTransferredType   = "admin_transferred"
)

func uintAttr(key string, v uint64, index bool) abci.EventAttribute {
	return abci.EventAttribute{Key: key, Value: fmt.Sprintf("%v", v), Index: index}
}

func parseUintAttr(v string) (uint64, bool) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

type EventProjectCreated struct {
	Project        uint64 `json:"project"`
	Creator        uint64 `json:"creator"`
	CreatorAddress string `json:"creator_address"`
}

func EncodeEventProjectCreated(event *EventProjectCreated) abci.Event {
	return abci.Event{
		Type: EventProjectCreatedType,
		Attributes: []abci.EventAttribute{
			uintAttr("project", event.Project, true),
			uintAttr("creator", event.Creator, true),
			{Key: "creatorAddress", Value: event.CreatorAddress, Index: false},
		},
	}
}

func DecodeEventProjectCreated(originEvent abci.Event) *EventProjectCreated {
	event := &EventProjectCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Project = n
		case "creator":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Creator = n
		case "creatorAddress":
			event.CreatorAddress = v.Value
		}
	}
	return event
}

type EventMilestoneAdded struct {
	Project     uint64 `json:"project"`
	Milestone   uint64 `json:"milestone"`
	Amount      uint64 `json:"amount"`
	Description string `json:"description"`
}

func EncodeEventMilestoneAdded(event *EventMilestoneAdded) abci.Event {
	return abci.Event{
		Type: EventMilestoneAddedType,
		Attributes: []abci.EventAttribute{
			uintAttr("project", event.Project, true),
			uintAttr("milestone", event.Milestone, true),
			uintAttr("amount", event.Amount, false),
			{Key: "description", Value: event.Description, Index: false},
		},
	}
}

func DecodeEventMilestoneAdded(originEvent abci.Event) *EventMilestoneAdded {
	event := &EventMilestoneAdded{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Project = n
		case "milestone":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Milestone = n
		case "amount":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Amount = n
		case "description":
			event.Description = v.Value
		}
	}
	return event
}

// EventEscrowMoved covers fund, approve, reject and refund; the event
// type string tells them apart and Amount carries the value moved
// (zero for reject, which leaves the balance in place).
type EventEscrowMoved struct {
	Project       uint64 `json:"project"`
	Milestone     uint64 `json:"milestone"`
	Amount        uint64 `json:"amount"`
	Actor         uint64 `json:"actor"`
	ActorAddress  string `json:"actor_address"`
	Balance       uint64 `json:"balance"`
	TotalEscrowed uint64 `json:"total_escrowed"`
}

func EncodeEventEscrowMoved(eventType string, event *EventEscrowMoved) abci.Event {
	return abci.Event{
		Type: eventType,
		Attributes: []abci.EventAttribute{
			uintAttr("project", event.Project, true),
			uintAttr("milestone", event.Milestone, true),
			uintAttr("amount", event.Amount, false),
			uintAttr("actor", event.Actor, false),
			{Key: "actorAddress", Value: event.ActorAddress, Index: false},
			uintAttr("balance", event.Balance, false),
			uintAttr("totalEscrowed", event.TotalEscrowed, false),
		},
	}
}

func DecodeEventEscrowMoved(originEvent abci.Event) *EventEscrowMoved {
	event := &EventEscrowMoved{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Project = n
		case "milestone":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Milestone = n
		case "amount":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Amount = n
		case "actor":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Actor = n
		case "actorAddress":
			event.ActorAddress = v.Value
		case "balance":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Balance = n
		case "totalEscrowed":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.TotalEscrowed = n
		}
	}
	return event
}

type EventProposalCreated struct {
	Proposal       uint64       `json:"proposal"`
	Project        uint64       `json:"project"`
	Milestone      uint64       `json:"milestone"`
	ProposalType   ProposalType `json:"proposal_type"`
	Creator        uint64       `json:"creator"`
	CreatorAddress string       `json:"creator_address"`
	Deadline       uint64       `json:"deadline"`
}

func EncodeEventProposalCreated(event *EventProposalCreated) abci.Event {
	return abci.Event{
		Type: EventProposalCreatedType,
		Attributes: []abci.EventAttribute{
			uintAttr("proposal", event.Proposal, true),
			uintAttr("project", event.Project, true),
			uintAttr("milestone", event.Milestone, false),
			uintAttr("proposalType", uint64(event.ProposalType), false),
			uintAttr("creator", event.Creator, false),
			{Key: "creatorAddress", Value: event.CreatorAddress, Index: false},
			uintAttr("deadline", event.Deadline, false),
		},
	}
}

func DecodeEventProposalCreated(originEvent abci.Event) *EventProposalCreated {
	event := &EventProposalCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Proposal = n
		case "project":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Project = n
		case "milestone":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Milestone = n
		case "proposalType":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.ProposalType = ProposalType(n)
		case "creator":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Creator = n
		case "creatorAddress":
			event.CreatorAddress = v.Value
		case "deadline":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Deadline = n
		}
	}
	return event
}

type EventVoteCast struct {
	Proposal     uint64 `json:"proposal"`
	Voter        uint64 `json:"voter"`
	VoterAddress string `json:"voter_address"`
	Choice       bool   `json:"choice"`
	Stake        uint64 `json:"stake"`
}

func EncodeEventVoteCast(event *EventVoteCast) abci.Event {
	return abci.Event{
		Type: EventVoteCastType,
		Attributes: []abci.EventAttribute{
			uintAttr("proposal", event.Proposal, true),
			uintAttr("voter", event.Voter, true),
			{Key: "voterAddress", Value: event.VoterAddress, Index: false},
			{Key: "choice", Value: fmt.Sprintf("%v", event.Choice), Index: false},
			uintAttr("stake", event.Stake, false),
		},
	}
}

func DecodeEventVoteCast(originEvent abci.Event) *EventVoteCast {
	event := &EventVoteCast{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Proposal = n
		case "voter":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Voter = n
		case "voterAddress":
			event.VoterAddress = v.Value
		case "choice":
			choice, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Choice = choice
		case "stake":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Stake = n
		}
	}
	return event
}

type EventProposalFinalized struct {
	Proposal  uint64         `json:"proposal"`
	Status    ProposalStatus `json:"status"`
	YesVotes  uint64         `json:"yes_votes"`
	NoVotes   uint64         `json:"no_votes"`
	Finalizer uint64         `json:"finalizer"`
}

func EncodeEventProposalFinalized(event *EventProposalFinalized) abci.Event {
	return abci.Event{
		Type: EventProposalFinalizedType,
		Attributes: []abci.EventAttribute{
			uintAttr("proposal", event.Proposal, true),
			uintAttr("status", uint64(event.Status), false),
			uintAttr("yes", event.YesVotes, false),
			uintAttr("no", event.NoVotes, false),
			uintAttr("finalizer", event.Finalizer, false),
		},
	}
}

func DecodeEventProposalFinalized(originEvent abci.Event) *EventProposalFinalized {
	event := &EventProposalFinalized{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Proposal = n
		case "status":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Status = ProposalStatus(n)
		case "yes":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.YesVotes = n
		case "no":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.NoVotes = n
		case "finalizer":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Finalizer = n
		}
	}
	return event
}

type EventStakeRegistered struct {
	Voter        uint64 `json:"voter"`
	VoterAddress string `json:"voter_address"`
	Amount       uint64 `json:"amount"`
	Total        uint64 `json:"total"`
}

func EncodeEventStakeRegistered(event *EventStakeRegistered) abci.Event {
	return abci.Event{
		Type: EventStakeRegisteredType,
		Attributes: []abci.EventAttribute{
			uintAttr("voter", event.Voter, true),
			{Key: "voterAddress", Value: event.VoterAddress, Index: false},
			uintAttr("amount", event.Amount, false),
			uintAttr("total", event.Total, false),
		},
	}
}

func DecodeEventStakeRegistered(originEvent abci.Event) *EventStakeRegistered {
	event := &EventStakeRegistered{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "voter":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Voter = n
		case "voterAddress":
			event.VoterAddress = v.Value
		case "amount":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Amount = n
		case "total":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Total = n
		}
	}
	return event
}

type EventPauseSet struct {
	Paused bool   `json:"paused"`
	Admin  uint64 `json:"admin"`
}

func EncodeEventPauseSet(event *EventPauseSet) abci.Event {
	return abci.Event{
		Type: EventPauseSetType,
		Attributes: []abci.EventAttribute{
			{Key: "paused", Value: fmt.Sprintf("%v", event.Paused), Index: false},
			uintAttr("admin", event.Admin, false),
		},
	}
}

func DecodeEventPauseSet(originEvent abci.Event) *EventPauseSet {
	event := &EventPauseSet{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "paused":
			paused, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Paused = paused
		case "admin":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.Admin = n
		}
	}
	return event
}

type EventAdminTransferred struct {
	From      uint64 `json:"from"`
	To        uint64 `json:"to"`
	ToAddress string `json:"to_address"`
}

func EncodeEventAdminTransferred(event *EventAdminTransferred) abci.Event {
	return abci.Event{
		Type: EventAdminTransferredType,
		Attributes: []abci.EventAttribute{
			uintAttr("from", event.From, false),
			uintAttr("to", event.To, true),
			{Key: "toAddress", Value: event.ToAddress, Index: false},
		},
	}
}

func DecodeEventAdminTransferred(originEvent abci.Event) *EventAdminTransferred {
	event := &EventAdminTransferred{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "from":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.From = n
		case "to":
			n, ok := parseUintAttr(v.Value)
			if !ok {
				return nil
			}
			event.To = n
		case "toAddress":
			event.ToAddress = v.Value
		}
	}
	return event
}
