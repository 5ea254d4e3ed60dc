package main

import (
	"github.com/spf13/cobra"

	"github.com/openfund/rfe-app/tx"
	"github.com/openfund/rfe-app/types"
)

var newProposalArgs struct {
	txArguments
	Project      uint64
	Milestone    uint64
	ProposalType uint64
}

var newProposalCmd = &cobra.Command{
	Use:   "newproposal",
	Short: "Open a governance proposal on a project",
	Run:   newProposalRun,
}

func init() {
	txFlags(newProposalCmd, &newProposalArgs.txArguments)
	newProposalCmd.Flags().Uint64VarP(&newProposalArgs.Project, "project", "p", 0, "project id")
	newProposalCmd.Flags().Uint64VarP(&newProposalArgs.Milestone, "milestone", "m", 0, "milestone id, required for milestone approval proposals")
	newProposalCmd.Flags().Uint64VarP(&newProposalArgs.ProposalType, "type", "t", 1, "proposal type, 1 milestone approval, 2 project cancellation")
}

func newProposalRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(newProposalArgs.Url, newProposalArgs.Index, newProposalArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeCreateProposal,
		Nonce:   nonce,
		Sender:  newProposalArgs.Index,
		Tx: &tx.CreateProposalTx{
			Project:      newProposalArgs.Project,
			Milestone:    newProposalArgs.Milestone,
			ProposalType: types.ProposalType(newProposalArgs.ProposalType),
		},
	}
	signAndBroadcast(newProposalArgs.Url, newProposalArgs.Skey, btx, newProposalArgs.NoSend)
}

var voteArgs struct {
	txArguments
	Proposal uint64
	Against  bool
}

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast a stake-weighted vote on a proposal",
	Run:   voteRun,
}

func init() {
	txFlags(voteCmd, &voteArgs.txArguments)
	voteCmd.Flags().Uint64VarP(&voteArgs.Proposal, "proposal", "p", 0, "proposal id")
	voteCmd.Flags().BoolVarP(&voteArgs.Against, "against", "", false, "vote no instead of yes")
}

func voteRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(voteArgs.Url, voteArgs.Index, voteArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeVote,
		Nonce:   nonce,
		Sender:  voteArgs.Index,
		Tx: &tx.VoteTx{
			Proposal: voteArgs.Proposal,
			Choice:   !voteArgs.Against,
		},
	}
	signAndBroadcast(voteArgs.Url, voteArgs.Skey, btx, voteArgs.NoSend)
}

var finalizeProposalArgs struct {
	txArguments
	Proposal uint64
}

var finalizeProposalCmd = &cobra.Command{
	Use:   "finalizeproposal",
	Short: "Tally a proposal after its deadline (admin)",
	Run:   finalizeProposalRun,
}

func init() {
	txFlags(finalizeProposalCmd, &finalizeProposalArgs.txArguments)
	finalizeProposalCmd.Flags().Uint64VarP(&finalizeProposalArgs.Proposal, "proposal", "p", 0, "proposal id")
}

func finalizeProposalRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(finalizeProposalArgs.Url, finalizeProposalArgs.Index, finalizeProposalArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeFinalizeProposal,
		Nonce:   nonce,
		Sender:  finalizeProposalArgs.Index,
		Tx:      &tx.FinalizeProposalTx{Proposal: finalizeProposalArgs.Proposal},
	}
	signAndBroadcast(finalizeProposalArgs.Url, finalizeProposalArgs.Skey, btx, finalizeProposalArgs.NoSend)
}
