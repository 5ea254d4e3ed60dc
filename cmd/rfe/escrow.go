package main

import (
	"github.com/spf13/cobra"

	"github.com/openfund/rfe-app/tx"
)

var createProjectArgs struct {
	txArguments
	Project uint64
}

var createProjectCmd = &cobra.Command{
	Use:   "createproject",
	Short: "Register a project with an empty escrow",
	Run:   createProjectRun,
}

func init() {
	txFlags(createProjectCmd, &createProjectArgs.txArguments)
	createProjectCmd.Flags().Uint64VarP(&createProjectArgs.Project, "project", "p", 0, "project id")
}

func createProjectRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(createProjectArgs.Url, createProjectArgs.Index, createProjectArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeCreateProject,
		Nonce:   nonce,
		Sender:  createProjectArgs.Index,
		Tx:      &tx.CreateProjectTx{Project: createProjectArgs.Project},
	}
	signAndBroadcast(createProjectArgs.Url, createProjectArgs.Skey, btx, createProjectArgs.NoSend)
}

var addMilestoneArgs struct {
	txArguments
	Project     uint64
	Milestone   uint64
	Amount      uint64
	Description string
}

var addMilestoneCmd = &cobra.Command{
	Use:   "addmilestone",
	Short: "Add a pending milestone to a project",
	Run:   addMilestoneRun,
}

func init() {
	txFlags(addMilestoneCmd, &addMilestoneArgs.txArguments)
	addMilestoneCmd.Flags().Uint64VarP(&addMilestoneArgs.Project, "project", "p", 0, "project id")
	addMilestoneCmd.Flags().Uint64VarP(&addMilestoneArgs.Milestone, "milestone", "m", 0, "milestone id")
	addMilestoneCmd.Flags().Uint64VarP(&addMilestoneArgs.Amount, "amount", "a", 0, "milestone amount")
	addMilestoneCmd.Flags().StringVarP(&addMilestoneArgs.Description, "desc", "", "", "milestone description")
}

func addMilestoneRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(addMilestoneArgs.Url, addMilestoneArgs.Index, addMilestoneArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeAddMilestone,
		Nonce:   nonce,
		Sender:  addMilestoneArgs.Index,
		Tx: &tx.AddMilestoneTx{
			Project:     addMilestoneArgs.Project,
			Milestone:   addMilestoneArgs.Milestone,
			Amount:      addMilestoneArgs.Amount,
			Description: addMilestoneArgs.Description,
		},
	}
	signAndBroadcast(addMilestoneArgs.Url, addMilestoneArgs.Skey, btx, addMilestoneArgs.NoSend)
}

var fundMilestoneArgs struct {
	txArguments
	Project   uint64
	Milestone uint64
	Amount    uint64
}

var fundMilestoneCmd = &cobra.Command{
	Use:   "fundmilestone",
	Short: "Move value into a milestone's escrow",
	Run:   fundMilestoneRun,
}

func init() {
	txFlags(fundMilestoneCmd, &fundMilestoneArgs.txArguments)
	fundMilestoneCmd.Flags().Uint64VarP(&fundMilestoneArgs.Project, "project", "p", 0, "project id")
	fundMilestoneCmd.Flags().Uint64VarP(&fundMilestoneArgs.Milestone, "milestone", "m", 0, "milestone id")
	fundMilestoneCmd.Flags().Uint64VarP(&fundMilestoneArgs.Amount, "amount", "a", 0, "amount to escrow")
}

func fundMilestoneRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(fundMilestoneArgs.Url, fundMilestoneArgs.Index, fundMilestoneArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeFundMilestone,
		Nonce:   nonce,
		Sender:  fundMilestoneArgs.Index,
		Tx: &tx.FundMilestoneTx{
			Project:   fundMilestoneArgs.Project,
			Milestone: fundMilestoneArgs.Milestone,
			Amount:    fundMilestoneArgs.Amount,
		},
	}
	signAndBroadcast(fundMilestoneArgs.Url, fundMilestoneArgs.Skey, btx, fundMilestoneArgs.NoSend)
}

var approveMilestoneArgs struct {
	txArguments
	Project   uint64
	Milestone uint64
}

var approveMilestoneCmd = &cobra.Command{
	Use:   "approvemilestone",
	Short: "Approve a funded milestone and release its escrow (admin)",
	Run:   approveMilestoneRun,
}

func init() {
	txFlags(approveMilestoneCmd, &approveMilestoneArgs.txArguments)
	approveMilestoneCmd.Flags().Uint64VarP(&approveMilestoneArgs.Project, "project", "p", 0, "project id")
	approveMilestoneCmd.Flags().Uint64VarP(&approveMilestoneArgs.Milestone, "milestone", "m", 0, "milestone id")
}

func approveMilestoneRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(approveMilestoneArgs.Url, approveMilestoneArgs.Index, approveMilestoneArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeApproveMilestone,
		Nonce:   nonce,
		Sender:  approveMilestoneArgs.Index,
		Tx: &tx.ApproveMilestoneTx{
			Project:   approveMilestoneArgs.Project,
			Milestone: approveMilestoneArgs.Milestone,
		},
	}
	signAndBroadcast(approveMilestoneArgs.Url, approveMilestoneArgs.Skey, btx, approveMilestoneArgs.NoSend)
}

var rejectMilestoneArgs struct {
	txArguments
	Project   uint64
	Milestone uint64
}

var rejectMilestoneCmd = &cobra.Command{
	Use:   "rejectmilestone",
	Short: "Reject a pending milestone, leaving funds claimable (admin)",
	Run:   rejectMilestoneRun,
}

func init() {
	txFlags(rejectMilestoneCmd, &rejectMilestoneArgs.txArguments)
	rejectMilestoneCmd.Flags().Uint64VarP(&rejectMilestoneArgs.Project, "project", "p", 0, "project id")
	rejectMilestoneCmd.Flags().Uint64VarP(&rejectMilestoneArgs.Milestone, "milestone", "m", 0, "milestone id")
}

func rejectMilestoneRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(rejectMilestoneArgs.Url, rejectMilestoneArgs.Index, rejectMilestoneArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeRejectMilestone,
		Nonce:   nonce,
		Sender:  rejectMilestoneArgs.Index,
		Tx: &tx.RejectMilestoneTx{
			Project:   rejectMilestoneArgs.Project,
			Milestone: rejectMilestoneArgs.Milestone,
		},
	}
	signAndBroadcast(rejectMilestoneArgs.Url, rejectMilestoneArgs.Skey, btx, rejectMilestoneArgs.NoSend)
}

var refundMilestoneArgs struct {
	txArguments
	Project   uint64
	Milestone uint64
}

var refundMilestoneCmd = &cobra.Command{
	Use:   "refundmilestone",
	Short: "Claim the remaining escrow of a rejected milestone",
	Run:   refundMilestoneRun,
}

func init() {
	txFlags(refundMilestoneCmd, &refundMilestoneArgs.txArguments)
	refundMilestoneCmd.Flags().Uint64VarP(&refundMilestoneArgs.Project, "project", "p", 0, "project id")
	refundMilestoneCmd.Flags().Uint64VarP(&refundMilestoneArgs.Milestone, "milestone", "m", 0, "milestone id")
}

func refundMilestoneRun(cmd *cobra.Command, args []string) {
	nonce, err := resolveNonce(refundMilestoneArgs.Url, refundMilestoneArgs.Index, refundMilestoneArgs.Nonce)
	if err != nil {
		return
	}
	btx := &tx.RFETx{
		Version: tx.RFETxVersion1,
		Type:    tx.RFETxTypeRefundMilestone,
		Nonce:   nonce,
		Sender:  refundMilestoneArgs.Index,
		Tx: &tx.RefundMilestoneTx{
			Project:   refundMilestoneArgs.Project,
			Milestone: refundMilestoneArgs.Milestone,
		},
	}
	signAndBroadcast(refundMilestoneArgs.Url, refundMilestoneArgs.Skey, btx, refundMilestoneArgs.NoSend)
}
