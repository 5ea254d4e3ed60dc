package main

import (
	"fmt"
	"os"
)

func main() {
	clCmd.AddCommand(accountCmd)
	clCmd.AddCommand(initCmd)
	clCmd.AddCommand(versionCmd)
	clCmd.AddCommand(pubkeyCmd)
	clCmd.AddCommand(signCmd)
	clCmd.AddCommand(createProjectCmd)
	clCmd.AddCommand(addMilestoneCmd)
	clCmd.AddCommand(fundMilestoneCmd)
	clCmd.AddCommand(approveMilestoneCmd)
	clCmd.AddCommand(rejectMilestoneCmd)
	clCmd.AddCommand(refundMilestoneCmd)
	clCmd.AddCommand(newProposalCmd)
	clCmd.AddCommand(voteCmd)
	clCmd.AddCommand(finalizeProposalCmd)
	clCmd.AddCommand(registerStakeCmd)
	clCmd.AddCommand(setPausedCmd)
	clCmd.AddCommand(transferAdminCmd)
	if err := clCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
