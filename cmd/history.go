package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Show a learner's completed tests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		st, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		user, err := st.Users().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}
		records, err := st.Progress().ForUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Printf("%s has not completed any tests.\n", user.FullName)
			return nil
		}

		fmt.Printf("Tests completed by %s\n", user.FullName)
		fmt.Printf("%-19s  %-6s  %-6s  %-6s  %s\n", "Completed", "Topic", "Test", "Score", "Result")
		fmt.Println(strings.Repeat("─", 60))
		for _, r := range records {
			result := "failed"
			if r.Passed {
				result = "passed"
			}
			fmt.Printf("%-19s  %-6d  %-6d  %5d%%  %s\n",
				r.CompletedAt.Local().Format("2006-01-02 15:04:05"), r.TopicID, r.TestID, r.Score, result)
		}
		return nil
	},
}
