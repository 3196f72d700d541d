package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmentor/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <id|title>",
	Short: "Write the results of a topic to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		topic, err := lookupTopic(cmd, st, args[0])
		if err != nil {
			return err
		}
		results, err := st.Progress().ResultsForTopic(cmd.Context(), topic.ID)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Printf("Nobody has taken the test on %q yet.\n", topic.Title)
			return nil
		}

		buf, err := report.Build(topic.Title, results)
		if err != nil {
			return fmt.Errorf("build report: %w", err)
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = report.FileName(topic.ID)
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %d results to %s\n", len(results), out)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringP("output", "o", "", "Output file (default report_topic_<id>.xlsx)")
}
