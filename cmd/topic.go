package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmentor/internal/authoring"
	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/store"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Manage topics and their tests",
}

var topicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		topics, err := st.Catalog().ListTopics(cmd.Context())
		if err != nil {
			return err
		}
		if len(topics) == 0 {
			fmt.Println("No topics yet. Add one with: quizmentor topic add <title>")
			return nil
		}
		fmt.Printf("%-5s  %-19s  %s\n", "ID", "Created", "Title")
		fmt.Println(strings.Repeat("─", 60))
		for _, t := range topics {
			fmt.Printf("%-5d  %-19s  %s\n", t.ID, t.CreatedAt.Local().Format("2006-01-02 15:04:05"), t.Title)
		}
		return nil
	},
}

var topicAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Generate a test for a topic with the LLM",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		eng, err := buildEngine(ctx, st, cfg)
		if err != nil {
			return err
		}

		count, _ := cmd.Flags().GetInt("count")
		if count <= 0 {
			count = cfg.Session.QuestionsPerTest
		}
		fmt.Println("Generating questions...")
		authored, err := eng.authoring.Generate(ctx, strings.Join(args, " "), count)
		if err != nil {
			return fmt.Errorf("generate test: %w", err)
		}
		printAuthored(authored)
		return nil
	},
}

var topicImportCmd = &cobra.Command{
	Use:   "import <title> <file.xlsx>",
	Short: "Store a test from a workbook (questions in column A, answers in column B)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sheet, _ := cmd.Flags().GetString("sheet")
		questions, err := authoring.ImportWorkbook(args[1], sheet)
		if err != nil {
			return err
		}

		st, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		authored, err := authoring.NewService(st.Catalog(), nil).Import(cmd.Context(), args[0], questions)
		if err != nil {
			return err
		}
		printAuthored(authored)
		return nil
	},
}

var topicExportCmd = &cobra.Command{
	Use:   "export <id|title>",
	Short: "Write the current test of a topic to a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		topic, err := lookupTopic(cmd, st, args[0])
		if err != nil {
			return err
		}
		def, err := st.Catalog().LatestDefinition(ctx, topic.ID)
		if err != nil {
			return fmt.Errorf("test for topic %d: %w", topic.ID, err)
		}
		buf, err := authoring.ExportWorkbook(topic.Title, def.Questions)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = fmt.Sprintf("topic_%d_test_%d.xlsx", topic.ID, def.ID)
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %d questions to %s\n", len(def.Questions), out)
		return nil
	},
}

// lookupTopic resolves a topic by numeric id, then by exact title.
func lookupTopic(cmd *cobra.Command, st *store.Store, ref string) (quiz.Topic, error) {
	ctx := cmd.Context()
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if t, err := st.Catalog().Topic(ctx, id); err == nil {
			return t, nil
		}
	}
	t, err := st.Catalog().TopicByTitle(ctx, ref)
	if err != nil {
		return quiz.Topic{}, fmt.Errorf("topic %q: %w", ref, err)
	}
	return t, nil
}

func printAuthored(a authoring.Authored) {
	fmt.Printf("Topic %q (id=%d) now has test %d with %d questions:\n",
		a.Topic.Title, a.Topic.ID, a.Definition.ID, len(a.Definition.Questions))
	for i, q := range a.Definition.Questions {
		fmt.Printf("%2d. %s\n    → %s\n", i+1, q.Prompt, q.Reference)
	}
}

func init() {
	topicAddCmd.Flags().IntP("count", "n", 0, "Number of questions (default QUIZMENTOR_QUESTIONS_PER_TEST)")
	topicImportCmd.Flags().String("sheet", "", "Sheet to read (default: first sheet)")
	topicExportCmd.Flags().StringP("output", "o", "", "Output file")

	topicCmd.AddCommand(topicListCmd)
	topicCmd.AddCommand(topicAddCmd)
	topicCmd.AddCommand(topicImportCmd)
	topicCmd.AddCommand(topicExportCmd)
}
