package store

import (
	"context"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const textSize = 2147483647

// Tables mirror the declarations in ent/schema.
var (
	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64},
		{Name: "full_name", Type: field.TypeString, Default: ""},
		{Name: "role", Type: field.TypeString, Default: "student"},
		{Name: "created_at", Type: field.TypeTime},
	}
	usersTable = &schema.Table{
		Name:       "users",
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	topicsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "title", Type: field.TypeString, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	topicsTable = &schema.Table{
		Name:       "topics",
		Columns:    topicsColumns,
		PrimaryKey: []*schema.Column{topicsColumns[0]},
	}

	testsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "topic_id", Type: field.TypeInt64},
		{Name: "questions_json", Type: field.TypeString, Size: textSize},
		{Name: "created_at", Type: field.TypeTime},
	}
	testsTable = &schema.Table{
		Name:       "tests",
		Columns:    testsColumns,
		PrimaryKey: []*schema.Column{testsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "tests_topics_tests",
				Columns:    []*schema.Column{testsColumns[1]},
				RefColumns: []*schema.Column{topicsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "test_topic_id_created_at", Columns: []*schema.Column{testsColumns[1], testsColumns[3]}},
		},
	}

	progressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "record_id", Type: field.TypeString, Unique: true},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "topic_id", Type: field.TypeInt64},
		{Name: "test_id", Type: field.TypeInt64},
		{Name: "score", Type: field.TypeInt},
		{Name: "passed", Type: field.TypeBool},
		{Name: "result_json", Type: field.TypeString, Size: textSize},
		{Name: "completed_at", Type: field.TypeTime},
	}
	progressTable = &schema.Table{
		Name:       "progress",
		Columns:    progressColumns,
		PrimaryKey: []*schema.Column{progressColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "progress_users_progress",
				Columns:    []*schema.Column{progressColumns[2]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "progress_topics_progress",
				Columns:    []*schema.Column{progressColumns[3]},
				RefColumns: []*schema.Column{topicsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "progress_user_id", Columns: []*schema.Column{progressColumns[2]}},
			{Name: "progress_topic_id_completed_at", Columns: []*schema.Column{progressColumns[3], progressColumns[8]}},
		},
	}

	progressAnswersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "progress_id", Type: field.TypeInt64},
		{Name: "ordinal", Type: field.TypeInt},
		{Name: "prompt", Type: field.TypeString, Size: textSize},
		{Name: "reference", Type: field.TypeString, Size: textSize},
		{Name: "answer", Type: field.TypeString, Size: textSize},
		{Name: "correct", Type: field.TypeBool},
		{Name: "comment", Type: field.TypeString, Size: textSize},
	}
	progressAnswersTable = &schema.Table{
		Name:       "progress_answers",
		Columns:    progressAnswersColumns,
		PrimaryKey: []*schema.Column{progressAnswersColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "progress_answers_progress_answers",
				Columns:    []*schema.Column{progressAnswersColumns[1]},
				RefColumns: []*schema.Column{progressColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "progressanswer_progress_id_ordinal", Unique: true, Columns: []*schema.Column{progressAnswersColumns[1], progressAnswersColumns[2]}},
		},
	}

	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: textSize, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventsColumns[4]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{llmEventsColumns[8]}},
		},
	}

	tables = []*schema.Table{
		usersTable,
		topicsTable,
		testsTable,
		progressTable,
		progressAnswersTable,
		llmEventsTable,
	}
)

func init() {
	testsTable.ForeignKeys[0].RefTable = topicsTable
	progressTable.ForeignKeys[0].RefTable = usersTable
	progressTable.ForeignKeys[1].RefTable = topicsTable
	progressAnswersTable.ForeignKeys[0].RefTable = progressTable
}

func (s *Store) migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}
