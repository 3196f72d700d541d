package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Progress is the stored result of one finished test.
type Progress struct {
	ent.Schema
}

func (Progress) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id"),
		field.String("record_id").
			NotEmpty().
			Unique().
			Immutable().
			Comment("Session id; makes retried saves idempotent"),
		field.Int64("user_id"),
		field.Int64("topic_id"),
		field.Int64("test_id").
			Comment("Test the session was started from"),
		field.Int("score").
			Comment("Correct answers out of the test length"),
		field.Bool("passed"),
		field.Text("result_json").
			Comment("Score line, remediation and degradation flag"),
		field.Time("completed_at"),
	}
}

func (Progress) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("progress").
			Field("user_id").
			Unique().
			Required(),
		edge.From("topic", Topic.Type).
			Ref("progress").
			Field("topic_id").
			Unique().
			Required(),
		edge.To("answers", ProgressAnswer.Type),
	}
}

func (Progress) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
		index.Fields("topic_id", "completed_at"),
	}
}
