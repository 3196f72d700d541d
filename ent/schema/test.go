package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Test is one generated or imported question set for a topic. The newest
// test of a topic is the one sessions are started from.
type Test struct {
	ent.Schema
}

func (Test) Mixin() []ent.Mixin {
	return []ent.Mixin{CreatedMixin{}}
}

func (Test) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id"),
		field.Int64("topic_id"),
		field.Text("questions_json").
			Comment("Ordered prompt and reference pairs as JSON"),
	}
}

func (Test) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("topic", Topic.Type).
			Ref("tests").
			Field("topic_id").
			Unique().
			Required(),
	}
}

func (Test) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("topic_id", "created_at"),
	}
}
