package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ProgressAnswer is one judged answer of a stored result.
type ProgressAnswer struct {
	ent.Schema
}

func (ProgressAnswer) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id"),
		field.Int64("progress_id"),
		field.Int("ordinal").
			Comment("Question position, starting at 1"),
		field.Text("prompt"),
		field.Text("reference"),
		field.Text("answer").
			Comment("Learner text as submitted, may be blank"),
		field.Bool("correct"),
		field.Text("comment").
			Comment("Judge comment"),
	}
}

func (ProgressAnswer) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("progress", Progress.Type).
			Ref("answers").
			Field("progress_id").
			Unique().
			Required(),
	}
}

func (ProgressAnswer) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("progress_id", "ordinal").Unique(),
	}
}
