package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Topic is a subject a test can be taken on.
type Topic struct {
	ent.Schema
}

func (Topic) Mixin() []ent.Mixin {
	return []ent.Mixin{CreatedMixin{}}
}

func (Topic) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id"),
		field.String("title").
			NotEmpty().
			Unique().
			Comment("Case-sensitive topic title"),
	}
}

func (Topic) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("tests", Test.Type),
		edge.To("progress", Progress.Type),
	}
}
