package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// User is a learner or the teacher. Ids come from the chat transport, so
// they are assigned by the caller rather than the database.
type User struct {
	ent.Schema
}

func (User) Mixin() []ent.Mixin {
	return []ent.Mixin{CreatedMixin{}}
}

func (User) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id").
			Immutable().
			Comment("Chat user id"),
		field.String("full_name").
			Default("").
			Comment("Display name, may be empty"),
		field.String("role").
			Default("student").
			Comment("student or teacher"),
	}
}

func (User) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("progress", Progress.Type),
	}
}
