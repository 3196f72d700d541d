package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizmentor/internal/quiz"
)

// UserRepo is the user directory.
type UserRepo struct {
	s *Store
}

// Users returns the user directory backed by this store.
func (s *Store) Users() *UserRepo {
	return &UserRepo{s: s}
}

// Register records the user's full name and role, creating the user if
// needed. The name must contain at least two words.
func (r *UserRepo) Register(ctx context.Context, id int64, fullName string, role quiz.Role) (quiz.User, error) {
	name, err := quiz.NormalizeFullName(fullName)
	if err != nil {
		return quiz.User{}, err
	}
	if role == "" {
		role = quiz.RoleStudent
	}

	ins := r.s.sqlb().Insert(usersTable.Name).
		Columns("id", "full_name", "role", "created_at").
		Values(id, name, string(role), time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("full_name")
				u.SetExcluded("role")
			}),
		)
	if err := execStmt(ctx, r.s.drv, ins); err != nil {
		return quiz.User{}, fmt.Errorf("register user %d: %w", id, err)
	}
	return r.Get(ctx, id)
}

// Get returns the user with the given id, registered or not.
func (r *UserRepo) Get(ctx context.Context, id int64) (quiz.User, error) {
	q := r.s.sqlb().Select("id", "full_name", "role", "created_at").
		From(r.s.sqlb().Table(usersTable.Name)).
		Where(entsql.EQ("id", id))

	var u quiz.User
	var role string
	if err := queryOne(ctx, r.s.drv, q, &u.ID, &u.FullName, &role, &u.CreatedAt); err != nil {
		return quiz.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	u.Role = quiz.Role(role)
	return u, nil
}

// Resolve returns the user only when registered; anyone else is ErrNotFound.
func (r *UserRepo) Resolve(ctx context.Context, id int64) (quiz.User, error) {
	u, err := r.Get(ctx, id)
	if err != nil {
		return quiz.User{}, err
	}
	if !u.Registered() {
		return quiz.User{}, fmt.Errorf("user %d is not registered: %w", id, ErrNotFound)
	}
	return u, nil
}

// List returns all users ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]quiz.User, error) {
	q := r.s.sqlb().Select("id", "full_name", "role", "created_at").
		From(r.s.sqlb().Table(usersTable.Name)).
		OrderBy("full_name", "id")

	var users []quiz.User
	err := queryRows(ctx, r.s.drv, q, func(rows *entsql.Rows) error {
		var u quiz.User
		var role string
		if err := rows.Scan(&u.ID, &u.FullName, &role, &u.CreatedAt); err != nil {
			return err
		}
		u.Role = quiz.Role(role)
		users = append(users, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
