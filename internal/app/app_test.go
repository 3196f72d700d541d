package app

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/screens/home"
	"github.com/abhisek/quizmentor/internal/screens/welcome"
	"github.com/abhisek/quizmentor/internal/session"
	"github.com/abhisek/quizmentor/internal/store"
)

type fakeUsers struct {
	users map[int64]quiz.User
}

func (f *fakeUsers) Get(_ context.Context, id int64) (quiz.User, error) {
	u, ok := f.users[id]
	if !ok {
		return quiz.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Register(_ context.Context, id int64, fullName string, role quiz.Role) (quiz.User, error) {
	u := quiz.User{ID: id, FullName: fullName, Role: role}
	f.users[id] = u
	return u, nil
}

type nopEngine struct{}

func (nopEngine) BeginTopicChoice(context.Context, int64) ([]quiz.Topic, error) { return nil, nil }
func (nopEngine) ChooseTopic(context.Context, int64, string) (session.Reply, error) {
	return session.Reply{}, nil
}
func (nopEngine) SubmitAnswer(context.Context, int64, string) (session.Reply, error) {
	return session.Reply{}, nil
}
func (nopEngine) Abandon(int64) bool { return false }

func TestNewUserStartsOnWelcome(t *testing.T) {
	m, err := newAppModel(context.Background(), Options{Engine: nopEngine{}, Users: &fakeUsers{users: map[int64]quiz.User{}}, UserID: 1})
	require.NoError(t, err)
	_, ok := m.router.Active().(*welcome.WelcomeScreen)
	assert.True(t, ok)
	assert.Empty(t, m.user)
}

func TestRegisteredUserStartsOnTopics(t *testing.T) {
	users := &fakeUsers{users: map[int64]quiz.User{1: {ID: 1, FullName: "Alice Smith"}}}
	m, err := newAppModel(context.Background(), Options{Engine: nopEngine{}, Users: users, UserID: 1})
	require.NoError(t, err)
	_, ok := m.router.Active().(*home.HomeScreen)
	assert.True(t, ok)
	assert.Equal(t, "Alice Smith", m.user)
}

func TestViewRendersHeaderAndFooter(t *testing.T) {
	users := &fakeUsers{users: map[int64]quiz.User{1: {ID: 1, FullName: "Alice Smith"}}}
	m, err := newAppModel(context.Background(), Options{Engine: nopEngine{}, Users: users, UserID: 1})
	require.NoError(t, err)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	v := updated.(AppModel).View()
	assert.True(t, v.AltScreen)
}

func TestUserNamedUpdatesHeader(t *testing.T) {
	m, err := newAppModel(context.Background(), Options{Engine: nopEngine{}, Users: &fakeUsers{users: map[int64]quiz.User{}}, UserID: 1})
	require.NoError(t, err)

	updated, _ := m.Update(userNamedMsg("Bob Brown"))
	assert.Equal(t, "Bob Brown", updated.(AppModel).user)
}
