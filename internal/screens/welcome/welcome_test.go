package welcome

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/router"
	"github.com/abhisek/quizmentor/internal/screen"
)

type stubScreen struct{ user quiz.User }

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                   { return "home" }
func (s *stubScreen) Title() string                          { return "Topics" }

type fakeRegistrar struct {
	calls []string
	err   error
}

func (f *fakeRegistrar) Register(_ context.Context, id int64, fullName string, role quiz.Role) (quiz.User, error) {
	f.calls = append(f.calls, fullName)
	if f.err != nil {
		return quiz.User{}, f.err
	}
	return quiz.User{ID: id, FullName: fullName, Role: role}, nil
}

func newTestWelcome(reg Registrar) (*WelcomeScreen, *int) {
	built := 0
	w := New(reg, 42, func(u quiz.User) screen.Screen {
		built++
		return &stubScreen{user: u}
	})
	return w, &built
}

func skipIntro(w *WelcomeScreen) {
	w.Update(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
}

func typeText(w *WelcomeScreen, s string) {
	for _, r := range s {
		w.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func pressEnter(w *WelcomeScreen) tea.Cmd {
	_, cmd := w.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return cmd
}

func TestIntroTicksThenPrompt(t *testing.T) {
	w, _ := newTestWelcome(&fakeRegistrar{})

	assert.NotContains(t, w.View(80, 24), "full name")

	for i := 0; i < int(introDur/tickInterval); i++ {
		w.Update(tickMsg(time.Now()))
	}
	assert.True(t, w.introDone())
	assert.Contains(t, w.View(80, 24), "What is your full name?")

	_, cmd := w.Update(tickMsg(time.Now()))
	assert.Nil(t, cmd, "ticking stops once the intro is over")
}

func TestKeypressSkipsIntro(t *testing.T) {
	w, _ := newTestWelcome(&fakeRegistrar{})
	skipIntro(w)
	assert.True(t, w.introDone())
	assert.Empty(t, w.input.Value(), "the skipping key is not typed into the input")
}

func TestSingleWordNameIsRejected(t *testing.T) {
	reg := &fakeRegistrar{}
	w, built := newTestWelcome(reg)
	skipIntro(w)

	typeText(w, "Alice")
	cmd := pressEnter(w)

	assert.Nil(t, cmd)
	assert.Empty(t, reg.calls)
	assert.Zero(t, *built)
	assert.Contains(t, w.View(80, 24), "first and last name")
}

func TestRegistrationReplacesScreen(t *testing.T) {
	reg := &fakeRegistrar{}
	w, built := newTestWelcome(reg)
	skipIntro(w)

	typeText(w, "  Alice   Smith ")
	cmd := pressEnter(w)
	require.NotNil(t, cmd)
	assert.True(t, w.saving)

	msg := cmd()
	require.Equal(t, []string{"Alice Smith"}, reg.calls)

	_, next := w.Update(msg)
	require.NotNil(t, next)
	replace, ok := next().(router.ReplaceScreenMsg)
	require.True(t, ok, "expected ReplaceScreenMsg")
	assert.Equal(t, "Alice Smith", replace.Screen.(*stubScreen).user.FullName)
	assert.Equal(t, 1, *built)

	// A second completion does not build another home screen.
	_, again := w.Update(msg)
	assert.Nil(t, again)
	assert.Equal(t, 1, *built)
}

func TestRegistrationErrorIsShown(t *testing.T) {
	w, built := newTestWelcome(&fakeRegistrar{err: errors.New("disk full")})
	skipIntro(w)

	typeText(w, "Alice Smith")
	cmd := pressEnter(w)
	require.NotNil(t, cmd)
	w.Update(cmd())

	assert.False(t, w.saving)
	assert.Zero(t, *built)
	assert.Contains(t, w.View(80, 24), "disk full")
}

func TestBannerFallsBackWhenNarrow(t *testing.T) {
	assert.Contains(t, RenderBanner(30), "Q U I Z M E N T O R")
	assert.True(t, strings.Contains(RenderBanner(80), "M E N T O R"))
}
