package session

import (
	"time"

	sess "github.com/abhisek/quizmentor/internal/session"
)

// answerJudgedMsg is sent when the engine has processed a submitted answer.
type answerJudgedMsg struct {
	Reply sess.Reply
	Err   error
}

// spinnerTickMsg is sent at short intervals to animate the checking spinner.
type spinnerTickMsg time.Time
