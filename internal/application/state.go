package application

import (
	"errors"
	"time"

	"ticketbot/pkg"
)

// ErrComplete is returned when an answer arrives after the last question
var ErrComplete = errors.New("application already complete")

// State is the progress of one application. The cursor is the number of
// recorded answers, so cursor and answers cannot drift apart.
type State struct {
	ID           string
	ChannelID    string
	Applicant    pkg.User
	RoleType     pkg.RoleType
	Questions    []string
	Answers      []string
	LastActivity time.Time
}

// Cursor is the index of the question awaiting an answer
func (s *State) Cursor() int {
	return len(s.Answers)
}

// Done reports whether every question has an answer
func (s *State) Done() bool {
	return len(s.Answers) >= len(s.Questions)
}

// Current returns the question awaiting an answer
func (s *State) Current() (string, bool) {
	if s.Done() {
		return "", false
	}
	return s.Questions[len(s.Answers)], true
}

// Record stores answer verbatim for the current question. It returns the
// next question, or done once the last question has been answered.
func (s *State) Record(answer string, at time.Time) (next string, done bool, err error) {
	if s.Done() {
		return "", true, ErrComplete
	}
	s.Answers = append(s.Answers, answer)
	s.LastActivity = at

	if s.Done() {
		return "", true, nil
	}
	return s.Questions[len(s.Answers)], false, nil
}

// ReviewRecord builds the transcript of a completed application
func (s *State) ReviewRecord(completedAt time.Time) pkg.ReviewRecord {
	pairs := make([]pkg.QAPair, len(s.Answers))
	for i, a := range s.Answers {
		pairs[i] = pkg.QAPair{Question: s.Questions[i], Answer: a}
	}
	return pkg.ReviewRecord{
		ApplicationID: s.ID,
		ApplicantID:   s.Applicant.ID,
		ApplicantName: s.Applicant.Username,
		RoleType:      s.RoleType,
		Answers:       pairs,
		CompletedAt:   completedAt,
	}
}
