package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// User roles and statuses
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive = "active"
)

// User is a learner account
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Role      string    `db:"role" json:"role"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Answer stores a single answered question
type Answer struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	QuestionID  int64     `db:"question_id" json:"questionId"`
	AnswerIndex int       `db:"answer_index" json:"answerIndex"`
	Correct     bool      `db:"correct" json:"correct"`
	AnsweredAt  time.Time `db:"answered_at" json:"answeredAt"`
}

// AnswerInput is what a client posts when answering a question
type AnswerInput struct {
	UserID      int64 `json:"userId"`
	QuestionID  int64 `json:"questionId"`
	AnswerIndex int   `json:"answerIndex"`
}

// Validate checks the references and the option index
func (in AnswerInput) Validate() error {
	var errs []error
	if in.UserID <= 0 {
		errs = append(errs, errors.New("userId is required"))
	}
	if in.QuestionID <= 0 {
		errs = append(errs, errors.New("questionId is required"))
	}
	if in.AnswerIndex < 0 || in.AnswerIndex >= OptionCount {
		errs = append(errs, fmt.Errorf("answerIndex %d out of range", in.AnswerIndex))
	}
	return errors.Join(errs...)
}

// AnswerResult is returned after recording an answer
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// UserStats summarises a user's answer history
type UserStats struct {
	UserID    int64   `json:"userId"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Total     int     `json:"total"`
	Accuracy  float64 `json:"accuracy"`
	// Questions answered wrong most often, most frequent first.
	Hardest []int64 `json:"hardest"`
}

// NewUserStats computes totals and accuracy as a percentage
func NewUserStats(userID int64, correct, incorrect int, hardest []int64) UserStats {
	s := UserStats{UserID: userID, Correct: correct, Incorrect: incorrect, Total: correct + incorrect, Hardest: hardest}
	if s.Total > 0 {
		s.Accuracy = float64(correct) / float64(s.Total) * 100
	}
	if s.Hardest == nil {
		s.Hardest = []int64{}
	}
	return s
}

// AnswerState is the latest answer a user gave to a question
type AnswerState struct {
	QuestionID int64 `db:"question_id"`
	Correct    bool  `db:"correct"`
}

// UserInput registers a new user
type UserInput struct {
	Username string `json:"username"`
}

// Validate checks the username
func (in UserInput) Validate() error {
	name := strings.TrimSpace(in.Username)
	if name == "" {
		return errors.New("username is required")
	}
	if len(name) > 64 {
		return errors.New("username is longer than 64 characters")
	}
	return nil
}
