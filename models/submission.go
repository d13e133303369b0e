package models

import (
	"errors"
	"strings"
	"time"
)

// Submission review states
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// SubmittedQuestion is a question proposed by a user and awaiting review
type SubmittedQuestion struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"userId"`
	Category      string    `db:"category" json:"category"`
	Question      string    `db:"question" json:"question"`
	Options       []string  `db:"options" json:"options"`
	CorrectAnswer int       `db:"correct_answer" json:"correctAnswer"`
	Explanation   string    `db:"explanation" json:"explanation"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Input returns the submission as a question to publish
func (s SubmittedQuestion) Input() QuestionInput {
	return QuestionInput{
		Category:      s.Category,
		Question:      s.Question,
		Options:       s.Options,
		CorrectAnswer: s.CorrectAnswer,
		Explanation:   s.Explanation,
		Source:        "submission",
	}
}

// SubmissionInput is posted by users proposing a question
type SubmissionInput struct {
	UserID int64 `json:"userId"`
	QuestionInput
}

// Validate checks the submitter and the question body
func (in SubmissionInput) Validate() error {
	var errs []error
	if in.UserID <= 0 {
		errs = append(errs, errors.New("userId is required"))
	}
	if err := in.QuestionInput.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Feedback priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Feedback is a user report about a question or the app
type Feedback struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"userId"`
	QuestionID *int64    `db:"question_id" json:"questionId,omitempty"`
	Type       string    `db:"type" json:"type"`
	Priority   string    `db:"priority" json:"priority"`
	Message    string    `db:"message" json:"message"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// FeedbackInput is posted by users
type FeedbackInput struct {
	UserID     int64  `json:"userId"`
	QuestionID *int64 `json:"questionId"`
	Type       string `json:"type"`
	Priority   string `json:"priority"`
	Message    string `json:"message"`
}

// Validate checks the required fields and fills defaults
func (in *FeedbackInput) Validate() error {
	var errs []error
	if in.UserID <= 0 {
		errs = append(errs, errors.New("userId is required"))
	}
	if strings.TrimSpace(in.Message) == "" {
		errs = append(errs, errors.New("message is required"))
	}
	if in.Type == "" {
		in.Type = "general"
	}
	switch in.Priority {
	case "":
		in.Priority = PriorityNormal
	case PriorityLow, PriorityNormal, PriorityHigh:
	default:
		errs = append(errs, errors.New("priority must be low, normal or high"))
	}
	return errors.Join(errs...)
}
