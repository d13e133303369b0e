package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OptionCount is the number of answer options every exam question carries.
const OptionCount = 4

// Question represents a multiple-choice exam question
type Question struct {
	ID                 int64     `db:"id" json:"id"`
	Category           string    `db:"category" json:"category"`
	Question           string    `db:"question" json:"question"`
	Options            []string  `db:"options" json:"options"`
	CorrectAnswer      int       `db:"correct_answer" json:"correctAnswer"`
	Explanation        string    `db:"explanation" json:"explanation"`
	OptionExplanations []string  `db:"option_explanations" json:"optionExplanations,omitempty"`
	Source             string    `db:"source" json:"source"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`

	// Set only on user-scoped responses.
	Answered    *bool `db:"-" json:"answered,omitempty"`
	LastCorrect *bool `db:"-" json:"lastCorrect,omitempty"`
}

// QuestionInput is the writable part of a Question
type QuestionInput struct {
	Category           string   `json:"category" yaml:"category"`
	Question           string   `json:"question" yaml:"question"`
	Options            []string `json:"options" yaml:"options"`
	CorrectAnswer      int      `json:"correctAnswer" yaml:"correct_answer"`
	Explanation        string   `json:"explanation" yaml:"explanation"`
	OptionExplanations []string `json:"optionExplanations" yaml:"option_explanations"`
	Source             string   `json:"source" yaml:"source"`
}

// Validate checks the input is a well-formed four-option question
func (in QuestionInput) Validate() error {
	var errs []error
	if strings.TrimSpace(in.Category) == "" {
		errs = append(errs, errors.New("category is required"))
	}
	if strings.TrimSpace(in.Question) == "" {
		errs = append(errs, errors.New("question is required"))
	}
	if len(in.Options) != OptionCount {
		errs = append(errs, fmt.Errorf("expected %d options, got %d", OptionCount, len(in.Options)))
	}
	for i, o := range in.Options {
		if strings.TrimSpace(o) == "" {
			errs = append(errs, fmt.Errorf("option %d is empty", i))
		}
	}
	if in.CorrectAnswer < 0 || in.CorrectAnswer >= OptionCount {
		errs = append(errs, fmt.Errorf("correctAnswer %d out of range", in.CorrectAnswer))
	}
	if n := len(in.OptionExplanations); n != 0 && n != OptionCount {
		errs = append(errs, fmt.Errorf("expected 0 or %d option explanations, got %d", OptionCount, n))
	}
	return errors.Join(errs...)
}

// Normalized returns a copy with whitespace trimmed and nil slices replaced
func (in QuestionInput) Normalized() QuestionInput {
	out := in
	out.Category = strings.TrimSpace(in.Category)
	out.Question = strings.TrimSpace(in.Question)
	out.Explanation = strings.TrimSpace(in.Explanation)
	out.Source = strings.TrimSpace(in.Source)
	if out.OptionExplanations == nil {
		out.OptionExplanations = []string{}
	}
	return out
}

// Category groups questions by syllabus area
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Topic       string    `db:"topic" json:"topic"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// CategoryInput is the writable part of a Category
type CategoryInput struct {
	Name        string `json:"name" yaml:"name"`
	Topic       string `json:"topic" yaml:"topic"`
	Description string `json:"description" yaml:"description"`
}

// Validate checks the category has a name
func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}
