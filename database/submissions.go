package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/korjavin/gkentei/models"
	"github.com/korjavin/gkentei/query"
)

var (
	submissionColumns = query.SubmittedQuestions.SelectList("")
	feedbackColumns   = query.Feedback.SelectList("")
)

// CreateSubmission stores a user-proposed question as pending
func (db *DB) CreateSubmission(ctx context.Context, in models.SubmissionInput) (models.SubmittedQuestion, error) {
	q := in.QuestionInput.Normalized()
	s, err := collectOne[models.SubmittedQuestion](ctx, db.pool, `
		INSERT INTO submitted_questions (user_id, category, question, options, correct_answer, explanation, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+submissionColumns,
		in.UserID, q.Category, q.Question, q.Options, q.CorrectAnswer, q.Explanation, models.SubmissionPending,
	)
	if err != nil {
		return s, fmt.Errorf("create submission: %w", err)
	}
	return s, nil
}

// PaginateSubmissions lists submissions; pending ones unless a status is given
func (db *DB) PaginateSubmissions(ctx context.Context, req query.Request) (query.Result[models.SubmittedQuestion], error) {
	return query.Paginate[models.SubmittedQuestion](ctx, db.pool, query.SubmittedQuestions, req)
}

// ApproveSubmission publishes a pending submission as a question
func (db *DB) ApproveSubmission(ctx context.Context, id int64) (models.Question, error) {
	var published models.Question
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		s, err := lockPendingSubmission(ctx, tx, id)
		if err != nil {
			return err
		}

		in := s.Input().Normalized()
		published, err = collectOne[models.Question](ctx, tx, `
			INSERT INTO questions (category, question, options, correct_answer, explanation, option_explanations, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+questionColumns,
			in.Category, in.Question, in.Options, in.CorrectAnswer, in.Explanation, in.OptionExplanations, in.Source,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, "UPDATE submitted_questions SET status = $2 WHERE id = $1", id, models.SubmissionApproved)
		return err
	})
	if err != nil {
		return published, fmt.Errorf("approve submission %d: %w", id, err)
	}
	return published, nil
}

// RejectSubmission marks a pending submission rejected
func (db *DB) RejectSubmission(ctx context.Context, id int64) error {
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := lockPendingSubmission(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "UPDATE submitted_questions SET status = $2 WHERE id = $1", id, models.SubmissionRejected)
		return err
	})
	if err != nil {
		return fmt.Errorf("reject submission %d: %w", id, err)
	}
	return nil
}

func lockPendingSubmission(ctx context.Context, tx pgx.Tx, id int64) (models.SubmittedQuestion, error) {
	s, err := collectOne[models.SubmittedQuestion](ctx, tx,
		"SELECT "+submissionColumns+" FROM submitted_questions WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return s, err
	}
	if s.Status != models.SubmissionPending {
		return s, fmt.Errorf("%w: submission is %s", ErrConflict, s.Status)
	}
	return s, nil
}

// CreateFeedback stores a user report
func (db *DB) CreateFeedback(ctx context.Context, in models.FeedbackInput) (models.Feedback, error) {
	f, err := collectOne[models.Feedback](ctx, db.pool, `
		INSERT INTO feedback (user_id, question_id, type, priority, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+feedbackColumns,
		in.UserID, in.QuestionID, in.Type, in.Priority, in.Message,
	)
	if err != nil {
		return f, fmt.Errorf("create feedback: %w", err)
	}
	return f, nil
}

// PaginateFeedback lists feedback reports
func (db *DB) PaginateFeedback(ctx context.Context, req query.Request) (query.Result[models.Feedback], error) {
	return query.Paginate[models.Feedback](ctx, db.pool, query.Feedback, req)
}
