package api

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/korjavin/gkentei/database"
	"github.com/korjavin/gkentei/models"
	"github.com/korjavin/gkentei/query"
)

// fakeStore is an in-memory Store. It understands the category filter and
// id ordering, which is all the handler tests need.
type fakeStore struct {
	mu         sync.Mutex
	questions  []models.Question
	categories []models.Category
	users      []models.User
	answers    map[int64]map[int64]bool
	calls      map[string]int
	err        error

	// gate, when set, blocks ListQuestions until closed.
	gate chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		answers: make(map[int64]map[int64]bool),
		calls:   make(map[string]int),
	}
}

func (f *fakeStore) addQuestions(category string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		id := int64(len(f.questions) + 1)
		f.questions = append(f.questions, models.Question{
			ID:        id,
			Category:  category,
			Question:  fmt.Sprintf("%s question %d", category, i+1),
			Options:   []string{"a", "b", "c", "d"},
			CreatedAt: time.Unix(id, 0).UTC(),
		})
	}
}

func (f *fakeStore) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.err
}

func (f *fakeStore) filtered(req query.Request) []models.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Question
	for _, q := range f.questions {
		if cat, ok := req.Filters[query.ColCategory]; ok && q.Category != cat {
			continue
		}
		out = append(out, q)
	}
	slices.SortFunc(out, func(a, b models.Question) int {
		if req.Order == query.Asc {
			return cmp.Compare(a.ID, b.ID)
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (f *fakeStore) Ping(context.Context) error { return f.record("Ping") }

func (f *fakeStore) ListQuestions(_ context.Context, req query.Request) ([]models.Question, error) {
	if err := f.record("ListQuestions"); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.filtered(req), nil
}

func (f *fakeStore) PaginateQuestions(_ context.Context, req query.Request) (query.Result[models.Question], error) {
	if err := f.record("PaginateQuestions"); err != nil {
		return query.Result[models.Question]{}, fmt.Errorf("count questions: %w", err)
	}
	all := f.filtered(req)
	start := min(req.Offset(), len(all))
	end := min(start+req.Limit, len(all))
	return query.NewResult(all[start:end], int64(len(all)), req.Page, req.Limit), nil
}

func (f *fakeStore) GetQuestion(_ context.Context, id int64) (models.Question, error) {
	if err := f.record("GetQuestion"); err != nil {
		return models.Question{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return models.Question{}, fmt.Errorf("get question %d: %w", id, database.ErrNotFound)
}

func (f *fakeStore) CreateQuestion(_ context.Context, in models.QuestionInput) (models.Question, error) {
	if err := f.record("CreateQuestion"); err != nil {
		return models.Question{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q := models.Question{
		ID:            int64(len(f.questions) + 1),
		Category:      in.Category,
		Question:      in.Question,
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
	}
	f.questions = append(f.questions, q)
	return q, nil
}

func (f *fakeStore) UpdateQuestion(_ context.Context, id int64, in models.QuestionInput) (models.Question, error) {
	if err := f.record("UpdateQuestion"); err != nil {
		return models.Question{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.questions {
		if f.questions[i].ID == id {
			f.questions[i].Category = in.Category
			f.questions[i].Question = in.Question
			f.questions[i].Options = in.Options
			f.questions[i].CorrectAnswer = in.CorrectAnswer
			return f.questions[i], nil
		}
	}
	return models.Question{}, database.ErrNotFound
}

func (f *fakeStore) DeleteQuestion(_ context.Context, id int64) error {
	if err := f.record("DeleteQuestion"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.questions {
		if f.questions[i].ID == id {
			f.questions = slices.Delete(f.questions, i, i+1)
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeStore) LatestAnswers(_ context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	if err := f.record("LatestAnswers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]bool)
	for _, id := range ids {
		if c, ok := f.answers[userID][id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeStore) ListCategories(context.Context) ([]models.Category, error) {
	if err := f.record("ListCategories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.categories), nil
}

func (f *fakeStore) CreateCategory(_ context.Context, in models.CategoryInput) (models.Category, error) {
	if err := f.record("CreateCategory"); err != nil {
		return models.Category{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == in.Name {
			return models.Category{}, fmt.Errorf("create category: %w", database.ErrConflict)
		}
	}
	c := models.Category{ID: int64(len(f.categories) + 1), Name: in.Name, Topic: in.Topic}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, id int64, in models.CategoryInput) (models.Category, error) {
	if err := f.record("UpdateCategory"); err != nil {
		return models.Category{}, err
	}
	return models.Category{ID: id, Name: in.Name, Topic: in.Topic}, nil
}

func (f *fakeStore) DeleteCategory(context.Context, int64) error {
	return f.record("DeleteCategory")
}

func (f *fakeStore) ListUsers(context.Context, query.Request) ([]models.User, error) {
	if err := f.record("ListUsers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.users), nil
}

func (f *fakeStore) PaginateUsers(_ context.Context, req query.Request) (query.Result[models.User], error) {
	if err := f.record("PaginateUsers"); err != nil {
		return query.Result[models.User]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return query.NewResult(slices.Clone(f.users), int64(len(f.users)), req.Page, req.Limit), nil
}

func (f *fakeStore) CreateUser(_ context.Context, in models.UserInput) (models.User, error) {
	if err := f.record("CreateUser"); err != nil {
		return models.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{ID: int64(len(f.users) + 1), Username: in.Username, Role: models.RoleUser, Status: models.StatusActive}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeStore) GetUserStats(_ context.Context, userID int64) (models.UserStats, error) {
	if err := f.record("GetUserStats"); err != nil {
		return models.UserStats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var correct, incorrect int
	for _, c := range f.answers[userID] {
		if c {
			correct++
		} else {
			incorrect++
		}
	}
	return models.NewUserStats(userID, correct, incorrect, nil), nil
}

func (f *fakeStore) SaveAnswer(_ context.Context, in models.AnswerInput) (models.AnswerResult, error) {
	if err := f.record("SaveAnswer"); err != nil {
		return models.AnswerResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if q.ID != in.QuestionID {
			continue
		}
		res := models.AnswerResult{Correct: in.AnswerIndex == q.CorrectAnswer, CorrectAnswer: q.CorrectAnswer}
		if f.answers[in.UserID] == nil {
			f.answers[in.UserID] = make(map[int64]bool)
		}
		f.answers[in.UserID][in.QuestionID] = res.Correct
		return res, nil
	}
	return models.AnswerResult{}, database.ErrNotFound
}

func (f *fakeStore) CreateSubmission(_ context.Context, in models.SubmissionInput) (models.SubmittedQuestion, error) {
	if err := f.record("CreateSubmission"); err != nil {
		return models.SubmittedQuestion{}, err
	}
	return models.SubmittedQuestion{ID: 1, UserID: in.UserID, Category: in.Category, Question: in.Question, Status: models.SubmissionPending}, nil
}

func (f *fakeStore) PaginateSubmissions(_ context.Context, req query.Request) (query.Result[models.SubmittedQuestion], error) {
	if err := f.record("PaginateSubmissions"); err != nil {
		return query.Result[models.SubmittedQuestion]{}, err
	}
	return query.NewResult[models.SubmittedQuestion](nil, 0, req.Page, req.Limit), nil
}

func (f *fakeStore) ApproveSubmission(context.Context, int64) (models.Question, error) {
	if err := f.record("ApproveSubmission"); err != nil {
		return models.Question{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q := models.Question{ID: int64(len(f.questions) + 1), Category: "Approved", Question: "approved", Options: []string{"a", "b", "c", "d"}}
	f.questions = append(f.questions, q)
	return q, nil
}

func (f *fakeStore) RejectSubmission(context.Context, int64) error {
	return f.record("RejectSubmission")
}

func (f *fakeStore) CreateFeedback(_ context.Context, in models.FeedbackInput) (models.Feedback, error) {
	if err := f.record("CreateFeedback"); err != nil {
		return models.Feedback{}, err
	}
	return models.Feedback{ID: 1, UserID: in.UserID, QuestionID: in.QuestionID, Type: in.Type, Priority: in.Priority, Message: in.Message, Status: "open"}, nil
}

func (f *fakeStore) PaginateFeedback(_ context.Context, req query.Request) (query.Result[models.Feedback], error) {
	if err := f.record("PaginateFeedback"); err != nil {
		return query.Result[models.Feedback]{}, err
	}
	return query.NewResult[models.Feedback](nil, 0, req.Page, req.Limit), nil
}
