package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/korjavin/gkentei/cache"
	"github.com/korjavin/gkentei/models"
	"github.com/korjavin/gkentei/query"
)

// listOrPage returns every matching row when the request carries neither
// page nor limit, otherwise one page wrapped with pagination metadata.
func listOrPage[T any](
	ctx context.Context,
	req query.Request,
	list func(context.Context, query.Request) ([]T, error),
	page func(context.Context, query.Request) (query.Result[T], error),
) (any, error) {
	if req.Paginated {
		return page(ctx, req)
	}
	rows, err := list(ctx, req)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// bind decodes the request body into in and validates it.
func bind[T interface{ Validate() error }](c echo.Context, in T) error {
	if err := c.Bind(in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}
	return nil
}

// userIDParam validates the userId filter before it is bound against a
// BIGINT column.
func userIDParam(req query.Request) (int64, bool, error) {
	raw, ok := req.UserID()
	if !ok {
		return 0, false, nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID < 1 {
		return 0, false, echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
	}
	return userID, true, nil
}

func (s *Server) listQuestions(c echo.Context) error {
	req := query.ParseRequest(c.QueryParams())

	userID, ok, err := userIDParam(req)
	if err != nil {
		return err
	}
	if ok {
		return s.listQuestionsForUser(c, req, userID)
	}

	return s.cached(c, cache.Query, query.CacheKey(query.Questions, req), func(ctx context.Context) (any, error) {
		return listOrPage(ctx, req, s.store.ListQuestions, s.store.PaginateQuestions)
	})
}

// listQuestionsForUser never touches the shared query partition: the
// response carries per-user answer state.
func (s *Server) listQuestionsForUser(c echo.Context, req query.Request, userID int64) error {
	ctx := c.Request().Context()

	if req.Paginated {
		res, err := s.store.PaginateQuestions(ctx, req)
		if err != nil {
			return err
		}
		if err := s.personalize(ctx, userID, res.Data); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, res)
	}

	rows, err := s.store.ListQuestions(ctx, req)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []models.Question{}
	}
	if err := s.personalize(ctx, userID, rows); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) personalize(ctx context.Context, userID int64, qs []models.Question) error {
	ids := make([]int64, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	latest, err := s.store.LatestAnswers(ctx, userID, ids)
	if err != nil {
		return err
	}
	for i := range qs {
		correct, answered := latest[qs[i].ID]
		qs[i].Answered = &answered
		if answered {
			qs[i].LastCorrect = &correct
		}
	}
	return nil
}

func (s *Server) getQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	key := query.Questions.Name() + ":id:" + strconv.FormatInt(id, 10)
	return s.cached(c, cache.Query, key, func(ctx context.Context) (any, error) {
		return s.store.GetQuestion(ctx, id)
	})
}

func (s *Server) createQuestion(c echo.Context) error {
	var in models.QuestionInput
	if err := bind(c, &in); err != nil {
		return err
	}
	q, err := s.store.CreateQuestion(c.Request().Context(), in)
	if err != nil {
		return err
	}
	s.cache.Invalidate(cache.Query)
	return c.JSON(http.StatusCreated, q)
}

func (s *Server) updateQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in models.QuestionInput
	if err := bind(c, &in); err != nil {
		return err
	}
	q, err := s.store.UpdateQuestion(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	s.cache.Invalidate(cache.Query)
	return c.JSON(http.StatusOK, q)
}

func (s *Server) deleteQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(c.Request().Context(), id); err != nil {
		return err
	}
	s.cache.Invalidate(cache.Query)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listCategories(c echo.Context) error {
	return s.cached(c, cache.Static, query.Categories.Name()+":all", func(ctx context.Context) (any, error) {
		rows, err := s.store.ListCategories(ctx)
		if rows == nil && err == nil {
			rows = []models.Category{}
		}
		return rows, err
	})
}

func (s *Server) createCategory(c echo.Context) error {
	var in models.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := s.store.CreateCategory(c.Request().Context(), in)
	if err != nil {
		return err
	}
	s.cache.Invalidate(cache.Static)
	return c.JSON(http.StatusCreated, cat)
}

func (s *Server) updateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in models.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := s.store.UpdateCategory(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	s.cache.Invalidate(cache.Static)
	return c.JSON(http.StatusOK, cat)
}

func (s *Server) deleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}
	s.cache.Invalidate(cache.Static)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listUsers(c echo.Context) error {
	req := query.ParseRequest(c.QueryParams())
	return s.cached(c, cache.User, query.CacheKey(query.Users, req), func(ctx context.Context) (any, error) {
		return listOrPage(ctx, req, s.store.ListUsers, s.store.PaginateUsers)
	})
}

func (s *Server) createUser(c echo.Context) error {
	var in models.UserInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := s.store.CreateUser(c.Request().Context(), in)
	if err != nil {
		return err
	}
	s.cache.Invalidate(cache.User)
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) userStats(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	key := "stats:" + strconv.FormatInt(id, 10)
	return s.cached(c, cache.User, key, func(ctx context.Context) (any, error) {
		return s.store.GetUserStats(ctx, id)
	})
}

func (s *Server) saveAnswer(c echo.Context) error {
	var in models.AnswerInput
	if err := bind(c, &in); err != nil {
		return err
	}
	res, err := s.store.SaveAnswer(c.Request().Context(), in)
	if err != nil {
		return err
	}
	s.cache.Invalidate(cache.User)
	return c.JSON(http.StatusCreated, res)
}

func (s *Server) createSubmission(c echo.Context) error {
	var in models.SubmissionInput
	if err := bind(c, &in); err != nil {
		return err
	}
	sub, err := s.store.CreateSubmission(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

func (s *Server) listSubmissions(c echo.Context) error {
	req := query.ParseRequest(c.QueryParams())
	if _, _, err := userIDParam(req); err != nil {
		return err
	}
	res, err := s.store.PaginateSubmissions(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) approveSubmission(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	q, err := s.store.ApproveSubmission(c.Request().Context(), id)
	if err != nil {
		return err
	}
	s.cache.Invalidate(cache.Query)
	return c.JSON(http.StatusOK, q)
}

func (s *Server) rejectSubmission(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.RejectSubmission(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) createFeedback(c echo.Context) error {
	var in models.FeedbackInput
	if err := bind(c, &in); err != nil {
		return err
	}
	f, err := s.store.CreateFeedback(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

func (s *Server) listFeedback(c echo.Context) error {
	req := query.ParseRequest(c.QueryParams())
	if _, _, err := userIDParam(req); err != nil {
		return err
	}
	res, err := s.store.PaginateFeedback(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
