// Package api serves the study-prep REST API. List endpoints are fronted by
// a partitioned cache: reads check the cache, fall back to the database on a
// miss and store the encoded response; writes invalidate the whole partition
// they affect.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"github.com/korjavin/gkentei/cache"
	"github.com/korjavin/gkentei/models"
	"github.com/korjavin/gkentei/query"
)

// Store is the persistence the handlers need. *database.DB implements it.
type Store interface {
	Ping(ctx context.Context) error

	ListQuestions(ctx context.Context, req query.Request) ([]models.Question, error)
	PaginateQuestions(ctx context.Context, req query.Request) (query.Result[models.Question], error)
	GetQuestion(ctx context.Context, id int64) (models.Question, error)
	CreateQuestion(ctx context.Context, in models.QuestionInput) (models.Question, error)
	UpdateQuestion(ctx context.Context, id int64, in models.QuestionInput) (models.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	LatestAnswers(ctx context.Context, userID int64, questionIDs []int64) (map[int64]bool, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in models.CategoryInput) (models.Category, error)
	UpdateCategory(ctx context.Context, id int64, in models.CategoryInput) (models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListUsers(ctx context.Context, req query.Request) ([]models.User, error)
	PaginateUsers(ctx context.Context, req query.Request) (query.Result[models.User], error)
	CreateUser(ctx context.Context, in models.UserInput) (models.User, error)
	GetUserStats(ctx context.Context, userID int64) (models.UserStats, error)
	SaveAnswer(ctx context.Context, in models.AnswerInput) (models.AnswerResult, error)

	CreateSubmission(ctx context.Context, in models.SubmissionInput) (models.SubmittedQuestion, error)
	PaginateSubmissions(ctx context.Context, req query.Request) (query.Result[models.SubmittedQuestion], error)
	ApproveSubmission(ctx context.Context, id int64) (models.Question, error)
	RejectSubmission(ctx context.Context, id int64) error

	CreateFeedback(ctx context.Context, in models.FeedbackInput) (models.Feedback, error)
	PaginateFeedback(ctx context.Context, req query.Request) (query.Result[models.Feedback], error)
}

// Options configures a Server.
type Options struct {
	// AdminToken, when set, must be sent as X-Admin-Token on /api/admin routes.
	AdminToken string
}

// Server wires the handlers to their store and cache.
type Server struct {
	echo  *echo.Echo
	store Store
	cache *cache.Tiered[[]byte]
	loads singleflight.Group
	opts  Options
}

// New builds a Server. The cache is owned by the caller.
func New(store Store, c *cache.Tiered[[]byte], opts Options) *Server {
	s := &Server{
		echo:  echo.New(),
		store: store,
		cache: c,
		opts:  opts,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.Use(requestID(), requestLogger(), recoverer())

	e.GET("/healthz", s.health)

	api := e.Group("/api")
	api.GET("/questions", s.listQuestions)
	api.GET("/questions/:id", s.getQuestion)
	api.GET("/categories", s.listCategories)
	api.GET("/users", s.listUsers)
	api.POST("/users", s.createUser)
	api.GET("/users/:id/stats", s.userStats)
	api.POST("/answers", s.saveAnswer)
	api.POST("/submitted-questions", s.createSubmission)
	api.POST("/feedback", s.createFeedback)

	admin := api.Group("/admin")
	if s.opts.AdminToken != "" {
		admin.Use(adminAuth(s.opts.AdminToken))
	}
	admin.POST("/questions", s.createQuestion)
	admin.PUT("/questions/:id", s.updateQuestion)
	admin.DELETE("/questions/:id", s.deleteQuestion)
	admin.POST("/categories", s.createCategory)
	admin.PUT("/categories/:id", s.updateCategory)
	admin.DELETE("/categories/:id", s.deleteCategory)
	admin.GET("/submitted-questions", s.listSubmissions)
	admin.POST("/submitted-questions/:id/approve", s.approveSubmission)
	admin.POST("/submitted-questions/:id/reject", s.rejectSubmission)
	admin.GET("/feedback", s.listFeedback)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	sizes := make(map[string]int, len(cache.Partitions))
	for _, p := range cache.Partitions {
		sizes[p.String()] = s.cache.Len(p)
	}
	status, code := "ok", http.StatusOK
	if err := s.store.Ping(c.Request().Context()); err != nil {
		slog.Warn("Health check database ping failed", slog.Any("error", err))
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]any{"status": status, "cache": sizes})
}
