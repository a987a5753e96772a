package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/commands"
	"max.ks1230/billtracker/internal/model/queries"
	"max.ks1230/billtracker/internal/model/reports"
)

type config interface {
	Addr() string
	Timeouts() (read, write time.Duration)
}

type expenseAdder interface {
	Handle(ctx context.Context, p commands.AddExpenseParams) (*expense.Record, error)
}

type aggregateSaver interface {
	Handle(ctx context.Context, p commands.SaveExpenseAggregateParams) (*expense.Aggregate, error)
}

type aggregateDeleter interface {
	Handle(ctx context.Context, p commands.DeleteExpenseAggregateParams) error
}

type expenseTypeAdder interface {
	Handle(ctx context.Context, p commands.AddExpenseTypeParams) (*expense.Type, error)
}

type expensesQuery interface {
	GetById(ctx context.Context, userID, id uuid.UUID) (*expense.Record, error)
	GetMany(ctx context.Context, userID uuid.UUID, page queries.PageRequest, dates queries.DateFilter) (*expense.Page[expense.Record], error)
	GetExpensesAggregate(ctx context.Context, userID, id uuid.UUID) (*expense.Aggregate, error)
	GetManyExpensesAggregate(ctx context.Context, userID uuid.UUID, page queries.PageRequest, dates queries.DateFilter) (*expense.Page[expense.Aggregate], error)
	GetExpenseTypes(ctx context.Context, userID uuid.UUID) ([]expense.Type, error)
}

type reportGenerator interface {
	GenerateReport(ctx context.Context, userID uuid.UUID, dates queries.DateFilter) (*reports.Report, error)
}

type tokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the use cases served over HTTP.
type Deps struct {
	AddExpense      expenseAdder
	SaveAggregate   aggregateSaver
	DeleteAggregate aggregateDeleter
	AddExpenseType  expenseTypeAdder
	Query           expensesQuery
	Reports         reportGenerator
	Tokens          tokenValidator
	Health          pinger
}

type Server struct {
	deps   Deps
	engine *gin.Engine
	http   *http.Server
}

func New(cfg config, deps Deps) *Server {
	s := &Server{deps: deps}
	s.engine = s.routes()

	read, write := cfg.Timeouts()
	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  read,
		WriteTimeout: write,
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(recovered), accessLog(), observeResponse())

	r.GET("/healthz", s.healthz)

	exp := r.Group("/expenses", requireAuth(s.deps.Tokens))
	{
		exp.POST("", s.addExpense)
		exp.GET("", s.getExpenses)
		exp.GET("/:id", s.getExpense)

		exp.PUT("/aggregates", s.saveAggregate)
		exp.GET("/aggregates", s.getAggregates)
		exp.GET("/aggregates/:id", s.getAggregate)
		exp.DELETE("/aggregates/:id", s.deleteAggregate)

		exp.POST("/types", s.addExpenseType)
		exp.GET("/types", s.getExpenseTypes)

		exp.GET("/report", s.getReport)
	}
	return r
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	logger.Info("http server listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Wrap(err, "serve http")
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	logger.Info("http server stopped")
	return err
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.deps.Health.Ping(c.Request.Context()); err != nil {
		logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func recovered(c *gin.Context, rec any) {
	logger.Error("panic while serving request", zap.Any("panic", rec), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"})
}
