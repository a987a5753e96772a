package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/model/commands"
	"max.ks1230/billtracker/internal/model/queries"
)

func (s *Server) addExpense(c *gin.Context) {
	var req addExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := s.deps.AddExpense.Handle(c.Request.Context(), commands.AddExpenseParams{
		UserID:        currentUser(c),
		Name:          req.Name,
		Amount:        req.Amount,
		ExpenseTypeID: req.ExpenseTypeID,
		AddedDate:     req.AddedAt,
		AggregateID:   req.AggregateID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Location", "/expenses/"+rec.ID.String())
	c.JSON(http.StatusCreated, toExpense(*rec))
}

func (s *Server) getExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}

	rec, err := s.deps.Query.GetById(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err, "ownership_mismatch")
		return
	}
	if rec == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, toExpense(*rec))
}

func (s *Server) getExpenses(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	page, err := s.deps.Query.GetMany(c.Request.Context(), currentUser(c), req.page(), req.dates())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(page, func(rec *expense.Record) expenseResponse {
		return toExpense(*rec)
	}))
}

func (s *Server) addExpenseType(c *gin.Context) {
	var req addExpenseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	typ, err := s.deps.AddExpenseType.Handle(c.Request.Context(), commands.AddExpenseTypeParams{
		UserID: currentUser(c),
		Name:   req.Name,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expenseTypeResponse{ID: typ.ID, Name: typ.Name})
}

func (s *Server) getExpenseTypes(c *gin.Context) {
	types, err := s.deps.Query.GetExpenseTypes(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	res := make([]expenseTypeResponse, 0, len(types))
	for _, t := range types {
		res = append(res, expenseTypeResponse{ID: t.ID, Name: t.Name})
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	report, err := s.deps.Reports.GenerateReport(c.Request.Context(), currentUser(c), queries.DateFilter{
		From:   req.FromDate,
		To:     req.ToDate,
		Period: req.Period,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReport(report))
}
