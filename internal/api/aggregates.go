package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"max.ks1230/billtracker/internal/model/commands"
)

func (s *Server) saveAggregate(c *gin.Context) {
	var req saveAggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	agg, err := s.deps.SaveAggregate.Handle(c.Request.Context(), commands.SaveExpenseAggregateParams{
		ID:        req.ID,
		UserID:    currentUser(c),
		Name:      req.Name,
		AddedDate: req.AddedDate,
		IsDraft:   req.IsDraft,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAggregate(agg))
}

func (s *Server) getAggregate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}

	agg, err := s.deps.Query.GetExpensesAggregate(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err, "ownership_mismatch")
		return
	}
	if agg == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, toAggregate(agg))
}

func (s *Server) getAggregates(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	page, err := s.deps.Query.GetManyExpensesAggregate(c.Request.Context(), currentUser(c), req.page(), req.dates())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(page, toAggregate))
}

func (s *Server) deleteAggregate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}

	err = s.deps.DeleteAggregate.Handle(c.Request.Context(), commands.DeleteExpenseAggregateParams{
		ID:     id,
		UserID: currentUser(c),
	})
	if err != nil {
		writeError(c, err, "aggregate_not_found", "ownership_mismatch")
		return
	}
	c.Status(http.StatusNoContent)
}
