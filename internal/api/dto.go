package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/model/queries"
	"max.ks1230/billtracker/internal/model/reports"
)

type addExpenseRequest struct {
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	AddedAt       *time.Time      `json:"addedAt"`
	ExpenseTypeID *uuid.UUID      `json:"expenseTypeId"`
	AggregateID   *uuid.UUID      `json:"aggregateId"`
}

type saveAggregateRequest struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AddedDate time.Time `json:"addedDate"`
	IsDraft   bool      `json:"isDraft"`
}

type addExpenseTypeRequest struct {
	Name string `json:"name"`
}

type listRequest struct {
	PageNumber int        `form:"pageNumber" binding:"required,min=1"`
	PageSize   int        `form:"pageSize" binding:"required,min=5,max=50"`
	FromDate   *time.Time `form:"fromDate"`
	ToDate     *time.Time `form:"toDate"`
	Period     string     `form:"period"`
}

func (r listRequest) page() queries.PageRequest {
	return queries.PageRequest{Number: r.PageNumber, Size: r.PageSize}
}

func (r listRequest) dates() queries.DateFilter {
	return queries.DateFilter{From: r.FromDate, To: r.ToDate, Period: r.Period}
}

type reportRequest struct {
	FromDate *time.Time `form:"fromDate"`
	ToDate   *time.Time `form:"toDate"`
	Period   string     `form:"period"`
}

type expenseResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	AddedDate     time.Time       `json:"addedDate"`
	ExpenseTypeID *uuid.UUID      `json:"expenseTypeId,omitempty"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
}

type billResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AddedDate time.Time `json:"addedDate"`
}

type aggregateResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	AddedDate   time.Time         `json:"addedDate"`
	IsDraft     bool              `json:"isDraft"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Expenses    []expenseResponse `json:"expenses"`
	Bills       []billResponse    `json:"bills"`
}

type expenseTypeResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type pageResponse[T any] struct {
	TotalItems int `json:"totalItems"`
	Items      []T `json:"items"`
}

type reportRecordResponse struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type reportResponse struct {
	Records     []reportRecordResponse `json:"records"`
	TotalAmount decimal.Decimal        `json:"totalAmount"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toExpense(rec expense.Record) expenseResponse {
	return expenseResponse{
		ID:            rec.ID,
		Name:          rec.Name,
		Amount:        rec.Amount,
		AddedDate:     rec.AddedDate,
		ExpenseTypeID: rec.ExpenseTypeID,
		AggregateID:   rec.AggregateID,
	}
}

func toAggregate(agg *expense.Aggregate) aggregateResponse {
	res := aggregateResponse{
		ID:          agg.ID,
		Name:        agg.Name,
		AddedDate:   agg.AddedDate,
		IsDraft:     agg.IsDraft,
		TotalAmount: agg.TotalAmount(),
		Expenses:    make([]expenseResponse, 0, len(agg.Expenses)),
		Bills:       make([]billResponse, 0, len(agg.Bills)),
	}
	for _, e := range agg.Expenses {
		res.Expenses = append(res.Expenses, toExpense(e))
	}
	for _, b := range agg.Bills {
		res.Bills = append(res.Bills, billResponse{ID: b.ID, Name: b.Name, AddedDate: b.AddedDate})
	}
	return res
}

func toPage[T, R any](page *expense.Page[T], conv func(*T) R) pageResponse[R] {
	res := pageResponse[R]{
		TotalItems: page.TotalItems,
		Items:      make([]R, 0, len(page.Items)),
	}
	for i := range page.Items {
		res.Items = append(res.Items, conv(&page.Items[i]))
	}
	return res
}

func toReport(report *reports.Report) reportResponse {
	res := reportResponse{
		Records:     make([]reportRecordResponse, 0, len(report.Records)),
		TotalAmount: report.TotalAmount,
	}
	for _, r := range report.Records {
		res.Records = append(res.Records, reportRecordResponse{Category: r.Category, Amount: r.Amount})
	}
	return res
}
