package api

import (
	"context"
	"fmt"
	"net/http"

	"finboard/internal/core"
)

// ListBudgets returns the budgets of one month. SpentAmount is whatever the
// backend stored; callers recompute it with core.ApplySpent.
func (c *Client) ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error) {
	var rows []budgetDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/budget/monthly/%d/%d", month, year), nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.Budget, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func budgetBody(b core.Budget) budgetRequest {
	return budgetRequest{
		Category:     b.Category,
		BudgetAmount: amountOf(b.BudgetAmount),
		Month:        b.Month,
		Year:         b.Year,
	}
}

func (c *Client) SetBudget(ctx context.Context, b core.Budget) error {
	return c.do(ctx, http.MethodPost, "/budget/set", budgetBody(b), nil)
}

func (c *Client) UpdateBudget(ctx context.Context, b core.Budget) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/budget/update/%d", b.ID), budgetBody(b), nil)
}

func (c *Client) DeleteBudget(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/budget/delete/%d", id), nil, nil)
}
