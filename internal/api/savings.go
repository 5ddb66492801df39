package api

import (
	"context"
	"fmt"
	"net/http"

	"finboard/internal/core"
)

func (c *Client) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	var rows []goalDTO
	if err := c.do(ctx, http.MethodGet, "/budget/savings-goals", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.SavingsGoal, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func goalBody(g core.SavingsGoal) goalRequest {
	return goalRequest{
		GoalName:     g.GoalName,
		TargetAmount: amountOf(g.TargetAmount),
		TargetDate:   g.TargetDate.String(),
	}
}

func (c *Client) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	var saved goalDTO
	if err := c.do(ctx, http.MethodPost, "/budget/savings-goal", goalBody(g), &saved); err != nil {
		return core.SavingsGoal{}, err
	}
	return saved.toCore(), nil
}

func (c *Client) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/budget/savings-goal/update/%d", g.ID), goalBody(g), nil)
}

func (c *Client) DeleteGoal(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/budget/savings-goal/delete/%d", id), nil, nil)
}

func (c *Client) AddToGoal(ctx context.Context, id int64, amount core.Money, description string) error {
	req := contributionRequest{Amount: amountOf(amount), Description: description}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/budget/savings-goal/%d/add", id), req, nil)
}

func (c *Client) ListSavings(ctx context.Context) ([]core.SavingsEntry, error) {
	var rows []savingsDTO
	if err := c.do(ctx, http.MethodGet, "/api/savings", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.SavingsEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

// AddSavings records a transfer. The backend also books the matching
// "Savings" expense.
func (c *Client) AddSavings(ctx context.Context, e core.SavingsEntry) (core.SavingsEntry, error) {
	var saved savingsDTO
	if err := c.do(ctx, http.MethodPost, "/api/savings", savingsFromCore(e), &saved); err != nil {
		return core.SavingsEntry{}, err
	}
	return saved.toCore(), nil
}

func (c *Client) UpdateSavings(ctx context.Context, e core.SavingsEntry) (core.SavingsEntry, error) {
	var saved savingsDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/savings/%d", e.ID), savingsFromCore(e), &saved); err != nil {
		return core.SavingsEntry{}, err
	}
	return saved.toCore(), nil
}

func (c *Client) DeleteSavings(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/savings/%d", id), nil, nil)
}

func (c *Client) TotalSavings(ctx context.Context) (core.Money, error) {
	var resp totalResponse
	if err := c.do(ctx, http.MethodGet, "/api/savings/total", nil, &resp); err != nil {
		return core.Money{}, err
	}
	return resp.Total.money(), nil
}
