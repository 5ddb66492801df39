package api

import (
	"context"
	"fmt"
	"net/http"

	"finboard/internal/core"
)

func listPath(typ core.TxType) (string, error) {
	switch typ {
	case core.Income:
		return "/transactions/incomes", nil
	case core.Expense:
		return "/transactions/expenses", nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidType, typ)
}

func itemPath(typ core.TxType, id int64) (string, error) {
	if !typ.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidType, typ)
	}
	return fmt.Sprintf("/transactions/%s/%d", typ, id), nil
}

func (c *Client) ListTransactions(ctx context.Context, typ core.TxType) ([]core.Transaction, error) {
	path, err := listPath(typ)
	if err != nil {
		return nil, err
	}
	var rows []transactionDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore(typ))
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidType, t.Type)
	}
	req := createTransactionRequest{
		Amount:      amountOf(t.Amount),
		Description: t.Description,
		Type:        t.Type.String(),
		Category:    t.Category,
		Date:        t.Date.String(),
	}
	return c.do(ctx, http.MethodPost, "/transactions", req, nil)
}

// UpdateTransaction sends amount, description and category. The backend
// keeps the original date and type.
func (c *Client) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	path, err := itemPath(t.Type, t.ID)
	if err != nil {
		return err
	}
	req := updateTransactionRequest{
		Amount:      amountOf(t.Amount),
		Description: t.Description,
		Category:    t.Category,
	}
	return c.do(ctx, http.MethodPut, path, req, nil)
}

func (c *Client) DeleteTransaction(ctx context.Context, typ core.TxType, id int64) error {
	path, err := itemPath(typ, id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
