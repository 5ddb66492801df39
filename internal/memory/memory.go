// Package memory is an in-process backend. It keeps a single user's data in
// maps guarded by one mutex and mirrors the REST backend's side effects.
package memory

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/ports"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Fault lets tests fail a single operation. op is the method name, id the
// affected record or zero.
type Fault func(op string, id int64) error

type Store struct {
	mu sync.Mutex

	email    string
	password string
	userID   int64
	profile  core.Profile
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	fault    Fault

	nextID  int64
	txs     map[int64]core.Transaction
	budgets map[int64]core.Budget
	goals   map[int64]core.SavingsGoal
	savings map[int64]core.SavingsEntry
	posts   map[int64]core.ForumPost
}

var _ ports.Backend = (*Store)(nil)

type Option func(*Store)

// WithUser sets the only account able to log in.
func WithUser(id int64, email, password string, p core.Profile) Option {
	return func(s *Store) {
		s.userID = id
		s.email = strings.ToLower(email)
		s.password = password
		if p.Email == "" {
			p.Email = email
		}
		s.profile = p
	}
}

// WithClock replaces time.Now for dates, tokens and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTokenTTL sets the lifetime of issued tokens. Default one day.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Store) { s.tokenTTL = d }
}

func New(opts ...Option) *Store {
	s := &Store{
		email:    "demo@finboard.local",
		password: "demo",
		userID:   1,
		profile:  core.Profile{Username: "demo", Email: "demo@finboard.local", PreferredCurrency: "INR"},
		secret:   []byte("finboard-memory"),
		tokenTTL: 24 * time.Hour,
		now:      time.Now,
		txs:      map[int64]core.Transaction{},
		budgets:  map[int64]core.Budget{},
		goals:    map[int64]core.SavingsGoal{},
		savings:  map[int64]core.SavingsEntry{},
		posts:    map[int64]core.ForumPost{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetFault installs f, or removes the current one when f is nil.
func (s *Store) SetFault(f Fault) {
	s.mu.Lock()
	s.fault = f
	s.mu.Unlock()
}

// check must be called with s.mu held.
func (s *Store) check(op string, id int64) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op, id)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

func (s *Store) Login(_ context.Context, email, password string) (core.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Login", 0); err != nil {
		return core.LoginResult{}, err
	}
	if s.email == "" || strings.ToLower(strings.TrimSpace(email)) != s.email || password != s.password {
		return core.LoginResult{}, ErrInvalidCredentials
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   s.email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return core.LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return core.LoginResult{Token: token, Username: s.profile.Username, UserID: s.userID, Email: s.email}, nil
}

func (s *Store) ListTransactions(_ context.Context, typ core.TxType) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListTransactions", 0); err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range s.txs {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CreateTransaction", 0); err != nil {
		return err
	}
	t.ID = s.id()
	s.txs[t.ID] = t
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdateTransaction", t.ID); err != nil {
		return err
	}
	old, ok := s.txs[t.ID]
	if !ok || old.Type != t.Type {
		return notFound(t.Type.String(), t.ID)
	}
	s.txs[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, typ core.TxType, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteTransaction", id); err != nil {
		return err
	}
	old, ok := s.txs[id]
	if !ok || old.Type != typ {
		return notFound(typ.String(), id)
	}
	delete(s.txs, id)
	return nil
}

// ListBudgets returns stored budgets. SpentAmount is left as stored, which
// is always zero here.
func (s *Store) ListBudgets(_ context.Context, year, month int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListBudgets", 0); err != nil {
		return nil, err
	}
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Year == year && b.Month == month {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SetBudget", 0); err != nil {
		return err
	}
	for id, old := range s.budgets {
		if old.Category == b.Category && old.Month == b.Month && old.Year == b.Year {
			old.BudgetAmount = b.BudgetAmount
			s.budgets[id] = old
			return nil
		}
	}
	b.ID = s.id()
	b.SpentAmount = core.Money{}
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdateBudget", b.ID); err != nil {
		return err
	}
	if _, ok := s.budgets[b.ID]; !ok {
		return notFound("budget", b.ID)
	}
	b.SpentAmount = core.Money{}
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteBudget", id); err != nil {
		return err
	}
	if _, ok := s.budgets[id]; !ok {
		return notFound("budget", id)
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) ListGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListGoals", 0); err != nil {
		return nil, err
	}
	out := make([]core.SavingsGoal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CreateGoal", 0); err != nil {
		return core.SavingsGoal{}, err
	}
	g.ID = s.id()
	g.CurrentAmount = core.Money{}
	s.goals[g.ID] = g
	return g, nil
}

// UpdateGoal changes name, target and date. The saved amount is kept.
func (s *Store) UpdateGoal(_ context.Context, g core.SavingsGoal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdateGoal", g.ID); err != nil {
		return err
	}
	old, ok := s.goals[g.ID]
	if !ok {
		return notFound("savings goal", g.ID)
	}
	old.GoalName = g.GoalName
	old.TargetAmount = g.TargetAmount
	old.TargetDate = g.TargetDate
	s.goals[g.ID] = old
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteGoal", id); err != nil {
		return err
	}
	if _, ok := s.goals[id]; !ok {
		return notFound("savings goal", id)
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) AddToGoal(_ context.Context, id int64, amount core.Money, _ string) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("AddToGoal", id); err != nil {
		return err
	}
	g, ok := s.goals[id]
	if !ok {
		return notFound("savings goal", id)
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	s.goals[id] = g
	return nil
}

// ListSavings returns entries newest first.
func (s *Store) ListSavings(_ context.Context) ([]core.SavingsEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListSavings", 0); err != nil {
		return nil, err
	}
	out := make([]core.SavingsEntry, 0, len(s.savings))
	for _, e := range s.savings {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// AddSavings stores e and books the matching expense.
func (s *Store) AddSavings(_ context.Context, e core.SavingsEntry) (core.SavingsEntry, error) {
	if err := e.Validate(); err != nil {
		return core.SavingsEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("AddSavings", 0); err != nil {
		return core.SavingsEntry{}, err
	}
	now := s.now()
	e.ID = s.id()
	e.CreatedAt = now
	s.savings[e.ID] = e

	exp := core.Transaction{
		ID:          s.id(),
		Type:        core.Expense,
		Amount:      e.Amount,
		Category:    core.SavingsCategory,
		Description: e.TransferDescription(),
		Date:        core.DateOf(now),
	}
	s.txs[exp.ID] = exp
	return e, nil
}

func (s *Store) UpdateSavings(_ context.Context, e core.SavingsEntry) (core.SavingsEntry, error) {
	if err := e.Validate(); err != nil {
		return core.SavingsEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdateSavings", e.ID); err != nil {
		return core.SavingsEntry{}, err
	}
	old, ok := s.savings[e.ID]
	if !ok {
		return core.SavingsEntry{}, notFound("savings", e.ID)
	}
	e.CreatedAt = old.CreatedAt
	s.savings[e.ID] = e
	return e, nil
}

func (s *Store) DeleteSavings(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteSavings", id); err != nil {
		return err
	}
	if _, ok := s.savings[id]; !ok {
		return notFound("savings", id)
	}
	delete(s.savings, id)
	return nil
}

func (s *Store) TotalSavings(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("TotalSavings", 0); err != nil {
		return core.Money{}, err
	}
	var total core.Money
	for _, e := range s.savings {
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (s *Store) GetProfile(_ context.Context) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("GetProfile", 0); err != nil {
		return core.Profile{}, err
	}
	return s.profile, nil
}

// UpdateProfile replaces the editable fields. Username and email are fixed.
func (s *Store) UpdateProfile(_ context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdateProfile", 0); err != nil {
		return err
	}
	p.Username = s.profile.Username
	p.Email = s.profile.Email
	s.profile = p
	return nil
}

// UploadProfileImage keeps the image as a data URL, the way the backend does.
func (s *Store) UploadProfileImage(_ context.Context, _ string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UploadProfileImage", 0); err != nil {
		return err
	}
	if len(data) == 0 {
		return core.ErrEmptyImage
	}
	s.profile.ProfileImage = "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
	return nil
}

func (s *Store) DeleteProfileImage(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteProfileImage", 0); err != nil {
		return err
	}
	s.profile.ProfileImage = ""
	return nil
}

func (s *Store) Summary(_ context.Context) (core.ServerSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Summary", 0); err != nil {
		return core.ServerSummary{}, err
	}
	txs := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		txs = append(txs, t)
	}
	now := s.now()
	all := core.Summarize(txs)
	month := core.Summarize(core.InMonth(txs, now.Year(), int(now.Month())))

	out := core.ServerSummary{
		TotalIncome:          all.TotalIncome,
		TotalExpenses:        all.TotalExpense,
		NetSavings:           all.Net,
		SavingsGoalsCount:    len(s.goals),
		CurrentMonthIncome:   month.TotalIncome,
		CurrentMonthExpenses: month.TotalExpense,
		CurrentMonthSavings:  month.Net,
		TopSpendingCategory:  core.TopCategory(txs),
	}
	for _, g := range s.goals {
		out.TotalSavingsGoals = out.TotalSavingsGoals.Add(g.CurrentAmount)
		out.TotalSavingsTarget = out.TotalSavingsTarget.Add(g.TargetAmount)
	}
	return out, nil
}

// ResetData wipes every financial record and keeps the account.
func (s *Store) ResetData(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ResetData", 0); err != nil {
		return err
	}
	s.txs = map[int64]core.Transaction{}
	s.budgets = map[int64]core.Budget{}
	s.goals = map[int64]core.SavingsGoal{}
	s.savings = map[int64]core.SavingsEntry{}
	return nil
}

// DeleteAccount wipes the data and disables logins.
func (s *Store) DeleteAccount(ctx context.Context) error {
	if err := s.ResetData(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = ""
	s.password = ""
	s.profile = core.Profile{}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Export renders every transaction, newest first. Only csv is available
// offline.
func (s *Store) Export(ctx context.Context, format core.ExportFormat, w io.Writer) (int64, error) {
	if format != core.ExportCSV {
		return 0, fmt.Errorf("%w offline: %s", core.ErrUnsupportedFormat, format)
	}
	var txs []core.Transaction
	for _, typ := range []core.TxType{core.Income, core.Expense} {
		list, err := s.ListTransactions(ctx, typ)
		if err != nil {
			return 0, err
		}
		txs = append(txs, list...)
	}
	core.SortByDateDesc(txs)
	cw := &countingWriter{w: w}
	err := export.WriteCSV(cw, txs)
	return cw.n, err
}
