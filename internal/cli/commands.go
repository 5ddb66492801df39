package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/form"
	"finboard/internal/services"
)

// ErrUsage marks command line mistakes.
var ErrUsage = errors.New("usage")

// Command is one finboard subcommand.
type Command struct {
	Name    string
	Summary string
	Run     func(ctx context.Context, a *App, args []string) error
	// Public commands work without a session.
	Public bool
}

// Commands lists every subcommand in help order.
func Commands() []Command {
	return []Command{
		{Name: "login", Summary: "sign in and store the session", Run: runLogin, Public: true},
		{Name: "logout", Summary: "forget the stored session", Run: runLogout, Public: true},
		{Name: "whoami", Summary: "show the signed-in user", Run: runWhoami},
		{Name: "summary", Summary: "month overview with category breakdown", Run: runSummary},
		{Name: "list", Summary: "list transactions matching filters", Run: runList},
		{Name: "add", Summary: "add an income or expense", Run: runAdd},
		{Name: "edit", Summary: "change amount, category or description", Run: runEdit},
		{Name: "delete", Summary: "delete one or more transactions", Run: runDelete},
		{Name: "budgets", Summary: "list|set|delete|clear monthly budgets", Run: runBudgets},
		{Name: "goals", Summary: "list|create|contribute|delete savings goals", Run: runGoals},
		{Name: "savings", Summary: "list|add|total savings transfers", Run: runSavings},
		{Name: "profile", Summary: "show|update|image|remove-image the profile", Run: runProfile},
		{Name: "export", Summary: "export transactions (pdf, csv, odf or local csv/xlsx)", Run: runExport},
		{Name: "import", Summary: "create transactions from a csv or xlsx file", Run: runImport},
		{Name: "reset-data", Summary: "delete every transaction, budget and goal", Run: runResetData},
		{Name: "delete-account", Summary: "delete the account and sign out", Run: runDeleteAccount},
		{Name: "forum", Summary: "list|show|post|like|comment community posts", Run: runForum},
		{Name: "chat", Summary: "ask the finance assistant", Run: runChat},
	}
}

// Run dispatches args[0] to its command.
func Run(ctx context.Context, a *App, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		Usage(a.Out)
		return nil
	}
	for _, c := range Commands() {
		if c.Name != args[0] {
			continue
		}
		if !c.Public && !a.Session.Active() {
			return fmt.Errorf("%s: not signed in or session expired, run 'finboard login'", c.Name)
		}
		err := c.Run(ctx, a, args[1:])
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		if errors.Is(err, core.ErrNotConfirmed) {
			fmt.Fprintln(a.Err, "Cancelled.")
			return nil
		}
		return err
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
}

// Usage prints the command list.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: finboard <command> [flags]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range Commands() {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Name, c.Summary)
	}
	tw.Flush()
}

func (a *App) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

// confirm asks on In unless yes is set. Anything but y or yes cancels.
func (a *App) confirm(prompt string, yes bool) core.Decision {
	var c core.Confirmation
	_ = c.Request(prompt)
	if yes {
		_ = c.Confirm()
		return c.Result()
	}
	fmt.Fprintf(a.Err, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(a.In).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		_ = c.Confirm()
	default:
		_ = c.Cancel()
	}
	return c.Result()
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
}

// parseMonth reads YYYY-MM. Empty means the current month.
func parseMonth(s string, now time.Time) (year, month int, err error) {
	if strings.TrimSpace(s) == "" {
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month must look like 2025-03", ErrUsage)
	}
	return t.Year(), int(t.Month()), nil
}

func subcommand(args []string, def string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return def, args
	}
	return args[0], args[1:]
}

func runLogin(ctx context.Context, a *App, args []string) error {
	fs := a.flags("login")
	var f form.LoginForm
	fs.StringVar(&f.Email, "email", "", "account email")
	fs.StringVar(&f.Password, "password", os.Getenv("FINBOARD_PASSWORD"), "password (default $FINBOARD_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := f.Check(a.Form); err != nil {
		return err
	}
	u, err := a.Account.Login(ctx, f.Email, f.Password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Signed in as %s\n", u.Username)
	return nil
}

func runLogout(ctx context.Context, a *App, args []string) error {
	return a.Account.Logout(ctx)
}

func runWhoami(ctx context.Context, a *App, args []string) error {
	u, err := a.Session.User(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s <%s> (id %d)\n", u.Username, u.Email, u.ID)
	if exp, ok := a.Session.Expiry(); ok {
		fmt.Fprintf(a.Out, "Session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func runSummary(ctx context.Context, a *App, args []string) error {
	fs := a.flags("summary")
	month := fs.String("month", "", "month to summarise, YYYY-MM (default current)")
	points := fs.Int("points", core.DashboardPoints, "months in the trend series")
	server := fs.Bool("server", false, "show the backend's all-time summary instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *server {
		s, err := a.Account.Summary(ctx)
		if err != nil {
			return err
		}
		tw := a.table()
		fmt.Fprintf(tw, "Total income\t%s\n", s.TotalIncome)
		fmt.Fprintf(tw, "Total expenses\t%s\n", s.TotalExpenses)
		fmt.Fprintf(tw, "Net savings\t%s\n", s.NetSavings)
		fmt.Fprintf(tw, "This month\t%s in, %s out\n", s.CurrentMonthIncome, s.CurrentMonthExpenses)
		fmt.Fprintf(tw, "Savings goals\t%d (%s of %s)\n", s.SavingsGoalsCount, s.TotalSavingsGoals, s.TotalSavingsTarget)
		fmt.Fprintf(tw, "Top category\t%s\n", s.TopSpendingCategory)
		return tw.Flush()
	}

	y, m, err := parseMonth(*month, a.Now())
	if err != nil {
		return err
	}
	if err := a.Ledger.Load(ctx); err != nil {
		return err
	}
	ov := a.Ledger.Overview(y, m, *points)
	s := ov.Summary

	tw := a.table()
	fmt.Fprintf(tw, "%s\n", time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC).Format("January 2006"))
	fmt.Fprintf(tw, "Income\t%s\n", s.TotalIncome)
	fmt.Fprintf(tw, "Expenses\t%s\n", s.TotalExpense)
	fmt.Fprintf(tw, "Net\t%s\n", s.Net)
	fmt.Fprintf(tw, "Savings rate\t%.1f%%\n", s.SavingsRate)
	fmt.Fprintf(tw, "Transactions\t%d\n", s.Count)
	if len(ov.ByCategory) > 0 {
		fmt.Fprintln(tw, "\nCategory\tAmount\tShare")
		for _, c := range ov.ByCategory {
			fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", c.Name, c.Amount, c.PercentOfExpense)
		}
	}
	fmt.Fprintln(tw, "\nMonth\tIncome\tExpenses")
	for _, p := range ov.Series {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Label, p.Income, p.Expense)
	}
	if ins := a.Ledger.Insights(y, m); len(ins) > 0 {
		fmt.Fprintln(tw, "\nInsights")
		for _, in := range ins {
			fmt.Fprintf(tw, "[%s]\t%s\n", in.Tone, in.Text)
		}
	}
	return tw.Flush()
}

func filterFlags(fs *pflag.FlagSet) *form.FilterForm {
	f := &form.FilterForm{}
	fs.StringVar(&f.Type, "type", "", "income, expense or all")
	fs.StringVar(&f.Category, "category", "", "category, case-insensitive")
	fs.StringVar(&f.Search, "search", "", "substring of the description")
	fs.IntVar(&f.Month, "month", 0, "month 1-12")
	fs.IntVar(&f.Year, "year", 0, "year")
	fs.StringVar(&f.From, "from", "", "first day, YYYY-MM-DD")
	fs.StringVar(&f.To, "to", "", "last day, YYYY-MM-DD")
	fs.StringVar(&f.MinAmount, "min", "", "minimum amount")
	fs.StringVar(&f.MaxAmount, "max", "", "maximum amount")
	fs.StringVar(&f.Period, "period", "", "all, today, week or month")
	return f
}

func runList(ctx context.Context, a *App, args []string) error {
	fs := a.flags("list")
	ff := filterFlags(fs)
	limit := fs.Int("limit", 0, "show at most this many rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := ff.Parse(a.Form, a.Now())
	if err != nil {
		return err
	}
	if err := a.Ledger.Load(ctx); err != nil {
		return err
	}
	txs := a.Ledger.Filtered(filter)
	total := len(txs)
	if *limit > 0 && len(txs) > *limit {
		txs = txs[:*limit]
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tDate\tType\tCategory\tAmount\tDescription")
	for _, t := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Type, t.Category, t.Amount, t.Description)
	}
	s := core.Summarize(a.Ledger.Filtered(filter))
	fmt.Fprintf(tw, "\n%d of %d shown\tincome %s\texpenses %s\tnet %s\n", len(txs), total, s.TotalIncome, s.TotalExpense, s.Net)
	return tw.Flush()
}

func runAdd(ctx context.Context, a *App, args []string) error {
	fs := a.flags("add")
	f := form.TransactionForm{}
	fs.StringVar(&f.Type, "type", "expense", "income or expense")
	fs.StringVar(&f.Amount, "amount", "", "amount, e.g. 12.50")
	fs.StringVar(&f.Category, "category", "", "category, or Other with --custom-category")
	fs.StringVar(&f.CustomCategory, "custom-category", "", "category name when --category=Other")
	fs.StringVar(&f.Description, "description", "", "description")
	fs.StringVar(&f.Date, "date", core.DateOf(a.Now()).String(), "date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := f.Parse(a.Form)
	if err != nil {
		return err
	}
	return a.Ledger.Create(ctx, t)
}

func refFlags(fs *pflag.FlagSet) (*string, *int64) {
	typ := fs.String("type", "", "income or expense")
	id := fs.Int64("id", 0, "transaction id")
	return typ, id
}

func (a *App) findRef(ctx context.Context, typ string, id int64) (core.Transaction, error) {
	tt, err := core.ParseTxType(typ)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: --type must be income or expense", ErrUsage)
	}
	if err := a.Ledger.Load(ctx); err != nil {
		return core.Transaction{}, err
	}
	t, ok := a.Ledger.Find(services.Ref{Type: tt, ID: id})
	if !ok {
		return core.Transaction{}, fmt.Errorf("no %s with id %d", tt, id)
	}
	return t, nil
}

func runEdit(ctx context.Context, a *App, args []string) error {
	fs := a.flags("edit")
	typ, id := refFlags(fs)
	amount := fs.String("amount", "", "new amount")
	category := fs.String("category", "", "new category")
	description := fs.String("description", "", "new description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := a.findRef(ctx, *typ, *id)
	if err != nil {
		return err
	}
	f := form.EditForm{Amount: t.Amount.String(), Category: t.Category, Description: t.Description}
	if fs.Changed("amount") {
		f.Amount = *amount
	}
	if fs.Changed("category") {
		f.Category = *category
	}
	if fs.Changed("description") {
		f.Description = *description
	}
	edited, err := f.Apply(a.Form, t)
	if err != nil {
		return err
	}
	return a.Ledger.Update(ctx, edited)
}

func runDelete(ctx context.Context, a *App, args []string) error {
	fs := a.flags("delete")
	typ := fs.String("type", "", "income or expense")
	ids := fs.Int64Slice("id", nil, "transaction ids (repeat or comma separate)")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tt, err := core.ParseTxType(*typ)
	if err != nil || len(*ids) == 0 {
		return fmt.Errorf("%w: delete needs --type and at least one --id", ErrUsage)
	}
	refs := make([]services.Ref, 0, len(*ids))
	for _, id := range *ids {
		refs = append(refs, services.Ref{Type: tt, ID: id})
	}

	if len(refs) == 1 {
		d := a.confirm(fmt.Sprintf("Delete %s %d?", tt, refs[0].ID), *yes)
		return a.Ledger.Delete(ctx, d, refs[0])
	}
	d := a.confirm(fmt.Sprintf("Delete %d transactions?", len(refs)), *yes)
	res := a.Ledger.BulkDelete(ctx, d, refs)
	return res.Err
}

func runBudgets(ctx context.Context, a *App, args []string) error {
	action, args := subcommand(args, "list")
	fs := a.flags("budgets " + action)
	month := fs.String("month", "", "budget month, YYYY-MM (default current)")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	var bf form.BudgetForm
	var id int64
	switch action {
	case "set":
		fs.StringVar(&bf.Category, "category", "", "category, or Other with --custom-category")
		fs.StringVar(&bf.CustomCategory, "custom-category", "", "category name when --category=Other")
		fs.StringVar(&bf.Amount, "amount", "", "budget amount")
	case "update":
		fs.Int64Var(&id, "id", 0, "budget id")
		fs.StringVar(&bf.Category, "category", "", "category")
		fs.StringVar(&bf.Amount, "amount", "", "budget amount")
	case "delete":
		fs.Int64Var(&id, "id", 0, "budget id")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	y, m, err := parseMonth(*month, a.Now())
	if err != nil {
		return err
	}

	switch action {
	case "list":
	case "set", "update":
		bf.Month, bf.Year = m, y
		b, err := bf.Parse(a.Form)
		if err != nil {
			return err
		}
		b.ID = id
		if action == "set" {
			err = a.Budgets.Set(ctx, b)
		} else {
			err = a.Budgets.Update(ctx, b)
		}
		if err != nil {
			return err
		}
	case "delete":
		if err := a.Budgets.Delete(ctx, a.confirm(fmt.Sprintf("Delete budget %d?", id), *yes), id); err != nil {
			return err
		}
	case "clear":
		prompt := fmt.Sprintf("Delete every budget of %04d-%02d?", y, m)
		if res := a.Budgets.ClearMonth(ctx, a.confirm(prompt, *yes), y, m); res.Err != nil {
			return res.Err
		}
	default:
		return fmt.Errorf("%w: unknown budgets action %q", ErrUsage, action)
	}

	statuses, err := a.Budgets.Load(ctx, y, m)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tCategory\tBudget\tSpent\tRemaining\tUsed\tLevel")
	for _, s := range statuses {
		flag := ""
		if s.OverBudget {
			flag = " over"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.1f%%%s\t%s\n", s.ID, s.Category, s.BudgetAmount, s.SpentAmount, s.Remaining, s.Percent, flag, s.Level)
	}
	budgeted, spent := services.Totals(statuses)
	fmt.Fprintf(tw, "\nTotal\t\t%s\t%s\t%s\n", budgeted, spent, budgeted.Sub(spent))
	return tw.Flush()
}

func runGoals(ctx context.Context, a *App, args []string) error {
	action, args := subcommand(args, "list")
	fs := a.flags("goals " + action)
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	var gf form.GoalForm
	var cf form.ContributionForm
	var id int64
	switch action {
	case "create":
		fs.StringVar(&gf.Name, "name", "", "goal name")
		fs.StringVar(&gf.TargetAmount, "target", "", "target amount")
		fs.StringVar(&gf.TargetDate, "date", "", "target date, YYYY-MM-DD")
		fs.StringVar(&gf.InitialAmount, "initial", "", "initial contribution")
	case "contribute":
		fs.Int64Var(&cf.GoalID, "id", 0, "goal id")
		fs.StringVar(&cf.Amount, "amount", "", "amount to add")
		fs.StringVar(&cf.Description, "description", "", "note")
	case "delete":
		fs.Int64Var(&id, "id", 0, "goal id")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch action {
	case "list":
	case "create":
		g, initial, err := gf.Parse(a.Form)
		if err != nil {
			return err
		}
		if _, err := a.Savings.CreateAndFund(ctx, g, initial); err != nil {
			return err
		}
	case "contribute":
		c, err := cf.Parse(a.Form)
		if err != nil {
			return err
		}
		if err := a.Savings.Contribute(ctx, c.GoalID, c.Amount, c.Description); err != nil {
			return err
		}
	case "delete":
		if err := a.Savings.DeleteGoal(ctx, a.confirm(fmt.Sprintf("Delete goal %d?", id), *yes), id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown goals action %q", ErrUsage, action)
	}

	goals, err := a.Savings.Goals(ctx)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tGoal\tSaved\tTarget\tProgress\tDue")
	for _, g := range goals {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f%%\t%s\n", g.ID, g.GoalName, g.CurrentAmount, g.TargetAmount, g.Progress(), g.TargetDate)
	}
	return tw.Flush()
}

func runSavings(ctx context.Context, a *App, args []string) error {
	action, args := subcommand(args, "list")
	fs := a.flags("savings " + action)
	var sf form.SavingsForm
	if action == "add" {
		fs.StringVar(&sf.GoalName, "goal", "", "goal name")
		fs.StringVar(&sf.Amount, "amount", "", "amount transferred")
		fs.StringVar(&sf.TargetAmount, "target", "", "goal target amount")
		fs.StringVar(&sf.Description, "description", "", "note")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch action {
	case "add":
		e, err := sf.Parse(a.Form)
		if err != nil {
			return err
		}
		if _, err := a.Savings.Deposit(ctx, e); err != nil {
			return err
		}
		return nil
	case "total":
		total, err := a.Savings.Total(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Total saved: %s\n", total)
		return nil
	case "list":
		entries, err := a.Savings.Entries(ctx)
		if err != nil {
			return err
		}
		tw := a.table()
		fmt.Fprintln(tw, "ID\tGoal\tAmount\tTarget\tDescription")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.GoalName, e.Amount, e.TargetAmount, e.Description)
		}
		return tw.Flush()
	}
	return fmt.Errorf("%w: unknown savings action %q", ErrUsage, action)
}

func runProfile(ctx context.Context, a *App, args []string) error {
	action, args := subcommand(args, "show")
	fs := a.flags("profile " + action)
	var pf form.ProfileForm
	if action == "update" {
		fs.StringVar(&pf.FullName, "full-name", "", "full name")
		fs.StringVar(&pf.Mobile, "mobile", "", "mobile number")
		fs.StringVar(&pf.PreferredCurrency, "currency", "", "ISO 4217 currency code")
		fs.StringVar(&pf.FinancialGoal, "goal", "", "financial goal")
		fs.StringVar(&pf.ProfileImage, "image", "", "profile image URL")
	}
	var imageFile *string
	if action == "image" {
		imageFile = fs.String("file", "", "image file to upload (required)")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := a.Account.Profile(ctx)
	if err != nil {
		return err
	}
	switch action {
	case "show":
	case "update":
		keep := map[string]*string{
			"full-name": &pf.FullName, "mobile": &pf.Mobile, "currency": &pf.PreferredCurrency,
			"goal": &pf.FinancialGoal, "image": &pf.ProfileImage,
		}
		current := map[string]string{
			"full-name": p.FullName, "mobile": p.Mobile, "currency": p.PreferredCurrency,
			"goal": p.FinancialGoal, "image": p.ProfileImage,
		}
		for name, ptr := range keep {
			if !fs.Changed(name) {
				*ptr = current[name]
			}
		}
		if p, err = pf.Apply(a.Form, p); err != nil {
			return err
		}
		if err := a.Account.UpdateProfile(ctx, p); err != nil {
			return err
		}
	case "image":
		if *imageFile == "" {
			return fmt.Errorf("%w: --file is required", ErrUsage)
		}
		data, err := os.ReadFile(*imageFile)
		if err != nil {
			return err
		}
		return a.Account.UploadProfileImage(ctx, *imageFile, data)
	case "remove-image":
		return a.Account.DeleteProfileImage(ctx)
	default:
		return fmt.Errorf("%w: unknown profile action %q", ErrUsage, action)
	}

	tw := a.table()
	fmt.Fprintf(tw, "Name\t%s\n", p.DisplayName())
	fmt.Fprintf(tw, "Username\t%s\n", p.Username)
	fmt.Fprintf(tw, "Email\t%s\n", p.Email)
	fmt.Fprintf(tw, "Mobile\t%s\n", p.Mobile)
	fmt.Fprintf(tw, "Currency\t%s\n", p.PreferredCurrency)
	fmt.Fprintf(tw, "Goal\t%s\n", p.FinancialGoal)
	if p.ProfileImage != "" {
		fmt.Fprintln(tw, "Image\tset")
	}
	return tw.Flush()
}

func runExport(ctx context.Context, a *App, args []string) error {
	fs := a.flags("export")
	format := fs.String("format", "csv", "pdf, csv or odf from the server; xlsx is always local")
	out := fs.StringP("out", "o", "", "output file (required)")
	local := fs.Bool("local", false, "render the filtered list locally instead of asking the server")
	ff := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("%w: export needs --out", ErrUsage)
	}

	if lf, err := export.ParseFormat(*format); err == nil && (*local || lf == export.XLSX) {
		filter, err := ff.Parse(a.Form, a.Now())
		if err != nil {
			return err
		}
		if err := a.Ledger.Load(ctx); err != nil {
			return err
		}
		return writeFile(*out, func(w *os.File) error {
			n, err := a.Ledger.ExportLocal(ctx, w, lf, filter)
			if err == nil {
				fmt.Fprintf(a.Out, "Wrote %d transactions to %s\n", n, *out)
			}
			return err
		})
	}

	rf, err := core.ParseExportFormat(*format)
	if err != nil {
		return err
	}
	return writeFile(*out, func(w *os.File) error {
		_, err := a.Account.Export(ctx, rf, w)
		return err
	})
}

// writeFile removes a partly written file when fill fails.
func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func runImport(ctx context.Context, a *App, args []string) error {
	fs := a.flags("import")
	file := fs.StringP("file", "f", "", "csv or xlsx file in the export layout")
	format := fs.String("format", "", "csv or xlsx (default from the file extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: import needs --file", ErrUsage)
	}
	name := *format
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(*file), ".")
	}
	f, err := export.ParseFormat(name)
	if err != nil {
		return err
	}
	r, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer r.Close()
	res, err := a.Ledger.Import(ctx, r, f)
	fmt.Fprintf(a.Out, "Created %d of %d transactions\n", res.Created, res.Read)
	return err
}

func runResetData(ctx context.Context, a *App, args []string) error {
	fs := a.flags("reset-data")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d := a.confirm("Delete ALL transactions, budgets and goals? This cannot be undone.", *yes)
	return a.Account.ResetData(ctx, d)
}

func runDeleteAccount(ctx context.Context, a *App, args []string) error {
	fs := a.flags("delete-account")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d := a.confirm("Delete your account and all of its data? This cannot be undone.", *yes)
	return a.Account.DeleteAccount(ctx, d)
}

func runForum(ctx context.Context, a *App, args []string) error {
	action, args := subcommand(args, "list")
	fs := a.flags("forum " + action)
	id := fs.Int64("id", 0, "post id")
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post or comment text")
	category := fs.String("category", "General", "post category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch action {
	case "list":
		posts, err := a.Backend.ListPosts(ctx)
		if err != nil {
			return err
		}
		sort.SliceStable(posts, func(i, j int) bool { return posts[i].At.After(posts[j].At) })
		tw := a.table()
		fmt.Fprintln(tw, "ID\tTitle\tCategory\tAuthor\tLikes\tComments")
		for _, p := range posts {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", p.ID, p.Title, p.Category, p.Author, p.Likes, len(p.Comments))
		}
		return tw.Flush()
	case "show":
		p, err := a.Backend.GetPost(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%s\nby %s in %s, %d likes\n\n%s\n", p.Title, p.Author, p.Category, p.Likes, p.Content)
		for _, c := range p.Comments {
			fmt.Fprintf(a.Out, "\n%s: %s\n", c.Author, c.Content)
		}
		return nil
	case "post":
		if strings.TrimSpace(*title) == "" || strings.TrimSpace(*content) == "" {
			return fmt.Errorf("%w: post needs --title and --content", ErrUsage)
		}
		p, err := a.Backend.CreatePost(ctx, core.ForumPost{Title: *title, Content: *content, Category: *category})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Posted #%d\n", p.ID)
		return nil
	case "like":
		n, err := a.Backend.LikePost(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%d likes\n", n)
		return nil
	case "comment":
		if strings.TrimSpace(*content) == "" {
			return fmt.Errorf("%w: comment needs --content", ErrUsage)
		}
		_, err := a.Backend.AddComment(ctx, *id, *content)
		return err
	}
	return fmt.Errorf("%w: unknown forum action %q", ErrUsage, action)
}

func runChat(ctx context.Context, a *App, args []string) error {
	msg := strings.TrimSpace(strings.Join(args, " "))
	if msg == "" {
		return fmt.Errorf("%w: chat needs a message", ErrUsage)
	}
	reply, err := a.Backend.Chat(ctx, msg)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, reply.Reply)
	return nil
}
