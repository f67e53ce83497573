package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/calculator"
	"github.com/mmynk/kotconnect/internal/models"
	vm "github.com/mmynk/kotconnect/internal/views"
)

// ExpensesView lists the dorm's expenses with the user's share of each, or
// the dorm balances.
type ExpensesView struct {
	env          *Env
	dorm         *models.Dorm
	sub          *cache.Subscription
	state        cache.State
	cursor       int
	showBalances bool
	balances     balancesMsg
	busy         bool
	status       string
	err          error
	width        int
	height       int
}

// balancesMsg carries the dorm balances computed by the app.
type balancesMsg struct {
	balances []calculator.MemberBalance
	debts    []calculator.DebtEdge
	err      error
}

// NewExpensesView subscribes to the expenses of dorm.
func NewExpensesView(env *Env, dorm *models.Dorm) *ExpensesView {
	sub := env.App.WatchExpenses(dorm.ID)
	return &ExpensesView{env: env, dorm: dorm, sub: sub, state: sub.State()}
}

func (v *ExpensesView) Init() tea.Cmd {
	return watch(v.sub)
}

func (v *ExpensesView) Close() {
	v.sub.Close()
}

func (v *ExpensesView) expenses() []models.Expense {
	list, _ := cache.Value[[]models.Expense](v.state)
	return list
}

func (v *ExpensesView) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height

	case stateMsg:
		if msg.sub != v.sub {
			return v, nil
		}
		v.state = msg.state
		v.cursor = min(v.cursor, max(len(v.expenses())-1, 0))
		if v.showBalances {
			return v, tea.Batch(watch(v.sub), v.loadBalances())
		}
		return v, watch(v.sub)

	case balancesMsg:
		v.balances = msg

	case doneMsg:
		v.busy = false
		v.err = msg.err
		if msg.err == nil && msg.op == "paid" {
			v.status = "Marked as paid"
		}

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		return v.updateKeys(msg)
	}
	return v, nil
}

func (v *ExpensesView) updateKeys(msg tea.KeyMsg) (Screen, tea.Cmd) {
	k := v.env.Keys
	list := v.expenses()

	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit
	case key.Matches(msg, k.Back), msg.String() == "q":
		if v.showBalances {
			v.showBalances = false
			return v, nil
		}
		return v, send(Back{})
	case key.Matches(msg, k.Balances):
		v.showBalances = !v.showBalances
		if v.showBalances {
			return v, v.loadBalances()
		}
	case key.Matches(msg, k.New):
		return v, send(OpenExpenseForm{Dorm: v.dorm})
	case key.Matches(msg, k.Up):
		v.cursor = max(v.cursor-1, 0)
	case key.Matches(msg, k.Down):
		v.cursor = min(v.cursor+1, max(len(list)-1, 0))
	case key.Matches(msg, k.Paid):
		if v.showBalances || v.cursor >= len(list) {
			return v, nil
		}
		e := list[v.cursor]
		share, ok := vm.MyShare(e, username(v.env))
		if !ok || !vm.CanMarkPaid(share, username(v.env)) || e.ID == nil {
			v.status = "Nothing to mark as paid"
			return v, nil
		}
		userID, ok := share.User.UserID()
		if !ok {
			return v, nil
		}
		v.busy, v.err, v.status = true, nil, ""
		a, ctx, dormID, expenseID := v.env.App, v.env.Ctx, v.dorm.ID, *e.ID
		return v, run("paid", func() error {
			_, err := a.MarkPaid(ctx, dormID, expenseID, userID)
			return err
		})
	}
	return v, nil
}

// loadBalances asks the app for the balances of the cached expenses.
func (v *ExpensesView) loadBalances() tea.Cmd {
	a, ctx, dormID := v.env.App, v.env.Ctx, v.dorm.ID
	return func() tea.Msg {
		balances, debts, err := a.Balances(ctx, dormID)
		return balancesMsg{balances: balances, debts: debts, err: err}
	}
}

func (v *ExpensesView) View() string {
	s := v.env.Styles
	list := v.expenses()
	me := username(v.env)

	if list == nil && v.state.IsLoading {
		return s.TitleMuted.Render("Loading expenses...")
	}

	var body string
	if v.showBalances {
		body = v.renderBalances()
	} else {
		body = v.renderList(list, me)
	}

	outstanding := vm.OutstandingTotal(list, me)
	summary := s.Settled.Render("You are all settled up")
	if outstanding > 0 {
		summary = "You owe " + s.Owed.Render(vm.FormatEuro(outstanding))
	}

	k := v.env.Keys
	return page(v.width, v.height,
		s.Title.Render("Expenses · "+v.dorm.Name),
		summary,
		body,
		renderStatus(s, v.status, firstErr(v.err, v.state.Err)),
		renderHelp(s, [][2]string{
			{k.Paid.Help().Key, "mark my share paid"}, {k.Balances.Help().Key, "balances"},
			{k.New.Help().Key, "new"}, {"esc", "back"},
		}),
	)
}

func (v *ExpensesView) renderList(list []models.Expense, me string) string {
	s := v.env.Styles
	if len(list) == 0 {
		return s.TitleMuted.Render("No expenses yet")
	}

	lines := make([]string, 0, len(list))
	for i, e := range list {
		creator := "?"
		if e.Creator != nil {
			creator = e.Creator.Username
		}
		line := fmt.Sprintf("%-24s %9s  by %s", e.Title, vm.FormatEuro(e.TotalAmount), creator)
		if share, ok := vm.MyShare(e, me); ok {
			mine := s.Owed.Render("you owe " + vm.FormatEuro(share.Amount))
			if share.Paid {
				mine = s.Settled.Render("paid")
			} else if e.Creator != nil && e.Creator.Username == me {
				mine = s.Settled.Render("your share")
			}
			line += "  " + mine
		}

		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (v *ExpensesView) renderBalances() string {
	s := v.env.Styles
	balances, debts := v.balances.balances, v.balances.debts
	if v.balances.err != nil {
		return s.Error.Render(ErrorText(v.balances.err))
	}
	if len(balances) == 0 {
		return s.TitleMuted.Render("No balances yet")
	}

	lines := []string{s.Subtitle.Render("Balances")}
	for _, b := range balances {
		amount := s.Settled.Render(vm.FormatEuro(b.NetBalance))
		if b.NetBalance < 0 {
			amount = s.Owed.Render(vm.FormatEuro(b.NetBalance))
		}
		lines = append(lines, fmt.Sprintf("  %-20s %s", b.Username, amount))
	}

	lines = append(lines, "", s.Subtitle.Render("To settle"))
	if len(debts) == 0 {
		lines = append(lines, s.TitleMuted.Render("  Everyone is even"))
	}
	for _, d := range debts {
		lines = append(lines, fmt.Sprintf("  %s → %s  %s", d.From, d.To, s.Amount.Render(vm.FormatEuro(d.Amount))))
	}
	return strings.Join(lines, "\n")
}
