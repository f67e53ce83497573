package calculator

import (
	"sort"

	"github.com/mmynk/kotconnect/internal/models"
)

// MemberBalance represents the balance information for one dorm member.
type MemberBalance struct {
	Username   string
	NetBalance float64 // Positive = owed money, Negative = owes money
	Owed       float64 // Unpaid shares others owe this member
	Owes       float64 // Unpaid shares this member owes others
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

// DormBalances computes what every member owes or is owed across a dorm's
// expenses, and a simplified set of payments that would settle everything.
//
// Algorithm:
//   - The creator of an expense paid for it, so every unpaid share of another
//     member is owed to the creator. Paid shares and the creator's own share
//     are settled already.
//   - net_balance = owed - owes
//   - Debts are simplified with greedy matching of the largest debtor to the
//     largest creditor.
//
// Amounts are accumulated in cents; expenses without a creator are skipped.
func DormBalances(expenses []models.Expense) ([]MemberBalance, []DebtEdge) {
	owed := make(map[string]int64)
	owes := make(map[string]int64)
	members := make(map[string]bool)

	for _, expense := range expenses {
		if expense.Creator == nil || expense.Creator.Username == "" {
			continue
		}
		creator := expense.Creator.Username
		members[creator] = true

		for _, share := range expense.Shares {
			if share.User == nil || share.User.Username == "" {
				continue
			}
			debtor := share.User.Username
			members[debtor] = true
			if share.Paid || debtor == creator {
				continue
			}
			cents := ToCents(share.Amount)
			owed[creator] += cents
			owes[debtor] += cents
		}
	}

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	balances := make([]MemberBalance, 0, len(names))
	net := make(map[string]int64, len(names))
	for _, name := range names {
		net[name] = owed[name] - owes[name]
		balances = append(balances, MemberBalance{
			Username:   name,
			NetBalance: FromCents(net[name]),
			Owed:       FromCents(owed[name]),
			Owes:       FromCents(owes[name]),
		})
	}

	return balances, simplify(names, net)
}

type party struct {
	name  string
	cents int64
}

// simplify matches debtors with creditors to minimize transactions.
func simplify(names []string, net map[string]int64) []DebtEdge {
	var creditors, debtors []party
	for _, name := range names {
		switch n := net[name]; {
		case n > 0:
			creditors = append(creditors, party{name, n})
		case n < 0:
			debtors = append(debtors, party{name, -n})
		}
	}

	// Largest first; names break ties so the result is stable.
	byAmount := func(ps []party) func(i, j int) bool {
		return func(i, j int) bool {
			if ps[i].cents != ps[j].cents {
				return ps[i].cents > ps[j].cents
			}
			return ps[i].name < ps[j].name
		}
	}
	sort.Slice(creditors, byAmount(creditors))
	sort.Slice(debtors, byAmount(debtors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := min(debtors[i].cents, creditors[j].cents)

		edges = append(edges, DebtEdge{
			From:   debtors[i].name,
			To:     creditors[j].name,
			Amount: FromCents(amount),
		})

		debtors[i].cents -= amount
		creditors[j].cents -= amount

		if debtors[i].cents == 0 {
			i++
		}
		if creditors[j].cents == 0 {
			j++
		}
	}
	return edges
}
