package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one participant row of a shared expense.
type LedgerEntry struct {
	ExpenseID string
	PayerID   string
	UserID    string
	Amount    decimal.Decimal
	Paid      bool
}

type MemberBalance struct {
	UserID string
	Owes   decimal.Decimal // unpaid shares on expenses others paid for
	IsOwed decimal.Decimal // unpaid shares others have on expenses this member paid for
	Net    decimal.Decimal // IsOwed - Owes
}

type Debt struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// outstanding reports whether a row still moves money between two people.
// The payer's own reconciling row and settled rows never do.
func (e LedgerEntry) outstanding() bool {
	return !e.Paid && e.UserID != e.PayerID && e.Amount.IsPositive()
}

// Balances aggregates owed vs owed-to amounts per member, sorted by user id.
// Every user appearing in entries gets a row, even when fully settled.
func Balances(entries []LedgerEntry) []MemberBalance {
	balances := make(map[string]*MemberBalance)
	get := func(id string) *MemberBalance {
		b, ok := balances[id]
		if !ok {
			b = &MemberBalance{UserID: id, Owes: decimal.Zero, IsOwed: decimal.Zero}
			balances[id] = b
		}
		return b
	}

	for _, entry := range entries {
		get(entry.UserID)
		get(entry.PayerID)
		if !entry.outstanding() {
			continue
		}
		get(entry.UserID).Owes = get(entry.UserID).Owes.Add(entry.Amount)
		get(entry.PayerID).IsOwed = get(entry.PayerID).IsOwed.Add(entry.Amount)
	}

	result := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.IsOwed.Sub(b.Owes)
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})
	return result
}

// Debts nets outstanding rows pairwise: if A owes B 10 and B owes A 4, the
// result is a single A->B debt of 6. Sorted by debtor then creditor.
func Debts(entries []LedgerEntry) []Debt {
	type pair struct{ a, b string }
	net := make(map[pair]decimal.Decimal)

	for _, entry := range entries {
		if !entry.outstanding() {
			continue
		}
		// a < b; positive means a owes b.
		from, to := entry.UserID, entry.PayerID
		if from < to {
			p := pair{from, to}
			net[p] = net[p].Add(entry.Amount)
		} else {
			p := pair{to, from}
			net[p] = net[p].Sub(entry.Amount)
		}
	}

	debts := make([]Debt, 0, len(net))
	for p, amount := range net {
		switch {
		case amount.IsPositive():
			debts = append(debts, Debt{From: p.a, To: p.b, Amount: amount})
		case amount.IsNegative():
			debts = append(debts, Debt{From: p.b, To: p.a, Amount: amount.Neg()})
		}
	}
	sort.Slice(debts, func(i, j int) bool {
		if debts[i].From != debts[j].From {
			return debts[i].From < debts[j].From
		}
		return debts[i].To < debts[j].To
	})
	return debts
}
