package core

import "time"

// MonthTotals aggregates posted transactions for a calendar month.
type MonthTotals struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"` // 1-12
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Net     Money `json:"net"`
}

// Summary is the per-owner overview served on the dashboard endpoint.
type Summary struct {
	Accounts     []Account   `json:"accounts"`
	TotalBalance Money       `json:"totalBalance"`
	Categories   []Category  `json:"categories"`
	Month        MonthTotals `json:"month"`
}

// MonthRange returns the inclusive bounds of the month containing t, in UTC.
func MonthRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// Totals folds transactions into income and expense sums.
func Totals(year, month int, txs []Transaction) MonthTotals {
	mt := MonthTotals{Year: year, Month: month}
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			mt.Income = mt.Income.Add(tx.Amount)
		case Expense:
			mt.Expense = mt.Expense.Add(tx.Amount)
		}
	}
	mt.Net = mt.Income.Add(mt.Expense.Neg())
	return mt
}

// TotalBalance sums the balances of accounts.
func TotalBalance(accounts []Account) Money {
	var total Money
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}
