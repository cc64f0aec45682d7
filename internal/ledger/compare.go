package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type ChangeType string

const (
	ChangeNew       ChangeType = "New"
	ChangeRemoved   ChangeType = "Removed"
	ChangeIncreased ChangeType = "Increased"
	ChangeDecreased ChangeType = "Decreased"
	ChangeUnchanged ChangeType = "Unchanged"
)

type Variance struct {
	AccountID        string          `json:"account_id,omitempty"`
	AccountName      string          `json:"account_name,omitempty"`
	CategoryName     string          `json:"category_name"`
	Period1Balance   decimal.Decimal `json:"period1_balance"`
	Period2Balance   decimal.Decimal `json:"period2_balance"`
	AbsoluteChange   decimal.Decimal `json:"absolute_change"`
	PercentageChange decimal.Decimal `json:"percentage_change"`
	ChangeType       ChangeType      `json:"change_type"`
}

type Comparison struct {
	Period1           SnapshotRef     `json:"period1"`
	Period2           SnapshotRef     `json:"period2"`
	AccountVariances  []Variance      `json:"account_variances"`
	CategoryVariances []Variance      `json:"category_variances"`
	TotalVariance     decimal.Decimal `json:"total_variance"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// SnapshotRef identifies one side of a comparison.
type SnapshotRef struct {
	ID           string          `json:"id"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	CompanyName  string          `json:"company_name"`
	Status       SnapshotStatus  `json:"status"`
	FinalBalance decimal.Decimal `json:"final_balance"`
}

func refOf(s *Snapshot) SnapshotRef {
	return SnapshotRef{
		ID:           s.ID,
		Year:         s.Year,
		Month:        s.Month,
		CompanyName:  s.CompanyName,
		Status:       s.Status,
		FinalBalance: s.FinalBalance,
	}
}

var hundred = decimal.NewFromInt(100)

// NewVariance computes the change from p1 to p2. The percentage is relative
// to |p1| and is zero when p1 is zero.
func NewVariance(p1, p2 decimal.Decimal) Variance {
	change := p2.Sub(p1)
	pct := decimal.Zero
	if !p1.IsZero() {
		pct = change.Div(p1.Abs()).Mul(hundred).Round(2)
	}
	ct := ChangeUnchanged
	switch change.Sign() {
	case 1:
		ct = ChangeIncreased
	case -1:
		ct = ChangeDecreased
	}
	return Variance{
		Period1Balance:   p1,
		Period2Balance:   p2,
		AbsoluteChange:   change,
		PercentageChange: pct,
		ChangeType:       ct,
	}
}

// Compare computes account and category variances from a to b. Neither
// snapshot is modified.
func Compare(a, b *Snapshot) Comparison {
	type side struct {
		name     string
		category string
		balance  decimal.Decimal
	}
	index := func(s *Snapshot) map[string]side {
		m := make(map[string]side)
		for _, c := range s.Categories {
			for _, ab := range c.Accounts {
				m[ab.AccountID] = side{name: ab.AccountName, category: c.Name, balance: ab.NetBalance}
			}
		}
		return m
	}
	ia, ib := index(a), index(b)

	ids := make(map[string]struct{}, len(ia)+len(ib))
	for id := range ia {
		ids[id] = struct{}{}
	}
	for id := range ib {
		ids[id] = struct{}{}
	}

	accounts := make([]Variance, 0, len(ids))
	for id := range ids {
		sa, inA := ia[id]
		sb, inB := ib[id]
		v := NewVariance(sa.balance, sb.balance)
		v.AccountID = id
		switch {
		case !inA:
			v.AccountName, v.CategoryName = sb.name, sb.category
			v.ChangeType = ChangeNew
		case !inB:
			v.AccountName, v.CategoryName = sa.name, sa.category
			v.ChangeType = ChangeRemoved
		default:
			v.AccountName, v.CategoryName = sb.name, sb.category
		}
		accounts = append(accounts, v)
	}
	sort.Slice(accounts, func(i, j int) bool {
		ci, cj := accounts[i].AbsoluteChange.Abs(), accounts[j].AbsoluteChange.Abs()
		if !ci.Equal(cj) {
			return ci.GreaterThan(cj)
		}
		if accounts[i].AccountName != accounts[j].AccountName {
			return accounts[i].AccountName < accounts[j].AccountName
		}
		return accounts[i].AccountID < accounts[j].AccountID
	})

	subtotal := func(s *Snapshot, name string) decimal.Decimal {
		if c := s.Category(name); c != nil {
			return c.Subtotal
		}
		return decimal.Zero
	}
	categories := make([]Variance, 0, len(CategoryOrder))
	for _, name := range CategoryOrder {
		v := NewVariance(subtotal(a, name), subtotal(b, name))
		v.CategoryName = name
		categories = append(categories, v)
	}

	return Comparison{
		Period1:           refOf(a),
		Period2:           refOf(b),
		AccountVariances:  accounts,
		CategoryVariances: categories,
		TotalVariance:     b.FinalBalance.Sub(a.FinalBalance),
	}
}

// Variance returns the account variance for id, if present.
func (c Comparison) Variance(accountID string) (Variance, bool) {
	for _, v := range c.AccountVariances {
		if v.AccountID == accountID {
			return v, true
		}
	}
	return Variance{}, false
}
