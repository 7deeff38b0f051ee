package converter

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

// =============================================================================
// LEDGER ITEMS
// =============================================================================

// Side is the debit (借方) or credit (貸方) side of an entry.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// LedgerItem is one side of one source row, normalized.
type LedgerItem struct {
	// AccountCode is the canonical PCA account code (see types.Cell.Code).
	AccountCode string

	// AccountName is the PCA account name from the source row.
	AccountName string

	SubAccountCode string
	SubAccountName string

	// Amount is the remaining amount of the item. Always > 0.
	Amount decimal.Decimal

	// TaxAmount is the consumption tax amount, zero when absent.
	TaxAmount decimal.Decimal

	// TaxCode is the PCA tax classification exactly as written ("00", "B5").
	TaxCode string

	DepartmentCode string
}

// WithAmount returns a copy of the item carrying a different amount.
func (it LedgerItem) WithAmount(amount decimal.Decimal) LedgerItem {
	it.Amount = amount
	return it
}

// extractItem reads one side of a row. The side qualifies only when its
// account code is present and its amount is strictly positive.
func extractItem(row types.Row, cols config.SideColumns) (LedgerItem, bool) {
	account := row.At(cols.Account)
	amount := row.At(cols.Amount).Decimal()

	if account.IsEmpty() || !amount.IsPositive() {
		return LedgerItem{}, false
	}

	return LedgerItem{
		AccountCode:    account.Code(),
		AccountName:    row.At(cols.AccountName).String(),
		SubAccountCode: row.At(cols.SubAccount).String(),
		SubAccountName: row.At(cols.SubAccountName).String(),
		Amount:         amount,
		TaxAmount:      row.At(cols.TaxAmount).Decimal(),
		TaxCode:        row.At(cols.TaxCode).String(),
		DepartmentCode: row.At(cols.Department).String(),
	}, true
}

// =============================================================================
// VOUCHER GROUPING
// =============================================================================

// VoucherGroup is the set of rows sharing one voucher number.
type VoucherGroup struct {
	Number string
	Rows   []types.Row
}

// GroupByVoucher partitions rows by the voucher number column. Groups are
// returned in order of first occurrence and rows keep their original order
// inside each group.
func GroupByVoucher(rows []types.Row, voucherColumn int) []VoucherGroup {
	index := make(map[string]int)
	var groups []VoucherGroup

	for _, row := range rows {
		key := row.At(voucherColumn).String()
		i, exists := index[key]
		if !exists {
			i = len(groups)
			index[key] = i
			groups = append(groups, VoucherGroup{Number: key})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	return groups
}

// =============================================================================
// COMPOUND JOURNALS
// =============================================================================

// CompoundJournal is one voucher split into its debit and credit items.
// Both lists are non-empty.
type CompoundJournal struct {
	// BaseRow supplies the voucher-level fields (date, number, memo).
	BaseRow types.Row

	Debits  []LedgerItem
	Credits []LedgerItem

	// HasSpecialAccount is set when any item uses a special account code.
	HasSpecialAccount bool
}

// BuildCompoundJournal collects the qualifying debit and credit sides of a
// voucher's rows. When either side ends up empty the voucher cannot be
// converted: a WARN entry is logged and ok is false.
func BuildCompoundJournal(group VoucherGroup, cols config.SourceColumns, specialAccounts []string, log *types.ErrorLog) (*CompoundJournal, bool) {
	var debits, credits []LedgerItem

	for _, row := range group.Rows {
		if item, ok := extractItem(row, cols.Debit); ok {
			debits = append(debits, item)
		}
		if item, ok := extractItem(row, cols.Credit); ok {
			credits = append(credits, item)
		}
	}

	if len(debits) == 0 || len(credits) == 0 {
		log.Warn("BuildCompoundJournal", group.Number, fmt.Sprintf(
			"debit and credit sides are not balanced (debit: %d items, credit: %d items)",
			len(debits), len(credits)))
		return nil, false
	}

	return &CompoundJournal{
		BaseRow:           group.Rows[0],
		Debits:            debits,
		Credits:           credits,
		HasSpecialAccount: HasSpecialAccount(debits, credits, specialAccounts),
	}, true
}

// HasSpecialAccount reports whether any debit or credit item uses one of the
// special account codes.
func HasSpecialAccount(debits, credits []LedgerItem, specialAccounts []string) bool {
	for _, items := range [][]LedgerItem{debits, credits} {
		for _, item := range items {
			if isSpecialAccount(item.AccountCode, specialAccounts) {
				return true
			}
		}
	}
	return false
}

func isSpecialAccount(code string, specialAccounts []string) bool {
	for _, s := range specialAccounts {
		if code == s {
			return true
		}
	}
	return false
}

// =============================================================================
// AMOUNT-SPLIT DECOMPOSITION
// =============================================================================

// SimpleJournal is a single-debit / single-credit entry.
// Debit.Amount == Credit.Amount == Amount.
type SimpleJournal struct {
	BaseRow           types.Row
	Debit             LedgerItem
	Credit            LedgerItem
	Amount            decimal.Decimal
	HasSpecialAccount bool
}

// Residual describes what is left over when the debit and credit totals of a
// compound journal differ.
type Residual struct {
	Side   Side
	Items  int
	Amount decimal.Decimal
}

// Decompose splits a compound journal into simple journals by matching
// amounts. Debit and credit items are consumed as FIFO queues:
//
//   - equal heads are paired and both popped;
//   - the smaller head is paired with a copy of the larger head cut to the
//     smaller amount, the smaller head is popped and the larger head is
//     replaced by an item carrying the remaining amount (popped when that
//     reaches zero).
//
// The loop stops when either queue is empty. If anything is left on the other
// queue it is reported as a Residual; the journals produced so far are kept.
func Decompose(j *CompoundJournal) ([]SimpleJournal, *Residual) {
	debits := append([]LedgerItem(nil), j.Debits...)
	credits := append([]LedgerItem(nil), j.Credits...)

	var result []SimpleJournal
	emit := func(debit, credit LedgerItem, amount decimal.Decimal) {
		result = append(result, SimpleJournal{
			BaseRow:           j.BaseRow,
			Debit:             debit,
			Credit:            credit,
			Amount:            amount,
			HasSpecialAccount: j.HasSpecialAccount,
		})
	}

	for len(debits) > 0 && len(credits) > 0 {
		debit, credit := debits[0], credits[0]

		switch debit.Amount.Cmp(credit.Amount) {
		case 0:
			emit(debit, credit, debit.Amount)
			debits, credits = debits[1:], credits[1:]

		case -1:
			// Debit is smaller: cut the credit to the debit amount.
			emit(debit, credit.WithAmount(debit.Amount), debit.Amount)
			debits = debits[1:]
			credits[0] = credit.WithAmount(credit.Amount.Sub(debit.Amount))
			if credits[0].Amount.IsZero() {
				credits = credits[1:]
			}

		default:
			// Credit is smaller: cut the debit to the credit amount.
			emit(debit.WithAmount(credit.Amount), credit, credit.Amount)
			credits = credits[1:]
			debits[0] = debit.WithAmount(debit.Amount.Sub(credit.Amount))
			if debits[0].Amount.IsZero() {
				debits = debits[1:]
			}
		}
	}

	switch {
	case len(debits) > 0:
		return result, &Residual{Side: Debit, Items: len(debits), Amount: sumAmounts(debits)}
	case len(credits) > 0:
		return result, &Residual{Side: Credit, Items: len(credits), Amount: sumAmounts(credits)}
	}
	return result, nil
}

func sumAmounts(items []LedgerItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}
