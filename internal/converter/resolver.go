package converter

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/mapping"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

// =============================================================================
// CODE RESOLUTION
// =============================================================================

// Resolution is the ICS side of a simple journal.
type Resolution struct {
	DebitCode  string
	DebitName  string
	CreditCode string
	CreditName string
	TaxCode    string
	TaxAmount  decimal.Decimal
}

// Resolver maps PCA account and tax codes to ICS codes.
type Resolver struct {
	accounts *mapping.AccountMapping
	taxes    mapping.TaxMapping
	rules    config.Rules
}

// NewResolver returns a Resolver over the given tables.
func NewResolver(accounts *mapping.AccountMapping, taxes mapping.TaxMapping, rules config.Rules) *Resolver {
	return &Resolver{
		accounts: accounts,
		taxes:    taxes,
		rules:    rules,
	}
}

// Resolve computes the ICS codes and names of a simple journal. Lookup
// failures are logged against voucher and resolve to "".
func (r *Resolver) Resolve(j SimpleJournal, voucher string, log *types.ErrorLog) Resolution {
	debitCode := r.AccountCode(j.Debit.AccountCode, voucher, log)
	creditCode := r.AccountCode(j.Credit.AccountCode, voucher, log)

	return Resolution{
		DebitCode:  debitCode,
		DebitName:  r.AccountName(debitCode, j.Debit.AccountName),
		CreditCode: creditCode,
		CreditName: r.AccountName(creditCode, j.Credit.AccountName),
		TaxCode:    r.TaxCode(j, voucher, log),
		TaxAmount:  j.Debit.TaxAmount,
	}
}

// AccountCode maps a canonical PCA account code to its ICS code. An empty
// code resolves to "" silently; an unmapped one is logged as an ERROR.
func (r *Resolver) AccountCode(code, voucher string, log *types.ErrorLog) string {
	if code == "" {
		return ""
	}
	target, ok := r.accounts.Lookup(code)
	if !ok {
		log.Error("ResolveAccountCode", voucher,
			fmt.Sprintf("account code %s is not in the account mapping", code))
		return ""
	}
	return target
}

// AccountName returns the ICS name of targetCode, falling back to the PCA
// name of the source row, then "".
func (r *Resolver) AccountName(targetCode, sourceName string) string {
	if name, ok := r.accounts.Name(targetCode); ok {
		return name
	}
	return sourceName
}

// TaxCode decides the ICS tax code of a simple journal. In order:
//
//  1. a positive tax amount on either side forces the taxed code;
//  2. in a voucher containing a special account, entries that do not use
//     a special account themselves get the special voucher code;
//  3. otherwise the best PCA tax code of the two sides is mapped.
func (r *Resolver) TaxCode(j SimpleJournal, voucher string, log *types.ErrorLog) string {
	if j.Debit.TaxAmount.IsPositive() || j.Credit.TaxAmount.IsPositive() {
		return r.rules.TaxedCode
	}

	if j.HasSpecialAccount {
		special := isSpecialAccount(j.Debit.AccountCode, r.rules.SpecialAccounts) ||
			isSpecialAccount(j.Credit.AccountCode, r.rules.SpecialAccounts)
		if !special {
			return r.rules.SpecialVoucherCode
		}
	}

	best := BestTaxCode(j.Debit.TaxCode, j.Credit.TaxCode, r.rules.NoTaxSourceCode)
	return r.mapTaxCode(best, voucher, log)
}

// BestTaxCode picks the PCA tax code that describes a debit/credit pair.
// A side whose code is noTax only wins when the other side has nothing
// better.
func BestTaxCode(debit, credit, noTax string) string {
	switch {
	case debit == "" && credit == "":
		return noTax
	case debit == "":
		return credit
	case credit == "":
		return debit
	case debit != noTax:
		return debit
	case credit != noTax:
		return credit
	}
	return noTax
}

func (r *Resolver) mapTaxCode(code, voucher string, log *types.ErrorLog) string {
	if code == "" {
		return ""
	}
	target, ok := r.taxes.Lookup(code)
	if !ok {
		log.Error("ResolveTaxCode", voucher,
			fmt.Sprintf("tax code %s is not in the tax mapping", code))
		return ""
	}
	return target
}
