package converter

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
)

// =============================================================================
// ICS OUTPUT RECORD
// =============================================================================

// RecordHeaders are the ICS db journal columns, in output order.
var RecordHeaders = []string{
	"日付", "決修", "伝票番号",
	"借方部門コード", "借方事管区分", "借方工事コード", "借方コード", "借方名称",
	"借方枝番", "借方枝番摘要", "借方枝番カナ",
	"貸方部門コード", "貸方事管区分", "貸方工事コード", "貸方コード", "貸方名称",
	"貸方枝番", "貸方枝番摘要", "貸方枝番カナ",
	"金額", "摘要", "税区分", "対価", "仕入区分", "売上業種区分",
	"仕訳区分", "特定収入区分", "ダミー1", "ダミー2", "ダミー3", "内部取引",
	"税額", "証憑番号", "手形番号", "手形期日", "付箋番号", "付箋コメント",
	"免税事業者等", "インボイス登録番号",
}

// Column positions of the populated fields. Every other column is blank.
const (
	ColDate             = 0
	ColVoucherNumber    = 2
	ColDebitDepartment  = 3
	ColDebitCode        = 6
	ColDebitName        = 7
	ColDebitSubCode     = 8
	ColDebitSubName     = 9
	ColCreditDepartment = 11
	ColCreditCode       = 14
	ColCreditName       = 15
	ColCreditSubCode    = 16
	ColCreditSubName    = 17
	ColAmount           = 19
	ColMemo             = 20
	ColTaxCode          = 21
	ColTaxAmount        = 31
)

// Record is one ICS journal row.
type Record struct {
	Date          string
	VoucherNumber string

	DebitDepartment string
	DebitCode       string
	DebitName       string
	DebitSubCode    string
	DebitSubName    string

	CreditDepartment string
	CreditCode       string
	CreditName       string
	CreditSubCode    string
	CreditSubName    string

	Amount    decimal.Decimal
	Memo      string
	TaxCode   string
	TaxAmount decimal.Decimal
}

// AssembleRecord lays out a simple journal and its resolved codes as an ICS
// record.
func AssembleRecord(j SimpleJournal, res Resolution, cols config.SourceColumns) Record {
	return Record{
		Date:          FormatDate(j.BaseRow.At(cols.Date).String()),
		VoucherNumber: j.BaseRow.At(cols.VoucherNumber).String(),

		DebitDepartment: j.Debit.DepartmentCode,
		DebitCode:       res.DebitCode,
		DebitName:       res.DebitName,
		DebitSubCode:    j.Debit.SubAccountCode,
		DebitSubName:    j.Debit.SubAccountName,

		CreditDepartment: j.Credit.DepartmentCode,
		CreditCode:       res.CreditCode,
		CreditName:       res.CreditName,
		CreditSubCode:    j.Credit.SubAccountCode,
		CreditSubName:    j.Credit.SubAccountName,

		Amount:    j.Amount,
		Memo:      j.BaseRow.At(cols.Memo).String(),
		TaxCode:   res.TaxCode,
		TaxAmount: res.TaxAmount,
	}
}

// Strings returns the record as len(RecordHeaders) text columns.
func (r Record) Strings() []string {
	out := make([]string, len(RecordHeaders))
	for i, v := range r.Values() {
		switch x := v.(type) {
		case string:
			out[i] = x
		case decimal.Decimal:
			out[i] = x.String()
		}
	}
	return out
}

// Values returns the record as len(RecordHeaders) cells. Amount columns hold
// decimal.Decimal values; everything else is a string.
func (r Record) Values() []interface{} {
	out := make([]interface{}, len(RecordHeaders))
	for i := range out {
		out[i] = ""
	}

	out[ColDate] = r.Date
	out[ColVoucherNumber] = r.VoucherNumber

	out[ColDebitDepartment] = r.DebitDepartment
	out[ColDebitCode] = r.DebitCode
	out[ColDebitName] = r.DebitName
	out[ColDebitSubCode] = r.DebitSubCode
	out[ColDebitSubName] = r.DebitSubName

	out[ColCreditDepartment] = r.CreditDepartment
	out[ColCreditCode] = r.CreditCode
	out[ColCreditName] = r.CreditName
	out[ColCreditSubCode] = r.CreditSubCode
	out[ColCreditSubName] = r.CreditSubName

	out[ColAmount] = r.Amount
	out[ColMemo] = r.Memo
	out[ColTaxCode] = r.TaxCode
	out[ColTaxAmount] = r.TaxAmount

	return out
}

// FormatDate turns an 8-digit YYYYMMDD date into YYYY/M/D
// ("20250930" -> "2025/9/30"). Anything else is returned unchanged.
func FormatDate(s string) string {
	if len(s) != 8 {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}

	month, _ := strconv.Atoi(s[4:6])
	day, _ := strconv.Atoi(s[6:8])
	return s[:4] + "/" + strconv.Itoa(month) + "/" + strconv.Itoa(day)
}
