// =============================================================================
// PCA to ICS Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It turns one batch of PCA
// journal rows into ICS db journal records.
//
// CONVERSION PIPELINE (per voucher):
//   1. Group source rows by voucher number
//   2. Build the compound journal (debit items / credit items)
//   3. Detect special accounts in the voucher
//   4. Decompose the compound journal into simple journals by amount
//   5. Resolve account codes, names and the tax code
//   6. Assemble the ICS record
//
// ERROR HANDLING:
//   Per-voucher and per-field problems are recorded in the batch error log
//   and never abort the run. Only missing mapping tables are fatal.
//
// CONCURRENCY:
//   Vouchers are independent and may be converted by a bounded pool of
//   goroutines. Each voucher logs into its own local log; results are merged
//   in voucher order so the output is identical to a sequential run.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/logging"
	"github.com/ginjaninja78/pca-to-ics/internal/mapping"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

// ErrMissingMapping is returned when a mapping table is not available.
var ErrMissingMapping = errors.New("mapping table is missing")

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options control a conversion run.
type Options struct {
	// Columns are the source column positions.
	Columns config.SourceColumns

	// Rules are the tax-code rules. Unset fields take the DefaultRules values.
	Rules config.Rules

	// Concurrency is the number of vouchers converted in parallel.
	// Values below 2 mean sequential.
	Concurrency int

	// Logger receives progress messages. Nil means discard.
	Logger logging.Logger

	// Log is the batch error log. A new one is created when nil.
	Log *types.ErrorLog

	// Source names the sheet or file the rows came from.
	Source string
}

// DefaultOptions returns options for the standard PCA export layout.
func DefaultOptions() Options {
	return Options{
		Columns:     config.DefaultSourceColumns(),
		Rules:       config.DefaultRules(),
		Concurrency: 1,
	}
}

// Result is the outcome of one conversion run.
type Result struct {
	// Records are the ICS rows, in voucher order.
	Records []Record

	// Log holds every entry recorded during the run.
	Log *types.ErrorLog

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of source rows read.
	RowsProcessed int

	// Vouchers is the number of voucher groups.
	Vouchers int

	// SkippedVouchers is the number of vouchers that produced no records.
	SkippedVouchers int

	// RecordsCreated is the number of ICS records produced.
	RecordsCreated int

	Errors   int
	Warnings int

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Convert converts a batch of source rows.
//
// PARAMETERS:
//   - rows: The source data rows (header rows already removed).
//   - accounts: The account-code mapping.
//   - taxes: The tax-code mapping.
//   - opts: Column layout, rules, concurrency and logging.
//
// RETURNS:
//   - A Result with the records and the error log. The result is returned
//     even when err is non-nil so the caller can persist the log.
//   - An error wrapping ErrMissingMapping if a mapping table is nil.
func Convert(rows []types.Row, accounts *mapping.AccountMapping, taxes mapping.TaxMapping, opts Options) (*Result, error) {
	startTime := time.Now()
	opts.Rules = opts.Rules.WithDefaults()

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	log := opts.Log
	if log == nil {
		log = types.NewErrorLog(opts.Source)
	}

	result := &Result{Log: log}
	result.Stats.RowsProcessed = len(rows)

	if accounts == nil || taxes == nil {
		err := fmt.Errorf("convert: %w", ErrMissingMapping)
		log.Error("Convert", "", err.Error())
		logger.Error("%v", err)
		return result, err
	}

	// =========================================================================
	// STEP 1: GROUP ROWS BY VOUCHER
	// =========================================================================

	groups := GroupByVoucher(rows, opts.Columns.VoucherNumber)
	result.Stats.Vouchers = len(groups)
	logger.Debug("Grouped %d rows into %d vouchers", len(rows), len(groups))

	// =========================================================================
	// STEP 2: CONVERT VOUCHERS
	// =========================================================================

	resolver := NewResolver(accounts, taxes, opts.Rules)
	outcomes := make([]voucherOutcome, len(groups))

	convertAt := func(i int) {
		outcomes[i] = convertVoucher(groups[i], resolver, opts, log.Source())
	}

	if opts.Concurrency < 2 {
		for i := range groups {
			convertAt(i)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, opts.Concurrency)

		for i := range groups {
			wg.Add(1)
			sem <- struct{}{}

			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				convertAt(i)
			}(i)
		}

		wg.Wait()
	}

	// =========================================================================
	// STEP 3: MERGE IN VOUCHER ORDER
	// =========================================================================

	for _, o := range outcomes {
		result.Records = append(result.Records, o.records...)
		log.Merge(o.log)
		if len(o.records) == 0 {
			result.Stats.SkippedVouchers++
		}
	}

	result.Stats.RecordsCreated = len(result.Records)
	result.Stats.Errors = log.Count(types.SeverityError)
	result.Stats.Warnings = log.Count(types.SeverityWarn)
	result.Stats.ProcessingTime = time.Since(startTime)

	logger.Info("Converted %d rows into %d records (%d vouchers, %d skipped)",
		len(rows), len(result.Records), len(groups), result.Stats.SkippedVouchers)
	if log.Len() > 0 {
		logger.Warn("%d error log entries recorded", log.Len())
	}

	return result, nil
}

// =============================================================================
// PER-VOUCHER PROCESSING
// =============================================================================

type voucherOutcome struct {
	records []Record
	log     *types.ErrorLog
}

// convertVoucher runs one voucher through the pipeline. A panic inside the
// voucher is recovered, logged as a WARN with its stack, and the voucher
// produces no records.
func convertVoucher(group VoucherGroup, resolver *Resolver, opts Options, source string) (out voucherOutcome) {
	out.log = types.NewErrorLog(source)

	defer func() {
		if r := recover(); r != nil {
			out.records = nil
			out.log.Add(types.ErrorLogEntry{
				Severity:      types.SeverityWarn,
				Operation:     "Convert",
				VoucherNumber: group.Number,
				Message:       fmt.Sprint(r),
				Stack:         string(debug.Stack()),
			})
		}
	}()

	journal, ok := BuildCompoundJournal(group, opts.Columns, opts.Rules.SpecialAccounts, out.log)
	if !ok {
		return out
	}

	simple, residual := Decompose(journal)
	if residual != nil {
		out.log.Warn("Decompose", group.Number, fmt.Sprintf(
			"debit and credit totals differ: %s side has %s left over in %d item(s)",
			residual.Side, residual.Amount, residual.Items))
	}

	for _, j := range simple {
		res := resolver.Resolve(j, group.Number, out.log)
		out.records = append(out.records, AssembleRecord(j, res, opts.Columns))
	}

	return out
}
