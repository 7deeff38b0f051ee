package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		in      string
		kind    CellKind
		raw     string
		code    string
		decimal string
	}{
		{"", CellEmpty, "", "", "0"},
		{"   ", CellEmpty, "", "", "0"},
		{"335", CellNumber, "335", "335", "335"},
		{" 7.0 ", CellNumber, "7.0", "7", "7"},
		{"007", CellNumber, "007", "7", "7"},
		{"1,000", CellNumber, "1,000", "1000", "1000"},
		{"00", CellNumber, "00", "0", "0"},
		{"B5", CellText, "B5", "B5", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := ParseCell(tt.in)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.raw, c.String())
			assert.Equal(t, tt.code, c.Code())
			assert.Equal(t, tt.decimal, c.Decimal().String())
		})
	}
}

func TestRowAt(t *testing.T) {
	row := NewRow([]string{"20250930", "12"})

	assert.Equal(t, "12", row.At(1).String())
	assert.True(t, row.At(5).IsEmpty())
	assert.True(t, row.At(-1).IsEmpty())
	assert.False(t, row.IsBlank())
	assert.True(t, NewRow([]string{"", " "}).IsBlank())
}

func TestErrorLog(t *testing.T) {
	fixed := time.Date(2025, 9, 30, 12, 0, 0, 0, time.UTC)
	log := NewErrorLog("202509")
	log.now = func() time.Time { return fixed }

	log.Warn("BuildCompoundJournal", "12", "unbalanced")
	log.Error("ResolveAccountCode", "12", "no mapping")
	log.Info("Convert", "", "done")

	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, SeverityWarn, entries[0].Severity)
	assert.Equal(t, "202509", entries[0].Source)
	assert.Equal(t, fixed, entries[0].Timestamp)
	assert.Equal(t, 1, log.Count(SeverityError))

	other := NewErrorLog("202509")
	other.Warn("Decompose", "13", "residual")
	log.Merge(other)
	assert.Equal(t, 4, log.Len())
	assert.Equal(t, "13", log.Entries()[3].VoucherNumber)

	log.Reset()
	assert.Zero(t, log.Len())
}
