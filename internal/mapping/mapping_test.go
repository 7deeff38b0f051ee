package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadAccountMapping(t *testing.T) {
	rows := [][]string{
		{"勘定科目名", "ICSコード", "PCAコード"},
		{"現金", "111", "100"},
		{"普通預金", "1", "200.0"},
		{"", "", ""},
		{"名称のみ", "", "300"},
		{"未払金", "335", ""},
		{"短い行"},
	}

	m := LoadAccountMapping(rows)

	code, ok := m.Lookup("100")
	assert.True(t, ok)
	assert.Equal(t, "111", code)

	code, ok = m.Lookup("200")
	assert.True(t, ok)
	assert.Equal(t, "001", code)

	_, ok = m.Lookup("300")
	assert.False(t, ok, "rows without an ICS code are not mapped")

	name, ok := m.Name("001")
	assert.True(t, ok)
	assert.Equal(t, "普通預金", name)

	name, ok = m.Name("335")
	assert.True(t, ok, "name map is keyed by ICS code even without a PCA code")
	assert.Equal(t, "未払金", name)

	_, ok = m.Name("")
	assert.False(t, ok)
}

func TestNormalizeTargetCode(t *testing.T) {
	tests := map[string]string{
		"1":     "001",
		"12":    "012",
		"111":   "111",
		"1234":  "1234",
		"111.0": "111",
		" 7 ":   "007",
		"ABC":   "ABC",
		"":      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeTargetCode(in), "input %q", in)
	}
}

func TestLoadTaxMapping(t *testing.T) {
	m := LoadTaxMapping([][]string{
		{"PCAコード", "ICSコード"},
		{"00", "04"},
		{"B5", "317"},
		{"Z9", ""},
	})

	code, ok := m.Lookup("00")
	assert.True(t, ok)
	assert.Equal(t, "04", code)

	_, ok = m.Lookup("0")
	assert.False(t, ok, "tax codes are matched as written")

	_, ok = m.Lookup("Z9")
	assert.False(t, ok)
}

func TestDefaultTaxMapping(t *testing.T) {
	rows := DefaultTaxRows()
	assert.Len(t, rows, 27)
	assert.Equal(t, TaxMappingHeader, rows[0])

	m := DefaultTaxMapping()
	assert.Len(t, m, 26)
	assert.Equal(t, "04", m["00"])
	assert.Equal(t, "317", m["Q5"])
	assert.Equal(t, "217", m["R4"])
}
