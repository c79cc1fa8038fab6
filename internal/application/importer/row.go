package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Row is one data line keyed by normalized header.
type Row map[string]string

func newRow(headers []string, fields []string) Row {
	row := make(Row, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		var value string
		if i < len(fields) {
			value = strings.TrimSpace(fields[i])
		}
		if existing := row[header]; existing != "" {
			continue
		}
		row[header] = value
	}
	return row
}

// First returns the first non-empty value among keys.
func (r Row) First(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(r[key]); value != "" {
			return value
		}
	}
	return ""
}

// Int parses the first non-empty value as an integer, falling back to 0.
func (r Row) Int(keys ...string) int64 {
	raw := strings.ReplaceAll(r.First(keys...), ",", "")
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

// Decimal parses the first non-empty value as a decimal amount, returning nil
// when it is absent or malformed.
func (r Row) Decimal(keys ...string) *decimal.Decimal {
	raw := r.First(keys...)
	raw = strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}
