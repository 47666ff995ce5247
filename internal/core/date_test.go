package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", d.String())

	for _, bad := range []string{"", "2024-13-01", "05/01/2024", "2024-01-05T00:00:00Z", "0001-01-01"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", bad)
	}

	earliest, err := ParseDate("0001-01-02")
	require.NoError(t, err)
	assert.NoError(t, earliest.Validate())
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-02-29"}`), &payload))
	assert.True(t, payload.D.Equal(NewDate(2024, 2, 29)))

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-02-29"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"d":"yesterday"}`), &payload))
}

func TestDateRangeDays(t *testing.T) {
	r, err := NewDateRange(NewDate(2024, 1, 1), NewDate(2024, 1, 10))
	require.NoError(t, err)
	days := r.Days()
	require.Len(t, days, 10)
	assert.Equal(t, "2024-01-01", days[0].String())
	assert.Equal(t, "2024-01-10", days[9].String())

	single := DateRange{Start: NewDate(2024, 3, 3), End: NewDate(2024, 3, 3)}
	assert.Len(t, single.Days(), 1)

	// month and leap-year boundaries
	span := DateRange{Start: NewDate(2024, 2, 27), End: NewDate(2024, 3, 2)}
	assert.Len(t, span.Days(), 5)
}

func TestNewDateRangeRejectsInverted(t *testing.T) {
	_, err := NewDateRange(NewDate(2024, 1, 10), NewDate(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
	assert.True(t, IsValidation(err))
}

func TestDateRangeContainsInclusive(t *testing.T) {
	r := DateRange{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 31)}
	assert.True(t, r.Contains(NewDate(2024, 1, 1)))
	assert.True(t, r.Contains(NewDate(2024, 1, 31)))
	assert.False(t, r.Contains(NewDate(2023, 12, 31)))
	assert.False(t, r.Contains(NewDate(2024, 2, 1)))
}

func TestDateRangeOverlaps(t *testing.T) {
	r := DateRange{Start: NewDate(2024, 3, 1), End: NewDate(2024, 3, 31)}
	tests := []struct {
		name       string
		start, end Date
		want       bool
	}{
		{"inside", NewDate(2024, 3, 5), NewDate(2024, 3, 10), true},
		{"starts inside", NewDate(2024, 3, 20), NewDate(2024, 4, 20), true},
		{"ends inside", NewDate(2024, 2, 1), NewDate(2024, 3, 1), true},
		{"spans", NewDate(2024, 1, 1), NewDate(2024, 12, 31), true},
		{"before", NewDate(2024, 1, 1), NewDate(2024, 2, 29), false},
		{"after", NewDate(2024, 4, 1), NewDate(2024, 4, 30), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Overlaps(tt.start, tt.end))
		})
	}
}

func TestDateRangeValidateReport(t *testing.T) {
	r := DateRange{Start: NewDate(2020, 1, 1), End: NewDate(2024, 12, 31)}
	assert.Equal(t, int64(MaxReportDays), r.NumDays())
	assert.NoError(t, r.ValidateReport())

	r.End = NewDate(2025, 1, 1)
	err := r.ValidateReport()
	assert.ErrorIs(t, err, ErrRangeTooLong)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "endDate", ve.Field)

	inverted := DateRange{Start: NewDate(2024, 1, 2), End: NewDate(2024, 1, 1)}
	assert.Equal(t, int64(0), inverted.NumDays())
	assert.ErrorIs(t, inverted.ValidateReport(), ErrInvalidDateRange)
}
