package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-30", "-30", true},
		{"0", "0", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"12.3456", "12.3456", true},
		{"12.340000", "12.34", true},
		{"1e3", "1000", true},
		{"9999999999999999.9999", "9999999999999999.9999", true},
		{"-9999999999999999", "-9999999999999999", true},
		{"0e-900000", "0", true},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			require.NoError(t, err, "input %q", tc.in)
			assert.Equal(t, tc.out, got.String(), "input %q", tc.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
		}
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	total := Zero
	for i := 0; i < 10; i++ {
		total = total.Add(MustMoney("0.1"))
	}
	assert.Equal(t, "1", total.String())
	assert.True(t, MustMoney("150").Add(MustMoney("-30")).Equal(MustMoney("120")))
}

func TestMoneyJSON(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.50","b":7}`), &payload))
	assert.True(t, payload.A.Equal(MustMoney("12.5")))
	assert.True(t, payload.B.Equal(MustMoney("7")))

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"12.5","b":"7"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a":"ten"}`), &payload))
}

func TestCategoryTotals(t *testing.T) {
	ct := CategoryTotals{}
	ct.Add(CategorySales, MustMoney("100"))
	ct.Add(CategorySales, MustMoney("50.25"))
	ct.Add(CategoryRent, MustMoney("40"))
	assert.Equal(t, "150.25", ct[CategorySales].String())
	assert.Equal(t, "190.25", ct.Total().String())
}

func TestParseMoneyBounds(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"12.34567", ErrAmountPrecision},
		{"0.00001", ErrAmountPrecision},
		{"1e-50000000", ErrAmountPrecision},
		{"1e50000000", ErrAmountOutOfRange},
		{"10000000000000000", ErrAmountOutOfRange},
		{"-1e16", ErrAmountOutOfRange},
		{"1" + strings.Repeat("0", 70), ErrAmountOutOfRange},
	}
	for _, tc := range cases {
		_, err := ParseMoney(tc.in)
		assert.ErrorIs(t, err, tc.want, "input %.20q", tc.in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %.20q", tc.in)
	}

	var payload struct {
		A Money `json:"a"`
	}
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"a":1e50000000}`), &payload), ErrAmountOutOfRange)
}

func TestMoneyValidate(t *testing.T) {
	assert.NoError(t, Zero.Validate())
	assert.NoError(t, Money{}.Validate())
	assert.NoError(t, MustMoney("12.3456").Validate())
	assert.NoError(t, NewMoney(decimal.New(1234500, -5)).Validate())
	assert.ErrorIs(t, NewMoney(decimal.New(1234567, -5)).Validate(), ErrAmountPrecision)
	assert.ErrorIs(t, NewMoney(decimal.New(1, 16)).Validate(), ErrAmountOutOfRange)
}
