package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bizops/internal/core"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		required  bool
		wantNil   bool
		wantErr   bool
		wantStart string
		wantEnd   string
	}{
		{name: "both dates", query: "startDate=2024-01-01&endDate=2024-01-31", wantStart: "2024-01-01", wantEnd: "2024-01-31"},
		{name: "single day", query: "startDate=2024-01-01&endDate=2024-01-01", wantStart: "2024-01-01", wantEnd: "2024-01-01"},
		{name: "optional and absent", query: "", wantNil: true},
		{name: "required and absent", query: "", required: true, wantErr: true},
		{name: "missing end", query: "startDate=2024-01-01", wantErr: true},
		{name: "missing start", query: "endDate=2024-01-01", wantErr: true},
		{name: "reversed", query: "startDate=2024-02-01&endDate=2024-01-01", wantErr: true},
		{name: "bad format", query: "startDate=2024/01/01&endDate=2024-01-02", wantErr: true},
		{name: "report range over five years", query: "startDate=2000-01-01&endDate=2999-12-31", required: true, wantErr: true},
		{name: "filter range over five years", query: "startDate=2000-01-01&endDate=2999-12-31", wantStart: "2000-01-01", wantEnd: "2999-12-31"},
		{name: "zero date", query: "startDate=0001-01-01&endDate=2024-01-01", wantErr: true},
		{name: "whitespace trimmed", query: "startDate=%202024-01-01%20&endDate=2024-01-02", wantStart: "2024-01-01", wantEnd: "2024-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			r, err := ParseDateRange(q, tt.required)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got range %v", r)
				}
				if !core.IsValidation(err) {
					t.Errorf("expected validation error, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if r != nil {
					t.Errorf("expected nil range, got %v", r)
				}
				return
			}
			if got := r.Start.String(); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := r.End.String(); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
		})
	}
}

func TestParseTransactionFilter(t *testing.T) {
	q := url.Values{}
	q.Set("type", "expense")
	q.Set("status", "overdue")
	q.Set("category", "rent")
	q.Set("customerId", " c-1 ")
	q.Set("workOrderId", "wo-7")
	q.Set("startDate", "2024-01-01")
	q.Set("endDate", "2024-12-31")

	f, err := ParseTransactionFilter(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type != core.Expense || f.Status != core.StatusOverdue || f.Category != core.CategoryRent {
		t.Errorf("unexpected enum fields: %+v", f)
	}
	if f.CustomerID != "c-1" || f.WorkOrderID != "wo-7" {
		t.Errorf("unexpected link fields: %+v", f)
	}
	if f.Range == nil || f.Range.End.String() != "2024-12-31" {
		t.Errorf("unexpected range: %v", f.Range)
	}

	for _, bad := range []string{"type=refund", "status=void", "category=snacks"} {
		q, _ := url.ParseQuery(bad)
		if _, err := ParseTransactionFilter(q); !core.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", bad, err)
		}
	}
}

func TestParseBudgetFilter(t *testing.T) {
	q, _ := url.ParseQuery("category=marketing")
	f, err := ParseBudgetFilter(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Category != core.CategoryMarketing || f.Range != nil {
		t.Errorf("unexpected filter: %+v", f)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"ok"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"name":"ok","extra":1}`, true},
		{"trailing data", `{"name":"ok"}{"name":"again"}`, true},
		{"malformed", `{"name":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Errorf("expected errBadRequest, got %v", err)
				}
				return
			}
			if err != nil || p.Name != "ok" {
				t.Errorf("decodeJSON() = %v, name %q", err, p.Name)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line1\nline2\ttab", "line1\nline2\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
