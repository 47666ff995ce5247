// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, date ranges and list filters taken from query strings.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bizops/internal/core"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// decodeJSON reads a single JSON object from the request body into v.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", errBadRequest)
		}
		if core.IsValidation(err) {
			return err
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// ParseDateRange reads startDate and endDate (yyyy-MM-dd). When required is
// false and both are absent it returns nil. Required ranges feed reports and
// are also held to core.MaxReportDays.
func ParseDateRange(query url.Values, required bool) (*core.DateRange, error) {
	startStr := sanitizeInput(query.Get("startDate"))
	endStr := sanitizeInput(query.Get("endDate"))
	if startStr == "" && endStr == "" && !required {
		return nil, nil
	}
	if startStr == "" {
		return nil, core.NewValidationError("startDate", core.ErrInvalidDate)
	}
	if endStr == "" {
		return nil, core.NewValidationError("endDate", core.ErrInvalidDate)
	}

	start, err := core.ParseDate(startStr)
	if err != nil {
		return nil, core.NewValidationError("startDate", err)
	}
	end, err := core.ParseDate(endStr)
	if err != nil {
		return nil, core.NewValidationError("endDate", err)
	}
	r, err := core.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	if required {
		if err := r.ValidateReport(); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// ParseTransactionFilter builds a filter from type, status, category,
// customerId, workOrderId, startDate and endDate.
func ParseTransactionFilter(query url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter

	if v := sanitizeInput(query.Get("type")); v != "" {
		f.Type = core.TransactionType(v)
		if !f.Type.IsValid() {
			return f, core.NewValidationError("type", core.ErrInvalidType)
		}
	}
	if v := sanitizeInput(query.Get("status")); v != "" {
		f.Status = core.TransactionStatus(v)
		if !f.Status.IsValid() {
			return f, core.NewValidationError("status", core.ErrInvalidStatus)
		}
	}
	category, err := parseCategory(query)
	if err != nil {
		return f, err
	}
	f.Category = category
	f.CustomerID = sanitizeInput(query.Get("customerId"))
	f.WorkOrderID = sanitizeInput(query.Get("workOrderId"))

	r, err := ParseDateRange(query, false)
	if err != nil {
		return f, err
	}
	f.Range = r
	return f, nil
}

// ParseBudgetFilter builds a filter from category, startDate and endDate.
func ParseBudgetFilter(query url.Values) (core.BudgetFilter, error) {
	var f core.BudgetFilter

	category, err := parseCategory(query)
	if err != nil {
		return f, err
	}
	f.Category = category

	r, err := ParseDateRange(query, false)
	if err != nil {
		return f, err
	}
	f.Range = r
	return f, nil
}

func parseCategory(query url.Values) (core.Category, error) {
	v := sanitizeInput(query.Get("category"))
	if v == "" {
		return "", nil
	}
	c := core.Category(v)
	if !c.IsValid() {
		return "", core.NewValidationError("category", core.ErrInvalidCategory)
	}
	return c, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
