// Package http exposes the ledger as a JSON API.
//
// This file holds the request decoding helpers shared by the handlers: body
// parsing for JSON or form payloads, path ids, dates and list filters.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

const dateLayout = "2006-01-02"

var errMalformedBody = core.Validation("malformed request body")

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes typed accessors over its fields.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = core.Validation("request body too large")
	}
	return p
}

// Parse decodes the body. Bodies starting with '{' are JSON with numbers kept
// as json.Number; anything else is treated as form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil || p.jsonData == nil {
			p.err = errMalformedBody
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = errMalformedBody
	}
	return p.err
}

// Has reports whether key was sent, including as JSON null.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// IsNull reports whether key was sent as JSON null.
func (p *RequestBodyParser) IsNull(key string) bool {
	if p.jsonData == nil {
		return false
	}
	v, ok := p.jsonData[key]
	return ok && v == nil
}

func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// First returns the value of the first key present.
func (p *RequestBodyParser) First(keys ...string) (string, bool) {
	for _, k := range keys {
		if p.Has(k) && !p.IsNull(k) {
			return p.Get(k), true
		}
	}
	return "", false
}

// ID parses key as a positive integer id.
func (p *RequestBodyParser) ID(key string) (int64, bool, error) {
	if !p.Has(key) || p.IsNull(key) {
		return 0, false, nil
	}
	id, err := parsePositiveID(p.Get(key))
	if err != nil {
		return 0, true, core.Validation("invalid " + key)
	}
	return id, true, nil
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput strips control characters other than tab and newlines, then trims.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

func parsePositiveID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// pathID reads the {id} wildcard. Malformed ids are reported as not found.
func pathID(r *http.Request, entity string) (int64, error) {
	id, err := parsePositiveID(r.PathValue("id"))
	if err != nil {
		return 0, core.NotFound(entity)
	}
	return id, nil
}

// parseDate accepts YYYY-MM-DD (midnight UTC) or RFC 3339. dateOnly reports
// which form matched.
func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, errors.New("invalid date")
}

// parseTransactionFilter reads from, to, accountId and type. A date-only to
// covers the whole day.
func parseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			return f, core.Validation("invalid from date")
		}
		f.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			return f, core.Validation("invalid to date")
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		f.To = &t
	}
	if v := strings.TrimSpace(q.Get("accountId")); v != "" {
		id, err := parsePositiveID(v)
		if err != nil {
			return f, core.Validation("invalid accountId")
		}
		f.AccountID = &id
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		f.Type = core.TransactionType(strings.ToUpper(v))
	}
	return f, f.Validate()
}
