// Package response holds the result containers passed back out of the
// engine and, ultimately, out of a Session.Parse call.
package response

import (
	"time"

	"github.com/k0kubun/flyql/sql/apierr"
	"github.com/k0kubun/flyql/sql/engine"
)

// ParserResponse is the externally visible response of a single
// parsed SQL statement.
type ParserResponse struct {
	Records     []engine.Record
	ColumnNames []string
	TableNames  []string
	QueryTimes  map[string]time.Duration
	Error       string
	Code        int
}

// New returns a zeroed, successful response.
func New() *ParserResponse {
	return &ParserResponse{
		QueryTimes: map[string]time.Duration{},
		Code:       apierr.CodeOK,
	}
}

// Failed reports whether the response carries anything other than a
// 200 status.
func (r *ParserResponse) Failed() bool {
	return r.Code != apierr.CodeOK
}

// Clear resets every collection but preserves Code, matching the
// source's clear() semantics: only the accumulated statement results
// are wiped between parse() calls, not the last status.
func (r *ParserResponse) Clear() {
	r.Records = nil
	r.ColumnNames = nil
	r.TableNames = nil
	r.QueryTimes = map[string]time.Duration{}
	r.Error = ""
}

// SetError populates Error/Code from err, classifying it through
// apierr.Code.
func (r *ParserResponse) SetError(err error) {
	r.Error = err.Error()
	r.Code = apierr.Code(err)
}
