// Package sanity aggregates per-dataset outcomes into the single pass/fail
// summary an operator inspects before letting downstream consumers run.
//
// The status policy is a deliberate design choice, not a mechanical
// aggregate: structural corruption on required columns halts the pipeline,
// while expected noise (optional-column findings, partial foreign-key
// coverage) is surfaced as a warning an operator can skip.
package sanity

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/DataCheck/internal/join"
	"github.com/JonMunkholm/DataCheck/internal/load"
	"github.com/JonMunkholm/DataCheck/internal/schema"
	"github.com/JonMunkholm/DataCheck/internal/validate"
)

// Status is the operational verdict for one dataset.
type Status string

const (
	StatusOK   Status = "OK"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// DatasetStatus is one line of the aggregate report.
type DatasetStatus struct {
	Dataset string `json:"dataset"`
	Status  Status `json:"status"`
	Detail  string `json:"detail"`
}

// Outcome collects everything observed for one dataset during a run.
// A fatal stage error leaves the later fields nil.
type Outcome struct {
	Dataset    string
	Descriptor *schema.Descriptor

	Err         error            // fatal load/validate/join error, if any
	LoadStats   *load.Stats      // nil when loading failed
	Schema      *validate.Report // nil when validation never ran
	Referential *validate.Report // nil when no relation is declared
	Join        *join.Result     // nil when no join was requested
}

// Summarize classifies every outcome, in input order. One dataset failing
// outright never prevents the others from being reported.
func Summarize(outcomes []Outcome) []DatasetStatus {
	statuses := make([]DatasetStatus, 0, len(outcomes))
	for _, o := range outcomes {
		statuses = append(statuses, classify(o))
	}
	return statuses
}

// classify applies the status policy:
//
//	FAIL — a stage error, or any schema violation on a required column
//	WARN — only optional-column or coverage-style findings
//	OK   — nothing to report
func classify(o Outcome) DatasetStatus {
	if o.Err != nil {
		return DatasetStatus{Dataset: o.Dataset, Status: StatusFail, Detail: o.Err.Error()}
	}

	var details []string
	status := StatusOK

	if o.Schema != nil {
		required, optional := splitByRequired(o.Schema, o.Descriptor)
		if required > 0 {
			status = StatusFail
			details = append(details, fmt.Sprintf("%d violation(s) on required columns", required))
		}
		if optional > 0 {
			if status == StatusOK {
				status = StatusWarn
			}
			details = append(details, fmt.Sprintf("%d optional-column finding(s)", optional))
		}
	}

	if o.Referential != nil && o.Referential.Ref != nil {
		ref := o.Referential.Ref
		if ref.Dangling > 0 {
			if status == StatusOK {
				status = StatusWarn
			}
			details = append(details, fmt.Sprintf("%d dangling reference(s)", ref.Dangling))
		}
		if ref.NotApplicable > 0 {
			details = append(details, fmt.Sprintf("%d row(s) with no key", ref.NotApplicable))
		}
		if ref.ParentsWithoutChildren > 0 {
			details = append(details, fmt.Sprintf("%d parent(s) without children", ref.ParentsWithoutChildren))
		}
	}

	if o.LoadStats != nil && len(o.LoadStats.Warnings) > 0 {
		if status == StatusOK {
			status = StatusWarn
		}
		details = append(details, fmt.Sprintf("%d load warning(s)", len(o.LoadStats.Warnings)))
	}

	if o.Join != nil {
		details = append(details, fmt.Sprintf("join: %d matched, %d left-only, %d right-only",
			o.Join.Matched, o.Join.LeftOnly, o.Join.RightOnly))
	}

	detail := strings.Join(details, "; ")
	if detail == "" {
		detail = "all checks passed"
	}
	return DatasetStatus{Dataset: o.Dataset, Status: status, Detail: detail}
}

// splitByRequired partitions schema violations by whether they hit a
// required (non-nullable, unique, or key) column. Violations without a
// resolvable column count as required: structural problems are never
// optional noise.
func splitByRequired(report *validate.Report, desc *schema.Descriptor) (required, optional int) {
	for _, v := range report.Violations {
		if desc == nil {
			required++
			continue
		}
		if isRequiredColumn(v, desc) {
			required++
		} else {
			optional++
		}
	}
	return required, optional
}

// isRequiredColumn resolves a violation's column (possibly a composite
// "a,b" key reference) against the descriptor.
func isRequiredColumn(v schema.Violation, desc *schema.Descriptor) bool {
	if v.Column == "" {
		return true
	}
	for _, col := range strings.Split(v.Column, ",") {
		if desc.Required(strings.TrimSpace(col)) {
			return true
		}
	}
	if _, known := desc.Field(v.Column); !known && !strings.Contains(v.Column, ",") {
		// A violation on a column the schema does not declare means the
		// report and descriptor do not belong together; fail loudly.
		return true
	}
	return false
}
