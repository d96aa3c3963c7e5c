package validate

import "github.com/JonMunkholm/DataCheck/internal/schema"

// Report is the structured outcome of one validation pass. A report with
// zero violations means the table satisfies every declared constraint.
// Reports are immutable once returned: validation never keeps a reference,
// so re-running the same check on the same inputs yields an identical one.
type Report struct {
	Dataset    string             `json:"dataset"`
	Violations []schema.Violation `json:"violations,omitempty"`

	// Ref is populated only by referential checks.
	Ref *RefStats `json:"ref,omitempty"`
}

// RefStats carries the key-coverage accounting of a referential check.
// Dangling rows are violations; NotApplicable and the parent coverage
// numbers are statistics, not findings.
type RefStats struct {
	ChildRows              int `json:"child_rows"`
	Matched                int `json:"matched"`
	Dangling               int `json:"dangling"`
	NotApplicable          int `json:"not_applicable"`
	ParentRows             int `json:"parent_rows"`
	ParentsWithChildren    int `json:"parents_with_children"`
	ParentsWithoutChildren int `json:"parents_without_children"`
}

// HasViolations reports whether any constraint finding was recorded.
func (r *Report) HasViolations() bool {
	return len(r.Violations) > 0
}

// CountByCode returns how many violations carry the given code.
func (r *Report) CountByCode(code schema.Code) int {
	n := 0
	for _, v := range r.Violations {
		if v.Code == code {
			n++
		}
	}
	return n
}
