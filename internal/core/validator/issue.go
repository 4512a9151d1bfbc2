// SPDX-License-Identifier: Apache-2.0

package validator

// Severity classifies an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single finding. Issues are data and never returned as errors.
type Issue struct {
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Location   string   `json:"location"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Summary counts issues by severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
	Total    int `json:"total"`
}

// GetSummary counts issues.
func GetSummary(issues []Issue) Summary {
	s := Summary{Total: len(issues)}
	for _, i := range issues {
		switch i.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Infos++
		}
	}
	return s
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	return GetSummary(issues).Errors > 0
}

// Filter returns the issues of one severity.
func Filter(issues []Issue, sev Severity) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}
