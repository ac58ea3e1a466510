// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-triage pipeline:
// the evaluation context, paper references and content, verdict reports,
// the error taxonomy, and stage configuration.
package types

import "time"

// EvaluationContext describes the user's company and department. It is built
// once at startup and shared read-only by every concurrent evaluation.
type EvaluationContext struct {
	// CompanyName is the name of the company the user works at.
	CompanyName string `json:"company_name" yaml:"company_name"`

	// CompanyDescription is a short summary of what the company does.
	CompanyDescription string `json:"company_description" yaml:"company_description"`

	// DepartmentName is the name of the user's department.
	DepartmentName string `json:"department_name" yaml:"department_name"`

	// DepartmentDescription is a short summary of the department's work.
	DepartmentDescription string `json:"department_description" yaml:"department_description"`
}

// PaperRef identifies one paper in the input batch.
type PaperRef struct {
	URL string `json:"url" yaml:"url"`
}

// PaperContent holds the fields extracted from a paper's landing page.
type PaperContent struct {
	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`
}

// VerdictReport is the outcome for a single PaperRef. Exactly one of Verdict
// or Error is meaningful: Error is nil on success.
type VerdictReport struct {
	// RunID identifies the batch run that produced the report.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	// URL is the paper URL the report is about.
	URL string `json:"url" yaml:"url"`

	// Title is the paper title; empty when the fetch failed.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Verdict is the oracle's answer.
	Verdict string `json:"verdict,omitempty" yaml:"verdict,omitempty"`

	// Error records why the item failed. Nil on success.
	Error *Error `json:"error,omitempty" yaml:"error,omitempty"`

	// Attempts counts oracle calls made for this item (0 if the oracle was never reached).
	Attempts int `json:"attempts" yaml:"attempts"`

	// Duration is the wall time spent on the item, permit wait included.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Failed reports whether the item failed.
func (r VerdictReport) Failed() bool {
	return r.Error != nil
}
