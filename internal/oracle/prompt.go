// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// Verdict categories the model is asked to choose from.
const (
	VerdictCompanyAndDepartment = "Relevant to your company and department"
	VerdictCompanyOnly          = "Relevant to your company, but not your department"
	VerdictNotRelevant          = "Not relevant"
)

var systemPromptTmpl = template.Must(template.New("system").Parse(`You are a Machine Learning expert. Your job is to assist the user in evaluating whether
a certain research paper is relevant to their work. The user will share the
title and abstract of the paper with you below and you will answer with the following:

- "{{.Both}}"

- "{{.CompanyOnly}}"

- "{{.NotRelevant}}"

If you answered "{{.NotRelevant}}", do NOT provide any further explanation. Otherwise,
explain the reasoning behind your answer.

To help you assess the relevance of the paper to the user's work, below is a summary
about the user's company and department:

{{.Ctx.CompanyName}}: {{.Ctx.CompanyDescription}}

{{.Ctx.DepartmentName}}: {{.Ctx.DepartmentDescription}}`))

var userPromptTmpl = template.Must(template.New("user").Parse(`Is this paper relevant to my work?

Title: {{.Title}}
Abstract: {{.Abstract}}
`))

// SystemPrompt renders the instructions for one evaluation context.
func SystemPrompt(ectx types.EvaluationContext) (string, error) {
	var buf bytes.Buffer
	err := systemPromptTmpl.Execute(&buf, struct {
		Ctx                            types.EvaluationContext
		Both, CompanyOnly, NotRelevant string
	}{
		Ctx:         ectx,
		Both:        VerdictCompanyAndDepartment,
		CompanyOnly: VerdictCompanyOnly,
		NotRelevant: VerdictNotRelevant,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// UserPrompt renders the question for one paper.
func UserPrompt(content types.PaperContent) (string, error) {
	var buf bytes.Buffer
	if err := userPromptTmpl.Execute(&buf, content); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// prompts renders both prompts.
func prompts(ectx types.EvaluationContext, content types.PaperContent) (system, user string, err error) {
	system, err = SystemPrompt(ectx)
	if err != nil {
		return "", "", err
	}
	user, err = UserPrompt(content)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}
