// Copyright (c) 2024 Akxen Labs

// Package engine orchestrates a dispatch run: parse the user document,
// resolve the casefile, apply patches, preprocess, build and solve the
// model, and serialize the requested solution format.
package engine

import (
	"fmt"

	"github.com/segmentio/encoding/json"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/model"
)

///////////////////////////////////////////////////////////////////////////////

// Options are the user document's run options.
type Options struct {
	RunMode        string `json:"run_mode"`
	Algorithm      string `json:"algorithm"`
	SolutionFormat string `json:"solution_format"`
}

// UserInput is the request document: exactly one of CaseID or CaseData, an
// optional patch list (CaseID only), and run options.
type UserInput struct {
	CaseID   string          `json:"case_id,omitempty"`
	CaseData json.RawMessage `json:"case_data,omitempty"`
	Patches  []nemde.Patch   `json:"patches,omitempty"`
	Options  Options         `json:"options"`
}

// CaseStore resolves casefile documents by case id.
type CaseStore interface {
	GetCasefile(caseID string) ([]byte, error)
}

// Result is a solved run in the requested format; exactly one field is set.
type Result struct {
	Standard   *nemde.Solution
	Validation *nemde.ValidationSolution
}

// MarshalJSON renders whichever format the run produced.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Validation != nil {
		return json.Marshal(r.Validation)
	}
	return json.Marshal(r.Standard)
}

///////////////////////////////////////////////////////////////////////////////

// Engine runs dispatch cases. Store may be nil when every request carries
// inline case data.
type Engine struct {
	Store          CaseStore
	LoadConvention nemde.LoadAvailabilityConvention
}

// parseUserInput validates the request document and applies defaults.
func parseUserInput(data []byte) (*UserInput, error) {
	var in UserInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", nemde.ErrCasefileOptions, err)
	}

	hasCaseData := len(in.CaseData) > 0
	hasCaseID := in.CaseID != ""
	switch {
	case hasCaseData && (hasCaseID || len(in.Patches) > 0):
		return nil, fmt.Errorf("%w: 'case_data' excludes 'case_id' and 'patches'", nemde.ErrCasefileOptions)
	case !hasCaseData && !hasCaseID:
		return nil, fmt.Errorf("%w: one of 'case_id' or 'case_data' is required", nemde.ErrCasefileOptions)
	}

	if in.Options.RunMode == "" {
		in.Options.RunMode = string(nemde.RunMode_Physical)
	}
	if in.Options.RunMode != string(nemde.RunMode_Physical) && in.Options.RunMode != string(nemde.RunMode_Pricing) {
		return nil, fmt.Errorf("%w: 'run_mode' must be 'physical' or 'pricing'", nemde.ErrCasefileOptions)
	}
	if in.Options.Algorithm == "" {
		in.Options.Algorithm = "dispatch_only"
	}
	if in.Options.SolutionFormat == "" {
		in.Options.SolutionFormat = string(nemde.SolutionFormat_Standard)
	}
	if in.Options.SolutionFormat != string(nemde.SolutionFormat_Standard) &&
		in.Options.SolutionFormat != string(nemde.SolutionFormat_Validation) {
		return nil, fmt.Errorf("%w: 'solution_format' must be 'standard' or 'validation'", nemde.ErrCasefileOptions)
	}
	return &in, nil
}

// Run executes the request document and returns the solution.
func (e *Engine) Run(userInput []byte) (*Result, error) {
	in, err := parseUserInput(userInput)
	if err != nil {
		return nil, err
	}

	caseData := []byte(in.CaseData)
	if in.CaseID != "" {
		if e.Store == nil {
			return nil, fmt.Errorf("%w: no casefile store configured for case_id lookups", nemde.ErrCasefileNotFound)
		}
		caseData, err = e.Store.GetCasefile(in.CaseID)
		if err != nil {
			return nil, err
		}
	}

	cf, err := nemde.ParseCasefile(caseData)
	if err != nil {
		return nil, err
	}
	if err := cf.ApplyPatches(in.Patches); err != nil {
		return nil, err
	}
	return e.RunCasefile(cf, nemde.RunMode(in.Options.RunMode), nemde.SolutionFormat(in.Options.SolutionFormat))
}

// RunCasefile solves an already-parsed casefile.
func (e *Engine) RunCasefile(cf *nemde.Casefile, mode nemde.RunMode, format nemde.SolutionFormat) (*Result, error) {
	inputs, err := nemde.Preprocess(cf, nemde.PreprocessOptions{
		RunMode:        mode,
		LoadConvention: e.LoadConvention,
	})
	if err != nil {
		return nil, err
	}

	m, err := model.Build(inputs)
	if err != nil {
		return nil, err
	}
	sr, err := model.Solve(m)
	if err != nil {
		return nil, err
	}

	if format == nemde.SolutionFormat_Validation {
		validation, err := model.ExtractValidation(m, sr, cf)
		if err != nil {
			return nil, err
		}
		return &Result{Validation: validation}, nil
	}
	return &Result{Standard: model.Extract(m, sr)}, nil
}
