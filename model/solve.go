// Copyright (c) 2024 Akxen Labs

package model

import (
	"fmt"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/solver"
)

///////////////////////////////////////////////////////////////////////////////

// SolveResult carries both solve passes. Values come from pass 2 (the LP
// with binaries fixed) when it succeeds; the reported objective is always
// pass 1's.
type SolveResult struct {
	Pass1     *solver.Result
	Pass2     *solver.Result
	Objective float64
	Values    []float64
}

// Solve runs the two-pass scheme: pass 1 resolves the binaries (SOS2
// interval indicators and MNSP directions) as a MILP; pass 2 fixes them and
// re-solves the LP so dual information can be recovered by a solver that
// exposes it.
func Solve(m *Model) (*SolveResult, error) {
	pass1, err := m.p.SolveMILP()
	if err != nil {
		return nil, fmt.Errorf("%w: pass 1 status %s", nemde.ErrSolverFailure, pass1.Status)
	}

	for _, v := range m.p.BinaryVars() {
		m.p.FixVar(v, pass1.Values[v])
	}

	out := &SolveResult{Pass1: pass1, Objective: pass1.Objective, Values: pass1.Values}
	pass2, err := m.p.SolveLP()
	if err != nil {
		// Pass 2 exists to recover duals; targets stand on pass 1.
		m.warn("pass 2 LP re-solve failed (status %s); solution taken from pass 1", pass2.Status)
	} else {
		out.Pass2 = pass2
		out.Values = pass2.Values
	}

	m.checkFastStartWarnings(out.Values)
	return out, nil
}

func (m *Model) warn(format string, args ...interface{}) {
	m.warnings = append(m.warnings, fmt.Sprintf(format, args...))
}

// checkFastStartWarnings surfaces the known two-pass limitation: a unit in
// mode 0 receiving a positive energy target is undefined behaviour in the
// reference engine's single-run scheme and is reported, not modeled.
func (m *Model) checkFastStartWarnings(values []float64) {
	in := m.in
	for _, traderID := range in.FastStartTraders {
		mode, ok := in.FastStartCurrentMode[traderID]
		if !ok || mode != 0 {
			continue
		}
		energyType, err := in.EnergyOfferType(traderID)
		if err != nil {
			continue
		}
		totalVar, ok := m.traderTotal[nemde.OfferKey{TraderID: traderID, TradeType: energyType}]
		if !ok {
			continue
		}
		if values[totalVar] > 1e-6 {
			m.warn("fast start unit %s in mode 0 received a positive energy target (%.3f MW); a second dispatch run would be required to commit it", traderID, values[totalVar])
		}
	}
}
