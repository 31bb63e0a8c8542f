// Copyright (c) 2024 Akxen Labs

package solver

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Simplex pivot tolerance. Matches gonum's recommended default.
const simplexTol = 1e-10

///////////////////////////////////////////////////////////////////////////////

// SolveLP solves the LP relaxation of the problem (binaries relax to their
// [0,1] bounds) with gonum's dense simplex.
func (p *Problem) SolveLP() (*Result, error) {
	return p.solveRelaxation(p.lower, p.upper)
}

// solveRelaxation solves the LP with the supplied bound vectors, which may
// override the problem's own (branch-and-bound fixings).
func (p *Problem) solveRelaxation(lower, upper []float64) (*Result, error) {
	nVar := len(p.names)

	// Assemble general form: minimize c'x  s.t.  G x <= h, A x = b.
	// Variable bounds become inequality rows; gonum's Convert treats every
	// variable as free and splits it internally.
	c := make([]float64, nVar)
	for v, coeff := range p.objective.coeffs {
		c[v] = coeff
	}

	type row struct {
		coeffs map[VarID]float64
		rhs    float64
	}
	var ineq, eq []row

	for _, con := range p.constraints {
		switch con.op {
		case OpLE:
			ineq = append(ineq, row{con.coeffs, con.rhs})
		case OpGE:
			neg := make(map[VarID]float64, len(con.coeffs))
			for v, coeff := range con.coeffs {
				neg[v] = -coeff
			}
			ineq = append(ineq, row{neg, -con.rhs})
		case OpEQ:
			eq = append(eq, row{con.coeffs, con.rhs})
		}
	}
	for v := 0; v < nVar; v++ {
		lo, hi := lower[v], upper[v]
		if lo == hi {
			eq = append(eq, row{map[VarID]float64{VarID(v): 1}, lo})
			continue
		}
		if !math.IsInf(lo, -1) {
			ineq = append(ineq, row{map[VarID]float64{VarID(v): -1}, -lo})
		}
		if !math.IsInf(hi, 1) {
			ineq = append(ineq, row{map[VarID]float64{VarID(v): 1}, hi})
		}
	}

	var g mat.Matrix
	var h []float64
	if len(ineq) > 0 {
		gDense := mat.NewDense(len(ineq), nVar, nil)
		h = make([]float64, len(ineq))
		for i, r := range ineq {
			for v, coeff := range r.coeffs {
				gDense.Set(i, int(v), coeff)
			}
			h[i] = r.rhs
		}
		g = gDense
	}
	var a mat.Matrix
	var b []float64
	if len(eq) > 0 {
		aDense := mat.NewDense(len(eq), nVar, nil)
		b = make([]float64, len(eq))
		for i, r := range eq {
			for v, coeff := range r.coeffs {
				aDense.Set(i, int(v), coeff)
			}
			b[i] = r.rhs
		}
		a = aDense
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	_, xStd, err := lp.Simplex(cStd, aStd, bStd, simplexTol, nil)
	if err != nil {
		return &Result{Status: statusFromSimplexError(err)}, err
	}

	// Convert splits each original variable into positive and negative
	// parts: x[j] = xStd[j] - xStd[nVar+j].
	values := make([]float64, nVar)
	for v := 0; v < nVar; v++ {
		values[v] = xStd[v] - xStd[nVar+v]
	}
	return &Result{
		Status:    StatusOptimal,
		Objective: p.objective.Eval(values),
		Values:    values,
	}, nil
}

func statusFromSimplexError(err error) Status {
	msg := err.Error()
	switch {
	case err == lp.ErrInfeasible || strings.Contains(msg, "infeasible"):
		return StatusInfeasible
	case err == lp.ErrUnbounded || strings.Contains(msg, "unbounded"):
		return StatusUnbounded
	default:
		return StatusError
	}
}
