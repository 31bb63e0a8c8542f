// Copyright (c) 2024 Akxen Labs

// Package solver provides a small linear/mixed-integer programming layer:
// problems are built from named variables and linear constraints, LP
// relaxations solve with gonum's dense simplex, and binaries resolve by
// branch and bound.
package solver

import (
	"fmt"
	"math"
)

///////////////////////////////////////////////////////////////////////////////

// VarID indexes a problem variable.
type VarID int

// Op is a linear constraint sense.
type Op int

const (
	OpLE Op = iota
	OpGE
	OpEQ
)

func (op Op) String() string {
	switch op {
	case OpLE:
		return "<="
	case OpGE:
		return ">="
	default:
		return "=="
	}
}

// Expr is a linear expression: sum of coefficient*variable plus a constant
// offset.
type Expr struct {
	coeffs map[VarID]float64
	offset float64
}

// NewExpr returns an empty expression.
func NewExpr() *Expr {
	return &Expr{coeffs: make(map[VarID]float64)}
}

// Term returns coeff*v as an expression.
func Term(coeff float64, v VarID) *Expr {
	return NewExpr().AddTerm(coeff, v)
}

// AddTerm accumulates coeff*v and returns the expression.
func (e *Expr) AddTerm(coeff float64, v VarID) *Expr {
	e.coeffs[v] += coeff
	return e
}

// AddConst accumulates a constant and returns the expression.
func (e *Expr) AddConst(c float64) *Expr {
	e.offset += c
	return e
}

// AddExpr accumulates scale*other and returns the expression.
func (e *Expr) AddExpr(scale float64, other *Expr) *Expr {
	for v, c := range other.coeffs {
		e.coeffs[v] += scale * c
	}
	e.offset += scale * other.offset
	return e
}

// Eval evaluates the expression at the given variable values.
func (e *Expr) Eval(values []float64) float64 {
	total := e.offset
	for v, c := range e.coeffs {
		total += c * values[v]
	}
	return total
}

// constraint is one stored linear constraint.
type constraint struct {
	name   string
	coeffs map[VarID]float64
	op     Op
	rhs    float64 // expression offset already folded in
}

///////////////////////////////////////////////////////////////////////////////

// Problem is a linear program with optional binary variables.
type Problem struct {
	names       []string
	lower       []float64
	upper       []float64
	binary      []bool
	objective   *Expr
	constraints []constraint
}

// NewProblem returns an empty minimization problem.
func NewProblem() *Problem {
	return &Problem{objective: NewExpr()}
}

// AddVar adds a free variable (-inf, +inf) and returns its id.
func (p *Problem) AddVar(name string) VarID {
	p.names = append(p.names, name)
	p.lower = append(p.lower, math.Inf(-1))
	p.upper = append(p.upper, math.Inf(1))
	p.binary = append(p.binary, false)
	return VarID(len(p.names) - 1)
}

// AddNonNegVar adds a variable bounded [0, +inf).
func (p *Problem) AddNonNegVar(name string) VarID {
	v := p.AddVar(name)
	p.lower[v] = 0
	return v
}

// AddBinaryVar adds a {0,1} variable resolved by branch and bound.
func (p *Problem) AddBinaryVar(name string) VarID {
	v := p.AddVar(name)
	p.lower[v] = 0
	p.upper[v] = 1
	p.binary[v] = true
	return v
}

// SetBounds overrides a variable's bounds.
func (p *Problem) SetBounds(v VarID, lower, upper float64) {
	p.lower[v] = lower
	p.upper[v] = upper
}

// FixVar pins a variable to a value.
func (p *Problem) FixVar(v VarID, value float64) {
	p.SetBounds(v, value, value)
}

// Name returns a variable's name.
func (p *Problem) Name(v VarID) string {
	return p.names[v]
}

// NumVars returns the number of variables.
func (p *Problem) NumVars() int {
	return len(p.names)
}

// BinaryVars returns the ids of binary variables in insertion order.
func (p *Problem) BinaryVars() []VarID {
	var out []VarID
	for i, b := range p.binary {
		if b {
			out = append(out, VarID(i))
		}
	}
	return out
}

// AddObjective accumulates an expression into the (minimized) objective.
func (p *Problem) AddObjective(e *Expr) {
	p.objective.AddExpr(1, e)
}

// AddObjectiveTerm accumulates coeff*v into the objective.
func (p *Problem) AddObjectiveTerm(coeff float64, v VarID) {
	p.objective.AddTerm(coeff, v)
}

// AddConstraint adds lhs (op) rhs. The expression's constant offset moves to
// the right-hand side.
func (p *Problem) AddConstraint(name string, lhs *Expr, op Op, rhs float64) {
	coeffs := make(map[VarID]float64, len(lhs.coeffs))
	for v, c := range lhs.coeffs {
		if c != 0 {
			coeffs[v] = c
		}
	}
	p.constraints = append(p.constraints, constraint{
		name:   name,
		coeffs: coeffs,
		op:     op,
		rhs:    rhs - lhs.offset,
	})
}

// NumConstraints returns the number of stored constraints.
func (p *Problem) NumConstraints() int {
	return len(p.constraints)
}

///////////////////////////////////////////////////////////////////////////////

// Status is a solve outcome.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// Result is a solve outcome with variable values indexed by VarID.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Value returns a single variable's value.
func (r *Result) Value(v VarID) float64 {
	return r.Values[v]
}

// SolveError reports a failed solve.
type SolveError struct {
	Status    Status
	Objective float64
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("solve failed: status %s (objective %g)", e.Status, e.Objective)
}
