// Copyright (c) 2024 Akxen Labs

package solver

import "math"

// Tolerance within which a relaxed binary counts as integral.
const integerTol = 1e-6

///////////////////////////////////////////////////////////////////////////////

// SolveMILP resolves the problem's binary variables by depth-first branch
// and bound over LP relaxations, branching on the most fractional binary and
// pruning on the incumbent objective.
func (p *Problem) SolveMILP() (*Result, error) {
	binaries := p.BinaryVars()
	if len(binaries) == 0 {
		return p.SolveLP()
	}

	type node struct {
		lower []float64
		upper []float64
	}
	root := node{lower: append([]float64(nil), p.lower...), upper: append([]float64(nil), p.upper...)}
	stack := []node{root}

	var incumbent *Result
	incumbentObj := math.Inf(1)
	feasibleSeen := false

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		res, err := p.solveRelaxation(n.lower, n.upper)
		if err != nil {
			if res.Status == StatusInfeasible {
				continue // fathomed
			}
			if res.Status == StatusUnbounded {
				return res, &SolveError{Status: StatusUnbounded}
			}
			return res, err
		}
		feasibleSeen = true
		if res.Objective >= incumbentObj-1e-9 {
			continue // dominated
		}

		branchVar, fractional := mostFractionalBinary(binaries, res.Values)
		if !fractional {
			incumbent = res
			incumbentObj = res.Objective
			continue
		}

		// Explore the branch nearest the relaxed value first.
		downFirst := res.Values[branchVar] < 0.5
		for _, fix := range branchOrder(downFirst) {
			child := node{
				lower: append([]float64(nil), n.lower...),
				upper: append([]float64(nil), n.upper...),
			}
			child.lower[branchVar] = fix
			child.upper[branchVar] = fix
			stack = append(stack, child)
		}
	}

	if incumbent == nil {
		status := StatusInfeasible
		if feasibleSeen {
			status = StatusError
		}
		return &Result{Status: status}, &SolveError{Status: status}
	}

	// Snap binaries to exact integers for downstream fixing.
	for _, v := range binaries {
		incumbent.Values[v] = math.Round(incumbent.Values[v])
	}
	incumbent.Objective = p.objective.Eval(incumbent.Values)
	return incumbent, nil
}

// mostFractionalBinary picks the binary farthest from integrality.
func mostFractionalBinary(binaries []VarID, values []float64) (VarID, bool) {
	best := VarID(-1)
	bestDist := integerTol
	for _, v := range binaries {
		frac := values[v] - math.Floor(values[v])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			bestDist = dist
			best = v
		}
	}
	return best, best >= 0
}

// branchOrder returns the fixing order; the stack pops the last entry first.
func branchOrder(downFirst bool) []float64 {
	if downFirst {
		return []float64{1, 0}
	}
	return []float64{0, 1}
}
