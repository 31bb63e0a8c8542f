// Copyright (c) 2024 Akxen Labs

package solver_test

import (
	"github.com/akxen/nemde-go/solver"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Expr", func() {
	It("accumulates terms, constants and nested expressions", func() {
		p := solver.NewProblem()
		x := p.AddNonNegVar("x")
		y := p.AddNonNegVar("y")

		e := solver.NewExpr().AddTerm(2, x).AddConst(1)
		e.AddExpr(3, solver.Term(1, y).AddConst(2))

		Expect(e.Eval([]float64{4, 5})).To(Equal(2.0*4 + 1 + 3*(5+2)))
	})
})

var _ = Describe("SolveLP", func() {
	It("solves a bounded maximization rewritten as minimization", func() {
		// max x1 + x2  s.t.  x1 + x2 <= 10, x1 <= 6.
		p := solver.NewProblem()
		x1 := p.AddNonNegVar("x1")
		x2 := p.AddNonNegVar("x2")
		p.AddObjectiveTerm(-1, x1)
		p.AddObjectiveTerm(-1, x2)
		p.AddConstraint("cap", solver.Term(1, x1).AddTerm(1, x2), solver.OpLE, 10)
		p.AddConstraint("x1cap", solver.Term(1, x1), solver.OpLE, 6)

		res, err := p.SolveLP()
		Expect(err).To(BeNil())
		Expect(res.Status).To(Equal(solver.StatusOptimal))
		Expect(res.Objective).To(BeNumerically("~", -10, 1e-6))
		Expect(res.Value(x1) + res.Value(x2)).To(BeNumerically("~", 10, 1e-6))
	})

	It("honors equality constraints and free variables", func() {
		// min y  s.t.  y = x - 4, 0 <= x <= 3; y is free.
		p := solver.NewProblem()
		x := p.AddNonNegVar("x")
		p.SetBounds(x, 0, 3)
		y := p.AddVar("y")
		p.AddObjectiveTerm(1, y)
		p.AddConstraint("link", solver.Term(1, y).AddTerm(-1, x), solver.OpEQ, -4)

		res, err := p.SolveLP()
		Expect(err).To(BeNil())
		Expect(res.Value(y)).To(BeNumerically("~", -4, 1e-6))
	})

	It("reports infeasible systems", func() {
		p := solver.NewProblem()
		x := p.AddNonNegVar("x")
		p.AddObjectiveTerm(1, x)
		p.AddConstraint("lo", solver.Term(1, x), solver.OpGE, 2)
		p.AddConstraint("hi", solver.Term(1, x), solver.OpLE, 1)

		res, err := p.SolveLP()
		Expect(err).ToNot(BeNil())
		Expect(res.Status).To(Equal(solver.StatusInfeasible))
	})

	It("folds expression offsets into the right-hand side", func() {
		// x + 5 <= 8  =>  x <= 3.
		p := solver.NewProblem()
		x := p.AddNonNegVar("x")
		p.AddObjectiveTerm(-1, x)
		p.AddConstraint("cap", solver.Term(1, x).AddConst(5), solver.OpLE, 8)

		res, err := p.SolveLP()
		Expect(err).To(BeNil())
		Expect(res.Value(x)).To(BeNumerically("~", 3, 1e-6))
	})
})

var _ = Describe("SolveMILP", func() {
	It("resolves binaries by branch and bound", func() {
		// max 5a + 4b + 3c  s.t.  2a + 3b + c <= 3, binaries.
		p := solver.NewProblem()
		a := p.AddBinaryVar("a")
		b := p.AddBinaryVar("b")
		c := p.AddBinaryVar("c")
		p.AddObjectiveTerm(-5, a)
		p.AddObjectiveTerm(-4, b)
		p.AddObjectiveTerm(-3, c)
		p.AddConstraint("cap", solver.Term(2, a).AddTerm(3, b).AddTerm(1, c), solver.OpLE, 3)

		res, err := p.SolveMILP()
		Expect(err).To(BeNil())
		Expect(res.Status).To(Equal(solver.StatusOptimal))
		Expect(res.Objective).To(BeNumerically("~", -8, 1e-6))
		Expect(res.Value(a)).To(Equal(1.0))
		Expect(res.Value(b)).To(Equal(0.0))
		Expect(res.Value(c)).To(Equal(1.0))
	})

	It("ties continuous variables to binary selections", func() {
		// Pick exactly one of two supply options; flow follows the binary
		// through big-M rows.
		p := solver.NewProblem()
		d := p.AddBinaryVar("d")
		flow := p.AddVar("flow")
		p.AddObjectiveTerm(1, flow)
		// flow >= -100(1-d), flow <= 100 d, flow >= 30
		p.AddConstraint("dir1", solver.Term(1, flow).AddTerm(-100, d), solver.OpGE, -100)
		p.AddConstraint("dir2", solver.Term(1, flow).AddTerm(-100, d), solver.OpLE, 0)
		p.AddConstraint("demand", solver.Term(1, flow), solver.OpGE, 30)

		res, err := p.SolveMILP()
		Expect(err).To(BeNil())
		Expect(res.Value(d)).To(Equal(1.0))
		Expect(res.Value(flow)).To(BeNumerically("~", 30, 1e-6))
	})

	It("falls through to the LP when there are no binaries", func() {
		p := solver.NewProblem()
		x := p.AddNonNegVar("x")
		p.AddObjectiveTerm(1, x)
		p.AddConstraint("lo", solver.Term(1, x), solver.OpGE, 7)

		res, err := p.SolveMILP()
		Expect(err).To(BeNil())
		Expect(res.Value(x)).To(BeNumerically("~", 7, 1e-6))
	})

	It("supports re-solving with binaries fixed", func() {
		p := solver.NewProblem()
		d := p.AddBinaryVar("d")
		x := p.AddNonNegVar("x")
		p.AddObjectiveTerm(-1, x)
		p.AddConstraint("cap", solver.Term(1, x).AddTerm(-5, d), solver.OpLE, 0)

		res, err := p.SolveMILP()
		Expect(err).To(BeNil())
		Expect(res.Value(d)).To(Equal(1.0))

		p.FixVar(d, res.Value(d))
		res2, err := p.SolveLP()
		Expect(err).To(BeNil())
		Expect(res2.Value(x)).To(BeNumerically("~", 5, 1e-6))
	})
})
