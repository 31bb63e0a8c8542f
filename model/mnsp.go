// Copyright (c) 2024 Akxen Labs

package model

import (
	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/solver"
)

///////////////////////////////////////////////////////////////////////////////

// defineMNSPConstraints adds MNSP ramp limits and the big-M disjunctions
// that split each connection-point flow into region export/import components
// keyed on the flow-direction binary: d=1 routes export through the
// from-region and import through the to-region; d=0 the reverse.
func (m *Model) defineMNSPConstraints() {
	in := m.in
	p := m.p
	bigM := nemde.MNSPBigM

	// Ramp limits on total MNSP offers, anchored at the interconnector's
	// initial MW.
	for _, k := range in.MNSPOffers {
		initialMW := in.InterconnectorInitialMW[k.InterconnectorID]

		up := solver.Term(1, m.mnspTotal[k]).AddTerm(-1, m.cvMNSPRampUp[k])
		p.AddConstraint("C_MNSP_RAMP_UP["+k.InterconnectorID+","+k.RegionID+"]",
			up, solver.OpLE, initialMW+in.MNSPRampUpRate[k]/nemde.RampRatePerInterval)

		down := solver.Term(1, m.mnspTotal[k]).AddTerm(1, m.cvMNSPRampDown[k])
		p.AddConstraint("C_MNSP_RAMP_DOWN["+k.InterconnectorID+","+k.RegionID+"]",
			down, solver.OpGE, initialMW-in.MNSPRampDownRate[k]/nemde.RampRatePerInterval)
	}

	for _, id := range in.MNSPs {
		flow := m.gcInterconnector[id]
		d := m.mnspDirection[id]
		fromCP := m.eMNSPFromCPFlow[id]
		toCP := m.eMNSPToCPFlow[id]

		// Direction indicator: d=1 for forward (non-negative) flow.
		//   flow >= -M(1-d)   and   flow <= M d
		e := solver.Term(1, flow).AddTerm(-bigM, d)
		p.AddConstraint("C_MNSP_FLOW_DIRECTION_1["+id+"]", e, solver.OpGE, -bigM)
		e = solver.Term(1, flow).AddTerm(-bigM, d)
		p.AddConstraint("C_MNSP_FLOW_DIRECTION_2["+id+"]", e, solver.OpLE, 0)

		// FromRegionExport tracks the from-CP flow when d=1 and pins to 0
		// when d=0.
		m.disjunctTracks(id, "C_MNSP_FROM_REGION_EXPORT", m.mnspFromExport[id], fromCP, d, true)
		// FromRegionImport tracks the from-CP flow when d=0, else 0.
		m.disjunctTracks(id, "C_MNSP_FROM_REGION_IMPORT", m.mnspFromImport[id], fromCP, d, false)
		// ToRegionExport tracks the to-CP flow when d=0, else 0.
		m.disjunctTracks(id, "C_MNSP_TO_REGION_EXPORT", m.mnspToExport[id], toCP, d, false)
		// ToRegionImport tracks the to-CP flow when d=1, else 0.
		m.disjunctTracks(id, "C_MNSP_TO_REGION_IMPORT", m.mnspToImport[id], toCP, d, true)
	}
}

// disjunctTracks emits the four big-M rows forcing v == cp when the
// direction binary matches activeWhenSet (v free to track), and v == 0
// otherwise.
func (m *Model) disjunctTracks(id, name string, v solver.VarID, cp *solver.Expr, d solver.VarID, activeWhenSet bool) {
	p := m.p
	bigM := nemde.MNSPBigM

	// relax(d) is 0 in the active branch and M in the inactive one.
	// active on d=1: M(1-d); active on d=0: M d.
	track := solver.NewExpr().AddExpr(1, cp).AddTerm(-1, v)
	zero := solver.Term(1, v)
	if activeWhenSet {
		// cp - v <= M(1-d), cp - v >= -M(1-d); v <= M d, v >= -M d.
		p.AddConstraint(name+"_1["+id+"]",
			solver.NewExpr().AddExpr(1, track).AddTerm(-bigM, d), solver.OpGE, -bigM)
		p.AddConstraint(name+"_2["+id+"]",
			solver.NewExpr().AddExpr(1, track).AddTerm(bigM, d), solver.OpLE, bigM)
		p.AddConstraint(name+"_3["+id+"]",
			solver.NewExpr().AddExpr(1, zero).AddTerm(-bigM, d), solver.OpLE, 0)
		p.AddConstraint(name+"_4["+id+"]",
			solver.NewExpr().AddExpr(1, zero).AddTerm(bigM, d), solver.OpGE, 0)
	} else {
		// cp - v <= M d, cp - v >= -M d; v <= M(1-d), v >= -M(1-d).
		p.AddConstraint(name+"_1["+id+"]",
			solver.NewExpr().AddExpr(1, track).AddTerm(bigM, d), solver.OpGE, 0)
		p.AddConstraint(name+"_2["+id+"]",
			solver.NewExpr().AddExpr(1, track).AddTerm(-bigM, d), solver.OpLE, 0)
		p.AddConstraint(name+"_3["+id+"]",
			solver.NewExpr().AddExpr(1, zero).AddTerm(bigM, d), solver.OpLE, bigM)
		p.AddConstraint(name+"_4["+id+"]",
			solver.NewExpr().AddExpr(1, zero).AddTerm(-bigM, d), solver.OpGE, -bigM)
	}
}
