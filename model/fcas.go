// Copyright (c) 2024 Akxen Labs

package model

import (
	"fmt"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/solver"
)

///////////////////////////////////////////////////////////////////////////////

// defineFCASConstraints adds the FCAS constraint families: joint ramping
// (regulation), joint capacity (contingency), energy-regulating envelopes,
// effective max-available, and enablement bounds on the energy offer. All
// are conditional on offer availability; generators and loads mirror signs.
func (m *Model) defineFCASConstraints() error {
	for _, k := range m.in.TraderFCASOffers {
		traderType, ok := m.in.TraderType[k.TraderID]
		if !ok {
			return unexpectedTrader(k.TraderID)
		}
		var err error
		if traderType.IsLoad() {
			err = m.defineLoadFCAS(k)
		} else {
			err = m.defineGeneratorFCAS(k)
		}
		if err != nil {
			return err
		}
		if err := m.defineEnablementBounds(k); err != nil {
			return err
		}
	}
	return nil
}

func unexpectedTrader(id string) error {
	return fmt.Errorf("trader %q has no type: %w", id, nemde.ErrUnexpectedTraderType)
}

// energyVar returns the trader's energy total-offer variable, if any.
func (m *Model) energyVar(traderID string) (solver.VarID, nemde.TradeType, bool) {
	energyType, err := m.in.EnergyOfferType(traderID)
	if err != nil {
		return 0, "", false
	}
	v, ok := m.traderTotal[nemde.OfferKey{TraderID: traderID, TradeType: energyType}]
	return v, energyType, ok
}

///////////////////////////////////////////////////////////////////////////////
// Generator rules

func (m *Model) defineGeneratorFCAS(k nemde.OfferKey) error {
	in := m.in
	p := m.p
	available := in.FCASAvailability[k]
	fcasVar := m.traderTotal[k]
	energyVar, _, hasEnergy := m.energyVar(k.TraderID)
	trap := in.FCASTrapezium[k]

	// Effective max available; unavailable offers pin to zero.
	m.defineFCASMaxAvailable(k, in.TraderSCADARampUp, in.TraderSCADARampDown)

	if !available {
		return nil
	}

	switch {
	case k.TradeType == nemde.TradeType_R5RE:
		// Joint ramping up: ENOF + R5RE <= InitialMW + SCADARampUp/12.
		if rampUp, ok := in.TraderSCADARampUp[k.TraderID]; ok && rampUp > 0 && hasEnergy {
			lhs := solver.Term(1, energyVar).AddTerm(1, fcasVar).AddTerm(-1, m.cvJointRampUp[k])
			p.AddConstraint(fcasName("C_FCAS_GENERATOR_JOINT_RAMPING_UP", k), lhs, solver.OpLE,
				in.TraderInitialMW[k.TraderID]+rampUp/nemde.RampRatePerInterval)
		}

	case k.TradeType == nemde.TradeType_L5RE:
		// Joint ramping down: ENOF - L5RE >= InitialMW - SCADARampDown/12.
		if rampDown, ok := in.TraderSCADARampDown[k.TraderID]; ok && rampDown > 0 && hasEnergy {
			lhs := solver.Term(1, energyVar).AddTerm(-1, fcasVar).AddTerm(1, m.cvJointRampDown[k])
			p.AddConstraint(fcasName("C_FCAS_GENERATOR_JOINT_RAMPING_DOWN", k), lhs, solver.OpGE,
				in.TraderInitialMW[k.TraderID]-rampDown/nemde.RampRatePerInterval)
		}

	case k.TradeType.IsContingency():
		if !hasEnergy {
			break
		}
		// Joint capacity RHS: ENOF + USC*FCAS [+ R5RE] <= EnablementMax.
		if usc := nemde.UpperSlopeCoefficient(trap); usc != nil {
			lhs := solver.Term(1, energyVar).AddTerm(*usc, fcasVar).AddTerm(-1, m.cvJointCapRHS[k])
			if r5re, ok := m.traderTotal[nemde.OfferKey{TraderID: k.TraderID, TradeType: nemde.TradeType_R5RE}]; ok {
				lhs.AddTerm(1, r5re)
			}
			p.AddConstraint(fcasName("C_FCAS_GENERATOR_CONTINGENCY_RHS", k), lhs, solver.OpLE, trap.EnablementMax)
		}
		// Joint capacity LHS: ENOF - LSC*FCAS [- L5RE] >= EnablementMin.
		if lsc := nemde.LowerSlopeCoefficient(trap); lsc != nil {
			lhs := solver.Term(1, energyVar).AddTerm(-*lsc, fcasVar).AddTerm(1, m.cvJointCapLHS[k])
			if l5re, ok := m.traderTotal[nemde.OfferKey{TraderID: k.TraderID, TradeType: nemde.TradeType_L5RE}]; ok {
				lhs.AddTerm(-1, l5re)
			}
			p.AddConstraint(fcasName("C_FCAS_GENERATOR_CONTINGENCY_LHS", k), lhs, solver.OpGE, trap.EnablementMin)
		}
	}

	// Energy-regulating envelopes for regulation services.
	if k.TradeType.IsRegulation() && hasEnergy {
		if usc := nemde.UpperSlopeCoefficient(trap); usc != nil {
			lhs := solver.Term(1, energyVar).AddTerm(*usc, fcasVar).AddTerm(-1, m.cvEnergyRegRHS[k])
			p.AddConstraint(fcasName("C_FCAS_GENERATOR_JOINT_ENERGY_REGULATING_RHS", k), lhs, solver.OpLE,
				m.effEnablementMax[k])
		}
		if lsc := nemde.LowerSlopeCoefficient(trap); lsc != nil {
			lhs := solver.Term(1, energyVar).AddTerm(-*lsc, fcasVar).AddTerm(1, m.cvEnergyRegLHS[k])
			p.AddConstraint(fcasName("C_FCAS_GENERATOR_JOINT_ENERGY_REGULATING_LHS", k), lhs, solver.OpGE,
				m.effEnablementMin[k])
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Load rules (signs mirrored: dispatching more load lowers frequency)

func (m *Model) defineLoadFCAS(k nemde.OfferKey) error {
	in := m.in
	p := m.p
	available := in.FCASAvailability[k]
	fcasVar := m.traderTotal[k]
	energyVar, _, hasEnergy := m.energyVar(k.TraderID)
	trap := in.FCASTrapezium[k]

	// Loads scale regulation by the opposite SCADA direction.
	m.defineFCASMaxAvailable(k, in.TraderSCADARampDown, in.TraderSCADARampUp)

	if !available {
		return nil
	}

	switch {
	case k.TradeType == nemde.TradeType_R5RE:
		// Raising frequency means shedding load: LDOF - R5RE bounded below
		// by the downward ramp capability.
		if rampDown, ok := in.TraderSCADARampDown[k.TraderID]; ok && rampDown > 0 && hasEnergy {
			lhs := solver.Term(1, energyVar).AddTerm(-1, fcasVar).AddTerm(1, m.cvJointRampUp[k])
			p.AddConstraint(fcasName("C_FCAS_LOAD_JOINT_RAMPING_UP", k), lhs, solver.OpGE,
				in.TraderInitialMW[k.TraderID]-rampDown/nemde.RampRatePerInterval)
		}

	case k.TradeType == nemde.TradeType_L5RE:
		if rampUp, ok := in.TraderSCADARampUp[k.TraderID]; ok && rampUp > 0 && hasEnergy {
			lhs := solver.Term(1, energyVar).AddTerm(1, fcasVar).AddTerm(-1, m.cvJointRampDown[k])
			p.AddConstraint(fcasName("C_FCAS_LOAD_JOINT_RAMPING_DOWN", k), lhs, solver.OpLE,
				in.TraderInitialMW[k.TraderID]+rampUp/nemde.RampRatePerInterval)
		}

	case k.TradeType.IsContingency():
		if !hasEnergy {
			break
		}
		if usc := nemde.UpperSlopeCoefficient(trap); usc != nil {
			lhs := solver.Term(1, energyVar).AddTerm(*usc, fcasVar).AddTerm(-1, m.cvJointCapRHS[k])
			if l5re, ok := m.traderTotal[nemde.OfferKey{TraderID: k.TraderID, TradeType: nemde.TradeType_L5RE}]; ok {
				lhs.AddTerm(1, l5re)
			}
			p.AddConstraint(fcasName("C_FCAS_LOAD_CONTINGENCY_RHS", k), lhs, solver.OpLE, trap.EnablementMax)
		}
		if lsc := nemde.LowerSlopeCoefficient(trap); lsc != nil {
			lhs := solver.Term(1, energyVar).AddTerm(-*lsc, fcasVar).AddTerm(1, m.cvJointCapLHS[k])
			if r5re, ok := m.traderTotal[nemde.OfferKey{TraderID: k.TraderID, TradeType: nemde.TradeType_R5RE}]; ok {
				lhs.AddTerm(-1, r5re)
			}
			p.AddConstraint(fcasName("C_FCAS_LOAD_CONTINGENCY_LHS", k), lhs, solver.OpGE, trap.EnablementMin)
		}
	}

	if k.TradeType.IsRegulation() && hasEnergy {
		if usc := nemde.UpperSlopeCoefficient(trap); usc != nil {
			lhs := solver.Term(1, energyVar).AddTerm(*usc, fcasVar).AddTerm(-1, m.cvEnergyRegRHS[k])
			p.AddConstraint(fcasName("C_FCAS_LOAD_JOINT_ENERGY_REGULATING_RHS", k), lhs, solver.OpLE,
				m.effEnablementMax[k])
		}
		if lsc := nemde.LowerSlopeCoefficient(trap); lsc != nil {
			lhs := solver.Term(1, energyVar).AddTerm(-*lsc, fcasVar).AddTerm(1, m.cvEnergyRegLHS[k])
			p.AddConstraint(fcasName("C_FCAS_LOAD_JOINT_ENERGY_REGULATING_LHS", k), lhs, solver.OpGE,
				m.effEnablementMin[k])
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Shared rules

// defineFCASMaxAvailable bounds the FCAS offer by its effective max
// availability. Unavailable offers pin to zero (violation slack keeps the
// LP feasible). raiseRates/lowerRates select which SCADA direction scales
// R5RE/L5RE for this trader class.
func (m *Model) defineFCASMaxAvailable(k nemde.OfferKey, raiseRates, lowerRates map[string]float64) {
	in := m.in
	p := m.p
	fcasVar := m.traderTotal[k]
	name := fcasName("C_FCAS_MAX_AVAILABLE", k)

	if !in.FCASAvailability[k] {
		lhs := solver.Term(1, fcasVar).AddTerm(-1, m.cvFCASMaxAvail[k])
		p.AddConstraint(name, lhs, solver.OpEQ, 0)
		return
	}

	maxAvail := in.TraderMaxAvail[k]
	switch k.TradeType {
	case nemde.TradeType_R5RE:
		if rate, ok := raiseRates[k.TraderID]; ok {
			maxAvail = min(maxAvail, rate/nemde.RampRatePerInterval)
		}
	case nemde.TradeType_L5RE:
		if rate, ok := lowerRates[k.TraderID]; ok {
			maxAvail = min(maxAvail, rate/nemde.RampRatePerInterval)
		}
	}
	lhs := solver.Term(1, fcasVar).AddTerm(-1, m.cvFCASMaxAvail[k])
	p.AddConstraint(name, lhs, solver.OpLE, maxAvail)
}

// defineEnablementBounds keeps the energy offer inside the enablement
// envelope while the FCAS offer is available. Regulation services use the
// effective (AGC/UIGF-tightened) bounds.
func (m *Model) defineEnablementBounds(k nemde.OfferKey) error {
	in := m.in
	p := m.p
	if !in.FCASAvailability[k] {
		return nil
	}
	energyVar, _, hasEnergy := m.energyVar(k.TraderID)
	if !hasEnergy {
		return nil
	}
	trap := in.FCASTrapezium[k]

	enablementMin := trap.EnablementMin
	enablementMax := trap.EnablementMax
	if k.TradeType.IsRegulation() {
		enablementMin = m.effEnablementMin[k]
		enablementMax = m.effEnablementMax[k]
	}

	lhs := solver.Term(1, energyVar).AddTerm(1, m.cvEnablementMin[k])
	p.AddConstraint(fcasName("C_FCAS_ENABLEMENT_MIN", k), lhs, solver.OpGE, enablementMin)

	lhs = solver.Term(1, energyVar).AddTerm(-1, m.cvEnablementMax[k])
	p.AddConstraint(fcasName("C_FCAS_ENABLEMENT_MAX", k), lhs, solver.OpLE, enablementMax)
	return nil
}

func fcasName(prefix string, k nemde.OfferKey) string {
	return fmt.Sprintf("%s[%s,%s]", prefix, k.TraderID, k.TradeType)
}
