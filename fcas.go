// Copyright (c) 2024 Akxen Labs

package nemde

///////////////////////////////////////////////////////////////////////////////

// Trapezium is the 5-parameter FCAS capacity region over
// (energy MW, FCAS MW).
type Trapezium struct {
	EnablementMin  float64
	LowBreakpoint  float64
	HighBreakpoint float64
	EnablementMax  float64
	MaxAvail       float64
}

// FCASParams bundles the inputs to trapezium scaling and availability
// checks for one (trader, service) offer. Pointer fields are absent when
// the casefile does not report them.
type FCASParams struct {
	TraderID   string
	TradeType  TradeType
	TraderType TraderType

	Trapezium     Trapezium
	QuantityBands [NumBands]float64

	EnergyMaxAvail *float64 // MaxAvail of the trader's energy offer
	InitialMW      *float64
	UIGF           *float64
	HMW            *float64
	LMW            *float64
	AGCStatus      string // "1" when AGC is active
	AGCRampUp      *float64
	AGCRampDown    *float64
	SemiDispatch   bool

	LoadConvention LoadAvailabilityConvention
}

///////////////////////////////////////////////////////////////////////////////
// Line algebra. Trapezium sides are lines defined by slope and x-intercept;
// a nil slope means the line is vertical.

type trapeziumLine struct {
	slope      *float64
	yIntercept *float64
	xIntercept float64
}

func lineFromSlopeAndXIntercept(slope *float64, xIntercept float64) trapeziumLine {
	line := trapeziumLine{slope: slope, xIntercept: xIntercept}
	if slope != nil {
		line.yIntercept = floatPtr(-*slope * xIntercept)
	}
	return line
}

// intersection returns the crossing point of two lines, or ok=false when
// they are parallel (both horizontal or both vertical).
func intersection(l1, l2 trapeziumLine) (x, y float64, ok bool) {
	switch {
	case l1.slope != nil && l2.slope != nil:
		if *l1.slope == 0 && *l2.slope == 0 {
			return 0, 0, false
		}
		x = (*l2.yIntercept - *l1.yIntercept) / (*l1.slope - *l2.slope)
		y = (*l1.slope * x) + *l1.yIntercept
		return x, y, true
	case l1.slope == nil && l2.slope != nil:
		x = l1.xIntercept
		y = (*l2.slope * x) + *l2.yIntercept
		return x, y, true
	case l1.slope != nil && l2.slope == nil:
		x = l2.xIntercept
		y = (*l1.slope * x) + *l1.yIntercept
		return x, y, true
	default:
		return 0, 0, false
	}
}

// newBreakpoint inverts a trapezium side at the given availability. Vertical
// and horizontal sides keep their x-intercept.
func newBreakpoint(slope *float64, xIntercept, maxAvailable float64) float64 {
	if slope == nil || *slope == 0 {
		return xIntercept
	}
	yIntercept := -*slope * xIntercept
	return (maxAvailable - yIntercept) / *slope
}

// lhsSlope is the slope between EnablementMin and LowBreakpoint, nil when
// the side is vertical.
func lhsSlope(t Trapezium) *float64 {
	run := t.LowBreakpoint - t.EnablementMin
	if run == 0 {
		return nil
	}
	return floatPtr(t.MaxAvail / run)
}

// rhsSlope is the slope between HighBreakpoint and EnablementMax, nil when
// the side is vertical.
func rhsSlope(t Trapezium) *float64 {
	run := t.EnablementMax - t.HighBreakpoint
	if run == 0 {
		return nil
	}
	return floatPtr(-t.MaxAvail / run)
}

///////////////////////////////////////////////////////////////////////////////
// Scaling

// scaleEnablementMinLHS scales a trapezium for a lower AGC enablement limit.
// No scaling when the limit is absent, zero, or not more restrictive.
func scaleEnablementMinLHS(t Trapezium, agcEnablementMin *float64) Trapezium {
	if agcEnablementMin == nil || *agcEnablementMin == 0 || *agcEnablementMin <= t.EnablementMin {
		return t
	}

	lhs := lineFromSlopeAndXIntercept(lhsSlope(t), *agcEnablementMin)
	rhs := lineFromSlopeAndXIntercept(rhsSlope(t), t.EnablementMax)

	if _, y, ok := intersection(lhs, rhs); ok && y < t.MaxAvail {
		t.MaxAvail = max(0, y)
	}
	t.LowBreakpoint = newBreakpoint(lhs.slope, lhs.xIntercept, t.MaxAvail)
	t.HighBreakpoint = newBreakpoint(rhs.slope, rhs.xIntercept, t.MaxAvail)
	t.EnablementMin = *agcEnablementMin
	return t
}

// scaleEnablementMaxRHS scales a trapezium for an upper AGC enablement limit
// (also used for UIGF capping). No scaling when the limit is absent, zero,
// or not more restrictive.
func scaleEnablementMaxRHS(t Trapezium, agcEnablementMax *float64) Trapezium {
	if agcEnablementMax == nil || *agcEnablementMax == 0 || *agcEnablementMax >= t.EnablementMax {
		return t
	}

	lhs := lineFromSlopeAndXIntercept(lhsSlope(t), t.EnablementMin)
	rhs := lineFromSlopeAndXIntercept(rhsSlope(t), *agcEnablementMax)

	if _, y, ok := intersection(lhs, rhs); ok && y < t.MaxAvail {
		t.MaxAvail = max(0, y)
	}
	t.LowBreakpoint = newBreakpoint(lhs.slope, lhs.xIntercept, t.MaxAvail)
	t.HighBreakpoint = newBreakpoint(rhs.slope, rhs.xIntercept, t.MaxAvail)
	t.EnablementMax = *agcEnablementMax
	return t
}

// scaleAGCRampRate caps MaxAvail at the SCADA ramp capability over the
// dispatch interval. No scaling when the rate is absent or zero.
func scaleAGCRampRate(t Trapezium, scadaRampRate *float64) Trapezium {
	if scadaRampRate == nil || *scadaRampRate == 0 {
		return t
	}

	maxAvailable := min(t.MaxAvail, *scadaRampRate/RampRatePerInterval)
	if maxAvailable < t.MaxAvail {
		if slope := lhsSlope(t); slope != nil {
			t.LowBreakpoint = newBreakpoint(slope, t.EnablementMin, maxAvailable)
		}
		if slope := rhsSlope(t); slope != nil {
			t.HighBreakpoint = newBreakpoint(slope, t.EnablementMax, maxAvailable)
		}
	}
	t.MaxAvail = maxAvailable
	return t
}

// agcRampRateFor picks the SCADA rate scaling a regulation offer. Raising
// frequency means ramping generators up but loads down, and vice versa.
func agcRampRateFor(p FCASParams) *float64 {
	isLoad := p.TraderType.IsLoad()
	if p.LoadConvention == LoadAvailability_Strict {
		// Documented form: loads keep the generator direction table.
		isLoad = false
	}
	switch {
	case p.TradeType == TradeType_R5RE && !isLoad:
		return p.AGCRampUp
	case p.TradeType == TradeType_L5RE && !isLoad:
		return p.AGCRampDown
	case p.TradeType == TradeType_R5RE && isLoad:
		return p.AGCRampDown
	default: // L5RE load
		return p.AGCRampUp
	}
}

// ScaledTrapezium applies the scaling pipeline for the offer: UIGF capping
// for semi-dispatchable contingency offers; the full LMW/HMW/AGC-ramp/UIGF
// sequence for regulation offers; no scaling otherwise.
func ScaledTrapezium(p FCASParams) Trapezium {
	t := p.Trapezium

	if p.SemiDispatch && p.TradeType.IsContingency() {
		return scaleEnablementMaxRHS(t, p.UIGF)
	}

	if !p.TradeType.IsRegulation() {
		return t
	}

	t = scaleEnablementMinLHS(t, p.LMW)
	t = scaleEnablementMaxRHS(t, p.HMW)
	t = scaleAGCRampRate(t, agcRampRateFor(p))
	t = scaleEnablementMaxRHS(t, p.UIGF)
	return t
}

///////////////////////////////////////////////////////////////////////////////
// Availability

// FCASAvailability reports whether the offer can be enabled this interval.
// An unavailable offer has its MW fixed to zero by the dispatch model.
func FCASAvailability(p FCASParams) bool {
	t := ScaledTrapezium(p)

	// Scaled max availability must be positive.
	if !(t.MaxAvail > 0) {
		return false
	}

	// At least one quantity band must be non-zero.
	maxBand := 0.0
	for _, q := range p.QuantityBands {
		maxBand = max(maxBand, q)
	}
	if !(maxBand > 0) {
		return false
	}

	// The energy offer (UIGF for semi-dispatch) must reach EnablementMin.
	energyMaxAvail := p.EnergyMaxAvail
	if p.SemiDispatch {
		energyMaxAvail = p.UIGF
	}
	if energyMaxAvail != nil && *energyMaxAvail < t.EnablementMin {
		return false
	}

	if t.EnablementMax < 0 {
		return false
	}

	// The unit must currently operate inside the enablement envelope.
	if p.InitialMW == nil || *p.InitialMW < t.EnablementMin || *p.InitialMW > t.EnablementMax {
		return false
	}

	// AGC must be active for regulation services.
	if p.TradeType.IsRegulation() && p.AGCStatus != "1" {
		return false
	}
	return true
}

///////////////////////////////////////////////////////////////////////////////
// Slope coefficients used by the joint capacity constraints. Undefined
// (MaxAvail = 0) coefficients signal "skip the coupled term".

// UpperSlopeCoefficient is (EnablementMax-HighBreakpoint)/MaxAvail of the
// unscaled trapezium, or nil when MaxAvail is zero.
func UpperSlopeCoefficient(t Trapezium) *float64 {
	if t.MaxAvail == 0 {
		return nil
	}
	return floatPtr((t.EnablementMax - t.HighBreakpoint) / t.MaxAvail)
}

// LowerSlopeCoefficient is (LowBreakpoint-EnablementMin)/MaxAvail of the
// unscaled trapezium, or nil when MaxAvail is zero.
func LowerSlopeCoefficient(t Trapezium) *float64 {
	if t.MaxAvail == 0 {
		return nil
	}
	return floatPtr((t.LowBreakpoint - t.EnablementMin) / t.MaxAvail)
}
