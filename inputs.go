// Copyright (c) 2024 Akxen Labs

package nemde

///////////////////////////////////////////////////////////////////////////////

// CVFParams are the case-wide constraint violation prices.
type CVFParams struct {
	VoLL                     float64
	EnergyDeficitPrice       float64
	EnergySurplusPrice       float64
	UIGFSurplusPrice         float64
	RampRatePrice            float64
	CapacityPrice            float64
	OfferPrice               float64
	MNSPOfferPrice           float64
	MNSPRampRatePrice        float64
	MNSPCapacityPrice        float64
	MNSPLossPrice            float64
	ASProfilePrice           float64
	ASMaxAvailPrice          float64
	ASEnablementMinPrice     float64
	ASEnablementMaxPrice     float64
	InterconnectorPrice      float64
	FastStartPrice           float64
	GenericConstraintPrice   float64
	SatisfactoryNetworkPrice float64
	TieBreakPrice            float64
}

// TieBreakPair is a pair of price-tied energy offer bands,
// lexicographically ordered (A < B).
type TieBreakPair struct {
	A BandKey
	B BandKey
}

// CaseInputs is the flat, preprocessed bundle a dispatch model is built
// from. It is read-only after Preprocess returns.
type CaseInputs struct {
	CaseID       string
	Intervention string // "0" or "1"

	// Index sets. Slices preserve casefile document order; derived unique
	// sets are sorted so model construction is deterministic.
	Regions              []string
	Traders              []string
	SemiDispatchTraders  []string
	TraderOffers         []OfferKey
	TraderFCASOffers     []OfferKey
	TraderEnergyOffers   []OfferKey
	FastStartTraders     []string
	GenericConstraints   []string
	GCTraderVars         []OfferKey
	GCInterconnectorVars []string
	GCRegionVars         []RegionTradeKey
	Interconnectors      []string
	MNSPs                []string
	MNSPOffers           []MNSPOfferKey
	PriceTiedGenerators  []TieBreakPair
	PriceTiedLoads       []TieBreakPair

	// Trader parameters.
	TraderPriceBand      map[BandKey]float64
	TraderQuantityBand   map[BandKey]float64
	TraderMaxAvail       map[OfferKey]float64
	TraderUIGF           map[string]float64
	TraderInitialMW      map[string]float64 // effective (WhatIf-aware)
	TraderHMW            map[string]float64
	TraderLMW            map[string]float64
	TraderAGCStatus      map[string]string
	TraderSemiDispatch   map[string]bool
	TraderRegion         map[string]string
	TraderType           map[string]TraderType
	TraderPeriodRampUp   map[OfferKey]float64
	TraderPeriodRampDown map[OfferKey]float64
	TraderSCADARampUp    map[string]float64
	TraderSCADARampDown  map[string]float64
	TraderRampUpRate     map[string]float64 // effective: min(offer, SCADA)
	TraderRampDownRate   map[string]float64

	// FCAS trapezium parameters (as offered, unscaled) and preprocessing
	// outputs (scaled trapezia + availability).
	FCASTrapezium    map[OfferKey]Trapezium
	FCASScaled       map[OfferKey]Trapezium
	FCASAvailability map[OfferKey]bool

	// Fast-start parameters. CurrentMode/CurrentModeTime may be absent.
	FastStartMinLoading      map[string]float64
	FastStartCurrentMode     map[string]float64
	FastStartCurrentModeTime map[string]float64
	FastStartT1              map[string]float64
	FastStartT2              map[string]float64
	FastStartT3              map[string]float64
	FastStartT4              map[string]float64

	// Interconnector parameters.
	InterconnectorInitialMW       map[string]float64 // effective (WhatIf-aware)
	InterconnectorFromRegion      map[string]string
	InterconnectorToRegion        map[string]string
	InterconnectorLowerLimit      map[string]float64
	InterconnectorUpperLimit      map[string]float64
	InterconnectorMNSP            map[string]bool
	InterconnectorLossShare       map[string]float64
	InterconnectorLossLowerLimit  map[string]float64
	InterconnectorLossSegments    map[string][]ParsedLossSegment
	InterconnectorInitialLoss     map[string]float64
	InterconnectorLossBreakpoints map[string][]LossBreakpoint

	// MNSP parameters.
	MNSPPriceBand           map[MNSPBandKey]float64
	MNSPQuantityBand        map[MNSPBandKey]float64
	MNSPMaxAvail            map[MNSPOfferKey]float64
	MNSPRampUpRate          map[MNSPOfferKey]float64
	MNSPRampDownRate        map[MNSPOfferKey]float64
	MNSPToRegionLFExport    map[string]float64
	MNSPToRegionLFImport    map[string]float64
	MNSPFromRegionLFExport  map[string]float64
	MNSPFromRegionLFImport  map[string]float64
	MNSPRegionLossIndicator map[string]map[string]float64 // mnsp -> region -> {0,1}

	// Region parameters.
	RegionInitialDemand map[string]float64
	RegionADE           map[string]float64
	RegionDF            map[string]float64

	// Generic constraint parameters.
	GCRHS  map[string]float64
	GCType map[string]GenericConstraintType
	GCCVF  map[string]float64
	GCLHS  map[string]ConstraintTerms

	CVF CVFParams
}

// EnergyOfferType returns the energy trade type for a trader.
func (in *CaseInputs) EnergyOfferType(traderID string) (TradeType, error) {
	tt, ok := in.TraderType[traderID]
	if !ok {
		return "", unexpectedTraderTypeError("<missing " + traderID + ">")
	}
	if tt.IsLoad() {
		return TradeType_LDOF, nil
	}
	return TradeType_ENOF, nil
}

// HasOffer reports whether the (trader, trade type) offer exists.
func (in *CaseInputs) HasOffer(traderID string, tradeType TradeType) bool {
	_, ok := in.TraderMaxAvail[OfferKey{traderID, tradeType}]
	if ok {
		return true
	}
	// MaxAvail is mandatory on trades, so this is equivalent to an index
	// scan; fall back for robustness against sparse casefiles.
	for _, k := range in.TraderOffers {
		if k.TraderID == traderID && k.TradeType == tradeType {
			return true
		}
	}
	return false
}

///////////////////////////////////////////////////////////////////////////////

// buildInputs extracts the raw (pre-derivation) bundle from the casefile.
func buildInputs(cf *Casefile, mode RunMode) (*CaseInputs, error) {
	in := &CaseInputs{}

	var err error
	if in.CaseID, err = cf.CaseString("@CaseID"); err != nil {
		return nil, err
	}
	if in.Intervention, err = cf.InterventionStatus(mode); err != nil {
		return nil, err
	}
	caseIntervention, err := cf.CaseString("@Intervention")
	if err != nil {
		return nil, err
	}
	interventionOccurred := caseIntervention == "True" || caseIntervention == "1"

	// Index sets.
	in.Regions = cf.RegionIDs()
	in.Traders = cf.TraderIDs()
	in.SemiDispatchTraders = cf.SemiDispatchIDs()
	in.TraderOffers = cf.TraderOfferIndex()
	in.TraderFCASOffers = cf.TraderFCASOfferIndex()
	in.TraderEnergyOffers = cf.TraderEnergyOfferIndex()
	in.FastStartTraders = cf.FastStartIDs()
	in.GenericConstraints = cf.GenericConstraintIDs()
	in.GCTraderVars = cf.GCTraderVariableIndex()
	in.GCInterconnectorVars = cf.GCInterconnectorVariableIndex()
	in.GCRegionVars = cf.GCRegionVariableIndex()
	in.Interconnectors = cf.InterconnectorIDs()
	in.MNSPs = cf.MNSPIDs()
	in.MNSPOffers = cf.MNSPOfferIndex()

	// Trader parameters.
	if in.TraderPriceBand, err = cf.TraderPriceBands(); err != nil {
		return nil, err
	}
	if in.TraderQuantityBand, err = cf.TraderQuantityBands(); err != nil {
		return nil, err
	}
	if in.TraderMaxAvail, err = cf.TraderTradeFloats("@MaxAvail"); err != nil {
		return nil, err
	}
	if in.TraderUIGF, err = cf.TraderPeriodFloats("@UIGF"); err != nil {
		return nil, err
	}

	initialMW, err := cf.TraderInitialConditions("InitialMW")
	if err != nil {
		return nil, err
	}
	if interventionOccurred && mode == RunMode_Pricing {
		// The pricing run models the interval as if the intervention had not
		// occurred: WhatIfInitialMW replaces InitialMW where reported.
		whatIf, err := cf.TraderInitialConditions("WhatIfInitialMW")
		if err != nil {
			return nil, err
		}
		for id, v := range whatIf {
			initialMW[id] = v
		}
	}
	in.TraderInitialMW = initialMW

	if in.TraderHMW, err = cf.TraderInitialConditions("HMW"); err != nil {
		return nil, err
	}
	if in.TraderLMW, err = cf.TraderInitialConditions("LMW"); err != nil {
		return nil, err
	}
	in.TraderAGCStatus = cf.TraderInitialConditionStrings("AGCStatus")

	in.TraderSemiDispatch = make(map[string]bool)
	for id, v := range cf.TraderCollectionStrings("@SemiDispatch") {
		in.TraderSemiDispatch[id] = v == "1"
	}
	in.TraderRegion = cf.TraderPeriodStrings("@RegionID")

	in.TraderType = make(map[string]TraderType)
	for id, v := range cf.TraderCollectionStrings("@TraderType") {
		tt, err := ParseTraderType(v)
		if err != nil {
			return nil, err
		}
		in.TraderType[id] = tt
	}

	if in.TraderPeriodRampUp, err = cf.TraderTradeFloats("@RampUpRate"); err != nil {
		return nil, err
	}
	if in.TraderPeriodRampDown, err = cf.TraderTradeFloats("@RampDnRate"); err != nil {
		return nil, err
	}
	if in.TraderSCADARampUp, err = cf.TraderInitialConditions("SCADARampUpRate"); err != nil {
		return nil, err
	}
	if in.TraderSCADARampDown, err = cf.TraderInitialConditions("SCADARampDnRate"); err != nil {
		return nil, err
	}
	in.TraderRampUpRate = effectiveRampRates(in.TraderEnergyOffers, in.TraderPeriodRampUp, in.TraderSCADARampUp)
	in.TraderRampDownRate = effectiveRampRates(in.TraderEnergyOffers, in.TraderPeriodRampDown, in.TraderSCADARampDown)

	// FCAS trapezium parameters.
	enablementMin, err := cf.TraderTradeFloats("@EnablementMin")
	if err != nil {
		return nil, err
	}
	lowBreakpoint, err := cf.TraderTradeFloats("@LowBreakpoint")
	if err != nil {
		return nil, err
	}
	highBreakpoint, err := cf.TraderTradeFloats("@HighBreakpoint")
	if err != nil {
		return nil, err
	}
	enablementMax, err := cf.TraderTradeFloats("@EnablementMax")
	if err != nil {
		return nil, err
	}
	in.FCASTrapezium = make(map[OfferKey]Trapezium)
	for _, k := range in.TraderFCASOffers {
		in.FCASTrapezium[k] = Trapezium{
			EnablementMin:  enablementMin[k],
			LowBreakpoint:  lowBreakpoint[k],
			HighBreakpoint: highBreakpoint[k],
			EnablementMax:  enablementMax[k],
			MaxAvail:       in.TraderMaxAvail[k],
		}
	}

	// Fast-start parameters.
	if in.FastStartMinLoading, err = cf.TraderFastStartFloats("@MinLoadingMW"); err != nil {
		return nil, err
	}
	if in.FastStartCurrentMode, err = cf.TraderFastStartFloats("@CurrentMode"); err != nil {
		return nil, err
	}
	if in.FastStartCurrentModeTime, err = cf.TraderFastStartFloats("@CurrentModeTime"); err != nil {
		return nil, err
	}
	if in.FastStartT1, err = cf.TraderFastStartFloats("@T1"); err != nil {
		return nil, err
	}
	if in.FastStartT2, err = cf.TraderFastStartFloats("@T2"); err != nil {
		return nil, err
	}
	if in.FastStartT3, err = cf.TraderFastStartFloats("@T3"); err != nil {
		return nil, err
	}
	if in.FastStartT4, err = cf.TraderFastStartFloats("@T4"); err != nil {
		return nil, err
	}

	// Interconnector parameters.
	icInitialMW, err := cf.InterconnectorInitialConditions("InitialMW")
	if err != nil {
		return nil, err
	}
	if interventionOccurred && mode == RunMode_Pricing {
		whatIf, err := cf.InterconnectorInitialConditions("WhatIfInitialMW")
		if err != nil {
			return nil, err
		}
		for id, v := range whatIf {
			icInitialMW[id] = v
		}
	}
	in.InterconnectorInitialMW = icInitialMW

	in.InterconnectorFromRegion = cf.InterconnectorPeriodStrings("@FromRegion")
	in.InterconnectorToRegion = cf.InterconnectorPeriodStrings("@ToRegion")
	if in.InterconnectorLowerLimit, err = cf.InterconnectorPeriodFloats("@LowerLimit"); err != nil {
		return nil, err
	}
	if in.InterconnectorUpperLimit, err = cf.InterconnectorPeriodFloats("@UpperLimit"); err != nil {
		return nil, err
	}
	in.InterconnectorMNSP = make(map[string]bool)
	for id, v := range cf.InterconnectorPeriodStrings("@MNSP") {
		in.InterconnectorMNSP[id] = v == "1"
	}
	if in.InterconnectorLossShare, err = cf.LossModelFloats("@LossShare"); err != nil {
		return nil, err
	}
	if in.InterconnectorLossLowerLimit, err = cf.LossModelFloats("@LossLowerLimit"); err != nil {
		return nil, err
	}
	in.InterconnectorLossSegments = make(map[string][]ParsedLossSegment)
	for _, id := range in.Interconnectors {
		segments, err := cf.LossModelSegments(id)
		if err != nil {
			return nil, err
		}
		in.InterconnectorLossSegments[id] = ParseLossSegments(segments, in.InterconnectorLossLowerLimit[id])
	}

	// MNSP parameters.
	if in.MNSPPriceBand, err = cf.MNSPPriceBands(); err != nil {
		return nil, err
	}
	if in.MNSPQuantityBand, err = cf.MNSPQuantityBands(); err != nil {
		return nil, err
	}
	if in.MNSPMaxAvail, err = cf.MNSPOfferFloats("@MaxAvail"); err != nil {
		return nil, err
	}
	if in.MNSPRampUpRate, err = cf.MNSPOfferFloats("@RampUpRate"); err != nil {
		return nil, err
	}
	if in.MNSPRampDownRate, err = cf.MNSPOfferFloats("@RampDnRate"); err != nil {
		return nil, err
	}
	if in.MNSPToRegionLFExport, err = cf.MNSPPeriodFloats("@ToRegionLFExport"); err != nil {
		return nil, err
	}
	if in.MNSPToRegionLFImport, err = cf.MNSPPeriodFloats("@ToRegionLFImport"); err != nil {
		return nil, err
	}
	if in.MNSPFromRegionLFExport, err = cf.MNSPPeriodFloats("@FromRegionLFExport"); err != nil {
		return nil, err
	}
	if in.MNSPFromRegionLFImport, err = cf.MNSPPeriodFloats("@FromRegionLFImport"); err != nil {
		return nil, err
	}

	// Region parameters.
	if in.RegionInitialDemand, err = cf.RegionInitialConditions("InitialDemand"); err != nil {
		return nil, err
	}
	if in.RegionADE, err = cf.RegionInitialConditions("ADE"); err != nil {
		return nil, err
	}
	if in.RegionDF, err = cf.RegionPeriodFloats("@DF"); err != nil {
		return nil, err
	}

	// Generic constraints. RHS values come from the reference constraint
	// solution matching the run's intervention flag.
	if in.GCRHS, err = cf.ReferenceConstraintRHS(in.Intervention); err != nil {
		return nil, err
	}
	in.GCType = make(map[string]GenericConstraintType)
	for id, v := range cf.GenericConstraintStrings("@Type") {
		in.GCType[id] = GenericConstraintType(v)
	}
	if in.GCCVF, err = cf.GenericConstraintFloats("@ViolationPrice"); err != nil {
		return nil, err
	}
	if in.GCLHS, err = cf.GenericConstraintLHSTerms(); err != nil {
		return nil, err
	}

	if err = readCVFParams(cf, &in.CVF); err != nil {
		return nil, err
	}
	return in, nil
}

// effectiveRampRates takes the per-trader min of the energy offer ramp rate
// and the SCADA telemetered rate, keeping whichever is defined.
func effectiveRampRates(energyOffers []OfferKey, offerRates map[OfferKey]float64, scadaRates map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, k := range energyOffers {
		offerRate, hasOffer := offerRates[k]
		scadaRate, hasSCADA := scadaRates[k.TraderID]
		switch {
		case hasOffer && hasSCADA && scadaRate > 0:
			out[k.TraderID] = min(offerRate, scadaRate)
		case hasOffer:
			out[k.TraderID] = offerRate
		case hasSCADA:
			out[k.TraderID] = scadaRate
		}
	}
	return out
}

func readCVFParams(cf *Casefile, cvf *CVFParams) error {
	fields := []struct {
		attr string
		dst  *float64
	}{
		{"@VoLL", &cvf.VoLL},
		{"@EnergyDeficitPrice", &cvf.EnergyDeficitPrice},
		{"@EnergySurplusPrice", &cvf.EnergySurplusPrice},
		{"@UIGFSurplusPrice", &cvf.UIGFSurplusPrice},
		{"@RampRatePrice", &cvf.RampRatePrice},
		{"@CapacityPrice", &cvf.CapacityPrice},
		{"@OfferPrice", &cvf.OfferPrice},
		{"@MNSPOfferPrice", &cvf.MNSPOfferPrice},
		{"@MNSPRampRatePrice", &cvf.MNSPRampRatePrice},
		{"@MNSPCapacityPrice", &cvf.MNSPCapacityPrice},
		{"@MNSPLossesPrice", &cvf.MNSPLossPrice},
		{"@ASProfilePrice", &cvf.ASProfilePrice},
		{"@ASMaxAvailPrice", &cvf.ASMaxAvailPrice},
		{"@ASEnablementMinPrice", &cvf.ASEnablementMinPrice},
		{"@ASEnablementMaxPrice", &cvf.ASEnablementMaxPrice},
		{"@InterconnectorPrice", &cvf.InterconnectorPrice},
		{"@FastStartPrice", &cvf.FastStartPrice},
		{"@GenericConstraintPrice", &cvf.GenericConstraintPrice},
		{"@Satisfactory_Network_Price", &cvf.SatisfactoryNetworkPrice},
		{"@TieBreakPrice", &cvf.TieBreakPrice},
	}
	for _, f := range fields {
		v, err := cf.CaseFloat(f.attr)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}
