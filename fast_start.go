// Copyright (c) 2024 Akxen Labs

package nemde

import "fmt"

///////////////////////////////////////////////////////////////////////////////

// FastStartProfile is a unit's inflexibility profile: mode durations T1-T4
// (minutes), minimum stable loading, and the unit's position on the
// trajectory at the start of the interval.
type FastStartProfile struct {
	MinLoadingMW    float64
	CurrentMode     int
	CurrentModeTime float64
	T1              float64
	T2              float64
	T3              float64
	T4              float64
}

// cumulativeProfileTime converts (mode, time-in-mode) to minutes elapsed
// since the start of the inflexibility profile.
func cumulativeProfileTime(mode int, modeTime, t1, t2, t3 float64) (float64, error) {
	switch mode {
	case 0, 1:
		return modeTime, nil
	case 2:
		return t1 + modeTime, nil
	case 3:
		return t1 + t2 + modeTime, nil
	case 4:
		return t1 + t2 + t3 + modeTime, nil
	default:
		return 0, fmt.Errorf("fast start mode %d out of range", mode)
	}
}

// EffectiveMode advances the unit 5 minutes along the trajectory and
// returns the mode it lands in at the end of the interval. A unit in mode 0
// stays in mode 0.
func (p FastStartProfile) EffectiveMode() (int, error) {
	if p.CurrentMode == 0 {
		return 0, nil
	}
	minutes, err := cumulativeProfileTime(p.CurrentMode, p.CurrentModeTime+DispatchIntervalMinutes, p.T1, p.T2, p.T3)
	if err != nil {
		return 0, err
	}

	t1End := p.T1
	t2End := p.T1 + p.T2
	t3End := p.T1 + p.T2 + p.T3
	switch {
	case minutes <= t1End:
		return 1, nil
	case minutes <= t2End:
		return 2, nil
	case minutes <= t3End:
		return 3, nil
	default:
		return 4, nil
	}
}

// EffectiveModeTime returns minutes spent in the effective mode at the end
// of the interval.
func (p FastStartProfile) EffectiveModeTime() (float64, error) {
	mode, err := p.EffectiveMode()
	if err != nil {
		return 0, err
	}
	if mode == 0 {
		return p.CurrentModeTime, nil
	}
	minutes, err := cumulativeProfileTime(p.CurrentMode, p.CurrentModeTime+DispatchIntervalMinutes, p.T1, p.T2, p.T3)
	if err != nil {
		return 0, err
	}
	switch mode {
	case 1:
		return minutes, nil
	case 2:
		return minutes - p.T1, nil
	case 3:
		return minutes - (p.T1 + p.T2), nil
	default:
		return minutes - (p.T1 + p.T2 + p.T3), nil
	}
}

///////////////////////////////////////////////////////////////////////////////

// ModeOneRampCapability is the maximum MW a unit initially in mode 1 can
// reach by the end of the interval: finish synchronising, follow the T2
// startup trajectory, then ramp at effectiveRampRate (MW/h) above min
// loading.
func (p FastStartProfile) ModeOneRampCapability(effectiveRampRate float64) float64 {
	t1Remaining := p.T1 - p.CurrentModeTime
	t2Time := max(0, min(p.T2, DispatchIntervalMinutes-t1Remaining))
	minLoadingTime := max(0, DispatchIntervalMinutes-t1Remaining-t2Time)

	var t2Capability float64
	if p.T2 == 0 {
		t2Capability = p.MinLoadingMW
	} else {
		t2Capability = (p.MinLoadingMW / p.T2) * t2Time
	}
	t3Capability := (effectiveRampRate / 60) * minLoadingTime
	return t2Capability + t3Capability
}

// ModeTwoRampCapability is the analogous bound for a unit initially in
// mode 2 (already on the startup trajectory).
func (p FastStartProfile) ModeTwoRampCapability(effectiveRampRate float64) float64 {
	t2Remaining := p.T2 - p.CurrentModeTime
	minLoadingTime := max(0, DispatchIntervalMinutes-t2Remaining)

	var t2Capability float64
	if p.T2 == 0 {
		t2Capability = p.MinLoadingMW
	} else {
		t2Capability = (p.MinLoadingMW / p.T2) * t2Remaining
	}
	t3Capability := (effectiveRampRate / 60) * minLoadingTime
	return t2Capability + t3Capability
}

// ModeTwoInitialMW reconstructs output from the startup trajectory for a
// unit in mode 2. This may differ from SCADA-reported InitialMW.
func (p FastStartProfile) ModeTwoInitialMW() float64 {
	return (p.MinLoadingMW / p.T2) * p.CurrentModeTime
}
