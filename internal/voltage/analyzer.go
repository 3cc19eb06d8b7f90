package voltage

// InBounds reports whether v falls inside the fixed voltage envelope,
// inclusive on both ends (§4.2, §8 invariant 7).
func InBounds(cfg Config, v float64) bool {
	return v >= cfg.VoltageMin1Ph && v <= cfg.VoltageMax1Ph
}

// IsZero reports whether v should be treated as loss of supply
// (§4.2, §8 invariant 8). Note the boundary is strict: exactly
// VoltageZeroThreshold is NOT zero.
func IsZero(cfg Config, v float64) bool {
	return v < cfg.VoltageZeroThreshold
}

// Analyze classifies a single voltage value on a single phase against
// cfg. Pure; no lifecycle, no allocation beyond the returned struct.
func Analyze(cfg Config, v float64, phase Phase) PhaseAnalysis {
	return PhaseAnalysis{
		Phase:     phase,
		Voltage:   v,
		Nominal:   cfg.NominalVoltage1Ph,
		Min:       cfg.VoltageMin1Ph,
		Max:       cfg.VoltageMax1Ph,
		Deviation: v - cfg.NominalVoltage1Ph,
		InBounds:  InBounds(cfg, v),
		IsZero:    IsZero(cfg, v),
	}
}

// AnalyzeReading classifies every phase of a reading, in L1, L2, L3
// order.
func AnalyzeReading(cfg Config, r Reading) [3]PhaseAnalysis {
	return [3]PhaseAnalysis{
		Analyze(cfg, r.V1, L1),
		Analyze(cfg, r.V2, L2),
		Analyze(cfg, r.V3, L3),
	}
}
