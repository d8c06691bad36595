package ml

import "mona-backend/internal/models"

// Stability is the outcome of comparing a reading against the thresholds
type Stability struct {
	Score int             // number of channels at or below threshold, 0..3
	Met   map[string]bool // keyed by models.Indicator*
}

// scoredChannels pairs each threshold-bearing channel with its indicator key
var scoredChannels = []struct {
	channel   string
	indicator string
}{
	{models.ChannelDisplacement, models.IndicatorDisplacement},
	{models.ChannelRainfall, models.IndicatorRainfall},
	{models.ChannelPorePressure, models.IndicatorPorePressure},
}

// ComputeStability counts the threshold-bearing channels whose value is at or
// below the critical threshold. Missing channels take their defaults. Tilt is
// not scored. The result depends only on its inputs.
func ComputeStability(reading models.SensorReading, thresholds ThresholdSet) Stability {
	met := make(map[string]bool, len(scoredChannels))
	score := 0
	for _, sc := range scoredChannels {
		limit, _ := thresholds.Limit(sc.channel)
		ok := reading.Value(sc.channel) <= limit
		met[sc.indicator] = ok
		if ok {
			score++
		}
	}
	return Stability{Score: score, Met: met}
}
