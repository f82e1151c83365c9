package detection

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/murmurwatch/murmur-backend/internal/types"
)

// minSpikeBaseline is the smallest sample count a z-score baseline is trusted
// at. Below it every window reports no spikes.
const minSpikeBaseline = 10

// Spike is one metric bucket whose coordination score sits unusually far
// above the baseline of the sampled period.
type Spike struct {
	Platform           string    `json:"platform"`
	TimeBucket         time.Time `json:"time_bucket"`
	CoordinationScore  float64   `json:"coordination_score"`
	ZScore             float64   `json:"z_score"`
	BaselineMean       float64   `json:"baseline_mean"`
	BaselineStd        float64   `json:"baseline_std"`
	TotalPosts         int       `json:"total_posts"`
	ActiveClusterCount int       `json:"active_cluster_count"`
}

// DetectSpikes flags metrics whose coordination score deviates from the
// population mean of the whole sample by at least thresholdStd standard
// deviations. A flat baseline (zero variance) never produces spikes. Results
// come back ordered by z-score, highest first.
func DetectSpikes(metrics []*types.CoordinationMetric, thresholdStd float64) []Spike {
	if len(metrics) < minSpikeBaseline {
		return nil
	}

	scores := make([]float64, len(metrics))
	for i, m := range metrics {
		scores[i] = m.CoordinationScore
	}
	mean := stat.Mean(scores, nil)

	// Population variance, not sample variance: the sample is the whole
	// baseline, not a draw from it.
	variance := 0.0
	for _, s := range scores {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(scores))
	std := math.Sqrt(variance)
	if std == 0 {
		return nil
	}

	var spikes []Spike
	for i, m := range metrics {
		z := (scores[i] - mean) / std
		if z < thresholdStd {
			continue
		}
		spikes = append(spikes, Spike{
			Platform:           m.Platform,
			TimeBucket:         m.TimeBucket,
			CoordinationScore:  m.CoordinationScore,
			ZScore:             z,
			BaselineMean:       mean,
			BaselineStd:        std,
			TotalPosts:         m.TotalPosts,
			ActiveClusterCount: m.ActiveClusterCount,
		})
	}
	sort.Slice(spikes, func(i, j int) bool {
		if spikes[i].ZScore != spikes[j].ZScore {
			return spikes[i].ZScore > spikes[j].ZScore
		}
		return spikes[i].TimeBucket.Before(spikes[j].TimeBucket)
	})
	return spikes
}
