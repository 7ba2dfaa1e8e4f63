package orchestrate

import (
	"gonum.org/v1/gonum/stat"
)

// Summary reduces every iteration's consignment records to the
// per-iteration and across-iteration rates used to describe a run
// statistically (contamination rate, detection probability, inspection
// rate), grounded on sim/metrics.go's Metrics/Print pattern of
// accumulating one run's counters into plain float64 fields.
type Summary struct {
	Iterations      int
	NumConsignments int

	// Per-iteration rates, one entry per iteration, in iteration order.
	ContaminationRatePerIteration []float64
	InspectionRatePerIteration    []float64
	DetectionRatePerIteration     []float64 // detections / inspections

	MeanContaminationRate float64
	VarContaminationRate  float64
	MeanInspectionRate    float64
	VarInspectionRate     float64
	MeanDetectionRate     float64
	VarDetectionRate      float64
}

// Aggregate reduces a Run's IterationResults into a Summary, computing
// mean/variance across iterations with gonum's stat.Mean and
// stat.Variance rather than a hand-rolled accumulator. An iteration's
// contamination rate is the mean, over its consignments, of each
// consignment's fraction of contaminated items.
func Aggregate(results []IterationResult) Summary {
	s := Summary{
		Iterations:                    len(results),
		ContaminationRatePerIteration: make([]float64, len(results)),
		InspectionRatePerIteration:    make([]float64, len(results)),
		DetectionRatePerIteration:     make([]float64, len(results)),
	}

	for i, iter := range results {
		if i == 0 {
			s.NumConsignments = len(iter.Records)
		}

		var contaminationRateSum float64
		var inspected, detected int
		for _, r := range iter.Records {
			contaminationRateSum += r.Consignment.ContaminationRate()
			if r.Inspected {
				inspected++
				if r.Observation != nil && r.Observation.Detected {
					detected++
				}
			}
		}

		n := float64(len(iter.Records))
		if n > 0 {
			s.ContaminationRatePerIteration[i] = contaminationRateSum / n
			s.InspectionRatePerIteration[i] = float64(inspected) / n
		}
		if inspected > 0 {
			s.DetectionRatePerIteration[i] = float64(detected) / float64(inspected)
		}
	}

	s.MeanContaminationRate, s.VarContaminationRate = meanVar(s.ContaminationRatePerIteration)
	s.MeanInspectionRate, s.VarInspectionRate = meanVar(s.InspectionRatePerIteration)
	s.MeanDetectionRate, s.VarDetectionRate = meanVar(s.DetectionRatePerIteration)
	return s
}

// meanVar reports gonum's Mean/Variance for x, or (0, 0) for an empty or
// single-element sample where Variance is undefined.
func meanVar(x []float64) (mean, variance float64) {
	if len(x) == 0 {
		return 0, 0
	}
	mean = stat.Mean(x, nil)
	if len(x) < 2 {
		return mean, 0
	}
	variance = stat.Variance(x, nil)
	return mean, variance
}
