package logreg

import "gonum.org/v1/gonum/stat"

// Accuracy returns the fraction of predictions equal to the truth.
func Accuracy(truth, pred []string) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// MacroF1 averages per-class F1 over every label present in truth or pred.
func MacroF1(truth, pred []string) float64 {
	tp := map[string]int{}
	fp := map[string]int{}
	fn := map[string]int{}
	labels := map[string]struct{}{}
	for i := range truth {
		labels[truth[i]] = struct{}{}
		labels[pred[i]] = struct{}{}
		if truth[i] == pred[i] {
			tp[truth[i]]++
			continue
		}
		fp[pred[i]]++
		fn[truth[i]]++
	}
	if len(labels) == 0 {
		return 0
	}
	scores := make([]float64, 0, len(labels))
	for label := range labels {
		p, r := 0.0, 0.0
		if d := tp[label] + fp[label]; d > 0 {
			p = float64(tp[label]) / float64(d)
		}
		if d := tp[label] + fn[label]; d > 0 {
			r = float64(tp[label]) / float64(d)
		}
		f := 0.0
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		scores = append(scores, f)
	}
	return stat.Mean(scores, nil)
}

// MeanStd summarizes per-fold scores.
func MeanStd(scores []float64) (mean, std float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	if len(scores) == 1 {
		return scores[0], 0
	}
	return stat.PopMeanStdDev(scores, nil)
}
