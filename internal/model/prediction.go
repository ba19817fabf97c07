package model

// PredictionResult is the outcome of one classification. Probability is the
// estimated likelihood of the malicious class, IsMalicious the thresholded decision.
type PredictionResult struct {
	IsMalicious bool    `json:"is_malicious"`
	Probability float64 `json:"probability"`
	Threshold   float64 `json:"threshold"`
}

// Percent renders the probability the way the prediction page shows it.
func (r PredictionResult) Percent() float64 {
	return r.Probability * 100
}
