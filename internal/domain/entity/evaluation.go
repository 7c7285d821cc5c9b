package entity

// EvaluationCriteria is the post-submit evidence scored by the evaluator.
type EvaluationCriteria struct {
	Text string
	URL  string
	// TextConfidence is the mean OCR confidence of Text, 0 for DOM text.
	TextConfidence float64
	// DOMConfirmed is set when a confirmation phrase was visible in the DOM.
	DOMConfirmed bool
}

// EvaluationResult is the weighted verdict. At most one of Success and
// Failure is set.
type EvaluationResult struct {
	Success        bool     `json:"success"`
	Failure        bool     `json:"failure"`
	SuccessScore   int      `json:"success_score"`
	FailureScore   int      `json:"failure_score"`
	SuccessMatches []string `json:"success_matches"`
	FailureMatches []string `json:"failure_matches"`
	Excerpt        string   `json:"excerpt"`
}

// Indeterminate reports that neither side cleared the threshold.
func (r EvaluationResult) Indeterminate() bool {
	return !r.Success && !r.Failure
}
