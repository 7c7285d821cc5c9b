package entity

import "time"

type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeUnsuccessful Outcome = "unsuccessful"
	OutcomeUncertain    Outcome = "uncertain"
)

// Issue tags the most likely failing stage for monitoring.
type Issue string

const (
	IssueNone                   Issue = "none"
	IssueCaptchaObstruction     Issue = "captcha_obstruction"
	IssueOCRHeuristics          Issue = "ocr_heuristics"
	IssueFormFiller             Issue = "form_filler"
	IssueSubmissionClick        Issue = "submission_click"
	IssueSubmissionRejected     Issue = "submission_rejected"
	IssueSubmissionConfirmation Issue = "submission_confirmation"
	IssueMixedOrUnknown         Issue = "mixed_or_unknown"
	IssuePartialFill            Issue = "partial_fill"
)

// Counters are the per-page fill statistics.
type Counters struct {
	ElementsSeen       int `json:"elements_seen"`
	ElementsReady      int `json:"elements_ready_to_fill"`
	FieldsFilled       int `json:"fields_filled"`
	FillAttempts       int `json:"fill_attempts"`
	FillActionFailed   int `json:"fill_action_failed"`
	FillVerifyFailed   int `json:"fill_verify_failed"`
	LowConfidenceSkips int `json:"low_confidence_skips"`
	NonFillableSkips   int `json:"non_fillable_skips"`
	PrefillMissSkips   int `json:"prefill_miss_skips"`
}

type PageResult struct {
	RunID          string        `json:"run_id"`
	URL            string        `json:"url"`
	Outcome        Outcome       `json:"outcome"`
	Reason         string        `json:"reason"`
	Timestamp      time.Time     `json:"timestamp"`
	Counters       Counters      `json:"counters"`
	CaptchaFound   bool          `json:"captcha_detected"`
	ProcessingTime time.Duration `json:"processing_time"`
	Issue          Issue         `json:"monitor_issue"`
	Summary        string        `json:"monitor_summary"`
	TracePath      string        `json:"trace_path,omitempty"`
}

func NewPageResult(runID, url string) PageResult {
	return PageResult{
		RunID:     runID,
		URL:       url,
		Outcome:   OutcomeUnsuccessful,
		Reason:    "unknown error",
		Timestamp: time.Now(),
		Issue:     IssueNone,
	}
}

// UnknownPattern is one diagnostic record for an unclassified element.
type UnknownPattern struct {
	Timestamp    time.Time  `json:"ts"`
	CombinedText string     `json:"combined_text"`
	Attributes   Attributes `json:"attributes"`
	ElementType  string     `json:"element_type"`
}

// Word is one OCR token with its confidence in [0,100].
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}
