package entity

import (
	"time"

	"form-filler/internal/domain/geometry"
)

type FieldStatus string

const (
	StatusClassified  FieldStatus = "classified"
	StatusSkipped     FieldStatus = "skipped"
	StatusReadyToFill FieldStatus = "ready_to_fill"
	StatusFilled      FieldStatus = "filled"
	StatusFillFailed  FieldStatus = "fill_failed"
)

type FieldTrace struct {
	Index          int          `json:"index"`
	XPath          string       `json:"xpath"`
	Selector       string       `json:"selector"`
	Tag            string       `json:"dom_type"`
	Attributes     Attributes   `json:"attributes"`
	Box            geometry.Box `json:"box"`
	Source         Source       `json:"source"`
	OCRText        string       `json:"ocr_text"`
	OCRConfidence  float64      `json:"ocr_confidence"`
	ClassifiedAs   FieldType    `json:"classified_as"`
	Confidence     int          `json:"classification_confidence"`
	Status         FieldStatus  `json:"status"`
	Reason         string       `json:"reason"`
	ScreenshotPath string       `json:"screenshot,omitempty"`
}

type SubmitTrace struct {
	Attempted      bool     `json:"attempted"`
	Clicked        bool     `json:"clicked"`
	DOMSuccess     bool     `json:"dom_success"`
	OCRSuccess     bool     `json:"ocr_success"`
	OCRFailure     bool     `json:"ocr_failure"`
	CurrentURL     string   `json:"current_url"`
	Excerpt        string   `json:"ocr_excerpt"`
	SuccessMatches []string `json:"ocr_success_matches"`
	FailureMatches []string `json:"ocr_failure_matches"`
}

// LiveTrace is the per-page diagnostic record written next to screenshots.
type LiveTrace struct {
	RunID                string         `json:"run_id"`
	URL                  string         `json:"url"`
	Timestamp            time.Time      `json:"timestamp"`
	CaptchaFound         bool           `json:"captcha_detected"`
	InitialScreenshot    string         `json:"initial_screenshot"`
	AnnotatedScreenshot  string         `json:"annotated_screenshot"`
	PostFillScreenshot   string         `json:"post_fill_screenshot"`
	AnnotatedPostFill    string         `json:"annotated_post_fill_screenshot"`
	PostSubmitScreenshot string         `json:"post_submit_screenshot"`
	ScreenshotMode       string         `json:"screenshot_mode"`
	ScreenshotOrigin     geometry.Point `json:"screenshot_origin_px"`
	FormBox              *geometry.Box  `json:"form_bbox"`
	Fields               []FieldTrace   `json:"fields"`
	Submit               SubmitTrace    `json:"submit"`
	Issue                Issue          `json:"monitor_issue,omitempty"`
	Summary              string         `json:"monitor_summary,omitempty"`
}

func NewLiveTrace(runID, url string) *LiveTrace {
	return &LiveTrace{
		RunID:          runID,
		URL:            url,
		Timestamp:      time.Now(),
		ScreenshotMode: "full",
		Fields:         []FieldTrace{},
		Submit: SubmitTrace{
			SuccessMatches: []string{},
			FailureMatches: []string{},
		},
	}
}

// Field returns the trace entry with the given index.
func (t *LiveTrace) Field(idx int) *FieldTrace {
	for i := range t.Fields {
		if t.Fields[i].Index == idx {
			return &t.Fields[i]
		}
	}
	return nil
}

// StatusCounts counts trace entries by status.
func (t *LiveTrace) StatusCounts() map[FieldStatus]int {
	out := make(map[FieldStatus]int)
	for _, f := range t.Fields {
		out[f.Status]++
	}
	return out
}
