package pipeline

import (
	"fmt"

	"form-filler/internal/domain/entity"
)

// Diagnose tags the stage most likely responsible for a failed page and
// builds the one-line monitoring summary.
func Diagnose(trace *entity.LiveTrace, res entity.PageResult) (entity.Issue, string) {
	c := res.Counters
	sub := trace.Submit

	known := 0
	for _, f := range trace.Fields {
		if f.ClassifiedAs != "" && f.ClassifiedAs != entity.FieldUnknown {
			known++
		}
	}

	issue := entity.IssueNone
	if res.Outcome != entity.OutcomeSuccess {
		switch {
		case res.CaptchaFound:
			issue = entity.IssueCaptchaObstruction
		case c.ElementsReady == 0:
			issue = entity.IssueOCRHeuristics
		case c.FillAttempts > 0 && c.FieldsFilled == 0:
			issue = entity.IssueFormFiller
		case sub.Attempted && !sub.Clicked:
			issue = entity.IssueSubmissionClick
		case sub.Clicked && sub.OCRFailure:
			issue = entity.IssueSubmissionRejected
		case sub.Clicked && !(sub.DOMSuccess || sub.OCRSuccess):
			issue = entity.IssueSubmissionConfirmation
		default:
			issue = entity.IssueMixedOrUnknown
		}
	} else if c.ElementsReady > 0 && c.FieldsFilled < c.ElementsReady {
		issue = entity.IssuePartialFill
	}

	summary := fmt.Sprintf("seen=%d known=%d ready=%d filled=%d/%d "+
		"fill_action_failed=%d fill_verify_failed=%d low_conf_skips=%d "+
		"non_fillable_skips=%d prefill_miss_skips=%d submit_clicked=%d "+
		"submit_success_signal=%d submit_failure_signal=%d",
		len(trace.Fields), known, c.ElementsReady, c.FieldsFilled, c.FillAttempts,
		c.FillActionFailed, c.FillVerifyFailed, c.LowConfidenceSkips,
		c.NonFillableSkips, c.PrefillMissSkips, flag(sub.Clicked),
		flag(sub.DOMSuccess || sub.OCRSuccess), flag(sub.OCRFailure),
	)
	return issue, summary
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
