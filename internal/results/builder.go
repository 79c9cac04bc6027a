package results

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// RequiredFields lists the raw keys every scan must carry, in reporting order.
var RequiredFields = []string{
	"scanned_on",
	"first_name",
	"last_name",
	"student_number",
	"test_id",
	"answer",
	"summary_marks",
}

// BuildTestResult validates one raw record and converts it into a TestResult.
//
// A field is missing when its key is absent, its value is nil or it is a blank
// string. "0" and an empty answer list count as present. The declared summary
// marks are authoritative; the itemised answers are only cross-checked and any
// disagreement is logged.
func (im *Importer) BuildTestResult(raw RawRecord) (TestResult, error) {
	var missing []string
	for _, k := range RequiredFields {
		if !present(raw[k]) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return TestResult{}, invalidPayload(raw, missing, nil)
	}

	var invalid []string
	testID, ok := toInt(raw["test_id"])
	if !ok {
		invalid = append(invalid, "test_id")
	}
	studentNumber, ok := toInt(raw["student_number"])
	if !ok {
		invalid = append(invalid, "student_number")
	}
	answers, ok := toList(raw["answer"])
	if !ok {
		// a bare <answer>A</answer>: one answer with nothing to sum
		answers = []any{raw["answer"]}
	}

	var available, obtained float64
	if summary, ok := toMap(raw["summary_marks"]); !ok {
		invalid = append(invalid, "summary_marks")
	} else {
		if available, ok = toFloat(summary["available"]); !ok || available == 0 {
			invalid = append(invalid, "summary_marks.available")
		}
		if obtained, ok = toFloat(summary["obtained"]); !ok {
			invalid = append(invalid, "summary_marks.obtained")
		}
	}
	if len(invalid) > 0 {
		return TestResult{}, invalidPayload(raw, nil, invalid)
	}

	tr := TestResult{
		TestID:          testID,
		StudentNumber:   studentNumber,
		ScannedOn:       rawString(raw["scanned_on"]),
		FirstName:       rawString(raw["first_name"]),
		LastName:        rawString(raw["last_name"]),
		MarksAvailable:  available,
		MarksObtained:   obtained,
		PercentageScore: PercentageScore(obtained, available),
	}

	im.checkConsistency(tr, answers)
	return tr, nil
}

// PercentageScore formats obtained/available as a percentage with exactly two
// decimals. strconv rounds the exact binary value; decimal ties go to even.
func PercentageScore(obtained, available float64) string {
	return strconv.FormatFloat(obtained/available*100, 'f', 2, 64)
}

func (im *Importer) checkConsistency(tr TestResult, answers []any) {
	availableCheck := len(answers)
	scoreCheck := 0.0
	scoreUsable := true
	for _, a := range answers {
		m, ok := toMap(a)
		if !ok {
			scoreUsable = false
			continue
		}
		v, ok := toFloat(m["marks_awarded"])
		if !ok {
			scoreUsable = false
			continue
		}
		scoreCheck += v
	}

	log := im.logger().WithFields(logrus.Fields{
		"test_id":         tr.TestID,
		"student_number":  tr.StudentNumber,
		"available_check": availableCheck,
		"score_check":     scoreCheck,
		"marks_available": tr.MarksAvailable,
		"marks_obtained":  tr.MarksObtained,
	})
	if float64(availableCheck) != tr.MarksAvailable {
		log.Warn("available does not match")
	}
	if !scoreUsable || scoreCheck != tr.MarksObtained {
		log.WithField("score_usable", scoreUsable).Warn("obtained does not match")
	}
}

func invalidPayload(raw RawRecord, missing, invalid []string) *InvalidPayloadError {
	return &InvalidPayloadError{
		Missing:       missing,
		Invalid:       invalid,
		TestID:        rawString(raw["test_id"]),
		StudentNumber: rawString(raw["student_number"]),
	}
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	}
	return true
}

// rawString renders a raw value for pass-through fields and diagnostics.
func rawString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case float64:
		if x != math.Trunc(x) || x < -(1<<63) || x >= 1<<63 {
			return 0, false
		}
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case RawRecord:
		return map[string]any(x), true
	}
	return nil, false
}

// toList accepts a sequence, or a lone mapping as a one-element sequence.
func toList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []map[string]any:
		out := make([]any, 0, len(x))
		for _, m := range x {
			out = append(out, m)
		}
		return out, true
	case []RawRecord:
		out := make([]any, 0, len(x))
		for _, m := range x {
			out = append(out, m)
		}
		return out, true
	case map[string]any, RawRecord:
		return []any{x}, true
	}
	return nil, false
}
