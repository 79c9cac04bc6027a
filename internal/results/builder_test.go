package results

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func rawScan(student, testID string, available, obtained any, answers ...any) RawRecord {
	if answers == nil {
		answers = []any{}
	}
	return RawRecord{
		"scanned_on":     "2017-12-04T12:12:10+11:00",
		"first_name":     "Jane",
		"last_name":      "Austen",
		"student_number": student,
		"test_id":        testID,
		"answer":         answers,
		"summary_marks":  map[string]any{"available": available, "obtained": obtained},
	}
}

func answer(q string, awarded any) map[string]any {
	return map[string]any{"question": q, "marks_awarded": awarded}
}

func TestBuildTestResult(t *testing.T) {
	im := NewImporter(nil)
	tr, err := im.BuildTestResult(rawScan("002299", "9863", "20", "8"))
	if err != nil {
		t.Fatalf("BuildTestResult: %v", err)
	}
	want := TestResult{
		TestID:          9863,
		StudentNumber:   2299,
		ScannedOn:       "2017-12-04T12:12:10+11:00",
		FirstName:       "Jane",
		LastName:        "Austen",
		MarksAvailable:  20,
		MarksObtained:   8,
		PercentageScore: "40.00",
	}
	if tr != want {
		t.Fatalf("got %+v\nwant %+v", tr, want)
	}
}

func TestBuildTestResult_JSONNumbers(t *testing.T) {
	im := NewImporter(nil)
	raw := rawScan("", "", json.Number("3"), json.Number("2"))
	raw["student_number"] = json.Number("521585128")
	raw["test_id"] = json.Number("1234")
	tr, err := im.BuildTestResult(raw)
	if err != nil {
		t.Fatalf("BuildTestResult: %v", err)
	}
	if tr.StudentNumber != 521585128 || tr.TestID != 1234 || tr.PercentageScore != "66.67" {
		t.Fatalf("unexpected result %+v", tr)
	}
}

func TestBuildTestResult_ZeroValuesArePresent(t *testing.T) {
	im := NewImporter(nil)
	tr, err := im.BuildTestResult(rawScan("0", "0", "20", "0"))
	if err != nil {
		t.Fatalf("zero ids and empty answers should be accepted: %v", err)
	}
	if tr.TestID != 0 || tr.StudentNumber != 0 || tr.PercentageScore != "0.00" {
		t.Fatalf("unexpected result %+v", tr)
	}
}

func TestBuildTestResult_MissingFields(t *testing.T) {
	im := NewImporter(nil)
	for _, field := range RequiredFields {
		t.Run(field, func(t *testing.T) {
			raw := rawScan("2299", "9863", "20", "8")
			delete(raw, field)
			_, err := im.BuildTestResult(raw)
			var ip *InvalidPayloadError
			if !errors.As(err, &ip) {
				t.Fatalf("want InvalidPayloadError, got %v", err)
			}
			if !reflect.DeepEqual(ip.Missing, []string{field}) {
				t.Fatalf("missing = %v, want [%s]", ip.Missing, field)
			}
		})
	}
}

func TestBuildTestResult_BlankAndNilAreMissing(t *testing.T) {
	im := NewImporter(nil)
	raw := rawScan("2299", "   ", "20", "8")
	raw["first_name"] = nil
	_, err := im.BuildTestResult(raw)
	var ip *InvalidPayloadError
	if !errors.As(err, &ip) {
		t.Fatalf("want InvalidPayloadError, got %v", err)
	}
	if !reflect.DeepEqual(ip.Missing, []string{"first_name", "test_id"}) {
		t.Fatalf("missing = %v", ip.Missing)
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "Invalid Test: missing values first_name,test_id") {
		t.Fatalf("message = %q", msg)
	}
	if !strings.Contains(msg, "student_id:2299") {
		t.Fatalf("message should name the student: %q", msg)
	}
}

func TestBuildTestResult_InvalidValues(t *testing.T) {
	im := NewImporter(nil)
	cases := []struct {
		name string
		raw  RawRecord
		want []string
	}{
		{"non-numeric student", rawScan("abc", "9863", "20", "8"), []string{"student_number"}},
		{"fractional test id", rawScan("2299", "98.5", "20", "8"), []string{"test_id"}},
		{"zero available", rawScan("2299", "9863", "0", "0"), []string{"summary_marks.available"}},
		{"non-numeric obtained", rawScan("2299", "9863", "20", "lots"), []string{"summary_marks.obtained"}},
		{"summary not a map", func() RawRecord {
			r := rawScan("2299", "9863", "20", "8")
			r["summary_marks"] = "20/8"
			return r
		}(), []string{"summary_marks"}},
		{"test id beyond int64", func() RawRecord {
			r := rawScan("2299", "9863", "20", "8")
			r["test_id"] = 1e19
			return r
		}(), []string{"test_id"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := im.BuildTestResult(tc.raw)
			var ip *InvalidPayloadError
			if !errors.As(err, &ip) {
				t.Fatalf("want InvalidPayloadError, got %v", err)
			}
			if len(ip.Missing) != 0 || !reflect.DeepEqual(ip.Invalid, tc.want) {
				t.Fatalf("missing=%v invalid=%v, want invalid %v", ip.Missing, ip.Invalid, tc.want)
			}
		})
	}
}

func TestBuildTestResult_ConsistencyWarnings(t *testing.T) {
	log, hook := test.NewNullLogger()
	im := NewImporter(log)

	// one answer against 2 available, awarded 1 against 2 obtained
	_, err := im.BuildTestResult(rawScan("2299", "9863", "2", "2", answer("1", "1")))
	if err != nil {
		t.Fatalf("inconsistent summaries are still accepted: %v", err)
	}
	var msgs []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			msgs = append(msgs, e.Message)
		}
	}
	want := []string{"available does not match", "obtained does not match"}
	if !reflect.DeepEqual(msgs, want) {
		t.Fatalf("warnings = %v, want %v", msgs, want)
	}

	hook.Reset()
	_, err = im.BuildTestResult(rawScan("2299", "9863", "2", "1", answer("1", "1"), answer("2", "0")))
	if err != nil {
		t.Fatalf("BuildTestResult: %v", err)
	}
	if n := len(hook.AllEntries()); n != 0 {
		t.Fatalf("consistent scan logged %d entries", n)
	}
}

func TestBuildTestResult_SingleAnswerMap(t *testing.T) {
	log, hook := test.NewNullLogger()
	im := NewImporter(log)
	raw := rawScan("2299", "9863", "1", "1")
	raw["answer"] = answer("1", "1")
	if _, err := im.BuildTestResult(raw); err != nil {
		t.Fatalf("BuildTestResult: %v", err)
	}
	if n := len(hook.AllEntries()); n != 0 {
		t.Fatalf("a lone answer should count as one: %d log entries", n)
	}
}

func TestPercentageScore(t *testing.T) {
	cases := []struct {
		obtained, available float64
		want                string
	}{
		{8, 20, "40.00"},
		{13, 20, "65.00"},
		{2, 3, "66.67"},
		{1, 3, "33.33"},
		{20, 20, "100.00"},
		{0, 7, "0.00"},
	}
	for _, tc := range cases {
		if got := PercentageScore(tc.obtained, tc.available); got != tc.want {
			t.Errorf("PercentageScore(%v, %v) = %q, want %q", tc.obtained, tc.available, got, tc.want)
		}
	}
}

func TestBuildTestResult_ScalarAnswerIsDiagnosed(t *testing.T) {
	log, hook := test.NewNullLogger()
	im := NewImporter(log)
	raw := rawScan("2299", "9863", "1", "1")
	raw["answer"] = "A"

	tr, err := im.BuildTestResult(raw)
	if err != nil {
		t.Fatalf("a bare answer must not reject the record: %v", err)
	}
	if tr.PercentageScore != "100.00" {
		t.Fatalf("result = %+v", tr)
	}
	var msgs []string
	for _, e := range hook.AllEntries() {
		msgs = append(msgs, e.Message)
	}
	// one answer matches available, but there is nothing to sum
	if !reflect.DeepEqual(msgs, []string{"obtained does not match"}) {
		t.Fatalf("diagnostics = %v", msgs)
	}
	if hook.LastEntry().Data["score_usable"] != false {
		t.Fatalf("score_usable = %v", hook.LastEntry().Data["score_usable"])
	}
}

func TestToIntRange(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{float64(42), 42, true},
		{-9.223372036854775808e18, -1 << 63, true},
		{9.223372036854775808e18, 0, false},
		{1e19, 0, false},
		{-1e19, 0, false},
		{math.Inf(1), 0, false},
		{math.NaN(), 0, false},
		{json.Number("9223372036854775808"), 0, false},
	}
	for _, tc := range cases {
		got, ok := toInt(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("toInt(%v) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
