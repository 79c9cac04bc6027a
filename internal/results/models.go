package results

// RawRecord is one decoded scan as produced by the payload decoders. Keys are
// already folded to snake_case.
type RawRecord map[string]any

type TestResult struct {
	TestID          int64   `json:"test_id"`
	StudentNumber   int64   `json:"student_number"`
	ScannedOn       string  `json:"scanned_on"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	MarksAvailable  float64 `json:"marks_available"`
	MarksObtained   float64 `json:"marks_obtained"`
	PercentageScore string  `json:"percentage_score"` // fixed to 2 decimals
}

// Outcome reports what one import call did to the store.
type Outcome struct {
	Warnings []string     `json:"warnings"`
	Updated  []TestResult `json:"updated"`
	Added    []TestResult `json:"added"`
}

func newOutcome() Outcome {
	return Outcome{Warnings: []string{}, Updated: []TestResult{}, Added: []TestResult{}}
}

// Aggregate summarises percentage scores for one test.
type Aggregate struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Count  int     `json:"count"`
}

// Field names a TestResult column that UpdateTestResult may overwrite.
type Field string

const (
	FieldScannedOn       Field = "scanned_on"
	FieldFirstName       Field = "first_name"
	FieldLastName        Field = "last_name"
	FieldMarksAvailable  Field = "marks_available"
	FieldMarksObtained   Field = "marks_obtained"
	FieldPercentageScore Field = "percentage_score"
)

// ScoreFields are the only columns a higher-quality rescan overwrites.
// Identity fields stay as first received.
var ScoreFields = []Field{FieldMarksObtained, FieldMarksAvailable, FieldPercentageScore}

func (f Field) valid() bool {
	switch f {
	case FieldScannedOn, FieldFirstName, FieldLastName,
		FieldMarksAvailable, FieldMarksObtained, FieldPercentageScore:
		return true
	}
	return false
}

// value returns the field's value on r, for building UPDATE statements.
func (f Field) value(r TestResult) any {
	switch f {
	case FieldScannedOn:
		return r.ScannedOn
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldMarksAvailable:
		return r.MarksAvailable
	case FieldMarksObtained:
		return r.MarksObtained
	case FieldPercentageScore:
		return r.PercentageScore
	}
	return nil
}

// apply copies the field from src onto dst.
func (f Field) apply(dst *TestResult, src TestResult) {
	switch f {
	case FieldScannedOn:
		dst.ScannedOn = src.ScannedOn
	case FieldFirstName:
		dst.FirstName = src.FirstName
	case FieldLastName:
		dst.LastName = src.LastName
	case FieldMarksAvailable:
		dst.MarksAvailable = src.MarksAvailable
	case FieldMarksObtained:
		dst.MarksObtained = src.MarksObtained
	case FieldPercentageScore:
		dst.PercentageScore = src.PercentageScore
	}
}
