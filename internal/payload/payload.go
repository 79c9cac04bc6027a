// Package payload turns scanner exports into raw records for the importer.
//
// Scanners post a document rooted at <mcq-test-results> holding one
// <mcq-test-result> per scanned sheet. Element and attribute names are folded
// to snake_case and attributes are merged into their element, so
//
//	<summary-marks available="20" obtained="8"/>
//
// becomes {"summary_marks": {"available": "20", "obtained": "8"}}. The same
// shape is accepted as JSON.
package payload

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode"

	"github.com/mind-engage/markr/internal/results"
)

const (
	rootElement   = "mcq_test_results"
	recordElement = "mcq_test_result"
	textKey       = "_"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrUnexpectedRoot       = errors.New("unexpected root element")
	ErrNoResults            = errors.New("no mcq-test-result entries")
)

// DecodeError marks a payload that could not be turned into raw records.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string { return e.Format + " payload: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Decode picks a decoder from the request media type. An empty type is
// sniffed from the first non-space byte.
func Decode(contentType string, body []byte) ([]results.RawRecord, error) {
	switch kind(contentType, body) {
	case "xml":
		return DecodeXML(bytes.NewReader(body))
	case "json":
		return DecodeJSON(body)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
}

// Ext is the archive file extension for a media type.
func Ext(contentType string, body []byte) string {
	switch kind(contentType, body) {
	case "xml":
		return ".xml"
	case "json":
		return ".json"
	}
	return ".bin"
}

func kind(contentType string, body []byte) string {
	if strings.TrimSpace(contentType) == "" {
		trimmed := bytes.TrimLeftFunc(body, unicode.IsSpace)
		if len(trimmed) == 0 {
			return ""
		}
		switch trimmed[0] {
		case '<':
			return "xml"
		case '{', '[':
			return "json"
		}
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch {
	case mt == "text/xml+markr", mt == "text/xml", mt == "application/xml", strings.HasSuffix(mt, "+xml"):
		return "xml"
	case mt == "application/json", strings.HasSuffix(mt, "+json"):
		return "json"
	}
	return ""
}

// records pulls the scan entries out of a folded document tree.
func records(format string, root any) ([]results.RawRecord, error) {
	var entries any
	switch v := root.(type) {
	case []any:
		entries = v
	case map[string]any:
		if inner, ok := v[rootElement]; ok {
			m, ok := inner.(map[string]any)
			if !ok {
				return nil, &DecodeError{Format: format, Err: ErrNoResults}
			}
			entries = m[recordElement]
		} else if e, ok := v[recordElement]; ok {
			entries = e
		} else {
			entries = v // a lone record
		}
	default:
		return nil, &DecodeError{Format: format, Err: ErrNoResults}
	}

	var list []any
	switch v := entries.(type) {
	case nil:
		return nil, &DecodeError{Format: format, Err: ErrNoResults}
	case []any:
		list = v
	default:
		list = []any{v}
	}
	if len(list) == 0 {
		return nil, &DecodeError{Format: format, Err: ErrNoResults}
	}

	out := make([]results.RawRecord, 0, len(list))
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, &DecodeError{Format: format, Err: fmt.Errorf("entry %d is not an object", i)}
		}
		out = append(out, results.RawRecord(m))
	}
	return out, nil
}

// SnakeCase folds "student-number", "studentNumber" and "Student Number" to
// "student_number".
func SnakeCase(s string) string {
	rs := []rune(s)
	var b strings.Builder
	pendingSep := false
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSep = b.Len() > 0
			continue
		}
		if unicode.IsUpper(r) && b.Len() > 0 && i > 0 {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				pendingSep = true
			}
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
