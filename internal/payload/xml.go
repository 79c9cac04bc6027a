package payload

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/mind-engage/markr/internal/results"
)

// DecodeXML reads an <mcq-test-results> document. A single result still
// yields a one-element batch.
func DecodeXML(r io.Reader) ([]results.RawRecord, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("empty document")
			}
			return nil, &DecodeError{Format: "xml", Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue // prolog, comments, whitespace
		}
		name := SnakeCase(se.Name.Local)
		if name != rootElement {
			return nil, &DecodeError{Format: "xml", Err: fmt.Errorf("%w: <%s>", ErrUnexpectedRoot, se.Name.Local)}
		}
		v, err := decodeElement(dec, se)
		if err != nil {
			return nil, &DecodeError{Format: "xml", Err: err}
		}
		return records("xml", map[string]any{rootElement: v})
	}
}

// decodeElement returns a string for text-only elements, otherwise a map of
// attributes and children. Repeated children become []any.
func decodeElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	m := map[string]any{}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		m[SnakeCase(a.Name.Local)] = normalizeSpace(a.Value)
	}

	var text []byte
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			addChild(m, SnakeCase(t.Name.Local), v)
		case xml.CharData:
			text = append(text, t...)
		case xml.EndElement:
			txt := normalizeSpace(string(text))
			if len(m) == 0 {
				return txt, nil
			}
			if txt != "" {
				m[textKey] = txt
			}
			return m, nil
		}
	}
}

func addChild(m map[string]any, name string, v any) {
	cur, ok := m[name]
	if !ok {
		m[name] = v
		return
	}
	if list, ok := cur.([]any); ok {
		m[name] = append(list, v)
		return
	}
	m[name] = []any{cur, v}
}
