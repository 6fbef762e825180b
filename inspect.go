package pptxunlock

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

type EntryInfo struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Method uint16 `json:"method"`
	Dir    bool   `json:"dir,omitempty"`
}

// Verifier is one modifyVerifier element as found in ppt/presentation.xml.
// Attributes are keyed by local name (cryptAlgorithmSid, spinCount, ...).
type Verifier struct {
	Raw        string            `json:"raw"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Report describes a package without modifying it.
type Report struct {
	Entries   []EntryInfo `json:"entries"`
	HasTarget bool        `json:"has_target"`
	Verifiers []Verifier  `json:"verifiers"`
}

// Protected reports whether the package carries a modify password.
func (r *Report) Protected() bool { return len(r.Verifiers) > 0 }

// Inspect lists the entries of the package in src and the verifier elements
// of its presentation part. A package without ppt/presentation.xml is
// reported with HasTarget false rather than as an error.
func Inspect(src []byte, opts ...Option) (*Report, error) {
	cfg := newConfig(opts)
	pkg, err := readPackage(bytes.NewReader(src), int64(len(src)), cfg.limits)
	if err != nil {
		return nil, classify(err)
	}
	return inspectPackage(pkg), nil
}

// InspectFile is Inspect over the file at path.
func InspectFile(path string, opts ...Option) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, classify(err)
	}
	return Inspect(b, opts...)
}

func inspectPackage(pkg *Package) *Report {
	r := &Report{Entries: make([]EntryInfo, 0, len(pkg.Entries))}
	for _, e := range pkg.Entries {
		r.Entries = append(r.Entries, EntryInfo{
			Name:   e.Name,
			Size:   len(e.Data),
			Method: e.Method,
			Dir:    e.IsDir(),
		})
	}
	e, ok := pkg.Lookup(TargetEntry)
	if !ok || e.IsDir() {
		return r
	}
	r.HasTarget = true
	for _, raw := range verifierPattern.FindAllString(string(e.Data), -1) {
		r.Verifiers = append(r.Verifiers, Verifier{Raw: raw, Attributes: verifierAttributes(raw)})
	}
	return r
}

// verifierAttributes parses the attributes of a single self-closing element.
// Malformed markup yields nil.
func verifierAttributes(raw string) map[string]string {
	dec := xml.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return nil
	}
	attrs := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		attrs[a.Name.Local] = a.Value
	}
	return attrs
}
