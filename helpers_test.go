package pptxunlock

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`

	protectedXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldIdLst/>` +
		`<p:modifyVerifier cryptProviderType="rsaAES" cryptAlgorithmClass="hash" cryptAlgorithmType="typeAny" cryptAlgorithmSid="14" spinCount="100000" saltData="c2FsdA==" hashData="aGFzaA=="/>` +
		`<p:notesSz cx="6858000" cy="9144000"/></p:presentation>`

	unprotectedXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldIdLst/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`

	slideXML = `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld/></p:sld>`
)

var fixtureTime = time.Date(2021, 6, 7, 8, 9, 10, 0, time.UTC)

// samplePackage returns a minimal presentation package whose presentation
// part holds presentation.
func samplePackage(presentation string) *Package {
	return &Package{
		Comment: "fixture",
		Entries: []Entry{
			{Name: contentTypesEntry, Data: []byte(contentTypesXML), Modified: fixtureTime},
			{Name: "ppt/", Modified: fixtureTime},
			{Name: TargetEntry, Data: []byte(presentation), Modified: fixtureTime},
			{Name: "ppt/slides/slide1.xml", Data: []byte(slideXML), Modified: fixtureTime, Comment: "first slide"},
			{Name: "ppt/media/image1.png", Data: []byte{0x89, 'P', 'N', 'G', 0x00, 0xFF}, Modified: fixtureTime},
		},
	}
}

func packageBytes(t *testing.T, p *Package) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	return buf.Bytes()
}

func protectedPPTX(t *testing.T) []byte {
	t.Helper()
	return packageBytes(t, samplePackage(protectedXML))
}

func unprotectedPPTX(t *testing.T) []byte {
	t.Helper()
	return packageBytes(t, samplePackage(unprotectedXML))
}

// missingEntryPPTX is a valid ZIP without ppt/presentation.xml.
func missingEntryPPTX(t *testing.T) []byte {
	t.Helper()
	p := samplePackage(protectedXML)
	p.Entries = append(p.Entries[:2], p.Entries[3:]...)
	return packageBytes(t, p)
}

func readBack(t *testing.T, b []byte) *Package {
	t.Helper()
	pkg, err := ReadPackage(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	return pkg
}

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}
