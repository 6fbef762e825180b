package pptxunlock

import (
	"fmt"
	"strings"
	"time"
)

// TargetEntry is the package path of the presentation part that carries the
// modify-password verifier.
const TargetEntry = "ppt/presentation.xml"

const (
	VersionV1 uint16 = 1

	backupHeaderSizeV1 uint32 = 64
)

// BackupMagic is the 8-byte backup file signature.
var BackupMagic = [8]byte{'P', 'P', 'T', 'X', 'B', 'A', 'K', 0x1A}

type Compression uint16

const (
	CompNone Compression = 0x0
	CompZIP  Compression = 0x1
	CompZSTD Compression = 0x2
	CompLZ4  Compression = 0x3
	CompBR   Compression = 0x4
)

// backupFlagCompressionMask selects the Compression bits of the header
// flags. The remaining bits are reserved and must be zero.
const backupFlagCompressionMask uint16 = 0x000F

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompZIP:
		return "zip"
	case CompZSTD:
		return "zstd"
	case CompLZ4:
		return "lz4"
	case CompBR:
		return "brotli"
	default:
		return "unknown"
	}
}

// ParseCompression maps a codec name to its Compression value.
// "br" is accepted as an alias for "brotli".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompNone, nil
	case "zip":
		return CompZIP, nil
	case "zstd":
		return CompZSTD, nil
	case "lz4":
		return CompLZ4, nil
	case "brotli", "br":
		return CompBR, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// Entry is one member of a package.
//
// Name is the slash-separated member name; directory entries end in "/" and
// carry no data. Modified, Comment and ExternalAttrs are copied through on
// rewrite. Method records the method the entry was stored with and is
// informational only: entries are always written back with Deflate.
type Entry struct {
	Name          string
	Data          []byte
	Modified      time.Time
	Comment       string
	ExternalAttrs uint32
	Method        uint16
}

// IsDir reports whether the entry is a directory marker.
func (e Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// Package is an ordered set of entries read from or written to a ZIP
// container. Entry names are unique.
type Package struct {
	Comment string
	Entries []Entry
}

// Lookup returns the entry named name.
func (p *Package) Lookup(name string) (*Entry, bool) {
	for i := range p.Entries {
		if p.Entries[i].Name == name {
			return &p.Entries[i], true
		}
	}
	return nil, false
}

// Names returns the entry names in package order.
func (p *Package) Names() []string {
	names := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		names[i] = e.Name
	}
	return names
}

// Result describes a completed patch.
//
// Output holds the rewritten package. Source, Destination and Backup are only
// set by PatchFile; Backup is empty when no backup was written.
type Result struct {
	Source      string
	Destination string
	Backup      string
	Output      []byte
	Removed     int
	Entries     []string
}
