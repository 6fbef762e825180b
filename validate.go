package pptxunlock

import (
	"fmt"
	"path"
	"strings"
)

// validateEntryName rejects member names that could escape an extraction
// root. Directory names keep their trailing slash.
func validateEntryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is empty")
	}
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("name must not be absolute")
	}
	if strings.Contains(name, "\\") {
		return fmt.Errorf("name must use forward slashes")
	}
	if len(name) >= 2 && name[1] == ':' {
		return fmt.Errorf("name must not carry a drive letter")
	}
	p := strings.TrimSuffix(name, "/")
	clean := path.Clean(p)
	if clean != p {
		return fmt.Errorf("name must be normalized: %q", clean)
	}
	if clean == "." {
		return fmt.Errorf("name must not be current directory")
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("name must not escape")
	}
	return nil
}

// normalizeEntryName drops "." segments, doubled slashes and inner ".."
// segments that stay inside the package, then applies validateEntryName.
func normalizeEntryName(name string) (string, error) {
	dir := strings.HasSuffix(name, "/")
	clean := path.Clean(strings.TrimSuffix(name, "/"))
	if dir {
		clean += "/"
	}
	if err := validateEntryName(clean); err != nil {
		return "", err
	}
	return clean, nil
}

func validatePackage(p *Package) error {
	if p == nil {
		return fmt.Errorf("%w: package is nil", ErrInvalidArchive)
	}
	seen := make(map[string]struct{}, len(p.Entries))
	for i := range p.Entries {
		e := p.Entries[i]
		if err := validateEntryName(e.Name); err != nil {
			return fmt.Errorf("%w: entry %d %q: %v", ErrInvalidArchive, i, e.Name, err)
		}
		if _, ok := seen[e.Name]; ok {
			return fmt.Errorf("%w: duplicate entry %q", ErrInvalidArchive, e.Name)
		}
		seen[e.Name] = struct{}{}
		if e.IsDir() && len(e.Data) > 0 {
			return fmt.Errorf("%w: directory entry %q has data", ErrInvalidArchive, e.Name)
		}
	}
	return nil
}

func validateBackupHeader(h backupHeaderV1, limits Limits) error {
	if h.Magic != BackupMagic {
		return fmt.Errorf("%w: bad magic", ErrInvalidBackup)
	}
	if h.HeaderSize != backupHeaderSizeV1 {
		return fmt.Errorf("%w: header size %d", ErrInvalidBackup, h.HeaderSize)
	}
	if h.Version != VersionV1 {
		return fmt.Errorf("%w: version %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Flags&^backupFlagCompressionMask != 0 {
		return fmt.Errorf("%w: reserved flag bits set", ErrInvalidBackup)
	}
	comp := h.compression()
	switch comp {
	case CompNone, CompZIP, CompZSTD, CompLZ4, CompBR:
	default:
		return fmt.Errorf("%w: unknown compression %d", ErrInvalidBackup, comp)
	}
	if comp == CompNone && h.PayloadLen != h.OriginalLen {
		return fmt.Errorf("%w: uncompressed payload length %d != original length %d", ErrInvalidBackup, h.PayloadLen, h.OriginalLen)
	}
	if h.OriginalLen > limits.MaxBackupLength {
		return fmt.Errorf("%w: backup original length %d", ErrLimitExceeded, h.OriginalLen)
	}
	if h.PayloadLen > maxBackupPayload(limits) {
		return fmt.Errorf("%w: backup payload length %d", ErrLimitExceeded, h.PayloadLen)
	}
	return nil
}

// maxBackupPayload allows for codecs that expand incompressible input.
func maxBackupPayload(l Limits) uint64 {
	return l.MaxBackupLength + l.MaxBackupLength/8 + 1<<16
}
