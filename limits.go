package pptxunlock

type Limits struct {
	MaxEntries      int
	MaxEntrySize    uint64 // uncompressed bytes of a single entry
	MaxTotalSize    uint64 // uncompressed bytes across all entries
	MaxTargetSize   uint64 // uncompressed bytes of ppt/presentation.xml
	MaxBackupLength uint64 // original bytes carried by a backup
}

func defaultLimits() Limits {
	return Limits{
		MaxEntries:      65_535,
		MaxEntrySize:    1 << 30, // 1 GiB
		MaxTotalSize:    4 << 30, // 4 GiB
		MaxTargetSize:   64 << 20,
		MaxBackupLength: 4 << 30,
	}
}

// DefaultLimits returns the limits applied when none are configured.
func DefaultLimits() Limits {
	return defaultLimits()
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxEntries == 0 {
		l.MaxEntries = d.MaxEntries
	}
	if l.MaxEntrySize == 0 {
		l.MaxEntrySize = d.MaxEntrySize
	}
	if l.MaxTotalSize == 0 {
		l.MaxTotalSize = d.MaxTotalSize
	}
	if l.MaxTargetSize == 0 {
		l.MaxTargetSize = d.MaxTargetSize
	}
	if l.MaxBackupLength == 0 {
		l.MaxBackupLength = d.MaxBackupLength
	}
	return l
}
