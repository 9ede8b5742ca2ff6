package record

// FileMetadata holds the fixed properties of a legacy file.
type FileMetadata struct {
	RecordLength         int
	PhysicalRecordLength int
	PageLength           int
}

// Record is one stored record. Position is its stable 1-based physical identity.
type Record struct {
	Position uint32
	Data     []byte
}

// NewRecord creates a new record holding a copy of data.
func NewRecord(position uint32, data []byte) *Record {
	return &Record{
		Position: position,
		Data:     append([]byte{}, data...),
	}
}

// Pad returns data zero padded to length. Longer data is copied unchanged.
func Pad(data []byte, length int) []byte {
	if len(data) >= length {
		return append([]byte{}, data...)
	}
	out := make([]byte, length)
	copy(out, data)
	return out
}
