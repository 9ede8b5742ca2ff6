package btrieve

import (
	"errors"
	"strconv"

	"github.com/yashagw/btrievedb/internal/cursor"
)

var (
	ErrInvalidKeyNumber = errors.New("invalid key number")
	ErrFileNotFound     = errors.New("file not found")
	ErrFileNotOpen      = errors.New("file not open")
)

// Status is a legacy status code returned to callers of the emulated API.
type Status uint16

const (
	Success                 Status = 0
	InvalidOperation        Status = 1
	IOError                 Status = 2
	FileNotOpen             Status = 3
	KeyValueNotFound        Status = 4
	DuplicateKeyValue       Status = 5
	InvalidKeyNumber        Status = 6
	DifferentKeyNumber      Status = 7
	InvalidPositioning      Status = 8
	EOF                     Status = 9
	NonModifiableKeyValue   Status = 10
	InvalidFileName         Status = 11
	FileNotFound            Status = 12
	ExtendedFileError       Status = 13
	CloseError              Status = 17
	DiskFull                Status = 18
	UnrecoverableError      Status = 19
	KeyBufferTooShort       Status = 21
	DataBufferLengthOverrun Status = 22
	BadRecordLength         Status = 28
	BadKeyLength            Status = 29
	NotBtrieveFile          Status = 30
	OperationNotAllowed     Status = 41
	AccessDenied            Status = 46
	InvalidInterface        Status = 53
)

var statusNames = map[Status]string{
	Success:                 "Success",
	InvalidOperation:        "InvalidOperation",
	IOError:                 "IOError",
	FileNotOpen:             "FileNotOpen",
	KeyValueNotFound:        "KeyValueNotFound",
	DuplicateKeyValue:       "DuplicateKeyValue",
	InvalidKeyNumber:        "InvalidKeyNumber",
	DifferentKeyNumber:      "DifferentKeyNumber",
	InvalidPositioning:      "InvalidPositioning",
	EOF:                     "EOF",
	NonModifiableKeyValue:   "NonModifiableKeyValue",
	InvalidFileName:         "InvalidFileName",
	FileNotFound:            "FileNotFound",
	ExtendedFileError:       "ExtendedFileError",
	CloseError:              "CloseError",
	DiskFull:                "DiskFull",
	UnrecoverableError:      "UnrecoverableError",
	KeyBufferTooShort:       "KeyBufferTooShort",
	DataBufferLengthOverrun: "DataBufferLengthOverrun",
	BadRecordLength:         "BadRecordLength",
	BadKeyLength:            "BadKeyLength",
	NotBtrieveFile:          "NotBtrieveFile",
	OperationNotAllowed:     "OperationNotAllowed",
	AccessDenied:            "AccessDenied",
	InvalidInterface:        "InvalidInterface",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// StatusOf maps the outcome of an operation to the status a legacy caller expects.
// A failed Update maps to DuplicateKeyValue; use Processor.UpdateStatus when
// a missing record has to be reported as InvalidPositioning.
func StatusOf(op cursor.Operation, ok bool, err error) Status {
	if err != nil {
		return StatusOfError(err)
	}
	if ok {
		return Success
	}

	base := op.Base()
	switch {
	case base == cursor.Insert, base == cursor.Update:
		return DuplicateKeyValue
	case base == cursor.Delete, base == cursor.GetPosition, base == cursor.GetDirect:
		return InvalidPositioning
	case base == cursor.GetEqual:
		return KeyValueNotFound
	case base.IsSeek(), base.IsStep():
		return EOF
	}
	return InvalidOperation
}

// StatusOfError maps an error returned by a processor to a status.
func StatusOfError(err error) Status {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrInvalidKeyNumber):
		return InvalidKeyNumber
	case errors.Is(err, cursor.ErrInvalidOperation):
		return InvalidOperation
	case errors.Is(err, ErrFileNotOpen):
		return FileNotOpen
	case errors.Is(err, ErrFileNotFound):
		return FileNotFound
	}
	return IOError
}
