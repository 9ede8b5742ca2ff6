package cursor

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidOperation = errors.New("invalid operation")

// Operation is a legacy operation code.
type Operation uint16

const (
	Open              Operation = 0
	Close             Operation = 1
	Insert            Operation = 2
	Update            Operation = 3
	Delete            Operation = 4
	GetEqual          Operation = 5
	GetNext           Operation = 6
	GetPrevious       Operation = 7
	GetGreater        Operation = 8
	GetGreaterOrEqual Operation = 9
	GetLess           Operation = 10
	GetLessOrEqual    Operation = 11
	GetFirst          Operation = 12
	GetLast           Operation = 13
	Create            Operation = 14
	Stat              Operation = 15
	GetPosition       Operation = 22
	GetDirect         Operation = 23
	StepNext          Operation = 24
	Stop              Operation = 25
	StepFirst         Operation = 33
	StepLast          Operation = 34
	StepPrevious      Operation = 35
)

const (
	keyOnlyBias = 50
	lockBias    = 100
)

var operationNames = map[Operation]string{
	Open:              "Open",
	Close:             "Close",
	Insert:            "Insert",
	Update:            "Update",
	Delete:            "Delete",
	GetEqual:          "GetEqual",
	GetNext:           "GetNext",
	GetPrevious:       "GetPrevious",
	GetGreater:        "GetGreater",
	GetGreaterOrEqual: "GetGreaterOrEqual",
	GetLess:           "GetLess",
	GetLessOrEqual:    "GetLessOrEqual",
	GetFirst:          "GetFirst",
	GetLast:           "GetLast",
	Create:            "Create",
	Stat:              "Stat",
	GetPosition:       "GetPosition",
	GetDirect:         "GetDirect",
	StepNext:          "StepNext",
	Stop:              "Stop",
	StepFirst:         "StepFirst",
	StepLast:          "StepLast",
	StepPrevious:      "StepPrevious",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	base := o.Base()
	if base != o {
		if name, ok := operationNames[base]; ok {
			return name + "+" + strconv.Itoa(int(o-base))
		}
	}
	return "Operation(" + strconv.Itoa(int(o)) + ")"
}

// ParseOperation returns the operation with the given name. A bias may follow
// the name as printed by String, as in "GetEqual+50".
func ParseOperation(name string) (Operation, bool) {
	name, biasText, biased := strings.Cut(name, "+")
	var bias Operation
	if biased {
		b, err := strconv.ParseUint(biasText, 10, 16)
		if err != nil || b%keyOnlyBias != 0 || b >= lockBias*5 {
			return 0, false
		}
		bias = Operation(b)
	}
	for o, n := range operationNames {
		if n == name {
			return o + bias, true
		}
	}
	return 0, false
}

// Base strips the record lock bias (+100 to +400) and the key-only bias (+50).
func (o Operation) Base() Operation {
	o %= lockBias
	if o >= keyOnlyBias {
		o -= keyOnlyBias
	}
	return o
}

// KeyOnly reports whether the caller asked for the key without the record.
func (o Operation) KeyOnly() bool {
	return o%lockBias >= keyOnlyBias
}

// IsSeek reports whether the operation navigates by key.
func (o Operation) IsSeek() bool {
	switch o.Base() {
	case GetEqual, GetNext, GetPrevious, GetGreater, GetGreaterOrEqual, GetLess, GetLessOrEqual, GetFirst, GetLast:
		return true
	}
	return false
}

// IsStep reports whether the operation navigates in physical order.
func (o Operation) IsStep() bool {
	switch o.Base() {
	case StepFirst, StepNext, StepPrevious, StepLast:
		return true
	}
	return false
}

// Direction returns the direction a new query with this operation establishes.
func (o Operation) Direction() (Direction, error) {
	switch o.Base() {
	case GetFirst, GetEqual, GetGreater, GetGreaterOrEqual:
		return Ascending, nil
	case GetLast, GetLess, GetLessOrEqual:
		return Descending, nil
	}
	return 0, ErrInvalidOperation
}
