package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// lexical
	LexInfo        Code = 1000
	LexUnknownChar Code = 1001
	LexBadNumber   Code = 1002

	// syntax of the textual IR
	SynInfo            Code = 2000
	SynUnexpectedToken Code = 2001
	SynExpectValue     Code = 2002
	SynExpectLabel     Code = 2003
	SynUnknownOp       Code = 2004
	SynUndefinedValue  Code = 2005
	SynDuplicateValue  Code = 2006
	SynUndefinedBlock  Code = 2007
	SynDuplicateBlock  Code = 2008
	SynUnknownFunc     Code = 2009
	SynDuplicateFunc   Code = 2010
	SynUnclosedBrace   Code = 2011
	SynBadArity        Code = 2012

	// IR structure
	IRInfo    Code = 3000
	IRInvalid Code = 3001
	IRNotFlat Code = 3002

	// no-cloning
	NclInfo      Code = 4000
	NclMustClone Code = 4001
	NclMayClone  Code = 4002

	// address analysis
	AddrInfo            Code = 5000
	AddrShapeMismatch   Code = 5001
	AddrIndexOutOfRange Code = 5002
	AddrUnsizedAlloc    Code = 5003
	AddrRecursionLimit  Code = 5004
	AddrArity           Code = 5005
	AddrNoFixpoint      Code = 5006

	// project configuration
	ProjInfo            Code = 6000
	ProjConfigInvalid   Code = 6001
	ProjVersionMismatch Code = 6002

	IOLoadFileError Code = 7001

	ObsInfo    Code = 8000
	ObsTimings Code = 8001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:         "Unknown error",
		LexInfo:             "Lexical information",
		LexUnknownChar:      "Unknown character",
		LexBadNumber:        "Malformed number literal",
		SynInfo:             "Syntax information",
		SynUnexpectedToken:  "Unexpected token",
		SynExpectValue:      "Expected a value reference",
		SynExpectLabel:      "Expected a block label",
		SynUnknownOp:        "Unknown operation",
		SynUndefinedValue:   "Use of undefined value",
		SynDuplicateValue:   "Value defined more than once",
		SynUndefinedBlock:   "Reference to undefined block",
		SynDuplicateBlock:   "Block label defined more than once",
		SynUnknownFunc:      "Call to undefined function",
		SynDuplicateFunc:    "Function defined more than once",
		SynUnclosedBrace:    "Unclosed function body",
		SynBadArity:         "Wrong number of operands",
		IRInfo:              "IR information",
		IRInvalid:           "Malformed IR",
		IRNotFlat:           "Function is not a flat kernel",
		NclInfo:             "No-cloning information",
		NclMustClone:        "qubit is cloned on every path",
		NclMayClone:         "qubit may be cloned",
		AddrInfo:            "Address analysis information",
		AddrShapeMismatch:   "operand has an unexpected address shape",
		AddrIndexOutOfRange: "index out of range",
		AddrUnsizedAlloc:    "allocation size is not a known constant",
		AddrRecursionLimit:  "call depth limit reached",
		AddrArity:           "wrong number of values",
		AddrNoFixpoint:      "analysis did not converge",
		ProjInfo:            "Project information",
		ProjConfigInvalid:   "Invalid project configuration",
		ProjVersionMismatch: "Tool version does not satisfy project requirement",
		IOLoadFileError:     "I/O load file error",
		ObsInfo:             "Observability information",
		ObsTimings:          "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("IR%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("NCL%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("ADR%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
