package fichero

import "strings"

// Status is the decoded view of one status byte from the 10 FF 40
// query. Overheating is reported through two independent bits on
// different firmware paths, so both are folded into Overheated.
type Status struct {
	Raw        byte
	Printing   bool
	CoverOpen  bool
	NoPaper    bool
	LowBattery bool
	Overheated bool
	Charging   bool
}

func DecodeStatus(b byte) Status {
	return Status{
		Raw:        b,
		Printing:   b&0x01 != 0,
		CoverOpen:  b&0x02 != 0,
		NoPaper:    b&0x04 != 0,
		LowBattery: b&0x08 != 0,
		Overheated: b&0x10 != 0 || b&0x40 != 0,
		Charging:   b&0x20 != 0,
	}
}

// Ready reports whether the printer can accept a job. Printing, low
// battery and charging don't block a print.
func (s Status) Ready() bool {
	return !(s.CoverOpen || s.NoPaper || s.Overheated)
}

func (s Status) String() string {
	var flags []string
	if s.Printing {
		flags = append(flags, "printing")
	}
	if s.CoverOpen {
		flags = append(flags, "cover open")
	}
	if s.NoPaper {
		flags = append(flags, "no paper")
	}
	if s.LowBattery {
		flags = append(flags, "low battery")
	}
	if s.Overheated {
		flags = append(flags, "overheated")
	}
	if s.Charging {
		flags = append(flags, "charging")
	}
	if len(flags) == 0 {
		return "ready"
	}
	return strings.Join(flags, ", ")
}
