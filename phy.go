package wimax

// phy.go holds the OFDM physical layer abstraction the uplink scheduler
// consumes.  The only PHY behaviors the MAC depends on are the conversion
// between OFDM symbols and bytes under a burst profile, and the frame
// duration that sets the pace of uplink allocations

import (
	"fmt"
	"math"
)

// ModulationType identifies the burst profile (modulation and coding rate)
// used to carry an allocation
type ModulationType int

const (
	BPSK12 ModulationType = iota
	QPSK12
	QPSK34
	QAM16_12
	QAM16_34
	QAM64_23
	QAM64_34
)

// bytesPerSymbol gives the number of uncoded data bytes one OFDM symbol
// carries under each burst profile, for the 256-FFT OFDM PHY with 192
// data subcarriers
var bytesPerSymbol map[ModulationType]uint32 = map[ModulationType]uint32{
	BPSK12:   12,
	QPSK12:   24,
	QPSK34:   36,
	QAM16_12: 48,
	QAM16_34: 72,
	QAM64_23: 96,
	QAM64_34: 108,
}

// modFromStr returns the ModulationType corresponding to a string name for it
func modFromStr(mod string) (ModulationType, error) {
	switch mod {
	case "BPSK_12", "bpsk_12":
		return BPSK12, nil
	case "QPSK_12", "qpsk_12":
		return QPSK12, nil
	case "QPSK_34", "qpsk_34":
		return QPSK34, nil
	case "QAM16_12", "qam16_12":
		return QAM16_12, nil
	case "QAM16_34", "qam16_34":
		return QAM16_34, nil
	case "QAM64_23", "qam64_23":
		return QAM64_23, nil
	case "QAM64_34", "qam64_34":
		return QAM64_34, nil
	}
	return BPSK12, fmt.Errorf("unrecognized modulation type %s", mod)
}

// modToStr returns the string name of a ModulationType
func modToStr(mod ModulationType) string {
	switch mod {
	case BPSK12:
		return "BPSK_12"
	case QPSK12:
		return "QPSK_12"
	case QPSK34:
		return "QPSK_34"
	case QAM16_12:
		return "QAM16_12"
	case QAM16_34:
		return "QAM16_34"
	case QAM64_23:
		return "QAM64_23"
	case QAM64_34:
		return "QAM64_34"
	}
	return "BPSK_12"
}

func (mod ModulationType) String() string {
	return modToStr(mod)
}

// DefaultFrameDuration is the uplink frame length in seconds used when a
// station description does not give one
const DefaultFrameDuration float64 = 0.010

// OfdmPhy holds the PHY state a subscriber station consults while
// scheduling: the frame duration and the symbol/byte conversion tables
type OfdmPhy struct {
	frameDur float64 // seconds
}

// CreateOfdmPhy is a constructor.  The frame duration argument is given in
// milliseconds, as station descriptions express it; a non-positive value
// selects the default
func CreateOfdmPhy(frameDurMsec float64) *OfdmPhy {
	phy := new(OfdmPhy)
	if frameDurMsec <= 0.0 {
		phy.frameDur = DefaultFrameDuration
	} else {
		phy.frameDur = frameDurMsec / 1e3
	}
	return phy
}

// BytesForSymbols converts a symbol count to the number of data bytes those
// symbols carry under the given burst profile.  Monotone non-decreasing in
// the symbol count
func (phy *OfdmPhy) BytesForSymbols(symbols uint16, mod ModulationType) uint32 {
	bps, present := bytesPerSymbol[mod]
	if !present {
		panic(fmt.Errorf("unrecognized modulation type %d", mod))
	}
	return uint32(symbols) * bps
}

// SymbolsForBytes converts a byte count to the number of OFDM symbols needed
// to carry it, rounding up so the running budget subtraction in the
// scheduler never under-reports cost.  Callers convert only byte counts
// bounded by a 16-bit grant, so the uint16 result saturates rather than wraps
func (phy *OfdmPhy) SymbolsForBytes(bytes uint32, mod ModulationType) uint16 {
	bps, present := bytesPerSymbol[mod]
	if !present {
		panic(fmt.Errorf("unrecognized modulation type %d", mod))
	}
	symbols := (bytes + bps - 1) / bps
	if symbols > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(symbols)
}

// FrameDuration returns the uplink frame length in seconds
func (phy *OfdmPhy) FrameDuration() float64 {
	return phy.frameDur
}
