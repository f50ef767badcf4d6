package wimax

import (
	"math"
	"testing"
)

func TestRoundFloatClearsAccumulationError(t *testing.T) {
	if got := roundFloat(0.1+0.2, rdigits); got != 0.3 {
		t.Errorf("roundFloat(0.1 + 0.2) = %.17f, want 0.3", got)
	}
	if got := roundFloat(0.02+0.02, rdigits); got != 0.04 {
		t.Errorf("roundFloat(0.02 + 0.02) = %.17f, want 0.04", got)
	}
}

func TestExpRV(t *testing.T) {
	if got := expRV(0.0, 2.0); got != 0.0 {
		t.Errorf("expRV(0, 2) = %f, want 0", got)
	}
	// u = 1 - 1/e maps to exactly one mean interarrival
	if got := expRV(1.0-1.0/math.E, 1.0); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("expRV(1 - 1/e, 1) = %.17f, want 1", got)
	}
	if got := sampleExpRV(1.0-1.0/math.E, []float64{4.0}); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("sampleExpRV at rate 4 = %.17f, want 0.25", got)
	}
}

func TestCreateFlowSizeCdfValidation(t *testing.T) {
	good := []CdfPoint{{Bytes: 0, Pct: 0.0}, {Bytes: 1000, Pct: 50.0}, {Bytes: 2000, Pct: 100.0}}
	if _, err := CreateFlowSizeCdf(good); err != nil {
		t.Fatalf("valid CDF rejected: %v", err)
	}

	bad := [][]CdfPoint{
		{{Bytes: 100, Pct: 100.0}},
		{{Bytes: 0, Pct: 0.0}, {Bytes: 1000, Pct: 60.0}, {Bytes: 2000, Pct: 40.0}},
		{{Bytes: 0, Pct: 0.0}, {Bytes: 2000, Pct: 50.0}, {Bytes: 1000, Pct: 100.0}},
		{{Bytes: 0, Pct: 0.0}, {Bytes: 1000, Pct: 99.0}},
	}
	for idx, points := range bad {
		if _, err := CreateFlowSizeCdf(points); err == nil {
			t.Errorf("malformed CDF %d accepted", idx)
		}
	}
}

func TestHadoopCdfInterpolation(t *testing.T) {
	cdf := HadoopCdf()

	cases := []struct {
		u01  float64
		want uint32
	}{
		{0.0, 0},
		{0.005, 50},   // halfway between the 0 and 100 byte points
		{0.1, 325},    // halfway between the 300 and 350 byte points
		{0.5, 700},    // the 50th percentile point exactly
		{1.0, 10000000},
	}
	for _, tc := range cases {
		if got := cdf.SampleBytes(tc.u01); got != tc.want {
			t.Errorf("SampleBytes(%f) = %d, want %d", tc.u01, got, tc.want)
		}
	}
}

func TestHadoopCdfAvgBytes(t *testing.T) {
	// the discrete mean of the table, worked by hand
	if got := HadoopCdf().AvgBytes(); math.Abs(got-183897.0) > 1e-6 {
		t.Errorf("AvgBytes = %f, want 183897", got)
	}
}

func TestOfferedLoadRate(t *testing.T) {
	phy := &unitPhy{frameDur: 0.010}
	grant := &UplinkGrant{Symbols: 100, Mod: QPSK12, Hdr: HdrGeneric}

	// 100 bytes per 10ms frame drains 10000 bytes per second; at half load
	// and 100 byte SDUs that is 50 arrivals per second
	if got := OfferedLoadRate(phy, grant, 0.5, 100.0); math.Abs(got-50.0) > 1e-9 {
		t.Errorf("OfferedLoadRate = %f, want 50", got)
	}
}

func TestIncastEpochRate(t *testing.T) {
	phy := &unitPhy{frameDur: 0.010}
	grant := &UplinkGrant{Symbols: 100, Mod: QPSK12, Hdr: HdrGeneric}

	// each epoch presents 4 x 500 = 2000 bytes against a 10000 B/s drain
	if got := IncastEpochRate(phy, grant, 0.2, 4, 500); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("IncastEpochRate = %f, want 1", got)
	}
}

func TestTrafficGenRejectsNonPositiveRate(t *testing.T) {
	ClearState()
	ss := CreateSubscriberStation("", CreateOfdmPhy(0.0), nil, nil)
	sf := ss.AddServiceFlow("web", SfBE, 0.0, 0)

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a zero arrival rate")
		}
	}()
	CreateTrafficGen(ss, sf, nil, 100, 0.0, 1.0)
}
