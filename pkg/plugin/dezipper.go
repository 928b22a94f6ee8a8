package plugin

import "math"

// rampSeconds is the de-zipper and bypass-crossfade transition time used
// throughout the host (spec.md §3/§4.3.2: "approximately 100 ms").
const rampSeconds = 0.1

// MinusInfinityDB is the clamp threshold below which a dB-domain volume is
// treated as silence rather than a very small gain (spec.md §4.4: "-60dB
// interpreted as -infinity" generalizes to every dB-domain control).
const MinusInfinityDB = -60.0

func dbToLinear(db float64) float64 {
	if db <= MinusInfinityDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// Dezipper is a first-order linear slew in the dB domain (spec.md §3:
// "target value, current value, per-sample delta, sample rate, minimum-dB
// threshold"), used by the C5 runtime for input/output volume.
type Dezipper struct {
	sampleRate  float64
	currentDB   float64
	targetDB    float64
	deltaDB     float64
	remaining   int
	rampSamples int
}

// NewDezipper creates a dezipper already settled at initialDB.
func NewDezipper(sampleRate float64, initialDB float64) *Dezipper {
	d := &Dezipper{
		sampleRate:  sampleRate,
		currentDB:   initialDB,
		targetDB:    initialDB,
		rampSamples: int(rampSeconds * sampleRate),
	}
	if d.rampSamples < 1 {
		d.rampSamples = 1
	}
	return d
}

// SetTargetDB arms a new ~100ms ramp toward targetDB. Calling it again with
// the value already reached, or already targeted, is a no-op — it does not
// restart the ramp (mirrors the bypass-mixer idempotence requirement,
// spec.md §8 scenario S3).
func (d *Dezipper) SetTargetDB(targetDB float64) {
	if d.targetDB == targetDB {
		return
	}
	d.targetDB = targetDB
	d.deltaDB = (targetDB - d.currentDB) / float64(d.rampSamples)
	d.remaining = d.rampSamples
}

// Reset snaps the dezipper to db immediately, with no ramp.
func (d *Dezipper) Reset(db float64) {
	d.currentDB = db
	d.targetDB = db
	d.remaining = 0
}

// NextGain advances one sample and returns the linear gain to apply.
func (d *Dezipper) NextGain() float64 {
	if d.remaining > 0 {
		d.currentDB += d.deltaDB
		d.remaining--
		if d.remaining == 0 {
			d.currentDB = d.targetDB
		}
	}
	return dbToLinear(d.currentDB)
}
