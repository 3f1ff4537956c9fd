package assets

import (
	"encoding/binary"
	"math"
	"sort"
)

const (
	waveSine = iota
	waveSquare
	waveTriangle
)

type note struct {
	freq    float64
	at      float64
	length  float64
	wave    int
	gain    float64
	release float64
}

// Built-in sounds, as sequences of notes.
var synthSounds = map[string][]note{
	"chime": {
		{freq: 880, length: 0.35, wave: waveSine, gain: 0.4, release: 0.3},
		{freq: 1318.5, at: 0.08, length: 0.45, wave: waveSine, gain: 0.3, release: 0.4},
	},
	"pop": {
		{freq: 440, length: 0.06, wave: waveTriangle, gain: 0.5, release: 0.05},
		{freq: 660, at: 0.03, length: 0.06, wave: waveTriangle, gain: 0.4, release: 0.05},
	},
	"coin": {
		{freq: 987.8, length: 0.08, wave: waveSquare, gain: 0.15, release: 0.02},
		{freq: 1318.5, at: 0.08, length: 0.3, wave: waveSquare, gain: 0.15, release: 0.25},
	},
	"boom": {
		{freq: 70, length: 0.6, wave: waveSine, gain: 0.7, release: 0.55},
		{freq: 45, length: 0.8, wave: waveTriangle, gain: 0.4, release: 0.7},
	},
}

// SynthNames lists the built-in synthesized sounds.
func SynthNames() []string {
	names := make([]string, 0, len(synthSounds))
	for name := range synthSounds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Synth renders a built-in sound as 16-bit little endian stereo PCM at
// SampleRate.
func Synth(name string) ([]byte, bool) {
	notes, ok := synthSounds[name]
	if !ok {
		return nil, false
	}
	end := 0.0
	for _, n := range notes {
		end = math.Max(end, n.at+n.length)
	}
	mix := make([]float64, int(end*SampleRate)+1)
	for _, n := range notes {
		buf := oscillator(n.wave, n.freq, int(n.length*SampleRate))
		applyEnvelope(buf, 0.005, n.release)
		off := int(n.at * SampleRate)
		for i, s := range buf {
			mix[off+i] += s * n.gain
		}
	}
	return toPCM(mix), true
}

// oscillator generates raw waveform samples.
func oscillator(wave int, freq float64, samples int) []float64 {
	buf := make([]float64, samples)
	phase := 0.0
	inc := freq / SampleRate
	for i := range buf {
		switch wave {
		case waveSine:
			buf[i] = math.Sin(2 * math.Pi * phase)
		case waveSquare:
			if phase < 0.5 {
				buf[i] = 1
			} else {
				buf[i] = -1
			}
		case waveTriangle:
			buf[i] = 4*math.Abs(phase-0.5) - 1
		}
		phase += inc
		if phase >= 1 {
			phase--
		}
	}
	return buf
}

// applyEnvelope applies a linear attack and release in place.
func applyEnvelope(buf []float64, attackSec, releaseSec float64) {
	total := len(buf)
	attack := int(attackSec * SampleRate)
	release := int(releaseSec * SampleRate)
	releaseStart := max(total-release, attack)
	for i := range buf {
		vol := 1.0
		if i < attack && attack > 0 {
			vol = float64(i) / float64(attack)
		} else if i >= releaseStart && release > 0 {
			vol = float64(total-i) / float64(release)
		}
		buf[i] *= vol
	}
}

func toPCM(mono []float64) []byte {
	out := make([]byte, len(mono)*4)
	for i, s := range mono {
		s = math.Max(-1, math.Min(1, s))
		v := uint16(int16(s * math.MaxInt16))
		binary.LittleEndian.PutUint16(out[i*4:], v)
		binary.LittleEndian.PutUint16(out[i*4+2:], v)
	}
	return out
}
