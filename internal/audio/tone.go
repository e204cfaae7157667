package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// DefaultSampleRate is used when the config does not set one.
const DefaultSampleRate = 44100

// Tone is one square-wave beep, scheduled relative to the cue start
type Tone struct {
	Offset    time.Duration
	Frequency float64 // Hz
	Stop      time.Duration
}

// Envelope shapes every tone: a linear attack from silence to Peak, an
// exponential decay to Floor, then Floor until the tone stops.
type Envelope struct {
	Peak   float64
	Attack time.Duration
	Floor  float64
	Decay  time.Duration // measured from tone start
}

// CompletionCue is three rising beeps.
var CompletionCue = []Tone{
	{Offset: 0, Frequency: 660, Stop: 200 * time.Millisecond},
	{Offset: 200 * time.Millisecond, Frequency: 660, Stop: 200 * time.Millisecond},
	{Offset: 400 * time.Millisecond, Frequency: 880, Stop: 200 * time.Millisecond},
}

// CueEnvelope is the fast-attack, exponential-decay beep shape.
var CueEnvelope = Envelope{
	Peak:   0.2,
	Attack: 10 * time.Millisecond,
	Floor:  0.01,
	Decay:  150 * time.Millisecond,
}

// Cue is a tone sequence together with its rendered PCM.
type Cue struct {
	Tones      []Tone
	SampleRate int
	PCM        []byte // signed 16-bit little-endian mono
}

// NewCue renders tones at sampleRate.
func NewCue(tones []Tone, env Envelope, sampleRate int) Cue {
	return Cue{
		Tones:      tones,
		SampleRate: sampleRate,
		PCM:        Render(tones, env, sampleRate),
	}
}

// Duration is the time until the last tone stops.
func (c Cue) Duration() time.Duration {
	var end time.Duration
	for _, t := range c.Tones {
		if e := t.Offset + t.Stop; e > end {
			end = e
		}
	}
	return end
}

// Gain returns the envelope value t after tone start.
func (e Envelope) Gain(t time.Duration) float64 {
	switch {
	case t < 0:
		return 0
	case t < e.Attack:
		return e.Peak * float64(t) / float64(e.Attack)
	case t < e.Decay:
		frac := float64(t-e.Attack) / float64(e.Decay-e.Attack)
		return e.Peak * math.Pow(e.Floor/e.Peak, frac)
	default:
		return e.Floor
	}
}

// Render mixes tones into 16-bit little-endian mono PCM.
func Render(tones []Tone, env Envelope, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	var end time.Duration
	for _, t := range tones {
		if e := t.Offset + t.Stop; e > end {
			end = e
		}
	}
	total := int(end.Seconds() * float64(sampleRate))
	mix := make([]float64, total)

	for _, tone := range tones {
		start := int(tone.Offset.Seconds() * float64(sampleRate))
		n := int(tone.Stop.Seconds() * float64(sampleRate))
		for i := 0; i < n && start+i < total; i++ {
			t := float64(i) / float64(sampleRate)
			mix[start+i] += squareWave(tone.Frequency, t) * env.Gain(time.Duration(t*float64(time.Second)))
		}
	}

	out := make([]byte, total*2)
	for i, v := range mix {
		v = math.Max(-1, math.Min(1, v))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return out
}

func squareWave(freq, t float64) float64 {
	_, frac := math.Modf(freq * t)
	if frac < 0.5 {
		return 1
	}
	return -1
}
