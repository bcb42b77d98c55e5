package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	wav "github.com/youpy/go-wav"
)

const renderBitsPerSample = 16

// RenderWAV plays notes together for hold, releases them and keeps rendering
// for tail, writing the result as 16-bit mono PCM.
func RenderWAV(w io.Writer, p *Params, notes []int, velocity int, hold time.Duration, tail time.Duration) error {
	if velocity < 0 || velocity > 127 {
		return fmt.Errorf("velocity out of range: %d", velocity)
	}
	for _, note := range notes {
		if note < 0 || note > 127 {
			return fmt.Errorf("note out of range: %d", note)
		}
	}
	if hold < 0 || tail < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	s := NewSynth(p)
	holdFrames := int(hold.Seconds() * p.sampleRate)
	totalFrames := holdFrames + int(tail.Seconds()*p.sampleRate)
	writer := wav.NewWriter(w, uint32(totalFrames), 1, uint32(p.sampleRate), renderBitsPerSample)

	for _, note := range notes {
		s.NoteOn(note, velocity)
	}
	block := make([]float64, samplesPerCycle)
	samples := make([]wav.Sample, samplesPerCycle)
	released := false
	for pos := 0; pos < totalFrames; {
		if !released && pos >= holdFrames {
			for _, note := range notes {
				s.NoteOff(note)
			}
			released = true
		}
		end := pos + len(block)
		if !released && end > holdFrames {
			end = holdFrames
		}
		if end > totalFrames {
			end = totalFrames
		}
		out := block[:end-pos]
		s.Fill(out)
		for i, value := range out {
			samples[i].Values[0] = int(toInt16(value))
		}
		if err := writer.WriteSamples(samples[:len(out)]); err != nil {
			return errors.Wrap(err, "failed to write samples")
		}
		pos = end
	}
	return nil
}
