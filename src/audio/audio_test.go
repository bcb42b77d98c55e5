package audio

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"
)

func TestBenchmark(t *testing.T) {
	polyphony := 10
	times := 1000

	audio := newAudio(NewParams())
	defer func() { expectNoError(t, audio.Close()) }()
	out := make([]byte, bufferSizeInBytes)
	expectNoError(t, audio.update([]string{"set", "adsr", "curve", "exponential"}))
	expectNoError(t, audio.update([]string{"set", "reverb", "enabled", "true"}))
	_, err := audio.Read(out)
	expectNoError(t, err)
	for n := 0; n < polyphony; n++ {
		audio.AddNoteEvent(NoteEvent{Kind: NoteOnKind, Note: 60 + n, Velocity: 100})
	}
	start := time.Now()
	for n := 0; n < times; n++ {
		_, err = audio.Read(out)
		expectNoError(t, err)
	}
	averageProcessTime := float64(time.Since(start).Microseconds()) / float64(times) / 1000
	fmt.Printf("average process time: %.3fms\n", averageProcessTime)
}

func TestReadFansOutToChannels(t *testing.T) {
	audio := newAudio(NewParams())
	audio.AddNoteEvent(NoteEvent{Kind: NoteOnKind, Note: 69, Velocity: 127})
	// more than one block
	buf := make([]byte, bufferSizeInBytes*3)
	n, err := audio.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, len(buf))
	nonZero := false
	for i := 0; i < len(buf); i += bytesPerSample {
		left := buf[i : i+2]
		right := buf[i+2 : i+4]
		if left[0] != right[0] || left[1] != right[1] {
			t.Fatalf("channels differ at frame %d", i/bytesPerSample)
		}
		if left[0] != 0 || left[1] != 0 {
			nonZero = true
		}
	}
	expectEqual(t, nonZero, true)
	expectEqual(t, audio.GetStats().Samples, int64(samplesPerCycle*3))
}

func TestReadAfterCancel(t *testing.T) {
	audio := newAudio(NewParams())
	ctx, cancel := context.WithCancel(context.Background())
	audio.ctx = ctx
	cancel()
	n, err := audio.Read(make([]byte, bufferSizeInBytes))
	expectEqual(t, n, 0)
	expectEqual(t, err, io.EOF)
}

func TestToInt16(t *testing.T) {
	expectEqual(t, toInt16(0), int16(0))
	expectEqual(t, toInt16(1), int16(32767))
	expectEqual(t, toInt16(-1), int16(-32767))
	expectEqual(t, toInt16(1.7), int16(32767))
	expectEqual(t, toInt16(-1.7), int16(-32767))
}

func TestUpdate(t *testing.T) {
	audio := newAudio(NewParams())
	expectNoError(t, audio.update([]string{"note_on", "60", "100"}))
	expectNoError(t, audio.update([]string{"note_on", "64"}))
	expectEqual(t, audio.synth.ActiveVoices(), 2)
	expectEqual(t, audio.synth.voices[64].amplitude, 1.0)
	expectNoError(t, audio.update([]string{"note_off", "60"}))
	expectEqual(t, audio.synth.voices[60].adsr.stage, stageRelease)
	// no voice for this note
	expectNoError(t, audio.update([]string{"note_off", "61"}))

	expectEqual(t, audio.Changes.Has("params"), false)
	expectNoError(t, audio.update([]string{"set", "adsr", "release", "200"}))
	expectEqual(t, audio.Changes.Has("params"), true)
	audio.Changes.Delete("params")
	expectNoError(t, audio.update([]string{"set", "retrigger", "true"}))
	expectNoError(t, audio.update([]string{"set", "gain", "1"}))
	expectNoError(t, audio.update([]string{"params"}))
	expectEqual(t, audio.Changes.Has("params"), true)
	expectEqual(t, audio.synth.params.adsrParams.release, 200.0)
	expectEqual(t, audio.synth.params.retrigger, true)
}

func TestUpdateRejectsBadCommands(t *testing.T) {
	audio := newAudio(NewParams())
	bad := [][]string{
		{},
		{"unknown"},
		{"note_on"},
		{"note_on", "128"},
		{"note_on", "-1"},
		{"note_on", "60", "200"},
		{"note_on", "abc"},
		{"note_off"},
		{"note_off", "300"},
		{"set"},
		{"set", "adsr", "attack"},
		{"set", "adsr", "sustain", "3"},
		{"set", "filter", "freq", "100"},
		{"set", "gain"},
		{"set", "sample_rate", "44100"},
	}
	for _, command := range bad {
		if err := audio.update(command); err == nil {
			t.Errorf("expected an error for %v", command)
		}
	}
	expectEqual(t, audio.synth.ActiveVoices(), 0)
	expectEqual(t, audio.Changes.Has("params"), false)
}

func TestGetParams(t *testing.T) {
	audio := newAudio(NewParams())
	expectNoError(t, audio.update([]string{"set", "reverb", "mix", "0.5"}))
	expectEqual(t, string(audio.GetParams()), string(audio.synth.params.ToJSON()))
}
