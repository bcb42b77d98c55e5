package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"sync"

	"github.com/hajimehoshi/oto"
	"github.com/pkg/errors"
)

const (
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	maxPoly         = 128
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const baseFreq = 440.0

// ----- Utility ----- //

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- Changes ----- //

// Changes records which pieces of state a client should be told about.
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- Audio ----- //

// Audio streams a Synth to the output device as 16-bit interleaved PCM.
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	synth      *Synth
	Changes    *Changes
	block      []float64 // length: samplesPerCycle
}

var _ io.Reader = (*Audio)(nil)

func newAudio(p *Params) *Audio {
	return &Audio{
		ctx:       context.Background(),
		CommandCh: make(chan []string, 256),
		synth:     NewSynth(p),
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		block: make([]float64, samplesPerCycle),
	}
}

// NewAudio opens the output device at p's sample rate.
func NewAudio(p *Params) (*Audio, error) {
	otoContext, err := oto.NewContext(int(p.sampleRate), channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open audio output")
	}
	audio := newAudio(p)
	audio.otoContext = otoContext
	go processCommands(audio, audio.CommandCh)
	return audio, nil
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	bufSamples := len(buf) / bytesPerSample
	for offset := 0; offset < bufSamples; {
		n := bufSamples - offset
		if n > len(a.block) {
			n = len(a.block)
		}
		out := a.block[:n]
		a.synth.Fill(out)
		for ch := 0; ch < channelNum; ch++ {
			writeBuffer(out, buf[offset*bytesPerSample:], ch)
		}
		offset += n
	}
	return bufSamples * bytesPerSample, nil
}

func writeBuffer(out []float64, buf []byte, ch int) {
	for i, value := range out {
		b := toInt16(value)
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}

// reverb feedback may push the mix past full scale
func toInt16(value float64) int16 {
	const max = 32767
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	return int16(value * max)
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("failed to process command %v: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func parseNote(s string) (int, error) {
	note, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("note out of range: %d", note)
	}
	return int(note), nil
}

func parseVelocity(s string) (int, error) {
	velocity, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if velocity < 0 || velocity > 127 {
		return 0, fmt.Errorf("velocity out of range: %d", velocity)
	}
	return int(velocity), nil
}

func (a *Audio) update(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "set":
		command = command[1:]
		if len(command) == 0 {
			return fmt.Errorf("missing target for set")
		}
		switch command[0] {
		case "adsr", "reverb":
			group := command[0]
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := a.synth.SetParam(group, command[0], command[1]); err != nil {
				return err
			}
		case "gain", "retrigger":
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := a.synth.SetParam("engine", command[0], command[1]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown set target %v", command[0])
		}
		a.Changes.Add("params")
	case "params":
		a.Changes.Add("params")
	case "note_on":
		if len(command) < 2 || len(command) > 3 {
			return fmt.Errorf("usage: note_on <note> [velocity]")
		}
		note, err := parseNote(command[1])
		if err != nil {
			return err
		}
		velocity := 127
		if len(command) == 3 {
			velocity, err = parseVelocity(command[2])
			if err != nil {
				return err
			}
		}
		a.AddNoteEvent(NoteEvent{Kind: NoteOnKind, Note: note, Velocity: velocity})
	case "note_off":
		if len(command) != 2 {
			return fmt.Errorf("usage: note_off <note>")
		}
		note, err := parseNote(command[1])
		if err != nil {
			return err
		}
		a.AddNoteEvent(NoteEvent{Kind: NoteOffKind, Note: note})
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start pumps samples to the device until ctx is done.
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// GetStats ...
func (a *Audio) GetStats() Stats {
	return a.synth.Stats()
}

// GetParams ...
func (a *Audio) GetParams() json.RawMessage {
	return a.synth.ParamsJSON()
}

// AddMidiEvent applies a raw MIDI message. Messages other than note on/off are dropped.
func (a *Audio) AddMidiEvent(data []byte) {
	e, ok := DecodeNoteEvent(data)
	if !ok {
		return
	}
	a.AddNoteEvent(e)
}

// AddNoteEvent applies e before the next block is generated.
func (a *Audio) AddNoteEvent(e NoteEvent) {
	switch e.Kind {
	case NoteOnKind:
		a.synth.NoteOn(e.Note, e.Velocity)
		log.Printf("note on: %d (%.2f Hz), velocity: %d\n", e.Note, noteToFreq(e.Note), e.Velocity)
	case NoteOffKind:
		a.synth.NoteOff(e.Note)
		log.Printf("note off: %d\n", e.Note)
	}
}
