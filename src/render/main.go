package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	notesFlag  = flag.String("notes", "60,64,67", "comma separated note numbers played together")
	velocity   = flag.Int("velocity", 100, "note velocity (0-127)")
	hold       = flag.Duration("hold", time.Second, "how long the notes are held")
	tail       = flag.Duration("tail", 500*time.Millisecond, "how long to keep rendering after release")
	sampleRate = flag.Float64("sample-rate", 48000, "sample rate in Hz")
	curve      = flag.String("curve", "linear", "decay and release curve: linear or exponential")
)

func parseNotes(s string) ([]int, error) {
	var notes []int
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		note, err := strconv.Atoi(item)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid note %q", item)
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func render(path string, p *audio.Params, notes []int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output")
	}
	if err := audio.RenderWAV(f, p, notes, *velocity, *hold, *tail); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to render %s", path)
	}
	return f.Close()
}

func main() {
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		panic("dir is not passed")
	}
	log.SetFlags(log.Lshortfile)

	notes, err := parseNotes(*notesFlag)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	dry := audio.NewParams()
	if err := dry.Set("engine", "sample_rate", strconv.FormatFloat(*sampleRate, 'f', -1, 64)); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	if err := dry.Set("adsr", "curve", *curve); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	wet := dry.Clone()
	if err := wet.Set("reverb", "enabled", "true"); err != nil {
		log.Fatalf("error: %v\n", err)
	}

	ctx := context.Background()
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := render(filepath.Join(dir, "dry.wav"), dry, notes)
		log.Println("rendered dry.wav")
		return err
	})
	g.Go(func() error {
		err := render(filepath.Join(dir, "reverb.wav"), wet, notes)
		log.Println("rendered reverb.wav")
		return err
	})
	err = g.Wait()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully rendered.")
}
