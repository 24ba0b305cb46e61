// Command goboyplot renders a recorded APU output stream to a PNG
// waveform image, for debugging channel mixing and envelope/sweep
// behavior without an audio device.
//
// Grounded on the teacher's pkg/display/fyne/views/performance.go,
// which builds a gonum/plot line plot and blits it to an in-memory
// image; adapted here to build the same kind of plot.Plot but save it
// straight to a PNG file instead of a fyne canvas, and to source its
// XYs from interleaved stereo float32 samples instead of frame-time
// durations.
package main

import (
	"encoding/binary"
	"flag"
	"log"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/pellucid-systems/goboy/internal/emulator"
	"github.com/pellucid-systems/goboy/internal/loader"
)

func main() {
	romPath := flag.String("rom", "", "the ROM file to load")
	out := flag.String("out", "waveform.png", "output PNG path")
	rawOut := flag.String("raw", "", "if set, also write raw interleaved float32 samples here")
	seconds := flag.Float64("seconds", 2, "seconds of audio to capture")
	samplePeriod := flag.Uint("period", 512, "master-clock dots between AudioData batches")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("goboyplot: -rom is required")
	}
	rom, err := loader.LoadROM(*romPath)
	if err != nil {
		log.Fatalf("goboyplot: %v", err)
	}

	e, err := emulator.New(rom, emulator.WithSamplePeriod(uint32(*samplePeriod)))
	if err != nil {
		log.Fatalf("goboyplot: %v", err)
	}
	go e.Run()
	e.Requests <- emulator.Start{}

	var rawFile *os.File
	if *rawOut != "" {
		rawFile, err = os.Create(*rawOut)
		if err != nil {
			log.Fatalf("goboyplot: %v", err)
		}
		defer rawFile.Close()
	}

	const clockHz = 4194304.0
	wantSamples := int(*seconds * clockHz / float64(*samplePeriod) * 2) // rough upper bound, stereo pairs
	left := make(plotter.XYs, 0, wantSamples)

	budget := *seconds * clockHz
	var consumed float64
	for consumed < budget {
		data := <-e.AudioData
		for i := 0; i+1 < len(data.Samples); i += 2 {
			left = append(left, plotter.XY{X: float64(len(left)), Y: float64(data.Samples[i])})
		}
		if rawFile != nil {
			if err := dumpRawSamples(rawFile, data.Samples); err != nil {
				log.Fatalf("goboyplot: writing raw samples: %v", err)
			}
		}
		consumed += float64(*samplePeriod)
	}

	e.Requests <- emulator.Shutdown{SaveState: false}
	<-e.Replies

	if err := writePlot(*out, left); err != nil {
		log.Fatalf("goboyplot: %v", err)
	}
	log.Printf("goboyplot: wrote %d samples to %s", len(left), *out)
}

func writePlot(path string, xys plotter.XYs) error {
	p := plot.New()
	p.Title.Text = "APU output (left channel)"
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "amplitude"

	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	p.Add(line)

	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}

// dumpRawSamples writes raw float32 samples to w, little-endian, for
// offline analysis in another tool.
func dumpRawSamples(w *os.File, samples []float32) error {
	buf := make([]byte, 4)
	for _, s := range samples {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(s))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
