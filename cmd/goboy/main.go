// Command goboy is the SDL2 desktop front end: it owns the window,
// the real audio device, and keyboard input, and talks to an
// internal/emulator core purely through its request/reply channels.
//
// Grounded on the teacher's cmd/goboy/main.go for the overall flag/
// flow shape and pkg/audio/sdl.go for the audio device setup, adapted
// from fyne plus a cgo audio callback to a plain SDL2 renderer loop
// and a goroutine draining the core's AudioData channel into
// QueueAudio.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/pellucid-systems/goboy/internal/cartridge"
	"github.com/pellucid-systems/goboy/internal/emulator"
	"github.com/pellucid-systems/goboy/internal/joypad"
	"github.com/pellucid-systems/goboy/internal/loader"
	"github.com/pellucid-systems/goboy/internal/ppu"
	"github.com/pellucid-systems/goboy/internal/savefile"
	"github.com/pellucid-systems/goboy/internal/serial/accessories"
	pkglog "github.com/pellucid-systems/goboy/pkg/log"
)

const (
	sampleRate  = 48000
	audioBuffer = 1024
)

// keymap maps SDL scancodes to Game Boy buttons, following the
// teacher's glfw front end's layout (pkg/display/glfw/glfw.go).
var keymap = map[sdl.Scancode]joypad.Button{
	sdl.SCANCODE_Z:         joypad.ButtonA,
	sdl.SCANCODE_X:         joypad.ButtonB,
	sdl.SCANCODE_BACKSPACE: joypad.ButtonSelect,
	sdl.SCANCODE_RETURN:    joypad.ButtonStart,
	sdl.SCANCODE_RIGHT:     joypad.ButtonRight,
	sdl.SCANCODE_LEFT:      joypad.ButtonLeft,
	sdl.SCANCODE_UP:        joypad.ButtonUp,
	sdl.SCANCODE_DOWN:      joypad.ButtonDown,
}

func main() {
	romPath := flag.String("rom", "", "the ROM file to load (.gb, .gbc, .zip, .7z, .gz)")
	statePath := flag.String("state", "", "a savestate file to resume from, overriding -savedir's newest save")
	saveDir := flag.String("savedir", "saves", "directory holding per-title timestamped savestates")
	fresh := flag.Bool("fresh", false, "ignore any existing save and start the cartridge cold")
	scale := flag.Int("scale", 4, "integer window scale factor")
	asModel := flag.String("model", "auto", "auto, dmg or cgb")
	autosave := flag.Duration("autosave", 30*time.Second, "autosave interval, 0 disables")
	printerDir := flag.String("printer", "", "if set, attach a Game Boy Printer and save print jobs as PNGs here")
	flag.Parse()

	path := *romPath
	if path == "" {
		var err error
		path, err = loader.AskForROM(".")
		if err != nil {
			log.Fatalf("goboy: %v", err)
		}
		if path == "" {
			log.Fatal("goboy: no ROM selected")
		}
	}

	rom, err := loader.LoadROM(path)
	if err != nil {
		log.Fatalf("goboy: %v", err)
	}

	cart, err := cartridge.New(rom)
	if err != nil {
		log.Fatalf("goboy: %v", err)
	}
	title := cart.Title

	opts := []emulator.Option{
		emulator.WithSamplePeriod(4096),
	}
	switch *asModel {
	case "dmg":
		opts = append(opts, emulator.ForceDMG())
	case "cgb":
		opts = append(opts, emulator.ForceCGB())
	}

	blob, err := resolveState(*statePath, *saveDir, title, *fresh)
	if err != nil {
		log.Fatalf("goboy: %v", err)
	}

	var e *emulator.Emulator
	if blob != nil {
		e, err = emulator.Resume(rom, blob, opts...)
	} else {
		e, err = emulator.New(rom, opts...)
	}
	if err != nil {
		log.Fatalf("goboy: %v", err)
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_JOYSTICK); err != nil {
		log.Fatalf("goboy: sdl init: %v", err)
	}
	defer sdl.Quit()

	window, renderer, err := sdl.CreateWindowAndRenderer(
		int32(ppu.ScreenWidth*(*scale)), int32(ppu.ScreenHeight*(*scale)), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		log.Fatalf("goboy: creating window: %v", err)
	}
	defer window.Destroy()
	defer renderer.Destroy()
	window.SetTitle(fmt.Sprintf("goboy - %s", path))
	renderer.SetLogicalSize(ppu.ScreenWidth, ppu.ScreenHeight)

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGB24, sdl.TEXTUREACCESS_STREAMING, ppu.ScreenWidth, ppu.ScreenHeight)
	if err != nil {
		log.Fatalf("goboy: creating texture: %v", err)
	}
	defer texture.Destroy()

	audioDev, err := sdl.OpenAudioDevice("", false, &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_F32,
		Channels: 2,
		Samples:  audioBuffer,
	}, nil, 0)
	if err != nil {
		log.Fatalf("goboy: opening audio device: %v", err)
	}
	defer sdl.CloseAudioDevice(audioDev)
	sdl.PauseAudioDevice(audioDev, false)

	if *printerDir != "" {
		printer := accessories.NewPrinter()
		e.AttachSerialDevice(printer)
		go pollPrinter(printer, *printerDir)
	}

	go e.Run()
	e.Requests <- emulator.Start{}
	defer shutdownAndSave(e, *saveDir, title)

	go pumpAudio(e, audioDev)
	if *autosave > 0 {
		go autosaveLoop(e, *saveDir, title, *autosave)
	}

	pressed := make(map[joypad.Button]bool)
	frameTicker := time.NewTicker(time.Second / 60)
	defer frameTicker.Stop()

	for running := true; running; {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch t := ev.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				button, ok := keymap[t.Keysym.Scancode]
				if ok {
					switch t.State {
					case sdl.PRESSED:
						if !pressed[button] {
							pressed[button] = true
							e.Requests <- emulator.UpdateButtonState{Buttons: joypad.Inputs{Pressed: []joypad.Button{button}}}
						}
					case sdl.RELEASED:
						pressed[button] = false
						e.Requests <- emulator.UpdateButtonState{Buttons: joypad.Inputs{Released: []joypad.Button{button}}}
					}
				}
				if t.State == sdl.PRESSED {
					switch t.Keysym.Scancode {
					case sdl.SCANCODE_TAB:
						e.Requests <- emulator.CyclePalette{}
					case sdl.SCANCODE_F12:
						copyScreenshot(e)
					}
				}
			}
		}

		e.Requests <- emulator.GetVideoFrame{}
		frame := (<-e.Replies).(emulator.VideoFrame).Frame

		pixels := frameToRGB(frame)
		texture.Update(nil, pixels, ppu.ScreenWidth*3)
		renderer.Clear()
		renderer.Copy(texture, nil, nil)
		renderer.Present()

		<-frameTicker.C
	}
}

func pumpAudio(e *emulator.Emulator, dev sdl.AudioDeviceID) {
	l := pkglog.New()
	for data := range e.AudioData {
		if len(data.Samples) == 0 {
			continue
		}
		raw := unsafe.Slice((*byte)(unsafe.Pointer(&data.Samples[0])), len(data.Samples)*4)
		if err := sdl.QueueAudio(dev, raw); err != nil {
			l.Errorf("goboy: queueing audio: %v", err)
		}
	}
}

func autosaveLoop(e *emulator.Emulator, saveDir, title string, every time.Duration) {
	l := pkglog.New()
	t := time.NewTicker(every)
	defer t.Stop()
	for range t.C {
		e.Requests <- emulator.SaveState{}
		reply := (<-e.Replies).(emulator.SavedState)
		if _, err := savefile.Write(saveDir, title, reply.Blob); err != nil {
			l.Errorf("goboy: autosave: %v", err)
		}
	}
}

func shutdownAndSave(e *emulator.Emulator, saveDir, title string) {
	e.Requests <- emulator.Shutdown{SaveState: true}
	reply := (<-e.Replies).(emulator.ShuttingDown)
	if reply.SaveState != nil {
		if _, err := savefile.Write(saveDir, title, reply.SaveState); err != nil {
			pkglog.New().Errorf("goboy: final save: %v", err)
		}
	}
}

// resolveState decides which savestate blob, if any, a new Emulator
// should resume from: an explicit -state file wins, -fresh forces a
// cold start, and otherwise the newest save under saveDir/title (if
// any) is used.
func resolveState(statePath, saveDir, title string, fresh bool) ([]byte, error) {
	if statePath != "" {
		return os.ReadFile(statePath)
	}
	if fresh {
		return nil, nil
	}
	return savefile.LoadLatest(saveDir, title)
}

// frameToRGB flattens a ppu.Frame into the row-major RGB24 byte slice
// SDL's streaming texture update expects.
func frameToRGB(frame ppu.Frame) []byte {
	out := make([]byte, ppu.ScreenHeight*ppu.ScreenWidth*3)
	i := 0
	for y := 0; y < ppu.ScreenHeight; y++ {
		for x := 0; x < ppu.ScreenWidth; x++ {
			out[i], out[i+1], out[i+2] = frame[y][x][0], frame[y][x][1], frame[y][x][2]
			i += 3
		}
	}
	return out
}

// pollPrinter watches printer for completed print jobs and saves each
// as a timestamped PNG under dir.
func pollPrinter(printer *accessories.Printer, dir string) {
	l := pkglog.New()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Errorf("goboy: printer: %v", err)
		return
	}

	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()
	for range t.C {
		if !printer.HasPrintJob() {
			continue
		}
		img := printer.GetPrintJob()
		path := filepath.Join(dir, fmt.Sprintf("print-%d.png", time.Now().UnixNano()))
		f, err := os.Create(path)
		if err != nil {
			l.Errorf("goboy: printer: %v", err)
			continue
		}
		if err := png.Encode(f, img); err != nil {
			l.Errorf("goboy: printer: %v", err)
		}
		f.Close()
	}
}

func copyScreenshot(e *emulator.Emulator) {
	e.Requests <- emulator.GetVideoFrame{}
	frame := (<-e.Replies).(emulator.VideoFrame).Frame
	if err := loader.CopyFrame(&frameImage{pixels: frameToRGB(frame)}); err != nil {
		pkglog.New().Errorf("goboy: screenshot: %v", err)
	}
}
