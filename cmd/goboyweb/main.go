// Command goboyweb serves a running core's video frames to any number
// of browser clients over a websocket, and relays button presses back
// from whichever client last sent one.
//
// Grounded on the teacher's pkg/display/web hub/client/player split
// (github.com/gorilla/websocket for the transport, github.com/cespare/
// xxhash to skip re-sending an unchanged frame, brotli to compress
// the ones that do change), collapsed from that package's two-player
// patch/frame-cache protocol into a single broadcaster since this
// front end targets spectating rather than the teacher's netplay
// handoff between two controlling clients.
package main

import (
	"flag"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/brotli/go/cbrotli"
	"github.com/gorilla/websocket"

	"github.com/pellucid-systems/goboy/internal/emulator"
	"github.com/pellucid-systems/goboy/internal/joypad"
	"github.com/pellucid-systems/goboy/internal/loader"
	"github.com/pellucid-systems/goboy/internal/ppu"
)

// wire message types, sent as the first byte of every frame.
const (
	msgFrame  byte = 0 // full brotli-compressed RGB24 frame follows
	msgButton byte = 1 // button id + 1/0 press state follows, client -> server
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 16,
	WriteBufferSize: 1024 * 16,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte

	e *emulator.Emulator

	lastHash uint64
}

func newHub(e *emulator.Emulator) *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte), e: e}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	send := make(chan []byte, 4)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for msg := range send {
			if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(data) < 2 || data[0] != msgButton {
			continue
		}
		button := joypad.Button(data[1])
		pressed := len(data) > 2 && data[2] != 0
		if pressed {
			h.e.Requests <- emulator.UpdateButtonState{Buttons: joypad.Inputs{Pressed: []joypad.Button{button}}}
		} else {
			h.e.Requests <- emulator.UpdateButtonState{Buttons: joypad.Inputs{Released: []joypad.Button{button}}}
		}
	}
}

// broadcast compresses frame and sends it to every connected client,
// skipping the send entirely when the frame hash matches the last one
// broadcast.
func (h *hub) broadcast(frame ppu.Frame) {
	raw := make([]byte, ppu.ScreenHeight*ppu.ScreenWidth*3)
	i := 0
	for y := 0; y < ppu.ScreenHeight; y++ {
		for x := 0; x < ppu.ScreenWidth; x++ {
			raw[i], raw[i+1], raw[i+2] = frame[y][x][0], frame[y][x][1], frame[y][x][2]
			i += 3
		}
	}

	hash := xxhash.Sum64(raw)
	if hash == h.lastHash {
		return
	}
	h.lastHash = hash

	compressed, err := cbrotli.Encode(raw, cbrotli.WriterOptions{Quality: 4})
	if err != nil {
		log.Printf("goboyweb: compressing frame: %v", err)
		return
	}
	msg := append([]byte{msgFrame}, compressed...)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default: // client too slow, drop this frame for it
		}
	}
}

func main() {
	romPath := flag.String("rom", "", "the ROM file to load")
	addr := flag.String("addr", ":8090", "address to serve on")
	fps := flag.Int("fps", 30, "frames broadcast per second")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("goboyweb: -rom is required")
	}
	rom, err := loader.LoadROM(*romPath)
	if err != nil {
		log.Fatalf("goboyweb: %v", err)
	}

	e, err := emulator.New(rom)
	if err != nil {
		log.Fatalf("goboyweb: %v", err)
	}
	go e.Run()
	e.Requests <- emulator.Start{}

	h := newHub(e)
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		h.serveWS(w, r)
	})

	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(*fps))
		defer ticker.Stop()
		for range ticker.C {
			e.Requests <- emulator.GetVideoFrame{}
			frame := (<-e.Replies).(emulator.VideoFrame).Frame
			h.broadcast(frame)
		}
	}()

	log.Printf("goboyweb: serving %s on %s", *romPath, *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
