//go:build !headless

/*
video_backend_ebiten.go - Ebiten Video Backend

Renders the VRAM snapshot C10 hands off each VBlank/FrameReady event
(loop.go's FrameSnapshot) into an ebiten.Image, and forwards keyboard
state as a controller-port input frame written straight into system RAM
ahead of the next maple DMA. Grounded on the teacher's
video_backend_ebiten.go: an EbitenOutput holding a window *ebiten.Image
and a frameBuffer guarded by a sync.RWMutex, plus the same
clipboard.Init/clipboard.Read(clipboard.FmtText) paste path gated behind
a sync.Once.
*/

package main

import (
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
)

func init() {
	compiledFeatures = append(compiledFeatures, "video:ebiten", "clipboard:golang-design-x")
}

const (
	screenWidth  = 640
	screenHeight = 480
)

// controllerInputAddr is the logical RAM address the maple DMA chain's
// first frame's receive pointer is expected to target by convention; the
// backend stages raw input bytes there ahead of time so RunMaple's copy
// (dma_engines.go) picks them up on its next chain walk.
const controllerInputAddr = 0x0c010000

// EbitenOutput is the ebiten.Game implementation driving the window.
type EbitenOutput struct {
	machine *Machine

	bufferMutex sync.RWMutex
	frameBuffer []byte

	clipboardOnce sync.Once
	clipboardOK   bool
}

// NewEbitenOutput wires an output surface to machine's frame channel.
func NewEbitenOutput(machine *Machine) *EbitenOutput {
	return &EbitenOutput{machine: machine, frameBuffer: make([]byte, screenWidth*screenHeight*4)}
}

func (e *EbitenOutput) handleClipboardPaste() {
	e.clipboardOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			log.Printf("video: clipboard unavailable: %v", err)
			return
		}
		e.clipboardOK = true
	})
	if !e.clipboardOK {
		return
	}
	text := clipboard.Read(clipboard.FmtText)
	if len(text) == 0 {
		return
	}
	e.pasteToSerial(text)
}

// pasteToSerial stages clipboard bytes at the controller-input staging
// address, length-prefixed, for the guest's serial-console collaborator
// (section 6) to pick up the next time it polls.
func (e *EbitenOutput) pasteToSerial(text []byte) {
	text = capPasteText(text)
	bus := e.machine.bus
	bus.Write32(controllerInputAddr, uint32(len(text)))
	for i, b := range text {
		bus.Write8(controllerInputAddr+4+uint32(i), b)
	}
}

func capPasteText(text []byte) []byte {
	const maxPaste = 4096
	if len(text) > maxPaste {
		return text[:maxPaste]
	}
	return text
}

// Update polls keyboard state once per ebiten tick and writes it as a
// bit mask into system RAM at controllerInputAddr+0x100; Ctrl+V triggers
// a clipboard paste-to-serial.
func (e *EbitenOutput) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyControl) && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		e.handleClipboardPaste()
	}

	var bits uint32
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		bits |= 1 << 0
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		bits |= 1 << 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		bits |= 1 << 2
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		bits |= 1 << 3
	}
	if ebiten.IsKeyPressed(ebiten.KeyEnter) {
		bits |= 1 << 4
	}
	e.machine.bus.Write32(controllerInputAddr+0x100, bits)

	select {
	case snap := <-e.machine.Frames():
		e.bufferMutex.Lock()
		copy(e.frameBuffer, snap.VRAM)
		e.bufferMutex.Unlock()
	default:
	}
	return nil
}

// Draw blits the last captured VRAM snapshot into screen.
func (e *EbitenOutput) Draw(screen *ebiten.Image) {
	e.bufferMutex.RLock()
	defer e.bufferMutex.RUnlock()
	screen.WritePixels(e.frameBuffer)
}

func (e *EbitenOutput) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// RunVideo starts the ebiten window loop; blocks until the window closes.
func RunVideo(machine *Machine) error {
	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("corevm")
	return ebiten.RunGame(NewEbitenOutput(machine))
}
