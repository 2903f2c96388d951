//go:build !headless

// audio_backend_oto.go - oto v3 audio output for the audio wave-RAM block

/*
audio_backend_oto.go - Oto Audio Backend

Drains PCM samples the audio DMA engine (dma_engines.go) and the ARM
core (audio_arm_core.go) deposit into wave RAM and hands them to the
host audio device via github.com/ebitengine/oto/v3, in the shape of the
teacher's OtoPlayer (audio_backend_oto.go): an oto.Context, a player
reading from a Read([]byte) callback, atomic access to the chip pointer
so the hot audio-callback path never takes the player's own mutex (each
PullSample call still locks the wave-RAM block briefly).
*/

package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

func init() {
	compiledFeatures = append(compiledFeatures, "audio:oto")
}

// OtoPlayer drains AudioWaveRAM.PullSample into the host audio device.
type OtoPlayer struct {
	ctx       *oto.Context
	player    *oto.Player
	wave      atomic.Pointer[AudioWaveRAM]
	sampleBuf []float32
	started   bool
	mutex     sync.Mutex
}

// NewOtoPlayer opens the host audio device at sampleRate, mono,
// float32 little-endian, matching the teacher's context options.
func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoPlayer{ctx: ctx}, nil
}

// SetupPlayer wires the player to wave, the audio block it drains.
func (op *OtoPlayer) SetupPlayer(wave *AudioWaveRAM) {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	op.wave.Store(wave)
	op.player = op.ctx.NewPlayer(op)
	op.sampleBuf = make([]float32, 4096)
}

// Read implements io.Reader for oto.Player: one float32 sample per
// PullSample call, silence if no wave block is wired yet.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	wave := op.wave.Load()
	if wave == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4
	if len(op.sampleBuf) < numSamples {
		op.sampleBuf = make([]float32, numSamples)
	}
	samples := op.sampleBuf[:numSamples]
	for i := 0; i < numSamples; i++ {
		samples[i] = wave.PullSample()
	}
	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
