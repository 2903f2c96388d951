//go:build headless

// audio_backend_headless.go - headless stand-in for audio_backend_oto.go

package main

import "sync"

func init() {
	compiledFeatures = append(compiledFeatures, "audio:headless")
}

// OtoPlayer is a no-op stand-in used by headless builds (automated tests,
// CI) where no host audio device is available. NewOtoPlayer and the
// methods main.go calls match audio_backend_oto.go, so main.go needs no
// build-tag branching of its own; the oto Read callback has no
// counterpart here.
type OtoPlayer struct {
	mutex   sync.Mutex
	started bool
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (op *OtoPlayer) SetupPlayer(wave *AudioWaveRAM) {}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	op.started = true
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	op.started = false
}

func (op *OtoPlayer) Close() {}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
