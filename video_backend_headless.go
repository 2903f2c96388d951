//go:build headless

// video_backend_headless.go - headless stand-in for video_backend_ebiten.go

package main

func init() {
	compiledFeatures = append(compiledFeatures, "video:headless")
}

// EbitenOutput is a no-op stand-in for headless builds; RunVideo simply
// drains frames so the channel never fills.
type EbitenOutput struct {
	machine *Machine
}

func NewEbitenOutput(machine *Machine) *EbitenOutput {
	return &EbitenOutput{machine: machine}
}

// RunVideo drains frame snapshots with no rendering, for headless builds
// (automated tests, CI).
func RunVideo(machine *Machine) error {
	for range machine.Frames() {
	}
	return nil
}
