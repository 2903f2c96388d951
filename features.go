// features.go - build-time feature registry

package main

import (
	"fmt"
	"runtime"
	"sort"
)

// compiledFeatures tracks which optional front-end/back-end this build
// links in, entries appended via init() by whichever file actually won
// the build-tag selection: video_backend_ebiten.go/video_backend_headless.go
// for display, audio_backend_oto.go/audio_backend_headless.go for sound,
// and debug_console.go's gopher-lua breakpoint support, which has no
// headless counterpart since the debugger console itself is headless-safe.
var compiledFeatures []string

func printFeatures() {
	fmt.Printf("corevm %s\n", Version)
	fmt.Printf("  Go version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Println()
	fmt.Println("Compiled features:")

	sort.Strings(compiledFeatures)
	for _, f := range compiledFeatures {
		fmt.Printf("  %s\n", f)
	}
	if len(compiledFeatures) == 0 {
		fmt.Println("  (none)")
	}
}
