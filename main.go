// main.go - entry point: flag parsing, machine wiring, front-end dispatch

/*
main.go - Entry Point

Parses the command line into an EmulatorConfig, constructs a Machine
(loop.go), boots it from an optional ELF/GDI pair, hands a second
invocation's image off to the already-running instance over the IPC
socket (runtime_ipc.go) rather than starting a duplicate, and runs the
C10 loop alongside whichever video/audio front-end this build links in.
Grounded on the teacher's main.go argument handling and peripheral-
wiring sequence (NewSystemBus/NewSoundChip/NewVideoChip/MapIO, run CPU
loop in a goroutine, hand off to the GUI), minus its ASCII banner and
-ie32/-m68k dual-CPU-mode branching, which are teacher-specific and not
part of this spec's scope.
*/

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Version is reported by -version (features.go's printFeatures).
const Version = "0.1.0"

// EmulatorConfig is the fully-parsed command line.
type EmulatorConfig struct {
	ELFPath  string
	GDIPath  string
	Headless bool
	Debug    bool
	Version  bool
}

func parseConfig(args []string) (*EmulatorConfig, error) {
	fs := flag.NewFlagSet("corevm", flag.ContinueOnError)
	cfg := &EmulatorConfig{}
	fs.StringVar(&cfg.ELFPath, "elf", "", "boot ELF image to load")
	fs.StringVar(&cfg.GDIPath, "gdi", "", "disc image (.gdi) to mount")
	fs.BoolVar(&cfg.Headless, "headless", false, "run without a video/audio front-end")
	fs.BoolVar(&cfg.Debug, "debug", false, "start the debugger console")
	fs.BoolVar(&cfg.Version, "version", false, "print version and compiled features")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if cfg.Version {
		printFeatures()
		return
	}

	// If another instance is already running, hand it the requested image
	// over IPC and exit rather than starting a second machine.
	imagePath := cfg.GDIPath
	if imagePath == "" {
		imagePath = cfg.ELFPath
	}
	if imagePath != "" {
		if abs, absErr := filepath.Abs(imagePath); absErr == nil {
			if err := SendIPCOpen(abs); err == nil {
				fmt.Println("handed off to running instance")
				return
			}
		}
	}

	machine := NewMachine()

	var img *DiscImage
	if cfg.GDIPath != "" {
		img, err = LoadGDI(cfg.GDIPath)
		if err != nil {
			log.Fatalf("main: failed to load %s: %v", cfg.GDIPath, err)
		}
	}
	if err := machine.Boot(cfg.ELFPath, img); err != nil {
		log.Fatalf("main: boot failed: %v", err)
	}

	ipc, err := NewIPCServer(func(path string) error {
		machine.Requests() <- FrontendRequest{Kind: "mount", Path: path}
		return nil
	})
	if err != nil {
		log.Printf("main: ipc server not started: %v", err)
	} else {
		ipc.Start()
		defer ipc.Stop()
	}

	if cfg.Debug {
		go RunDebugConsole(machine)
	}

	if !cfg.Headless {
		oto, err := NewOtoPlayer(44100)
		if err != nil {
			log.Printf("main: audio backend unavailable: %v", err)
		} else {
			oto.SetupPlayer(machine.wave)
			oto.Start()
			defer oto.Close()
		}
	}

	go machine.Run()

	if cfg.Headless {
		for range machine.Frames() {
		}
		return
	}
	if err := RunVideo(machine); err != nil {
		log.Fatalf("main: video backend error: %v", err)
	}
}
