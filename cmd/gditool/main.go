// main.go - gditool: inspect and extract tracks from .gdi disc images

/*
gditool is a standalone command, in the teacher's cmd/ie32to64
tradition (a self-contained converter tool living in its own cmd/
subdirectory rather than importing the emulator's package main, which
Go does not allow two ways to begin with). It re-implements just enough
of the .gdi descriptor format (gdi_image.go in the root module) to list
and extract tracks without needing to run the emulator core at all.
*/

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type track struct {
	number     int
	lbaStart   int
	control    int
	sectorSize int
	blobPath   string
}

func parseDescriptor(path string) ([]track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty descriptor")
	}
	if _, err := strconv.Atoi(strings.TrimSpace(scanner.Text())); err != nil {
		return nil, fmt.Errorf("invalid track count: %w", err)
	}

	var tracks []track
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, fmt.Errorf("short track line %q", line)
		}
		num, _ := strconv.Atoi(fields[0])
		lba, _ := strconv.Atoi(fields[1])
		ctrl, _ := strconv.Atoi(fields[2])
		secSize, _ := strconv.Atoi(fields[3])
		blobName := strings.Join(fields[4:], " ")
		tracks = append(tracks, track{
			number: num, lbaStart: lba, control: ctrl, sectorSize: secSize,
			blobPath: filepath.Join(dir, blobName),
		})
	}
	return tracks, scanner.Err()
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image.gdi>",
		Short: "List the tracks a .gdi descriptor mounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks, err := parseDescriptor(args[0])
			if err != nil {
				return err
			}
			for _, t := range tracks {
				fmt.Printf("track %d  lba=%d  ctrl=%d  sector=%d  %s\n",
					t.number, t.lbaStart, t.control, t.sectorSize, t.blobPath)
			}
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "extract <image.gdi>",
		Short: "Copy every track's data blob into a destination directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks, err := parseDescriptor(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, t := range tracks {
				data, err := os.ReadFile(t.blobPath)
				if err != nil {
					return fmt.Errorf("track %d: %w", t.number, err)
				}
				dst := filepath.Join(outDir, filepath.Base(t.blobPath))
				if err := os.WriteFile(dst, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("extracted track %d -> %s\n", t.number, dst)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "destination directory")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:   "gditool",
		Short: "Inspect and extract tracks from .gdi disc images",
	}
	root.AddCommand(newInspectCmd(), newExtractCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
