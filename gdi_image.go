// gdi_image.go - mixed-mode optical disc image container (section 6)

/*
gdi_image.go - Drive Image Container

Parses the text ".gdi" format: a track count followed by one line per
track of {number, lba-start, control, sector-size, data-blob path}. The
image is mounted once at startup and handed to the drive controller
(drive_controller.go) as a read-only track list; this file never opens
the backing data files lazily at emulation time (section 5 forbids
host-level blocking I/O inside handlers), so LoadGDI pre-reads every
track's data blob into memory up front.
*/

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DiscTrack is one track of a mounted image.
type DiscTrack struct {
	Number     int
	LBAStart   uint32
	Control    uint8 // CDDA vs data, audio pre-emphasis bits, etc.
	SectorSize int
	Data       []byte
}

// DiscImage is the parsed, fully materialised .gdi image.
type DiscImage struct {
	Tracks []DiscTrack
}

// ImageError reports a failure to parse or load a disc image, following
// the typed-error convention used across the collaborator constructors.
type ImageError struct {
	Operation string
	Details   string
	Err       error
}

func (e *ImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gdi image: %s: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("gdi image: %s: %s", e.Operation, e.Details)
}

func (e *ImageError) Unwrap() error { return e.Err }

// LoadGDI parses a .gdi descriptor at path and pre-reads every track's
// data blob relative to the descriptor's directory.
func LoadGDI(path string) (*DiscImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ImageError{Operation: "open", Details: path, Err: err}
	}
	defer f.Close()

	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, &ImageError{Operation: "parse", Details: "empty descriptor"}
	}
	count, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, &ImageError{Operation: "parse", Details: "track count", Err: err}
	}

	img := &DiscImage{Tracks: make([]DiscTrack, 0, count)}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, &ImageError{Operation: "parse", Details: fmt.Sprintf("short track line %q", line)}
		}
		num, _ := strconv.Atoi(fields[0])
		lba, _ := strconv.Atoi(fields[1])
		ctrl, _ := strconv.Atoi(fields[2])
		secSize, _ := strconv.Atoi(fields[3])
		blobName := strings.Join(fields[4:], " ")
		blobName = strings.Trim(blobName, `"`)

		data, err := os.ReadFile(filepath.Join(dir, blobName))
		if err != nil {
			return nil, &ImageError{Operation: "read track blob", Details: blobName, Err: err}
		}
		img.Tracks = append(img.Tracks, DiscTrack{
			Number:     num,
			LBAStart:   uint32(lba),
			Control:    uint8(ctrl),
			SectorSize: secSize,
			Data:       data,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ImageError{Operation: "scan", Details: path, Err: err}
	}
	if len(img.Tracks) == 0 {
		return nil, &ImageError{Operation: "parse", Details: "no tracks"}
	}
	return img, nil
}

// ReadSectors copies count sectors starting at LBA startSector from
// whichever track contains them into dst, returning the number of bytes
// copied. Used by the drive controller's CD-read packet (0x30).
func (img *DiscImage) ReadSectors(startSector uint32, count int, dst []byte) int {
	track := img.trackFor(startSector)
	if track == nil {
		return 0
	}
	secSize := track.SectorSize
	if secSize == 0 {
		secSize = 2048
	}
	offset := int(startSector-track.LBAStart) * secSize
	want := count * secSize
	if offset < 0 || offset >= len(track.Data) {
		return 0
	}
	if offset+want > len(track.Data) {
		want = len(track.Data) - offset
	}
	n := copy(dst, track.Data[offset:offset+want])
	return n
}

func (img *DiscImage) trackFor(lba uint32) *DiscTrack {
	var best *DiscTrack
	for i := range img.Tracks {
		t := &img.Tracks[i]
		if t.LBAStart <= lba && (best == nil || t.LBAStart > best.LBAStart) {
			best = t
		}
	}
	return best
}
