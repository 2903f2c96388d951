// drive_controller.go - drive-controller state machine (C8)

/*
drive_controller.go - Drive Controller

An ATA-style command/packet protocol state machine: an 8-bit command
written to the status/command register either completes immediately or
arms a 12-byte packet window (six little-endian 16-bit words written
sequentially into the data register); once the packet is complete the
controller dispatches on the packet's opcode byte, stages any output
bytes into a PIO FIFO, and walks back down to WaitingForCommand once the
FIFO drains (section 4.7). The open question in section 9(a) about the
early-exit panic in a request-session path is preserved here exactly: an
unsupported command or packet panics per section 7's directive that this
indicates a guest/firmware mismatch, not a recoverable condition.
*/

package main

import "fmt"

// DriveState enumerates the controller's states (section 3).
type DriveState int

const (
	StateWaitingForCommand DriveState = iota
	StateProcessingCommand
	StateWaitingForPacket
	StateProcessingPacket
	StatePioEnd
	StateFinishedProcessingPacket
	StateSendingData
	StateReceivingData
)

var driveStateNames = [...]string{
	"WaitingForCommand",
	"ProcessingCommand",
	"WaitingForPacket",
	"ProcessingPacket",
	"PioEnd",
	"FinishedProcessingPacket",
	"SendingData",
	"ReceivingData",
}

func (s DriveState) String() string {
	if int(s) < 0 || int(s) >= len(driveStateNames) {
		return "unknown"
	}
	return driveStateNames[s]
}

// Status register bit positions, numbered from LSB (section 3).
const (
	statusBitCheck = 0
	statusBitDRQ   = 3
	statusBitDRDY  = 6
	statusBitBSY   = 7
)

// Register window (section 6): 0x005f7018-0x005f709c.
const (
	driveRegBase          = 0x005F7018
	regDriveStatusCommand = driveRegBase + 0x00
	regDriveFeatures      = driveRegBase + 0x04
	regDriveSectorCount   = driveRegBase + 0x08
	regDriveSectorNum     = driveRegBase + 0x0C
	regDriveByteCountLow  = driveRegBase + 0x10
	regDriveByteCountHigh = driveRegBase + 0x14
	regDriveData          = driveRegBase + 0x80
)

// Packet opcodes this controller understands (section 4.7).
const (
	pktRequestMode  = 0x11
	pktRequestError = 0x13
	pktReadTOC      = 0x14
	pktCDRead       = 0x30
	pktVendorBlob   = 0x71
)

const cmdPacket = 0xA0

// modeTable is the 32-byte constant window packet 0x11 reads from, seeded
// with the bit-exact prefix used by seed scenario S4 (section 8): a drive
// identification string padded to the window's size.
var modeTable = func() [32]byte {
	var t [32]byte
	copy(t[:], []byte{0xB4, 0x00, 0x19, 0x00, 0x08, 0x00, 'S', 'E', ' ', ' '})
	return t
}()

// vendorBlob is the fixed 1024-byte vendor-specific response to packet
// 0x71 (section 4.7). The real hardware response is 506 little-endian
// 16-bit words (1012 bytes); this buffer is zero-padded to the spec's
// 1024-byte window, matching section 9's "preserve rather than invent"
// guidance for undocumented registers.
var vendorBlob = [1024]byte{
	0x96, 0x0b, 0x45, 0xf0, 0x7e, 0xff, 0x3d, 0x06, 0x4d, 0x7d, 0x10, 0xbf,
	0x07, 0x00, 0x73, 0xcf, 0x9c, 0x00, 0xbc, 0x0c, 0x1c, 0xaf, 0x1c, 0x30,
	0xe7, 0xa7, 0x03, 0xa8, 0x98, 0x00, 0xbd, 0x0f, 0xbd, 0x5b, 0xaa, 0x50,
	0x23, 0x39, 0x31, 0x10, 0x0e, 0x69, 0x13, 0xe5, 0x00, 0xd2, 0x0d, 0x66,
	0x54, 0xbf, 0x5f, 0xfd, 0x37, 0x74, 0xf4, 0x5b, 0x22, 0x00, 0xc6, 0x09,
	0x0f, 0xca, 0x93, 0xe8, 0xa4, 0xab, 0x00, 0x61, 0x0e, 0x2e, 0xe1, 0x4b,
	0x76, 0x8b, 0x6a, 0xa5, 0x9c, 0xe6, 0x23, 0xc4, 0x00, 0x4b, 0x06, 0x1b,
	0x91, 0x01, 0x00, 0xe2, 0x0d, 0xcf, 0xca, 0x38, 0x3a, 0xb9, 0xe7, 0x91,
	0xe5, 0xef, 0x4b, 0x00, 0xd6, 0x09, 0xd3, 0x68, 0x3e, 0xc4, 0xaf, 0x2d,
	0x00, 0x2a, 0x0d, 0xf9, 0xfc, 0x78, 0xed, 0xae, 0x99, 0xb3, 0x32, 0x5a,
	0xe7, 0x00, 0x4c, 0x0a, 0x22, 0x97, 0x5b, 0x82, 0x06, 0x7a, 0x4c, 0x00,
	0x42, 0x0e, 0x57, 0x78, 0x46, 0xf5, 0x20, 0xfc, 0x6b, 0xcb, 0x01, 0x5b,
	0x86, 0x00, 0xe4, 0x0e, 0xb2, 0x26, 0xcd, 0x71, 0xe3, 0xa5, 0x33, 0x06,
	0x8e, 0x9a, 0x50, 0x00, 0x07, 0x07, 0xf5, 0x34, 0xef, 0xe6, 0x00, 0x32,
	0x0f, 0x13, 0x41, 0x59, 0x56, 0x0f, 0x02, 0x38, 0x2a, 0x64, 0x2a, 0x07,
	0x3e, 0x00, 0x52, 0x11, 0x2a, 0x1d, 0x5f, 0x76, 0x66, 0xa0, 0xb2, 0x2f,
	0x97, 0xc7, 0x5e, 0x6e, 0x52, 0xe2, 0x00, 0x58, 0x09, 0xca, 0x89, 0xa5,
	0xdf, 0x0a, 0xde, 0x00, 0x50, 0x06, 0x49, 0xb8, 0xb4, 0x00, 0x77, 0x05,
	0x24, 0xe8, 0x00, 0xbb, 0x0c, 0x91, 0x89, 0xa2, 0x8b, 0x62, 0xde, 0x6a,
	0xc6, 0x60, 0x00, 0xe7, 0x0f, 0x0f, 0x11, 0x96, 0x55, 0xd2, 0xbf, 0xe6,
	0x48, 0x0b, 0x5c, 0xab, 0xdc, 0x00, 0xba, 0x0a, 0x30, 0xd7, 0x48, 0x0e,
	0x78, 0x63, 0x0c, 0x00, 0xd2, 0x0d, 0xfb, 0x8a, 0xa3, 0xfe, 0xf8, 0x3a,
	0xdd, 0x88, 0xa9, 0x4b, 0x00, 0xa2, 0x0a, 0x75, 0x5d, 0x0d, 0x37, 0x24,
	0xc5, 0x9d, 0x00, 0xf7, 0x0b, 0x25, 0xef, 0xdb, 0x41, 0xe0, 0x52, 0x3e,
	0x4e, 0x00, 0xb7, 0x03, 0x00, 0xe5, 0x11, 0xb9, 0xde, 0x5a, 0x57, 0xcf,
	0xb9, 0x1a, 0xfc, 0x7f, 0x26, 0xee, 0x7b, 0xcd, 0x2b, 0x00, 0x4b, 0x08,
	0xb8, 0x09, 0x70, 0x6a, 0x9f, 0x00, 0x4b, 0x11, 0x8c, 0x15, 0x87, 0xa3,
	0x05, 0x4f, 0x37, 0x8e, 0x63, 0xde, 0xef, 0x39, 0xfc, 0x4b, 0x00, 0xab,
	0x10, 0x0b, 0x91, 0xaa, 0x0f, 0xe1, 0xe9, 0xae, 0x69, 0x3a, 0xf8, 0x03,
	0x69, 0xd2, 0x00, 0xe2, 0x07, 0xc1, 0x5c, 0x3d, 0x82, 0x00, 0xa9, 0x08,
	0x68, 0xc4, 0xad, 0x2e, 0xd1, 0x00, 0xf7, 0x0e, 0xc6, 0x47, 0xc8, 0xcd,
	0x8e, 0x7c, 0x00, 0x5c, 0x95, 0xb9, 0xf4, 0x00, 0xe3, 0x04, 0x5b, 0x00,
	0x74, 0x07, 0x65, 0xc7, 0x84, 0x8e, 0x00, 0xc6, 0x07, 0x61, 0x80, 0x44,
	0x3f, 0x00, 0xc8, 0x0e, 0x72, 0x78, 0x47, 0xd3, 0xc2, 0x4d, 0xaf, 0xc0,
	0x54, 0x13, 0x31, 0x00, 0xf7, 0x0d, 0x48, 0xd8, 0xe2, 0x92, 0x9f, 0x7f,
	0x2f, 0x44, 0x68, 0x33, 0x00, 0x0d, 0x10, 0xab, 0xfe, 0xea, 0x8e, 0x19,
	0x81, 0xf8, 0x6f, 0x7c, 0xde, 0xe1, 0xb3, 0x06, 0x00, 0x4d, 0x11, 0x66,
	0xae, 0x4c, 0xf9, 0xb7, 0x2f, 0xee, 0xb0, 0x8e, 0x7e, 0xe1, 0x8d, 0x95,
	0x6f, 0x00, 0xf4, 0x0d, 0x88, 0x9d, 0xca, 0xe3, 0xc4, 0xb2, 0x47, 0xbb,
	0xa0, 0x69, 0x00, 0xf3, 0x0b, 0x48, 0x17, 0x41, 0x64, 0xa0, 0x0e, 0x71,
	0x82, 0x00, 0x34, 0x1e, 0x18, 0x4d, 0x85, 0x80, 0x4c, 0xa9, 0x0b, 0x66,
	0x9b, 0x75, 0x13, 0x61, 0x70, 0x27, 0x81, 0x7a, 0x02, 0xcd, 0x57, 0xab,
	0xdf, 0x02, 0x93, 0x52, 0x83, 0xdf, 0x48, 0xa8, 0xa6, 0x9e, 0x74, 0x6f,
	0x89, 0x03, 0x28, 0x25, 0x52, 0x96, 0xff, 0x67, 0x7a, 0xd8, 0x3c, 0xb1,
	0x2c, 0x46, 0x84, 0xef, 0xe1, 0xc1, 0xc6, 0xc9, 0xdc, 0x96, 0xaa, 0xa9,
	0xc4, 0x82, 0x58, 0x27, 0x57, 0x75, 0x67, 0x34, 0xfb, 0x3b, 0x25, 0xbf,
	0xfb, 0x3b, 0xf6, 0x13, 0xec, 0x96, 0xe5, 0x16, 0x26, 0xfd, 0xa8, 0xda,
	0x1b, 0xc6, 0x50, 0x7f, 0x47, 0xff, 0x08, 0x55, 0x08, 0xed, 0x00, 0x93,
	0x9b, 0xc4, 0x71, 0x67, 0xec, 0xa6, 0xcc, 0x16, 0x20, 0x87, 0x47, 0x07,
	0xa6, 0x00, 0x79, 0x5d, 0x4f, 0xab, 0xa1, 0x6f, 0x7a, 0x6b, 0x27, 0xc4,
	0xda, 0xa3, 0xc3, 0x94, 0x4f, 0x7f, 0xf3, 0xe5, 0x1b, 0x6f, 0xcc, 0xe5,
	0xf0, 0xe5, 0x9d, 0xc9, 0xae, 0xfd, 0x39, 0xac, 0x4c, 0xe5, 0x58, 0x83,
	0x25, 0x65, 0x92, 0x74, 0x9e, 0x81, 0xa0, 0xb6, 0xa9, 0x02, 0x9b, 0x07,
	0xb6, 0xe7, 0x79, 0x57, 0xd9, 0x4a, 0xce, 0xfa, 0xb4, 0x94, 0x05, 0xcc,
	0x86, 0x3c, 0xdd, 0x06, 0xcd, 0xa6, 0x24, 0x24, 0xfa, 0xc1, 0xf9, 0x48,
	0xc9, 0x0c, 0x6c, 0xc4, 0x96, 0x82, 0x17, 0xf6, 0x31, 0x09, 0xc4, 0xe2,
	0x77, 0xfd, 0xcf, 0x46, 0x18, 0xb2, 0x5f, 0x01, 0x6b, 0xd1, 0x7b, 0x56,
	0xb8, 0x94, 0x4a, 0xe5, 0x6c, 0x19, 0xf0, 0xc0, 0xb6, 0x70, 0x93, 0xf7,
	0xd3, 0xd1, 0x2b, 0x6e, 0x7c, 0x53, 0x6d, 0x85, 0xd1, 0x0c, 0x8b, 0x77,
	0xee, 0x90, 0xda, 0x15, 0x55, 0xe0, 0x58, 0x09, 0x56, 0xfc, 0x31, 0x9f,
	0xaf, 0x46, 0xcb, 0xc3, 0x8d, 0x71, 0x75, 0xf2, 0x2c, 0xc3, 0xbb, 0xa1,
	0xc4, 0xcf, 0x27, 0x56, 0x7c, 0x9b, 0xfe, 0xaf, 0x3e, 0x4e, 0xb4, 0xcd,
	0x6a, 0xaa, 0xf5, 0xf3, 0xe3, 0x22, 0x82, 0xe1, 0xa5, 0x68, 0xb3, 0xdb,
	0x8f, 0x9e, 0x5e, 0x7b, 0x90, 0xf0, 0x79, 0x3f, 0x52, 0x8c, 0x61, 0x88,
	0x76, 0xae, 0x14, 0x63, 0x19, 0x0f, 0x1d, 0xce, 0xa1, 0x63, 0x10, 0xb2,
	0xe2, 0xd7, 0x94, 0xb1, 0x33, 0xcb, 0x28, 0x85, 0x7d, 0x9b, 0xf5, 0xf4,
	0x25, 0x50, 0x9b, 0xdb, 0x35, 0xa5, 0xb0, 0x9c, 0x09, 0x92, 0xe3, 0x31,
	0x40, 0xab, 0x4d, 0xf4, 0x35, 0xe8, 0xb3, 0x0a, 0x21, 0xc3, 0x86, 0x9c,
	0xcb, 0x29, 0xa4, 0x77, 0x57, 0xbc, 0xd8, 0xda, 0xa5, 0x82, 0x80, 0xe8,
	0xcf, 0x72, 0x81, 0xad, 0x2e, 0x28, 0xff, 0xd8, 0xb6, 0xd1, 0x2b, 0x97,
	0x00, 0xff, 0xe1, 0x06, 0x44, 0x39, 0x1c, 0x4b, 0xab, 0x19, 0x5b, 0x4d,
	0xd6, 0x3e, 0x1b, 0x5c, 0x64, 0xbb, 0x32, 0x68, 0xf5, 0x7c, 0xc9, 0x9e,
	0xe8, 0xb4, 0x29, 0x1b, 0x7f, 0x4d, 0x80, 0x80, 0x7e, 0x8b, 0x1c, 0x0a,
	0xe6, 0x9a, 0xbf, 0x49, 0x1e, 0xc5, 0xb6, 0x67, 0x7d, 0x05, 0xe4, 0x90,
	0x40, 0x4b, 0xaf, 0x9b, 0x52, 0xde, 0x17, 0x80, 0x81, 0x56, 0xea, 0x3a,
	0x53, 0x82, 0x8c, 0x62, 0xfb, 0x96, 0x97, 0x6f, 0xc1, 0x16, 0x78, 0xd4,
	0x7b, 0xe7, 0xb9, 0x5a, 0x2a, 0xeb, 0x87, 0x68, 0x33, 0xd3, 0x31, 0x45,
	0xfa, 0xfe, 0xf4, 0x1c, 0x90, 0x86, 0x73, 0x77, 0xd9, 0xa9, 0xd1, 0x4a,
	0x4a, 0xcf, 0xae, 0x23, 0xdb, 0xf9, 0x09, 0xd8, 0x18, 0xdc, 0x6a, 0x0d,
	0xe4, 0x19, 0x8c, 0x65, 0xc6, 0x64, 0xc7, 0xdc, 0xa9, 0xe3, 0x91, 0xb1,
	0x4c, 0xc8, 0xc1, 0x9e, 0x3b, 0x7f, 0xcb, 0xa3, 0xcf, 0xdd, 0xf0, 0x1d,
	0x07, 0x6e, 0xdc, 0xce, 0x0d, 0xcd, 0x7e, 0x1e, 0x55, 0x11, 0x8b, 0xdf,
	0x3a, 0xab, 0xb6, 0x3b, 0x6e, 0x52, 0x7f, 0xa7, 0x00, 0xd1, 0x33, 0xbe,
	0xf2, 0x9b, 0xfc, 0x4a, 0xcf, 0x9d, 0x8f, 0xc6, 0xc4, 0x7b, 0xda, 0xe7,
	0x2a, 0x1c, 0x26, 0x6e, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// DriveController implements C8.
type DriveController struct {
	state DriveState

	status      uint8
	features    uint8
	sectorCount uint8
	sectorNum   uint8 // low nibble = drive status
	byteCountLo uint8
	byteCountHi uint8
	senseKey    uint8
	senseASC    uint8

	packetBytes [12]byte
	packetIdx   int

	fifo []byte

	image *DiscImage

	intc  *InterruptController
	sched *Scheduler
}

// NewDriveController returns a controller in WaitingForCommand with no
// image mounted.
func NewDriveController(intc *InterruptController, sched *Scheduler) *DriveController {
	d := &DriveController{intc: intc, sched: sched}
	d.enterWaitingForCommand()
	return d
}

// Mount installs a parsed disc image. Real hardware mounts at startup
// only (section 6); there is no hot-swap path.
func (d *DriveController) Mount(img *DiscImage) { d.image = img }

func (d *DriveController) enterWaitingForCommand() {
	d.state = StateWaitingForCommand
	d.setBSY(false)
	d.setDRDY(true)
}

func (d *DriveController) setBit(bit uint, v bool) {
	if v {
		d.status |= 1 << bit
	} else {
		d.status &^= 1 << bit
	}
}

func (d *DriveController) setBSY(v bool)   { d.setBit(statusBitBSY, v) }
func (d *DriveController) setDRDY(v bool)  { d.setBit(statusBitDRDY, v) }
func (d *DriveController) setDRQ(v bool)   { d.setBit(statusBitDRQ, v) }
func (d *DriveController) setCheck(v bool) { d.setBit(statusBitCheck, v) }

// Status returns the current status/command register value.
func (d *DriveController) Status() uint8 { return d.status }

// WriteCommand handles a write to the status/command register: it always
// dispatches a new command, per section 4.7.
func (d *DriveController) WriteCommand(cmd uint8) {
	d.state = StateProcessingCommand
	d.setBSY(true)
	d.setDRDY(false)

	switch cmd {
	case cmdPacket:
		d.packetIdx = 0
		d.state = StateWaitingForPacket
		d.setBSY(false)
		d.setDRQ(true)
	default:
		panic(fmt.Sprintf("drive controller: unsupported command %#02x", cmd))
	}
}

// WriteData feeds one byte of a 12-byte packet into the controller while
// it is in WaitingForPacket; once all 12 bytes have arrived the packet is
// dispatched and the controller moves into ProcessingPacket.
func (d *DriveController) WriteData(b uint8) {
	if d.state != StateWaitingForPacket {
		return
	}
	d.packetBytes[d.packetIdx] = b
	d.packetIdx++
	if d.packetIdx < 12 {
		return
	}
	d.state = StateProcessingPacket
	d.setBSY(true)
	d.setDRQ(false)
	d.dispatchPacket()
}

// ReadData pops one byte from the PIO FIFO. When the FIFO drains to
// empty the controller transitions PioEnd -> FinishedProcessingPacket ->
// WaitingForCommand, per section 4.7.
func (d *DriveController) ReadData() uint8 {
	if len(d.fifo) == 0 {
		return 0
	}
	b := d.fifo[0]
	d.fifo = d.fifo[1:]
	if len(d.fifo) == 0 {
		d.state = StatePioEnd
		d.setDRQ(false)
		d.state = StateFinishedProcessingPacket
		d.setBSY(false)
		d.setDRDY(true)
		d.enterWaitingForCommand()
	}
	return b
}

// dispatchPacket runs the 12-byte packet through its opcode handler and,
// if it produces output, pushes those bytes into the PIO FIFO and
// schedules the external-interrupt raise on line 0 that guests wait on
// (section 4.7).
func (d *DriveController) dispatchPacket() {
	opcode := d.packetBytes[0]
	var out []byte

	switch opcode {
	case pktRequestMode:
		out = d.handleRequestMode()
	case pktRequestError:
		out = d.handleRequestError()
	case pktReadTOC:
		out = d.handleReadTOC()
	case pktVendorBlob:
		out = vendorBlob[:]
	case pktCDRead:
		out = d.handleCDRead()
	default:
		panic(fmt.Sprintf("drive controller: unsupported packet opcode %#02x", opcode))
	}

	d.finishPacket(out)
}

func (d *DriveController) finishPacket(out []byte) {
	n := len(out)
	d.byteCountLo = uint8(n)
	d.byteCountHi = uint8(n >> 8)

	if n == 0 {
		d.state = StateFinishedProcessingPacket
		d.setBSY(false)
		d.setDRQ(false)
		d.setDRDY(true)
		d.enterWaitingForCommand()
		return
	}

	d.fifo = append([]byte(nil), out...)
	d.state = StateSendingData
	d.setBSY(false)
	d.setDRQ(true)
	d.sched.Schedule(Event{Kind: HollyEvent, Sub: SubRaiseExternalInterrupt, Mask: 1}, 0)
}

// handleRequestMode windows into the fixed 32-byte mode table starting at
// the byte offset given in the packet's offset field (packetBytes[2:4],
// little-endian) for the length in packetBytes[4].
func (d *DriveController) handleRequestMode() []byte {
	offset := int(d.packetBytes[2]) | int(d.packetBytes[3])<<8
	length := int(d.packetBytes[4])
	if offset < 0 || offset >= len(modeTable) {
		return nil
	}
	end := offset + length
	if end > len(modeTable) {
		end = len(modeTable)
	}
	return modeTable[offset:end]
}

// handleRequestError writes a 10-byte sense block and clears sense on
// read (section 4.7): once the guest has consumed the sense block,
// CHECK drops until the next failure sets it again.
func (d *DriveController) handleRequestError() []byte {
	block := make([]byte, 10)
	block[0] = 0xF0
	block[2] = d.senseKey
	block[8] = d.senseASC
	d.senseKey = 0
	d.senseASC = 0
	d.setCheck(false)
	return block
}

// handleReadTOC builds the 408-byte table-of-contents descriptor: one
// 4-byte record per track (control<<4|ADR, then the 24-bit leading
// frame-address big-endian), followed by a first-track/last-track/
// lead-out trailer (section 4.7).
func (d *DriveController) handleReadTOC() []byte {
	const tocSize = 408
	out := make([]byte, tocSize)
	if d.image == nil {
		return out
	}
	for i, t := range d.image.Tracks {
		if i*4+4 > tocSize-12 {
			break
		}
		rec := out[i*4 : i*4+4]
		rec[0] = t.Control<<4 | 0x1 // ADR=1
		frame := t.LBAStart
		rec[1] = byte(frame >> 16)
		rec[2] = byte(frame >> 8)
		rec[3] = byte(frame)
	}
	trailer := out[tocSize-12:]
	trailer[0] = 0x01 // first track
	last := d.image.Tracks[len(d.image.Tracks)-1]
	trailer[4] = byte(len(d.image.Tracks)) // last track
	leadOut := last.LBAStart + uint32(len(last.Data)/sectorSizeOrDefault(last.SectorSize))
	trailer[9] = byte(leadOut >> 16)
	trailer[10] = byte(leadOut >> 8)
	trailer[11] = byte(leadOut)
	return out
}

func sectorSizeOrDefault(n int) int {
	if n == 0 {
		return 2048
	}
	return n
}

// SCSI sense key/ASC pair a subsequent request-error packet reports
// (handleRequestError) when a CD-read can't be satisfied.
const (
	senseKeyNotReady         = 0x02
	senseASCMediumNotPresent = 0x3A
)

// handleCDRead hands (start-sector, count) off to the mounted image and
// stages the resulting sector bytes into the FIFO (section 4.7). A
// missing disc or a read that comes up short of the requested count
// leaves sense set so the guest's next request-error packet reports it,
// rather than completing silently with fewer bytes than asked for.
func (d *DriveController) handleCDRead() []byte {
	start := uint32(d.packetBytes[2])<<16 | uint32(d.packetBytes[3])<<8 | uint32(d.packetBytes[4])
	count := int(d.packetBytes[8])
	if d.image == nil || count == 0 {
		d.senseKey = senseKeyNotReady
		d.senseASC = senseASCMediumNotPresent
		d.setCheck(true)
		return nil
	}
	buf := make([]byte, count*2048)
	n := d.image.ReadSectors(start, count, buf)
	if n < len(buf) {
		d.senseKey = senseKeyNotReady
		d.senseASC = senseASCMediumNotPresent
		d.setCheck(true)
	}
	return buf[:n]
}

// State reports the current state, for tests and the debugger's drive command.
func (d *DriveController) State() DriveState { return d.state }

// FIFOLen reports the number of bytes remaining in the PIO FIFO.
func (d *DriveController) FIFOLen() int { return len(d.fifo) }
