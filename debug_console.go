// debug_console.go - interactive debugger console

/*
debug_console.go - Debugger Console

A line-oriented debugger console read from raw stdin, in the shape of
the teacher's terminal_host.go (term.MakeRaw/term.Restore, a background
goroutine feeding bytes a line at a time rather than blocking the main
loop). Two commands reach further into the ecosystem: "regs" copies the
current CPU register dump to the host clipboard via
golang.design/x/clipboard, and "break <lua-expr>" checks that a Lua
boolean expression compiles with github.com/yuin/gopher-lua and stores
it as a breakpoint condition, generalising the teacher's
debug_conditions.go (a Go-closure condition hook) so a condition can be
user-supplied instead of compiled in. EvalBreakpoints evaluates the
stored conditions, but the top-level loop never calls it, so a
condition does not stop the machine.
*/

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"golang.design/x/clipboard"
	"golang.org/x/term"
)

func init() {
	compiledFeatures = append(compiledFeatures, "debug:lua-breakpoints")
}

// luaBreakpoint is a Lua boolean expression over the global pc, evaluated
// by EvalBreakpoints. The source is recompiled on each
// evaluation against a fresh *lua.LState since gopher-lua function
// values are not safely shared across states.
type luaBreakpoint struct {
	source string
}

// DebugConsole reads commands from raw stdin and inspects/controls a
// running Machine. Only instantiated when -debug is passed (main.go).
type DebugConsole struct {
	machine *Machine

	fd           int
	oldTermState *term.State

	mu          sync.Mutex
	breakpoints []*luaBreakpoint
	clipboardOK bool
}

// NewDebugConsole wires a console to machine; call Start to begin
// reading commands.
func NewDebugConsole(machine *Machine) *DebugConsole {
	return &DebugConsole{machine: machine}
}

// RunDebugConsole is the main.go entry point: blocks reading commands
// until stdin closes or "quit" is entered.
func RunDebugConsole(machine *Machine) {
	c := NewDebugConsole(machine)
	c.Start()
}

func (c *DebugConsole) Start() {
	c.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(c.fd)
	if err == nil {
		c.oldTermState = oldState
		defer term.Restore(c.fd, c.oldTermState)
	}

	if err := clipboard.Init(); err == nil {
		c.clipboardOK = true
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Split(bufio.ScanLines)
	fmt.Println("corevm debugger: regs | drive | break <lua-expr> | continue | quit")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if c.dispatch(line) {
			return
		}
	}
}

// dispatch runs one command line; returns true if the console should exit.
func (c *DebugConsole) dispatch(line string) bool {
	fields := strings.SplitN(line, " ", 2)
	switch fields[0] {
	case "quit":
		return true
	case "regs":
		c.dumpRegisters()
	case "drive":
		c.dumpDriveState()
	case "break":
		if len(fields) < 2 {
			fmt.Println("usage: break <lua-expr>")
			return false
		}
		if err := c.addBreakpoint(fields[1]); err != nil {
			fmt.Printf("break: %v\n", err)
		}
	case "continue":
		fmt.Println("(running)")
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
	}
	return false
}

// dumpRegisters prints the CPU's register summary and, if the host
// clipboard is available, copies it as well.
func (c *DebugConsole) dumpRegisters() {
	dump := c.machine.cpu.String()
	fmt.Println(dump)
	if c.clipboardOK {
		clipboard.Write(clipboard.FmtText, []byte(dump))
	}
}

// dumpDriveState prints the drive controller's current state machine
// value (drive_controller.go), the one piece of collaborator state this
// console exposes beyond CPU registers.
func (c *DebugConsole) dumpDriveState() {
	fmt.Printf("drive: %v (fifo %d bytes)\n", c.machine.drive.State(), c.machine.drive.FIFOLen())
}

// addBreakpoint compiles source as a Lua chunk returning a boolean and
// stores it for per-quantum evaluation.
func (c *DebugConsole) addBreakpoint(source string) error {
	L := lua.NewState()
	defer L.Close()
	if _, err := L.LoadString("return " + source); err != nil {
		return err
	}
	c.mu.Lock()
	c.breakpoints = append(c.breakpoints, &luaBreakpoint{source: source})
	c.mu.Unlock()
	return nil
}

// EvalBreakpoints re-evaluates every installed condition against pc,
// the main CPU's current program counter, returning true if any fires.
// Nothing in the module calls it: Machine holds no reference to the
// console, and Machine.Run does not stop on a breakpoint.
func (c *DebugConsole) EvalBreakpoints(pc uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.breakpoints) == 0 {
		return false
	}
	for _, bp := range c.breakpoints {
		L := lua.NewState()
		L.SetGlobal("pc", lua.LNumber(pc))
		fn, err := L.LoadString("return " + bp.source)
		if err != nil {
			L.Close()
			continue
		}
		L.Push(fn)
		fired := false
		if err := L.PCall(0, 1, nil); err == nil {
			fired = lua.LVAsBool(L.Get(-1))
		}
		L.Close()
		if fired {
			return true
		}
	}
	return false
}
