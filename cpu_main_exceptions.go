// cpu_main_exceptions.go - exception/interrupt entry and return (C5/C7)

/*
cpu_main_exceptions.go - Exception Entry and Return

Implements the fixed entry sequence spec section 4.3 describes: saved
state in SPC/SSR/SGR, SR forced into a known privileged/bank-1 state, PC
redirected to VBR+0x600, and INTEVT loaded from the interrupt controller's
level-indexed offset table. Return from exception restores SR (switching
banks if RB changed), then executes the delay slot that follows the RTE
instruction under the restored SR, then jumps to the saved PC - this
mirrors the delayed-branch mechanism in cpu_main.go exactly, just in the
opposite direction.
*/

package main

// exceptionVectorOffset is the fixed VBR-relative offset every accepted
// interrupt redirects to.
const exceptionVectorOffset = 0x600

// enterException performs the entry sequence for an accepted interrupt or
// trap, given the INTEVT code to latch.
func (c *CPU) enterException(intevt uint32) {
	c.ctl.spc = c.pc
	c.ctl.ssr = c.ctl.sr
	c.ctl.sgr = c.r15

	sr := c.ctl.sr
	sr |= 1 << srBitBL
	sr |= 1 << srBitMD
	sr |= 1 << srBitRB
	c.ctl.sr = sr

	c.intc.intevt = intevt
	c.pc = c.ctl.vbr + exceptionVectorOffset
}

// handleRTE implements the RTE instruction: a delayed return from
// exception. PC and SR are restored first (SR restore may flip the bank
// bits), then the delay slot executes under the *restored* register
// state, then control jumps to the restored PC.
func handleRTE(c *CPU, _ uint16) {
	target := c.ctl.spc
	restoredSR := c.ctl.ssr
	c.ctl.sr = restoredSR

	c.executeDelaySlot()
	c.pc = target
}
