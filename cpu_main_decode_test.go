package main

import "testing"

// TestMainDecodePatternsDisjoint exercises the build-time non-overlap
// assertion directly against the real pattern list: it must run clean,
// proving every declared encoding either claims a distinct opcode region
// or is a deliberate specialization (a full literal nested inside a
// wildcard-field pattern, like FSCHG/FRCHG inside FIPR) listed before
// the broader pattern it specializes.
func TestMainDecodePatternsDisjoint(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("assertPatternsDisjoint panicked on the real pattern table: %v", r)
		}
	}()
	assertPatternsDisjoint(mainOpcodePatterns())
}

// TestMainDecodeTableBuilds confirms buildMainDecodeTable (which itself
// calls assertPatternsDisjoint) runs to completion and actually resolves
// a handful of well-known opcodes to their expected mnemonics.
func TestMainDecodeTableBuilds(t *testing.T) {
	buildMainDecodeTable(mainOpcodePatterns())
	cases := []struct {
		op   uint16
		want string
	}{
		{0x0009, "NOP"},
		{0x000B, "RTS"},
		{0xFBFD, "FRCHG"},
		{0xF3FD, "FSCHG"},
	}
	for _, c := range cases {
		got := mainDecodeTable[c.op].mnemonic
		if got != c.want {
			t.Errorf("opcode %#04x decoded as %q, want %q", c.op, got, c.want)
		}
	}
}

// TestAssertPatternsDisjointCatchesGenuineOverlap confirms the assertion
// actually fires on two patterns that share opcodes without either being
// a specialization of the other - the case a silent assigned[] array
// would otherwise resolve by picking whichever pattern happened to be
// listed first.
func TestAssertPatternsDisjointCatchesGenuineOverlap(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected assertPatternsDisjoint to panic on a genuine ambiguous overlap")
		}
	}()
	bogus := []opcodePattern{
		{bits: 0x3000, mask: 0xF00F, mnemonic: "A"},
		{bits: 0x3000, mask: 0xF0F0, mnemonic: "B"},
	}
	assertPatternsDisjoint(bogus)
}

// TestAssertPatternsDisjointAllowsOrderedSpecialization confirms a
// narrower literal listed before the wildcard pattern it nests inside
// passes without complaint.
func TestAssertPatternsDisjointAllowsOrderedSpecialization(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("did not expect a panic for a correctly-ordered specialization: %v", r)
		}
	}()
	ok := []opcodePattern{
		{bits: 0xFBFD, mask: 0xFFFF, mnemonic: "FRCHG"},
		{bits: 0xF0FD, mask: 0xF0FF, mnemonic: "FIPR"},
	}
	assertPatternsDisjoint(ok)
}

// TestAssertPatternsDisjointCatchesMisorderedSpecialization confirms
// that even a legitimate subset relationship panics if the broader
// pattern is listed first, since buildMainDecodeTable's first-match-wins
// assignment would let the broader pattern shadow the narrower one.
func TestAssertPatternsDisjointCatchesMisorderedSpecialization(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when the broader pattern precedes the narrower one")
		}
	}()
	misordered := []opcodePattern{
		{bits: 0xF0FD, mask: 0xF0FF, mnemonic: "FIPR"},
		{bits: 0xFBFD, mask: 0xFFFF, mnemonic: "FRCHG"},
	}
	assertPatternsDisjoint(misordered)
}
