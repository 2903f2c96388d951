// store_queue.go - write-combining store queues (C2)

/*
store_queue.go - Store Queues

Two independent 8-entry 32-bit write-combining buffers (SQ0, SQ1). Writes
into the store-queue logical window (0xE000_0000-0xE3FF_FFFF) select a
queue with bit 5 of the address and an entry within that queue with bits
4:2; they never touch external memory directly. A PREF instruction
targeting that window flushes the selected queue as eight sequential
32-bit external writes to a base computed from the address and the
QACR{0,1} control register at the moment of the prefetch, not at the
moment the queue was filled - see cpu_main_exec.go's handlePREF.
*/

package main

// StoreQueues holds the two 8x32-bit write-combining buffers.
type StoreQueues struct {
	sq [2][8]uint32
}

// NewStoreQueues returns a zeroed pair of store queues.
func NewStoreQueues() *StoreQueues {
	return &StoreQueues{}
}

// queueAndIndex decodes which queue and slot a store-queue logical address
// targets, per spec section 3: queue selected by bit 5, index by bits 4:2.
func queueAndIndex(addr uint32) (queue, index int) {
	queue = int((addr >> 5) & 1)
	index = int((addr >> 2) & 7)
	return
}

// Write stores a 32-bit value into the addressed slot. Reads of this
// window are undefined per spec and are never issued by a correctly
// behaving guest, so StoreQueues exposes no Read method.
func (s *StoreQueues) Write(addr uint32, value uint32) {
	q, i := queueAndIndex(addr)
	s.sq[q][i] = value
}

// FlushBase computes the external physical base a prefetch of addr should
// flush to, given the QACR value for the selected queue:
// (addr & 0x03ff_ffe0) | ((qacr & 0x1c) << 24).
func FlushBase(addr uint32, qacr uint32) uint32 {
	return (addr & 0x03FFFFE0) | ((qacr & 0x1C) << 24)
}

// Flush returns the eight sequential 32-bit words that a prefetch to addr
// must write out, in order, and identifies which queue was drained.
func (s *StoreQueues) Flush(addr uint32) (queue int, words [8]uint32) {
	queue, _ = queueAndIndex(addr)
	words = s.sq[queue]
	return
}
