package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrCapacityMismatch reports a memory image whose capacity differs from
// the memory it is being loaded into.
var ErrCapacityMismatch = errors.New("memory capacity mismatch")

// PageSize is the granularity of memory allocation and serialization.
const PageSize = 4096

// DefaultMemoryCapacity is used when no capacity is configured (tests,
// scratch runs).
const DefaultMemoryCapacity = 64 * 1024 * 1024

// Image format for serialized memory contents.
const (
	memImageMagic   uint32 = 0x4D454D50 // "PMEM"
	memImageVersion uint16 = 1
)

// Memory is the byte-addressable memory of the simulated machine. Pages
// are allocated lazily on first write, so a large address space costs
// only what the program touches. Capacity is fixed at construction;
// accesses at or beyond it are out of range.
type Memory struct {
	capacity uint64
	pages    map[uint64]*[PageSize]byte
}

// NewMemory creates a memory with the given capacity in bytes.
func NewMemory(capacity uint64) *Memory {
	if capacity == 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		capacity: capacity,
		pages:    make(map[uint64]*[PageSize]byte),
	}
}

// Capacity returns the addressable size in bytes.
func (m *Memory) Capacity() uint64 {
	return m.capacity
}

// PageCount returns the number of pages touched so far.
func (m *Memory) PageCount() int {
	return len(m.pages)
}

// InRange reports whether an access of the given size at addr lies
// entirely inside the addressable range.
func (m *Memory) InRange(addr, size uint64) bool {
	return addr < m.capacity && m.capacity-addr >= size
}

// page returns the page containing addr, or nil if never written.
func (m *Memory) page(addr uint64) *[PageSize]byte {
	return m.pages[addr/PageSize]
}

// pageForWrite returns the page containing addr, allocating it if needed.
func (m *Memory) pageForWrite(addr uint64) *[PageSize]byte {
	idx := addr / PageSize
	p := m.pages[idx]
	if p == nil {
		p = &[PageSize]byte{}
		m.pages[idx] = p
	}
	return p
}

// ReadByte reads one byte. Unwritten memory reads as zero; out-of-range
// reads return 0 (callers bounds-check with InRange before faulting).
func (m *Memory) ReadByte(addr uint64) byte {
	if addr >= m.capacity {
		return 0
	}
	p := m.page(addr)
	if p == nil {
		return 0
	}
	return p[addr%PageSize]
}

// WriteByte writes one byte. Out-of-range writes are dropped.
func (m *Memory) WriteByte(addr uint64, value byte) {
	if addr >= m.capacity {
		return
	}
	m.pageForWrite(addr)[addr%PageSize] = value
}

// Read32 reads a little-endian 32-bit value.
func (m *Memory) Read32(addr uint64) uint32 {
	if off := addr % PageSize; off+4 <= PageSize {
		p := m.page(addr)
		if p == nil {
			return 0
		}
		return binary.LittleEndian.Uint32(p[off : off+4])
	}
	var v uint32
	for i := uint64(0); i < 4; i++ {
		v |= uint32(m.ReadByte(addr+i)) << (8 * i)
	}
	return v
}

// Write32 writes a little-endian 32-bit value.
func (m *Memory) Write32(addr uint64, value uint32) {
	if !m.InRange(addr, 4) {
		return
	}
	if off := addr % PageSize; off+4 <= PageSize {
		binary.LittleEndian.PutUint32(m.pageForWrite(addr)[off:off+4], value)
		return
	}
	for i := uint64(0); i < 4; i++ {
		m.WriteByte(addr+i, byte(value>>(8*i)))
	}
}

// Read64 reads a little-endian 64-bit value.
func (m *Memory) Read64(addr uint64) uint64 {
	if off := addr % PageSize; off+8 <= PageSize {
		p := m.page(addr)
		if p == nil {
			return 0
		}
		return binary.LittleEndian.Uint64(p[off : off+8])
	}
	var v uint64
	for i := uint64(0); i < 8; i++ {
		v |= uint64(m.ReadByte(addr+i)) << (8 * i)
	}
	return v
}

// Write64 writes a little-endian 64-bit value.
func (m *Memory) Write64(addr uint64, value uint64) {
	if !m.InRange(addr, 8) {
		return
	}
	if off := addr % PageSize; off+8 <= PageSize {
		binary.LittleEndian.PutUint64(m.pageForWrite(addr)[off:off+8], value)
		return
	}
	for i := uint64(0); i < 8; i++ {
		m.WriteByte(addr+i, byte(value>>(8*i)))
	}
}

// LoadProgram copies raw bytes into memory starting at addr.
func (m *Memory) LoadProgram(addr uint64, data []byte) {
	for i, b := range data {
		m.WriteByte(addr+uint64(i), b)
	}
}

// Reset drops all pages, returning memory to the all-zero state.
func (m *Memory) Reset() {
	m.pages = make(map[uint64]*[PageSize]byte)
}

// WriteImage serializes the memory contents. Only touched pages are
// written, in ascending page order so the image is deterministic for a
// given memory state.
func (m *Memory) WriteImage(w io.Writer) error {
	header := struct {
		Magic     uint32
		Version   uint16
		Reserved  uint16
		Capacity  uint64
		PageSize  uint32
		PageCount uint32
	}{
		Magic:     memImageMagic,
		Version:   memImageVersion,
		Capacity:  m.capacity,
		PageSize:  PageSize,
		PageCount: uint32(len(m.pages)),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write memory image header: %w", err)
	}

	indices := make([]uint64, 0, len(m.pages))
	for idx := range m.pages {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		if err := binary.Write(w, binary.LittleEndian, idx); err != nil {
			return fmt.Errorf("write page index %d: %w", idx, err)
		}
		if _, err := w.Write(m.pages[idx][:]); err != nil {
			return fmt.Errorf("write page %d: %w", idx, err)
		}
	}
	return nil
}

// ReadImage replaces the memory contents with a serialized image. The
// image must carry the same capacity this memory was built with; the
// caller decides how a mismatch is reported.
func (m *Memory) ReadImage(r io.Reader) error {
	var header struct {
		Magic     uint32
		Version   uint16
		Reserved  uint16
		Capacity  uint64
		PageSize  uint32
		PageCount uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read memory image header: %w", err)
	}
	if header.Magic != memImageMagic {
		return fmt.Errorf("bad memory image magic 0x%08X", header.Magic)
	}
	if header.Version != memImageVersion {
		return fmt.Errorf("unsupported memory image version %d", header.Version)
	}
	if header.PageSize != PageSize {
		return fmt.Errorf("memory image page size %d, want %d", header.PageSize, PageSize)
	}
	if header.Capacity != m.capacity {
		return fmt.Errorf("%w: image capacity %d bytes, memory capacity %d bytes",
			ErrCapacityMismatch, header.Capacity, m.capacity)
	}

	pages := make(map[uint64]*[PageSize]byte, header.PageCount)
	for i := uint32(0); i < header.PageCount; i++ {
		var idx uint64
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return fmt.Errorf("read page index %d of %d: %w", i, header.PageCount, err)
		}
		p := &[PageSize]byte{}
		if _, err := io.ReadFull(r, p[:]); err != nil {
			return fmt.Errorf("read page %d: %w", idx, err)
		}
		pages[idx] = p
	}
	m.pages = pages
	return nil
}
