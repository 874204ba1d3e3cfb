// Package workloads builds and loads the flat programs the simulator
// runs. Generators assemble synthetic workloads for tests and demos;
// the PSIM flat-binary format carries real programs between tools.
package workloads

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/phasesim/emu"
)

// PSIM flat-binary format.
const (
	programMagic   uint32 = 0x4D495350 // "PSIM"
	programVersion uint16 = 1
)

// Program is a loadable workload: code words, optional data bytes, and
// where they go.
type Program struct {
	// Entry is the address execution starts at.
	Entry uint64

	// LoadAddr is where the code words are placed.
	LoadAddr uint64

	// Code is the instruction stream.
	Code []uint32

	// DataAddr is where Data is placed, when Data is non-empty.
	DataAddr uint64

	// Data is the initial data image.
	Data []byte
}

// CodeBytes returns the code words as a little-endian byte image.
func (p *Program) CodeBytes() []byte {
	out := make([]byte, len(p.Code)*4)
	for i, w := range p.Code {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// LoadInto writes the program image into memory. The caller points the
// cores at Entry.
func (p *Program) LoadInto(mem *emu.Memory) {
	mem.LoadProgram(p.LoadAddr, p.CodeBytes())
	if len(p.Data) > 0 {
		mem.LoadProgram(p.DataAddr, p.Data)
	}
}

// programHeader is the fixed head of a PSIM file.
type programHeader struct {
	Magic    uint32
	Version  uint16
	Reserved uint16
	Entry    uint64
	LoadAddr uint64
	DataAddr uint64
	CodeLen  uint32
	DataLen  uint32
}

// Save writes the program in PSIM flat-binary form.
func (p *Program) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create program file: %w", err)
	}
	defer f.Close()

	header := programHeader{
		Magic:    programMagic,
		Version:  programVersion,
		Entry:    p.Entry,
		LoadAddr: p.LoadAddr,
		DataAddr: p.DataAddr,
		CodeLen:  uint32(len(p.Code)),
		DataLen:  uint32(len(p.Data)),
	}

	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write program header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, p.Code); err != nil {
		return fmt.Errorf("write program code: %w", err)
	}
	if _, err := f.Write(p.Data); err != nil {
		return fmt.Errorf("write program data: %w", err)
	}
	return f.Close()
}

// Load reads a program in PSIM flat-binary form.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open program file: %w", err)
	}
	defer f.Close()

	var header programHeader
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read program header: %w", err)
	}
	if header.Magic != programMagic {
		return nil, fmt.Errorf("bad program magic 0x%08X", header.Magic)
	}
	if header.Version != programVersion {
		return nil, fmt.Errorf("unsupported program version %d", header.Version)
	}

	p := &Program{
		Entry:    header.Entry,
		LoadAddr: header.LoadAddr,
		DataAddr: header.DataAddr,
		Code:     make([]uint32, header.CodeLen),
		Data:     make([]byte, header.DataLen),
	}
	if err := binary.Read(f, binary.LittleEndian, p.Code); err != nil {
		return nil, fmt.Errorf("read program code: %w", err)
	}
	if header.DataLen > 0 {
		if _, err := io.ReadFull(f, p.Data); err != nil {
			return nil, fmt.Errorf("read program data: %w", err)
		}
	}

	return p, nil
}
