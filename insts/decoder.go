package insts

// NumRegs is the number of general-purpose registers.
const NumRegs = 16

// RegZero is the hardwired zero register: reads return 0, writes are ignored.
const RegZero = 15

// WordBytes is the size of one instruction word in bytes.
const WordBytes = 4

// Op represents an opcode.
type Op uint8

// Opcodes.
const (
	OpUnknown Op = 0x00

	OpNOP  Op = 0x01
	OpHALT Op = 0x02

	OpLDI  Op = 0x10
	OpADDI Op = 0x11
	OpADD  Op = 0x12
	OpSUB  Op = 0x13
	OpMUL  Op = 0x14

	OpLD Op = 0x20
	OpST Op = 0x21

	OpJMP Op = 0x30
	OpBNZ Op = 0x31
	OpBZ  Op = 0x32

	OpOUT Op = 0x40
)

var opNames = map[Op]string{
	OpUnknown: "UNKNOWN",
	OpNOP:     "NOP",
	OpHALT:    "HALT",
	OpLDI:     "LDI",
	OpADDI:    "ADDI",
	OpADD:     "ADD",
	OpSUB:     "SUB",
	OpMUL:     "MUL",
	OpLD:      "LD",
	OpST:      "ST",
	OpJMP:     "JMP",
	OpBNZ:     "BNZ",
	OpBZ:      "BZ",
	OpOUT:     "OUT",
}

// String returns the mnemonic for the opcode.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register: op | rd | rn | rm | pad
	FormatI              // Immediate: op | rd | rn | imm16
	FormatB              // Branch: op | rd | imm20
)

// Instruction represents a decoded instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format

	Rd uint8 // Destination register (value source for ST, OUT, BNZ, BZ)
	Rn uint8 // First source register / memory base register
	Rm uint8 // Second source register (R format)

	// Imm is the sign-extended 16-bit immediate (I format). For LD/ST it
	// is the byte offset added to the base register.
	Imm int64

	// BranchOffset is the signed branch displacement in bytes, relative
	// to the branch instruction's own address (B format).
	BranchOffset int64
}

// Decoder decodes 32-bit machine words into instructions.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown}

	// Bits [31:24] hold the opcode, bits [23:20] the primary register.
	op := Op(word >> 24)

	switch op {
	case OpNOP, OpHALT, OpADD, OpSUB, OpMUL, OpOUT:
		d.decodeR(word, op, inst)
	case OpLDI, OpADDI, OpLD, OpST:
		d.decodeI(word, op, inst)
	case OpJMP, OpBNZ, OpBZ:
		d.decodeB(word, op, inst)
	default:
		// Unknown opcode: leave OpUnknown, execution faults on it.
	}

	return inst
}

// decodeR decodes register-format instructions.
// Layout: op(8) | rd(4) | rn(4) | rm(4) | pad(12)
func (d *Decoder) decodeR(word uint32, op Op, inst *Instruction) {
	inst.Op = op
	inst.Format = FormatR
	inst.Rd = uint8((word >> 20) & 0xF) // bits [23:20]
	inst.Rn = uint8((word >> 16) & 0xF) // bits [19:16]
	inst.Rm = uint8((word >> 12) & 0xF) // bits [15:12]
}

// decodeI decodes immediate-format instructions.
// Layout: op(8) | rd(4) | rn(4) | imm16
func (d *Decoder) decodeI(word uint32, op Op, inst *Instruction) {
	inst.Op = op
	inst.Format = FormatI
	inst.Rd = uint8((word >> 20) & 0xF) // bits [23:20]
	inst.Rn = uint8((word >> 16) & 0xF) // bits [19:16]

	imm16 := word & 0xFFFF // bits [15:0]
	inst.Imm = int64(int16(imm16))
}

// decodeB decodes branch-format instructions.
// Layout: op(8) | rd(4) | imm20
func (d *Decoder) decodeB(word uint32, op Op, inst *Instruction) {
	inst.Op = op
	inst.Format = FormatB
	inst.Rd = uint8((word >> 20) & 0xF) // bits [23:20]

	imm20 := word & 0xFFFFF // bits [19:0]

	// Sign-extend imm20 and convert word displacement to bytes.
	offset := int64(imm20)
	if (imm20 >> 19) == 1 {
		offset |= ^int64(0xFFFFF)
	}
	offset *= WordBytes

	inst.BranchOffset = offset
}
