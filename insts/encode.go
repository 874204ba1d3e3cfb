package insts

// Encoding helpers mirror the decoder's bit layouts. Workload generators
// and tests assemble programs with these instead of hand-built words.

func encodeR(op Op, rd, rn, rm uint8) uint32 {
	return uint32(op)<<24 |
		uint32(rd&0xF)<<20 |
		uint32(rn&0xF)<<16 |
		uint32(rm&0xF)<<12
}

func encodeI(op Op, rd, rn uint8, imm int16) uint32 {
	return uint32(op)<<24 |
		uint32(rd&0xF)<<20 |
		uint32(rn&0xF)<<16 |
		uint32(uint16(imm))
}

func encodeB(op Op, rd uint8, words int32) uint32 {
	return uint32(op)<<24 |
		uint32(rd&0xF)<<20 |
		uint32(words)&0xFFFFF
}

// EncodeNOP encodes a no-op.
func EncodeNOP() uint32 { return encodeR(OpNOP, 0, 0, 0) }

// EncodeHALT encodes a halt; the core's exit code is taken from r0.
func EncodeHALT() uint32 { return encodeR(OpHALT, 0, 0, 0) }

// EncodeLDI encodes rd = imm.
func EncodeLDI(rd uint8, imm int16) uint32 { return encodeI(OpLDI, rd, 0, imm) }

// EncodeADDI encodes rd = rn + imm.
func EncodeADDI(rd, rn uint8, imm int16) uint32 { return encodeI(OpADDI, rd, rn, imm) }

// EncodeADD encodes rd = rn + rm.
func EncodeADD(rd, rn, rm uint8) uint32 { return encodeR(OpADD, rd, rn, rm) }

// EncodeSUB encodes rd = rn - rm.
func EncodeSUB(rd, rn, rm uint8) uint32 { return encodeR(OpSUB, rd, rn, rm) }

// EncodeMUL encodes rd = rn * rm.
func EncodeMUL(rd, rn, rm uint8) uint32 { return encodeR(OpMUL, rd, rn, rm) }

// EncodeLD encodes rd = mem64[rn + offset].
func EncodeLD(rd, rn uint8, offset int16) uint32 { return encodeI(OpLD, rd, rn, offset) }

// EncodeST encodes mem64[rn + offset] = rd.
func EncodeST(rd, rn uint8, offset int16) uint32 { return encodeI(OpST, rd, rn, offset) }

// EncodeJMP encodes an unconditional branch of the given signed word
// displacement, relative to the branch's own address.
func EncodeJMP(words int32) uint32 { return encodeB(OpJMP, 0, words) }

// EncodeBNZ encodes a branch taken when rd != 0.
func EncodeBNZ(rd uint8, words int32) uint32 { return encodeB(OpBNZ, rd, words) }

// EncodeBZ encodes a branch taken when rd == 0.
func EncodeBZ(rd uint8, words int32) uint32 { return encodeB(OpBZ, rd, words) }

// EncodeOUT encodes a console write of rd's value.
func EncodeOUT(rd uint8) uint32 { return encodeR(OpOUT, rd, 0, 0) }
