// Package insts provides instruction definitions, decoding, and encoding
// for the simulated machine's fixed-width RISC instruction set.
//
// Instructions are 32-bit words over 16 general-purpose registers
// (register 15 reads as zero). Three encoding formats are used:
//   - R format: register operations (NOP, HALT, ADD, SUB, MUL, OUT)
//   - I format: immediate and memory operations (LDI, ADDI, LD, ST)
//   - B format: PC-relative branches (JMP, BNZ, BZ)
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(insts.EncodeADDI(2, 1, 42)) // ADDI r2, r1, #42
//	fmt.Printf("Op: %v, Rd: %d, Rn: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rn, inst.Imm)
package insts
