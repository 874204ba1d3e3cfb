package workloads

import (
	"github.com/sarchlab/phasesim/insts"
)

// CountUp returns a program that retires exactly n instructions and
// halts with exit code 0. n must be in [2, 65537]; for longer runs use
// Spin.
func CountUp(n uint64) *Program {
	pad := (n - 2) % 2
	iters := (n - 2 - pad) / 2

	var code []uint32
	if iters > 0 {
		code = append(code,
			insts.EncodeLDI(1, int16(iters)),
			insts.EncodeADDI(1, 1, -1),
			insts.EncodeBNZ(1, -1),
		)
	} else {
		code = append(code, insts.EncodeLDI(1, 0))
	}
	for i := uint64(0); i < pad; i++ {
		code = append(code, insts.EncodeNOP())
	}
	code = append(code, insts.EncodeHALT())

	return &Program{Code: code}
}

// Spin returns a long-running nested loop for fast-forward tests. It
// retires SpinRetired(outer, inner) instructions, then halts with exit
// code 0.
func Spin(outer, inner uint16) *Program {
	return &Program{
		Code: []uint32{
			insts.EncodeLDI(2, int16(outer)),
			insts.EncodeLDI(1, int16(inner)),
			insts.EncodeADDI(1, 1, -1),
			insts.EncodeBNZ(1, -1),
			insts.EncodeADDI(2, 2, -1),
			insts.EncodeBNZ(2, -4),
			insts.EncodeLDI(0, 0),
			insts.EncodeHALT(),
		},
	}
}

// SpinRetired returns the number of instructions Spin(outer, inner)
// retires.
func SpinRetired(outer, inner uint16) uint64 {
	return 3 + uint64(outer)*(3+2*uint64(inner))
}

// stridedDataAddr keeps the data image inside the signed 16-bit offset
// a load immediate can carry.
const stridedDataAddr = 0x4000

// StridedSum returns a memory-touching workload: it sums elems 64-bit
// values spaced stride elements apart, prints the sum, and halts.
// elems*stride*8 must stay below stridedDataAddr's addressable window.
func StridedSum(elems, stride uint16) *Program {
	data := make([]byte, uint64(elems)*uint64(stride)*8)
	for i := uint16(0); i < elems; i++ {
		addr := uint64(i) * uint64(stride) * 8
		data[addr] = byte(i + 1)
	}

	return &Program{
		Code: []uint32{
			insts.EncodeLDI(1, int16(elems)),
			insts.EncodeLDI(2, 0),
			insts.EncodeLDI(3, 0),
			insts.EncodeLD(6, 3, stridedDataAddr),
			insts.EncodeADD(2, 2, 6),
			insts.EncodeADDI(3, 3, int16(stride)*8),
			insts.EncodeADDI(1, 1, -1),
			insts.EncodeBNZ(1, -4),
			insts.EncodeOUT(2),
			insts.EncodeLDI(0, 0),
			insts.EncodeHALT(),
		},
		DataAddr: stridedDataAddr,
		Data:     data,
	}
}

// Fibonacci returns a branchy workload computing the n-th Fibonacci
// number, printing it, and halting.
func Fibonacci(n uint16) *Program {
	return &Program{
		Code: []uint32{
			insts.EncodeLDI(1, int16(n)),
			insts.EncodeLDI(2, 0),
			insts.EncodeLDI(3, 1),
			insts.EncodeADD(4, 2, 3),
			insts.EncodeADD(2, 3, insts.RegZero),
			insts.EncodeADD(3, 4, insts.RegZero),
			insts.EncodeADDI(1, 1, -1),
			insts.EncodeBNZ(1, -4),
			insts.EncodeOUT(2),
			insts.EncodeLDI(0, 0),
			insts.EncodeHALT(),
		},
	}
}
