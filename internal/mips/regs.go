// Package mips implements the backend of spec.md §4.4-§4.6: the
// demand-driven register mapper, the IR-to-MIPS32 instruction emitter, and
// module/data-section printing. Grounded primarily on the teacher's
// src/backend/riscv/riscv.go (loadIdentifierToReg / saveRegToIdentifier /
// lruI / lruF), which is the teacher's other register-allocation strategy
// besides graph coloring -- the demand-driven one spec.md §4.4 asks for.
package mips

import "strconv"

// Class selects which of the two parallel allocators (integer / GPR,
// floating point / coprocessor-1) a value belongs to.
type Class int

const (
	ClassInt Class = iota
	ClassFloat
)

// Allocatable register ranges, spec.md §4.4: integer class [4, 26), float
// class [2, 32).
const (
	intAllocLo = 4
	intAllocHi = 26

	floatAllocLo = 2
	floatAllocHi = 32
)

// intTemp and floatTemp are the two reserved temp registers per class used
// exclusively by get_temp_register for transient constant materialization;
// they sit outside their class's allocatable range and never appear in a
// descriptor table.
var intTemp = [2]int{1, 3}   // $at, $v1
var floatTemp = [2]int{0, 1} // $f0, $f1

var intRegName = [...]string{
	"$zero", "$at", "$v0", "$v1",
	"$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9",
	"$k0", "$k1",
	"$gp", "$sp", "$fp", "$ra",
}

func intName(phys int) string {
	if phys < 0 || phys >= len(intRegName) {
		return "$?"
	}
	return intRegName[phys]
}

func floatName(phys int) string {
	return "$f" + strconv.Itoa(phys)
}

func regName(class Class, phys int) string {
	if class == ClassFloat {
		return floatName(phys)
	}
	return intName(phys)
}
