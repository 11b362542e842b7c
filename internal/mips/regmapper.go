package mips

import (
	"mipscc/internal/ir"
	"mipscc/internal/util"
)

// savedSentinel marks a Saved-list entry that has not actually been spilled
// to the stack (spec.md §4.4: "entries equal to a sentinel indicate 'not
// saved'").
const savedSentinel = -1

type classFile struct {
	free    []int             // empty[fl]: LIFO free list of unbound physical registers
	regOf   map[ir.Value]int  // reg_of[fl]
	slotOf  map[ir.Value]int  // slot_of[fl]
	heldBy  map[int]ir.Value  // reverse of regOf, used to find a spill victim's value
	victim  int               // round-robin cursor into the allocatable range
	tempTog int               // toggles between the two reserved temp registers
	lo, hi  int
	temps   [2]int
}

func newClassFile(lo, hi int, temps [2]int) *classFile {
	cf := &classFile{
		regOf:  make(map[ir.Value]int),
		slotOf: make(map[ir.Value]int),
		heldBy: make(map[int]ir.Value),
		lo:     lo, hi: hi,
		temps: temps,
	}
	for r := hi - 1; r >= lo; r-- {
		cf.free = append(cf.free, r)
	}
	return cf
}

func (cf *classFile) popFree() (int, bool) {
	if len(cf.free) == 0 {
		return 0, false
	}
	r := cf.free[len(cf.free)-1]
	cf.free = cf.free[:len(cf.free)-1]
	return r, true
}

func (cf *classFile) nextVictim() int {
	r := cf.lo + cf.victim%(cf.hi-cf.lo)
	cf.victim++
	return r
}

func (cf *classFile) nextTemp() int {
	t := cf.temps[cf.tempTog%2]
	cf.tempTog++
	return t
}

// RegisterMapper is the per-function register allocator described in
// spec.md §4.4. It owns both parallel class files, the alloca descriptor,
// the frame-size counter, and the saved-register list, and it emits
// assembly text directly as it allocates -- demand-driven allocation and
// codegen are the same act, per the teacher's loadIdentifierToReg.
type RegisterMapper struct {
	classes   [2]*classFile
	allocaOf  map[ir.Value]int
	stackSize int
	saved     []savedEntry

	w *util.Writer
}

type savedEntry struct {
	class  Class
	phys   int
	offset int
}

// NewRegisterMapper allocates a fresh mapper for one function, writing
// emitted instructions to w.
func NewRegisterMapper(w *util.Writer) *RegisterMapper {
	return &RegisterMapper{
		classes: [2]*classFile{
			ClassInt:   newClassFile(intAllocLo, intAllocHi, intTemp),
			ClassFloat: newClassFile(floatAllocLo, floatAllocHi, floatTemp),
		},
		allocaOf: make(map[ir.Value]int),
		w:        w,
	}
}

// ClassOf implements spec.md §4.4's class-selection rule.
func ClassOf(v ir.Value) Class {
	if ir.IsFloat(v) {
		return ClassFloat
	}
	return ClassInt
}

// AllocSlot grows the frame by one word and returns the new slot's offset,
// implementing the monotonically increasing stack-size counter.
func (m *RegisterMapper) AllocSlot() int {
	off := m.stackSize
	m.stackSize += 4
	return off
}

// StackSize returns the current frame size.
func (m *RegisterMapper) StackSize() int { return m.stackSize }

// RecordAlloca records the stack slot produced by an `alloca` IR
// instruction.
func (m *RegisterMapper) RecordAlloca(v ir.Value) int {
	off := m.AllocSlot()
	m.allocaOf[v] = off
	return off
}

// markSaved registers phys as needing a writeback at function return the
// first time it is handed out of the allocatable pool, spilling its
// incoming (caller-owned) contents immediately so the function is free to
// clobber it.
func (m *RegisterMapper) markSaved(class Class, phys int) {
	for _, s := range m.saved {
		if s.class == class && s.phys == phys {
			return
		}
	}
	off := m.AllocSlot()
	m.saved = append(m.saved, savedEntry{class: class, phys: phys, offset: off})
	if class == ClassFloat {
		m.w.Write("\ts.s %s, %d($sp)\n", regName(class, phys), off)
	} else {
		m.w.Write("\tsw %s, %d($sp)\n", regName(class, phys), off)
	}
}

// RestoreSaved emits the epilogue's writeback of every registered saved
// register, spec.md §4.4: "At Return, load_saved restores any
// caller-saved registers recorded in the saved list from their saved
// offsets."
func (m *RegisterMapper) RestoreSaved() {
	for _, s := range m.saved {
		if s.class == ClassFloat {
			m.w.Write("\tl.s %s, %d($sp)\n", regName(s.class, s.phys), s.offset)
		} else {
			m.w.Write("\tlw %s, %d($sp)\n", regName(s.class, s.phys), s.offset)
		}
	}
}

// Evict drops v's register binding, if any, writing its value back to a
// fresh stack slot. Called by allocDest when it reclaims a spill victim.
func (m *RegisterMapper) Evict(v ir.Value) {
	class := ClassOf(v)
	cf := m.classes[class]
	phys, ok := cf.regOf[v]
	if !ok {
		return
	}
	off := m.AllocSlot()
	if class == ClassFloat {
		m.w.Write("\ts.s %s, %d($sp)\n", regName(class, phys), off)
	} else {
		m.w.Write("\tsw %s, %d($sp)\n", regName(class, phys), off)
	}
	cf.slotOf[v] = off
	delete(cf.regOf, v)
	delete(cf.heldBy, phys)
}

// allocDest picks a destination register for a fresh binding: pop the free
// list if non-empty, else round-robin a spill victim and evict whatever it
// currently holds.
func (m *RegisterMapper) allocDest(class Class) int {
	cf := m.classes[class]
	if phys, ok := cf.popFree(); ok {
		m.markSaved(class, phys)
		return phys
	}
	phys := cf.nextVictim()
	if occupant, ok := cf.heldBy[phys]; ok {
		m.Evict(occupant)
	}
	m.markSaved(class, phys)
	return phys
}

// LoadValue is load_value(v) -> phys_reg, the mapper's central primitive,
// spec.md §4.4 steps 1-6.
func (m *RegisterMapper) LoadValue(v ir.Value) string {
	class := ClassOf(v)
	cf := m.classes[class]

	// Step 1: constants materialize into a rotating temp register and are
	// never entered into a descriptor table.
	switch c := v.(type) {
	case *ir.ConstantInt:
		t := cf.nextTemp()
		name := regName(class, t)
		m.w.Write("\tlui %s, %d\n", name, uint32(c.Val)>>16)
		m.w.Write("\tori %s, %s, %d\n", name, name, uint32(c.Val)&0xffff)
		return name
	case *ir.ConstantFloat:
		t := cf.nextTemp()
		name := regName(class, t)
		m.w.Write("\tl.s %s, %s\n", name, c.Label)
		return name
	case *ir.GlobalRef:
		t := cf.nextTemp()
		name := regName(class, t)
		if class == ClassFloat {
			m.w.Write("\tl.s %s, %s\n", name, c.Name)
		} else {
			m.w.Write("\tlw %s, %s\n", name, c.Name)
		}
		return name
	}

	// Step 2: already bound.
	if phys, ok := cf.regOf[v]; ok {
		return regName(class, phys)
	}

	// Step 6: an alloca result materializes its address, not a loaded word.
	if off, ok := m.allocaOf[v]; ok {
		phys := m.allocDest(class)
		cf.regOf[v] = phys
		cf.heldBy[phys] = v
		m.w.Write("\tla %s, %d($sp)\n", regName(class, phys), off)
		return regName(class, phys)
	}

	// Steps 3-4: pick a destination, evicting whatever it holds.
	phys := m.allocDest(class)

	// Step 5: materialize v into the register if it has a spilled slot.
	if off, ok := cf.slotOf[v]; ok {
		if class == ClassFloat {
			m.w.Write("\tl.s %s, %d($sp)\n", regName(class, phys), off)
		} else {
			m.w.Write("\tlw %s, %d($sp)\n", regName(class, phys), off)
		}
		delete(cf.slotOf, v)
	}

	cf.regOf[v] = phys
	cf.heldBy[phys] = v
	return regName(class, phys)
}

// Bind installs v's value directly into phys without emitting a load --
// used right after an instruction computes its own result into a
// register, so the following LoadValue sees it already bound.
func (m *RegisterMapper) Bind(v ir.Value, physName string) {
	class := ClassOf(v)
	cf := m.classes[class]
	phys := parseRegName(class, physName)
	if occupant, ok := cf.heldBy[phys]; ok && occupant != v {
		delete(cf.regOf, occupant)
	}
	cf.regOf[v] = phys
	cf.heldBy[phys] = v
}

// AllocDestReg reserves a fresh destination register for class without
// binding any value to it yet, used by instruction emission to obtain the
// register an arithmetic op's result will land in before the result value
// exists.
func (m *RegisterMapper) AllocDestReg(class Class) string {
	return regName(class, m.allocDest(class))
}

func parseRegName(class Class, name string) int {
	table := intRegName[:]
	if class == ClassFloat {
		for i := 0; i < floatAllocHi; i++ {
			if floatName(i) == name {
				return i
			}
		}
		return 0
	}
	for i, n := range table {
		if n == name {
			return i
		}
	}
	return 0
}
