package util

import (
	"fmt"
	"sync/atomic"
)

// LabelKind identifies the purpose of a generated assembly label, so the
// text stays readable (LIfThen003, LWhileHead007, ...) instead of anonymous
// numbers.
type LabelKind int

// Label kinds used by IR lowering and MIPS emission for control flow blocks.
const (
	LabelIfThen LabelKind = iota
	LabelIfElse
	LabelIfMerge
	LabelLoopHeader
	LabelLoopBody
	LabelLoopLatch
	LabelLoopExit
	LabelBlock
)

var labelPrefix = [...]string{
	"LIfThen",
	"LIfElse",
	"LIfMerge",
	"LWhileHead",
	"LWhileBody",
	"LWhileLatch",
	"LWhileExit",
	"LBlock",
}

var labelSeq [len(labelPrefix)]uint64

// NewLabel returns a fresh, globally unique label of the given kind.
func NewLabel(kind LabelKind) string {
	seq := atomic.AddUint64(&labelSeq[kind], 1)
	return fmt.Sprintf("%s%03d", labelPrefix[kind], seq)
}
