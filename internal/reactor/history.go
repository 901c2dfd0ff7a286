package reactor

import (
	"fmt"

	"github.com/jacoelho/yang/internal/model"
)

// CopyType names the operation that produced a copied statement.
type CopyType uint8

const (
	Original CopyType = iota
	AddedByUses
	AddedByAugmentation
	AddedByUsesAugmentation
)

func (t CopyType) String() string {
	switch t {
	case Original:
		return "original"
	case AddedByUses:
		return "added-by-uses"
	case AddedByAugmentation:
		return "added-by-augmentation"
	case AddedByUsesAugmentation:
		return "added-by-uses-augmentation"
	default:
		return fmt.Sprintf("CopyType(%d)", uint8(t))
	}
}

// CopyHistory accumulates the copy operations applied to a statement.
type CopyHistory struct {
	last    CopyType
	uses    bool
	augment bool
}

// Append records one more copy operation.
func (h CopyHistory) Append(t CopyType) CopyHistory {
	h.last = t
	switch t {
	case AddedByUses:
		h.uses = true
	case AddedByAugmentation:
		h.augment = true
	case AddedByUsesAugmentation:
		h.uses, h.augment = true, true
	}
	return h
}

// LastOperation returns the most recent copy operation.
func (h CopyHistory) LastOperation() CopyType { return h.last }

// IsAddedByUses reports whether any copy came from a uses statement.
func (h CopyHistory) IsAddedByUses() bool { return h.uses }

// IsAugmenting reports whether any copy came from an augmentation.
func (h CopyHistory) IsAugmenting() bool { return h.augment }

// Flags maps the history onto effective statement flags.
func (h CopyHistory) Flags() model.Flags {
	var f model.Flags
	if h.uses {
		f |= model.FlagAddedByUses
	}
	if h.augment {
		f |= model.FlagAugmenting
	}
	return f
}
