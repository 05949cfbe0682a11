// Package tagset holds ordered tag inventories. The order of an inventory decides which tag
// wins a tie during decoding, so it is part of every inventory's contract.
package tagset

import (
	"fmt"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/utils"
)

type Inventory struct {
	tags  []types.Tag
	index map[types.Tag]int
}

// New builds an inventory from an ordered list. Duplicate and empty tags are rejected.
func New(tags []types.Tag) (Inventory, error) {
	if len(tags) == 0 {
		return Inventory{}, fmt.Errorf("%w: empty tag inventory", types.ErrInvalidInput)
	}
	inv := Inventory{
		tags:  make([]types.Tag, len(tags)),
		index: make(map[types.Tag]int, len(tags)),
	}
	for i, tag := range tags {
		if tag == "" {
			return Inventory{}, fmt.Errorf("%w: empty tag at position %d", types.ErrInvalidInput, i)
		}
		if prev, ok := inv.index[tag]; ok {
			return Inventory{}, fmt.Errorf("%w: tag %q repeated at positions %d and %d", types.ErrInvalidInput, tag, prev, i)
		}
		inv.tags[i] = tag
		inv.index[tag] = i
	}
	return inv, nil
}

func FromStrings(tags ...string) (Inventory, error) {
	converted := make([]types.Tag, len(tags))
	for i, tag := range tags {
		converted[i] = types.Tag(tag)
	}
	return New(converted)
}

func MustFromStrings(tags ...string) Inventory {
	inv, err := FromStrings(tags...)
	if err != nil {
		panic(err)
	}
	return inv
}

// LoadFile reads one tag per line.
func LoadFile(filePath string) (Inventory, error) {
	lines, err := utils.ReadList(filePath)
	if err != nil {
		return Inventory{}, err
	}
	return FromStrings(lines...)
}

func Named(name string) (Inventory, error) {
	switch name {
	case types.TagsetBNC:
		return BNC(), nil
	case types.TagsetTest:
		return Test(), nil
	}
	return Inventory{}, fmt.Errorf("%w: %q", types.ErrUnknownTagset, name)
}

// FromConfig resolves the inventory a configuration asks for. Explicit tags win over a tags
// file, which wins over a named tagset.
func FromConfig(cfg types.TaggerConfig) (Inventory, error) {
	switch {
	case len(cfg.Tags) > 0:
		return New(cfg.Tags)
	case cfg.TagsFile != "":
		return LoadFile(cfg.TagsFile)
	}
	return Named(cfg.Tagset)
}

func (inv Inventory) Len() int {
	return len(inv.tags)
}

func (inv Inventory) At(i int) types.Tag {
	return inv.tags[i]
}

func (inv Inventory) Index(tag types.Tag) (int, bool) {
	i, ok := inv.index[tag]
	return i, ok
}

func (inv Inventory) Contains(tag types.Tag) bool {
	_, ok := inv.index[tag]
	return ok
}

// Tags returns a copy of the inventory in order.
func (inv Inventory) Tags() []types.Tag {
	out := make([]types.Tag, len(inv.tags))
	copy(out, inv.tags)
	return out
}
