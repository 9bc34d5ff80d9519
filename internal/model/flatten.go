package model

import (
	"encoding/binary"
	"hash"
	"math"

	"github.com/spaolacci/murmur3"
)

// Fingerprint hashes every field of the tree. Structurally equal trees always
// share a fingerprint; the converse is confirmed with Equal.
func (d *DataStructure) Fingerprint() uint64 {
	h := murmur3.New64()
	writeNode(h, d)
	return h.Sum64()
}

func writeNode(h hash.Hash64, d *DataStructure) {
	if d == nil {
		writeUint(h, 0)
		return
	}
	writeUint(h, 1)
	writeString(h, d.Name)
	writeString(h, d.Description)
	writeString(h, string(d.PropertyType))
	writeString(h, d.Format)
	writeBool(h, d.Required)
	writeString(h, d.Pattern)
	writeBound(h, d.Min)
	writeBound(h, d.Max)
	writeUintPtr(h, d.MinLength)
	writeUintPtr(h, d.MaxLength)
	writeString(h, d.ObjectName)
	writeBool(h, d.IsRoot)
	writeUint(h, uint64(len(d.RequiredProperties)))
	for _, r := range d.RequiredProperties {
		writeString(h, r)
	}
	writeUint(h, uint64(len(d.Properties)))
	for _, p := range d.Properties {
		writeNode(h, p)
	}
}

func writeUint(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// Strings are length-prefixed so adjacent fields cannot run together.
func writeString(h hash.Hash64, s string) {
	writeUint(h, uint64(len(s)))
	_, _ = h.Write([]byte(s))
}

func writeBool(h hash.Hash64, b bool) {
	if b {
		writeUint(h, 1)
		return
	}
	writeUint(h, 0)
}

func writeBound(h hash.Hash64, b *Bound) {
	if b == nil {
		writeUint(h, 0)
		return
	}
	writeUint(h, 1+uint64(b.Kind))
	writeUint(h, uint64(b.Int))
	writeUint(h, b.Uint)
	writeUint(h, math.Float64bits(b.Float))
}

func writeUintPtr(h hash.Hash64, v *uint64) {
	if v == nil {
		writeUint(h, 0)
		return
	}
	writeUint(h, 1)
	writeUint(h, *v)
}

// ModelSet is an insertion-ordered set of trees under structural equality.
// Lookups go through the fingerprint, so building a set of n models is linear in n
// rather than quadratic. The zero value is ready to use.
type ModelSet struct {
	index map[uint64][]int
	items []*DataStructure
}

// Add appends d unless a structurally equal tree is already present, and reports
// whether it was added.
func (s *ModelSet) Add(d *DataStructure) bool {
	fp := d.Fingerprint()
	for _, i := range s.index[fp] {
		if Equal(s.items[i], d) {
			return false
		}
	}
	if s.index == nil {
		s.index = make(map[uint64][]int)
	}
	s.index[fp] = append(s.index[fp], len(s.items))
	s.items = append(s.items, d)
	return true
}

func (s *ModelSet) Contains(d *DataStructure) bool {
	for _, i := range s.index[d.Fingerprint()] {
		if Equal(s.items[i], d) {
			return true
		}
	}
	return false
}

// Items returns the members in first-seen order.
func (s *ModelSet) Items() []*DataStructure { return s.items }

func (s *ModelSet) Len() int { return len(s.items) }

// Flatten lists every Object and Array node of root in pre-order, dropping
// structural duplicates. root comes first when it is composite.
func Flatten(root *DataStructure) []*DataStructure {
	var set ModelSet
	var visit func(*DataStructure)
	visit = func(d *DataStructure) {
		if !d.IsComposite() {
			return
		}
		if !set.Add(d) {
			// An equal subtree was already walked.
			return
		}
		for _, child := range d.Properties {
			visit(child)
		}
	}
	if root != nil {
		visit(root)
	}
	return set.Items()
}

// Merge concatenates lists keeping the first of every group of structurally equal
// trees, in order.
func Merge(lists ...[]*DataStructure) []*DataStructure {
	var set ModelSet
	for _, list := range lists {
		for _, d := range list {
			set.Add(d)
		}
	}
	return set.Items()
}
