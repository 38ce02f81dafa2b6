package ecs

import (
	"iter"
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

const (
	blockSize = 64
)

// SparseStore holds at most one component of type T per entity index.
// Slots are grouped in fixed-size blocks so that growing the store never
// moves existing components: pointers returned by Get stay valid until the
// store is cleared or unregistered.
type SparseStore[T any] struct {
	blocks []*[blockSize]T
	filled []*[blockSize]bool
	length int
	count  int
}

// NewSparseStore creates an empty store.
func NewSparseStore[T any]() *SparseStore[T] {
	return &SparseStore[T]{}
}

// Len returns the number of slots (present or absent) in the store.
func (s *SparseStore[T]) Len() int {
	return s.length
}

// Count returns the number of slots that currently hold a value.
func (s *SparseStore[T]) Count() int {
	return s.count
}

func (s *SparseStore[T]) checkRange(index int) error {
	if index < 0 || index >= s.length {
		return errors.Wrapf(ErrOutOfRange, "index %d (len %d)", index, s.length)
	}
	return nil
}

// grow makes sure index is addressable. New slots are absent.
func (s *SparseStore[T]) grow(index int) {
	if index < s.length {
		return
	}
	for index/blockSize >= len(s.blocks) {
		s.blocks = append(s.blocks, new([blockSize]T))
		s.filled = append(s.filled, new([blockSize]bool))
	}
	s.length = index + 1
}

// Has reports whether a value is present at index.
func (s *SparseStore[T]) Has(index int) (bool, error) {
	if err := s.checkRange(index); err != nil {
		return false, err
	}
	return s.filled[index/blockSize][index%blockSize], nil
}

// Get returns a pointer to the value at index. The pointer may be used to
// mutate the component in place.
func (s *SparseStore[T]) Get(index int) (*T, error) {
	if err := s.checkRange(index); err != nil {
		return nil, err
	}
	blockIdx, slotIdx := index/blockSize, index%blockSize
	if !s.filled[blockIdx][slotIdx] {
		return nil, errors.Wrapf(ErrEmptySlot, "index %d", index)
	}
	return &s.blocks[blockIdx][slotIdx], nil
}

// Set overwrites the slot at index. The slot must already exist, see InitSlot.
func (s *SparseStore[T]) Set(index int, value T) error {
	if err := s.checkRange(index); err != nil {
		return err
	}
	s.put(index, value)
	return nil
}

// InitSlot grows the store to cover index if needed and marks the slot absent.
func (s *SparseStore[T]) InitSlot(index int) {
	if index < 0 {
		return
	}
	s.grow(index)
	s.clearSlot(index)
}

// Emplace grows the store if needed, stores value at index and returns a
// pointer to the stored copy. Negative indices fail with ErrOutOfRange.
func (s *SparseStore[T]) Emplace(index int, value T) (*T, error) {
	if index < 0 {
		return nil, errors.Wrapf(ErrOutOfRange, "index %d", index)
	}
	s.grow(index)
	s.put(index, value)
	return &s.blocks[index/blockSize][index%blockSize], nil
}

// Erase marks the slot at index absent. Storage is never shrunk.
func (s *SparseStore[T]) Erase(index int) error {
	if err := s.checkRange(index); err != nil {
		return err
	}
	s.clearSlot(index)
	return nil
}

// Clear drops every slot.
func (s *SparseStore[T]) Clear() {
	s.blocks = nil
	s.filled = nil
	s.length = 0
	s.count = 0
}

// Iter yields every present slot in ascending index order.
func (s *SparseStore[T]) Iter() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < s.length; i++ {
			blockIdx, slotIdx := i/blockSize, i%blockSize
			if !s.filled[blockIdx][slotIdx] {
				continue
			}
			if !yield(i, &s.blocks[blockIdx][slotIdx]) {
				return
			}
		}
	}
}

func (s *SparseStore[T]) put(index int, value T) {
	blockIdx, slotIdx := index/blockSize, index%blockSize
	if !s.filled[blockIdx][slotIdx] {
		s.count++
	}
	s.blocks[blockIdx][slotIdx] = value
	s.filled[blockIdx][slotIdx] = true
}

func (s *SparseStore[T]) clearSlot(index int) {
	blockIdx, slotIdx := index/blockSize, index%blockSize
	if s.filled[blockIdx][slotIdx] {
		s.count--
	}
	var zero T
	s.blocks[blockIdx][slotIdx] = zero
	s.filled[blockIdx][slotIdx] = false
}

// The methods below satisfy componentColumn.

func (s *SparseStore[T]) initSlot(index int) { s.InitSlot(index) }

func (s *SparseStore[T]) erase(index int) {
	if index >= 0 && index < s.length {
		s.clearSlot(index)
	}
}

func (s *SparseStore[T]) has(index int) bool {
	if index < 0 || index >= s.length {
		return false
	}
	return s.filled[index/blockSize][index%blockSize]
}

func (s *SparseStore[T]) pointer(index int) unsafe.Pointer {
	return unsafe.Pointer(&s.blocks[index/blockSize][index%blockSize])
}

func (s *SparseStore[T]) value(index int) any {
	if !s.has(index) {
		return nil
	}
	return &s.blocks[index/blockSize][index%blockSize]
}

func (s *SparseStore[T]) clear() { s.Clear() }

func (s *SparseStore[T]) componentType() reflect.Type {
	return reflect.TypeFor[T]()
}
