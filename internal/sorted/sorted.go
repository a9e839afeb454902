// Package sorted provides sorting of copies of slices and map keys.
package sorted

import (
	"cmp"
	"sort"
)

type sorter[E any] struct {
	src []E
	lt  func(left, right E) bool
}

func (s sorter[E]) Len() int {
	return len(s.src)
}

func (s sorter[E]) Swap(i, j int) {
	s.src[i], s.src[j] = s.src[j], s.src[i]
}

func (s sorter[E]) Less(i, j int) bool {
	return s.lt(s.src[i], s.src[j])
}

// By returns a copy of items sorted with the provided function. The function
// should return true if left is less than (comes before) right. Items that
// compare equal keep their relative order.
//
// items will not be modified.
func By[E any](items []E, lt func(left E, right E) bool) []E {
	if len(items) == 0 || lt == nil {
		return items
	}

	s := sorter[E]{
		src: make([]E, len(items)),
		lt:  lt,
	}

	copy(s.src, items)
	sort.Stable(s)
	return s.src
}

// Keys returns the keys of m in ascending order.
func Keys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return By(keys, func(left, right K) bool {
		return left < right
	})
}
