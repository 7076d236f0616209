// Package tagalloc assigns protobuf field numbers to fields declared
// without one.
//
// Numbers are handed out in increasing order starting from 1. Reserved
// ranges, numbers already used by other fields and the range reserved for
// the protobuf implementation (19000 to 19999) are skipped. A reservation
// that reaches the maximum field number ends allocation.
//
//	alloc, err := tagalloc.New(tagalloc.Range{Start: 3, End: 5}, tagalloc.ToMax(10))
//	if err != nil {
//		return err
//	}
//	n, err := alloc.Next() // 1
package tagalloc
