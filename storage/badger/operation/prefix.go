package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/onflow/vm-runtime/model/vm"
)

const (
	// codes for state values
	codeStateValue = 1

	// codes for bookkeeping of committed write sets
	codeCommittedWriteSets = 10
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case string:
		return []byte(i)
	case vm.Address:
		return i[:]
	case vm.AccessPath:
		return append(i.Address[:], i.Path...)
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
