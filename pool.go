package mqttv5

import "sync"

// bytesBufferPool reduces per-packet allocations on the encode path, where
// every outbound frame is built into a scratch buffer before being written
// to the wire.
var bytesBufferPool = sync.Pool{
	New: func() any {
		return &bytesBuffer{}
	},
}

// getBytesBuffer returns a pooled bytesBuffer.
func getBytesBuffer() *bytesBuffer {
	b := bytesBufferPool.Get().(*bytesBuffer)
	b.data = b.data[:0]
	return b
}

// putBytesBuffer returns a bytesBuffer to the pool.
func putBytesBuffer(b *bytesBuffer) {
	if b == nil {
		return
	}
	if cap(b.data) <= 65536 {
		b.data = b.data[:0]
		bytesBufferPool.Put(b)
	}
}
