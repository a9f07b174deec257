package codec

import (
	"bytes"
	"sync"

	"github.com/palemoky/sokoban-online/internal/protocol"
)

// maxPooledBuffer 超过该容量的缓冲区不回收，避免大关卡的快照长期占用内存
const maxPooledBuffer = 64 << 10

var (
	messagePool = sync.Pool{New: func() any { return new(protocol.Message) }}
	bufferPool  = sync.Pool{New: func() any { return new(bytes.Buffer) }}
)

// GetMessage 从池中取出一个空消息
func GetMessage() *protocol.Message {
	return messagePool.Get().(*protocol.Message)
}

// PutMessage 清空后归还消息，调用方之后不能再持有 Payload
func PutMessage(msg *protocol.Message) {
	if msg == nil {
		return
	}
	*msg = protocol.Message{}
	messagePool.Put(msg)
}

// GetBuffer 取出编码缓冲区
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer 归还编码缓冲区
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
