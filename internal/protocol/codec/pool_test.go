package codec

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sokoban-online/internal/protocol"
)

func TestPutMessage_ClearsFields(t *testing.T) {
	t.Parallel()

	msg := GetMessage()
	msg.Type = protocol.MsgExecuteAction
	msg.Payload = []byte(`{"action":"up"}`)
	PutMessage(msg)

	// 池可能返回同一个对象，也可能是新对象，两种情况都必须为空
	again := GetMessage()
	assert.Equal(t, protocol.Message{}, *again)

	assert.NotPanics(t, func() { PutMessage(nil) })
}

func TestPutBuffer(t *testing.T) {
	t.Parallel()

	buf := GetBuffer()
	require.NotNil(t, buf)
	buf.WriteString("#####\n#@$.#\n#####")
	PutBuffer(buf)
	assert.Zero(t, buf.Len())

	assert.NotPanics(t, func() { PutBuffer(nil) })

	big := bytes.NewBuffer(make([]byte, 0, maxPooledBuffer+1))
	big.WriteString("snapshot")
	PutBuffer(big)
	assert.Equal(t, "snapshot", big.String(), "超大缓冲区不回收也不清空")
}

func TestPools_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 64 {
		wg.Go(func() {
			msg := GetMessage()
			msg.Type = protocol.MsgPing
			PutMessage(msg)

			buf := GetBuffer()
			buf.WriteByte('#')
			PutBuffer(buf)
		})
	}
	wg.Wait()
}

func BenchmarkEncodeJSON(b *testing.B) {
	msg := &protocol.Message{Type: protocol.MsgPing, Payload: []byte(`{"timestamp":1}`)}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := Encode(msg, FormatJSON); err != nil {
				b.Fatal(err)
			}
		}
	})
}
