package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/sokoban-online/internal/protocol"
)

// Format 消息帧格式
type Format int

const (
	FormatJSON     Format = iota // 文本帧：{"type":..., "payload":...}
	FormatProtobuf               // 二进制帧：protobuf 信封，字段 1 为类型，字段 2 为 payload
)

const (
	fieldType    protowire.Number = 1
	fieldPayload protowire.Number = 2
)

// ErrEmptyType 消息缺少类型
var ErrEmptyType = errors.New("message type is empty")

// NewMessage 创建一个新消息，payload 使用 JSON 编码
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := &protocol.Message{Type: msgType}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 按指定格式编码消息
func Encode(m *protocol.Message, format Format) ([]byte, error) {
	if format == FormatProtobuf {
		return encodeProtobuf(m), nil
	}
	return encodeJSON(m)
}

func encodeJSON(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	// Encoder 会追加换行
	return bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func encodeProtobuf(m *protocol.Message) []byte {
	b := make([]byte, 0, len(m.Type)+len(m.Payload)+8)
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(m.Type))
	if len(m.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Payload)
	}
	return b
}

// Decode 按指定格式解码消息
// 注意: 同步处理完毕后应调用 PutMessage 归还对象到池；需要长期持有的消息不要归还
func Decode(data []byte, format Format) (*protocol.Message, error) {
	msg := GetMessage()

	var err error
	if format == FormatProtobuf {
		err = decodeProtobuf(data, msg)
	} else {
		err = json.Unmarshal(data, msg)
	}
	if err == nil && msg.Type == "" {
		err = ErrEmptyType
	}
	if err != nil {
		PutMessage(msg)
		return nil, err
	}
	return msg, nil
}

func decodeProtobuf(b []byte, msg *protocol.Message) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			msg.Type = protocol.MessageType(v)
			b = b[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			msg.Payload = append([]byte(nil), v...) // 复制 payload 避免引用
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("解析 %s payload 失败: %w", msg.Type, err)
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
}
