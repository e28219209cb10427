package domain

type MessageType string

const (
	MessageTypeControl  MessageType = "CONTROL"
	MessageTypeStandard MessageType = "STANDARD"
)

// controlMaxBytes is the provider's size ceiling for control messages.
const controlMaxBytes = 30

// ClassifyMessage picks the provider message class by serialized byte length:
// CONTROL when the UTF-8 encoding of body fits in 30 bytes, STANDARD otherwise.
func ClassifyMessage(body string) MessageType {
	if len(body) <= controlMaxBytes {
		return MessageTypeControl
	}
	return MessageTypeStandard
}
