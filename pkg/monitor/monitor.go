package monitor

import "time"

// MonitorMessage is one entry of channel traffic surfaced to a monitor.
type MonitorMessage struct {
	Timestamp   time.Time
	MessageType string // "USER" or "ASSISTANT"
	ChannelID   string
	Username    string
	Content     string
}

// Monitor defines the behavior of a traffic monitor.
type Monitor interface {
	Start() error
	Stop() error
	OnMessage(msg MonitorMessage)
}
