package gateway

import (
	"tempo/pkg/api"
)

// Aliases into the api package so channel implementations and the gateway
// share one set of contract types.
type Channel = api.Channel
type SignalingChannel = api.SignalingChannel
type ToolRelayChannel = api.ToolRelayChannel
type MessageResponder = api.MessageResponder
type ChannelContext = api.ChannelContext
type UnifiedMessage = api.UnifiedMessage
type SessionContext = api.SessionContext
type ClientToolCall = api.ClientToolCall

type MessageHandler = api.MessageHandler
