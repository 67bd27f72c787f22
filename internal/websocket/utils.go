// internal/websocket/utils.go
package websocket

import (
	"encoding/json"
	"strings"

	wstypes "fanbase-service/internal/domain/websocket"
)

// mapToStruct converts interface{} to a specific struct using JSON marshaling
func mapToStruct(data interface{}, target interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

// channelFor routes a pushed event to the channel that carries it.
func channelFor(event string) wstypes.ChannelType {
	switch {
	case strings.HasPrefix(event, "wallet."):
		return wstypes.ChannelWallet
	case strings.HasPrefix(event, "subscription."), strings.HasPrefix(event, "payment."):
		return wstypes.ChannelSubscriptions
	default:
		return wstypes.ChannelSystem
	}
}
