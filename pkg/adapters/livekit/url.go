package livekit

import "strings"

// HTTPURL converts a LiveKit websocket endpoint to its HTTP form for
// the server API clients. Non-websocket URLs pass through unchanged.
func HTTPURL(url string) string {
	switch {
	case strings.HasPrefix(url, "wss://"):
		return "https://" + strings.TrimPrefix(url, "wss://")
	case strings.HasPrefix(url, "ws://"):
		return "http://" + strings.TrimPrefix(url, "ws://")
	}
	return url
}
