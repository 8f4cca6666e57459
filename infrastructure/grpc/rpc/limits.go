package rpc

import (
	"encoding/base64"

	"google.golang.org/grpc"
)

const (
	// EnvelopeOverhead is reserved in every gRPC message for the fields
	// around the text or image of a chat message.
	EnvelopeOverhead = 64 << 10

	dataURIHeader = "data:image/jpeg;base64,"
	// encoding/json may escape a single byte as \u00XX
	maxJSONEscape = 6
)

// MinMessageBytes is the smallest gRPC message size able to carry one chat
// message holding maxTextBytes of text or maxImageBytes of inline image.
func MinMessageBytes(maxTextBytes, maxImageBytes int) int {
	image := len(dataURIHeader) + base64.StdEncoding.EncodedLen(maxImageBytes)
	return max(image, maxTextBytes*maxJSONEscape) + EnvelopeOverhead
}

// ServerOptions raises the gRPC receive and send caps to maxMessageBytes.
func ServerOptions(maxMessageBytes int) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxMessageBytes),
		grpc.MaxSendMsgSize(maxMessageBytes),
	}
}

// DialOption selects the JSON codec and matches the server caps on every call.
func DialOption(maxMessageBytes int) grpc.DialOption {
	return grpc.WithDefaultCallOptions(
		CallOption(),
		grpc.MaxCallRecvMsgSize(maxMessageBytes),
		grpc.MaxCallSendMsgSize(maxMessageBytes),
	)
}
