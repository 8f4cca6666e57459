package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ChatServiceName                              = "chatrelay.ChatService"
	ChatService_Connect_FullMethodName           = "/chatrelay.ChatService/Connect"
	ChatService_SendMessage_FullMethodName       = "/chatrelay.ChatService/SendMessage"
	ChatService_FetchConversation_FullMethodName = "/chatrelay.ChatService/FetchConversation"
	ChatService_MarkSeen_FullMethodName          = "/chatrelay.ChatService/MarkSeen"
	ChatService_FetchSidebar_FullMethodName      = "/chatrelay.ChatService/FetchSidebar"
	ChatService_OnlineUsers_FullMethodName       = "/chatrelay.ChatService/OnlineUsers"
)

type ChatServiceServer interface {
	Connect(*ConnectRequest, grpc.ServerStreamingServer[ChatEvent]) error
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	FetchConversation(context.Context, *FetchConversationRequest) (*FetchConversationResponse, error)
	MarkSeen(context.Context, *MarkSeenRequest) (*MarkSeenResponse, error)
	FetchSidebar(context.Context, *FetchSidebarRequest) (*FetchSidebarResponse, error)
	OnlineUsers(context.Context, *OnlineUsersRequest) (*OnlineUsersResponse, error)
}

// UnimplementedChatServiceServer answers Unimplemented to every method.
type UnimplementedChatServiceServer struct{}

func (UnimplementedChatServiceServer) Connect(*ConnectRequest, grpc.ServerStreamingServer[ChatEvent]) error {
	return status.Error(codes.Unimplemented, "method Connect not implemented")
}
func (UnimplementedChatServiceServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}
func (UnimplementedChatServiceServer) FetchConversation(context.Context, *FetchConversationRequest) (*FetchConversationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FetchConversation not implemented")
}
func (UnimplementedChatServiceServer) MarkSeen(context.Context, *MarkSeenRequest) (*MarkSeenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkSeen not implemented")
}
func (UnimplementedChatServiceServer) FetchSidebar(context.Context, *FetchSidebarRequest) (*FetchSidebarResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FetchSidebar not implemented")
}
func (UnimplementedChatServiceServer) OnlineUsers(context.Context, *OnlineUsersRequest) (*OnlineUsersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method OnlineUsers not implemented")
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	in := new(ConnectRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServiceServer).Connect(in, &grpc.GenericServerStream[ConnectRequest, ChatEvent]{ServerStream: stream})
}

var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessage",
			Handler:    unaryHandler(ChatService_SendMessage_FullMethodName, ChatServiceServer.SendMessage),
		},
		{
			MethodName: "FetchConversation",
			Handler:    unaryHandler(ChatService_FetchConversation_FullMethodName, ChatServiceServer.FetchConversation),
		},
		{
			MethodName: "MarkSeen",
			Handler:    unaryHandler(ChatService_MarkSeen_FullMethodName, ChatServiceServer.MarkSeen),
		},
		{
			MethodName: "FetchSidebar",
			Handler:    unaryHandler(ChatService_FetchSidebar_FullMethodName, ChatServiceServer.FetchSidebar),
		},
		{
			MethodName: "OnlineUsers",
			Handler:    unaryHandler(ChatService_OnlineUsers_FullMethodName, ChatServiceServer.OnlineUsers),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       connectHandler,
			ServerStreams: true,
		},
	},
	Metadata: "chat_relay.proto",
}

type ChatServiceClient interface {
	Connect(ctx context.Context, in *ConnectRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ChatEvent], error)
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	FetchConversation(ctx context.Context, in *FetchConversationRequest, opts ...grpc.CallOption) (*FetchConversationResponse, error)
	MarkSeen(ctx context.Context, in *MarkSeenRequest, opts ...grpc.CallOption) (*MarkSeenResponse, error)
	FetchSidebar(ctx context.Context, in *FetchSidebarRequest, opts ...grpc.CallOption) (*FetchSidebarResponse, error)
	OnlineUsers(ctx context.Context, in *OnlineUsersRequest, opts ...grpc.CallOption) (*OnlineUsersResponse, error)
}

type chatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) ChatServiceClient {
	return &chatServiceClient{cc: cc}
}

func (c *chatServiceClient) Connect(ctx context.Context, in *ConnectRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ChatEvent], error) {
	callOpts := append([]grpc.CallOption{CallOption()}, opts...)
	stream, err := c.cc.NewStream(ctx, &ChatServiceDesc.Streams[0], ChatService_Connect_FullMethodName, callOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[ConnectRequest, ChatEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *chatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, ChatService_SendMessage_FullMethodName, in, opts)
}

func (c *chatServiceClient) FetchConversation(ctx context.Context, in *FetchConversationRequest, opts ...grpc.CallOption) (*FetchConversationResponse, error) {
	return invoke[FetchConversationResponse](ctx, c.cc, ChatService_FetchConversation_FullMethodName, in, opts)
}

func (c *chatServiceClient) MarkSeen(ctx context.Context, in *MarkSeenRequest, opts ...grpc.CallOption) (*MarkSeenResponse, error) {
	return invoke[MarkSeenResponse](ctx, c.cc, ChatService_MarkSeen_FullMethodName, in, opts)
}

func (c *chatServiceClient) FetchSidebar(ctx context.Context, in *FetchSidebarRequest, opts ...grpc.CallOption) (*FetchSidebarResponse, error) {
	return invoke[FetchSidebarResponse](ctx, c.cc, ChatService_FetchSidebar_FullMethodName, in, opts)
}

func (c *chatServiceClient) OnlineUsers(ctx context.Context, in *OnlineUsersRequest, opts ...grpc.CallOption) (*OnlineUsersResponse, error) {
	return invoke[OnlineUsersResponse](ctx, c.cc, ChatService_OnlineUsers_FullMethodName, in, opts)
}
