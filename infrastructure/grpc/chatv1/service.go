package chatv1

import (
	"context"

	"mwalimu-chat/infrastructure/wire"

	"google.golang.org/grpc"
)

const (
	ServiceName   = "chat.v1.ChatService"
	SessionMethod = "/chat.v1.ChatService/Session"
)

// ChatServiceServer is implemented by the chat transport.
type ChatServiceServer interface {
	Session(ChatService_SessionServer) error
}

type ChatService_SessionServer interface {
	Send(*wire.ServerFrame) error
	Recv() (*wire.ClientFrame, error)
	grpc.ServerStream
}

type chatServiceSessionServer struct {
	grpc.ServerStream
}

func (x *chatServiceSessionServer) Send(m *wire.ServerFrame) error {
	return x.ServerStream.SendMsg(m)
}

func (x *chatServiceSessionServer) Recv() (*wire.ClientFrame, error) {
	m := new(wire.ClientFrame)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func sessionHandler(srv any, stream grpc.ServerStream) error {
	return srv.(ChatServiceServer).Session(&chatServiceSessionServer{ServerStream: stream})
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Session",
			Handler:       sessionHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "chat/v1/chat.json",
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

type ChatServiceClient interface {
	Session(ctx context.Context, opts ...grpc.CallOption) (ChatService_SessionClient, error)
}

type ChatService_SessionClient interface {
	Send(*wire.ClientFrame) error
	Recv() (*wire.ServerFrame, error)
	grpc.ClientStream
}

type chatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) ChatServiceClient {
	return &chatServiceClient{cc: cc}
}

// Session always selects the JSON codec, callers don't have to.
func (c *chatServiceClient) Session(ctx context.Context, opts ...grpc.CallOption) (ChatService_SessionClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ChatService_ServiceDesc.Streams[0], SessionMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &chatServiceSessionClient{ClientStream: stream}, nil
}

type chatServiceSessionClient struct {
	grpc.ClientStream
}

func (x *chatServiceSessionClient) Send(m *wire.ClientFrame) error {
	return x.ClientStream.SendMsg(m)
}

func (x *chatServiceSessionClient) Recv() (*wire.ServerFrame, error) {
	m := new(wire.ServerFrame)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
