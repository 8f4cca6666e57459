package e2e

import (
	"chat-relay/infrastructure/grpc/rpc"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayAddr == "" {
		s.T().Skip("RELAY_ADDR not set")
	}
}

// GrpcConn opens a connection that logs every unary call, bodies included when E2E_DEBUG_JSON is set.
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	conn, err := grpc.NewClient(s.Config.RelayAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		rpc.DialOption(s.Config.MaxMessageBytes),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, indent(req))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, indent(reply))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.RelayAddr)
	return conn
}

// Account is a freshly registered user.
type Account struct {
	ID    string
	Token string
}

func (a Account) Context(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+a.Token)
}

// WithRelay provides both relay clients within a contextual test step.
func (s *BaseGrpcSuite) WithRelay(name string, fn func(ctx context.Context, auth rpc.AuthServiceClient, chat rpc.ChatServiceClient)) {
	conn := s.GrpcConn(s.T(), name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fn(ctx, rpc.NewAuthServiceClient(conn), rpc.NewChatServiceClient(conn))
}

// Register creates a unique account so suites can run against a shared relay.
func (s *BaseGrpcSuite) Register(ctx context.Context, auth rpc.AuthServiceClient, name string) Account {
	email := fmt.Sprintf("%s-%d@e2e.test", name, time.Now().UnixNano())
	resp, err := auth.Register(ctx, &rpc.RegisterRequest{Email: email, FullName: name, Password: "E2ePassword123!"})
	s.Require().NoError(err)
	return Account{ID: resp.User.ID, Token: resp.Token}
}

func indent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
