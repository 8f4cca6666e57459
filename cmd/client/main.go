package main

import (
	"bufio"
	"chat-relay/infrastructure/grpc/rpc"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	ServerAddress string `envconfig:"RELAY_ADDR" default:"localhost:50051"`
	Email         string `envconfig:"RELAY_EMAIL" required:"true"`
	Password      string `envconfig:"RELAY_PASSWORD" required:"true"`
	// RELAY_FULL_NAME registers the account first when it does not exist yet
	FullName string `envconfig:"RELAY_FULL_NAME"`
	Colours  bool   `envconfig:"RELAY_COLOURS" default:"true"`

	// Must match the server GRPC_MAX_MESSAGE_BYTES to receive inline images
	MaxMessageBytes int `envconfig:"RELAY_MAX_MESSAGE_BYTES" default:"8388608"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run logs in, prints the live stream and sends "@<user id> <text>" lines read from stdin.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	color.Enable = config.Colours

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(config.ServerAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		rpc.DialOption(config.MaxMessageBytes))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() { _ = conn.Close() }()

	session, err := login(ctx, rpc.NewAuthServiceClient(conn), config)
	if err != nil {
		return exitRuntime, err
	}
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+session.Token)
	chat := rpc.NewChatServiceClient(conn)

	stream, err := chat.Connect(ctx, &rpc.ConnectRequest{})
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open stream: %w", err)
	}
	color.Green.Printf(">>> Connected to %s as %s (%s). Type \"@<user id> <text>\", Ctrl+C to quit\n",
		config.ServerAddress, session.User.FullName, session.User.ID)

	if err := printSidebar(ctx, chat); err != nil {
		return exitRuntime, err
	}
	go readInput(ctx, chat)

	for {
		evt, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("stream error: %w", err)
		}
		switch evt.Type {
		case rpc.EventPresenceChanged:
			color.Gray.Printf("[%s] online: %s\n", evt.Presence.At.Format(time.TimeOnly),
				strings.Join(evt.Presence.Online, ", "))
		case rpc.EventMessageReceived:
			m := evt.Message
			body := m.Text
			if m.Image != "" {
				body += " [image]"
			}
			color.Cyan.Printf("[%s] %s: ", m.CreatedAt.Format(time.TimeOnly), m.SenderID)
			fmt.Println(body)
			if _, err := chat.MarkSeen(ctx, &rpc.MarkSeenRequest{MessageID: m.ID}); err != nil {
				color.Red.Printf("mark seen failed: %v\n", err)
			}
		}
	}
}

func login(ctx context.Context, client rpc.AuthServiceClient, config Config) (*rpc.AuthResponse, error) {
	if config.FullName != "" {
		_, err := client.Register(ctx, &rpc.RegisterRequest{
			Email:    config.Email,
			FullName: config.FullName,
			Password: config.Password,
		})
		if err != nil && status.Code(err) != codes.AlreadyExists {
			return nil, fmt.Errorf("register failed: %w", err)
		}
	}
	session, err := client.Login(ctx, &rpc.LoginRequest{Email: config.Email, Password: config.Password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return session, nil
}

func printSidebar(ctx context.Context, chat rpc.ChatServiceClient) error {
	sidebar, err := chat.FetchSidebar(ctx, &rpc.FetchSidebarRequest{})
	if err != nil {
		return fmt.Errorf("fetch sidebar failed: %w", err)
	}
	for _, user := range sidebar.Users {
		line := fmt.Sprintf("  %s  %s", user.ID, user.FullName)
		if user.Unseen > 0 {
			color.Yellow.Printf("%s (%d unseen)\n", line, user.Unseen)
			continue
		}
		fmt.Println(line)
	}
	return nil
}

func readInput(ctx context.Context, chat rpc.ChatServiceClient) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "@") {
			continue
		}
		recipient, text, ok := strings.Cut(strings.TrimPrefix(line, "@"), " ")
		if !ok {
			color.Red.Println("usage: @<user id> <text>")
			continue
		}
		if _, err := chat.SendMessage(ctx, &rpc.SendMessageRequest{RecipientID: recipient, Text: text}); err != nil {
			color.Red.Printf("send failed: %v\n", err)
		}
	}
}
