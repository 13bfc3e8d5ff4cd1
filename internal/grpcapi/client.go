package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-sim/internal/stats"
)

// Client calls StatsService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens an insecure connection to target (host:port).
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial stats grpc %s: %w", target, err)
	}
	return conn, nil
}

// Get fetches the counters.
func (c *Client) Get(ctx context.Context) (stats.Counters, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getStatsMethod, &emptypb.Empty{}, out); err != nil {
		return stats.Counters{}, err
	}
	return countersFromStruct(out), nil
}

// Record sends one event and returns the counters after it.
func (c *Client) Record(ctx context.Context, ev stats.Event) (stats.Counters, error) {
	fields := map[string]interface{}{"type": string(ev.Type)}
	if ev.Type == stats.EventSpent {
		fields["amount"] = ev.Amount
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return stats.Counters{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, recordStatMethod, in, out); err != nil {
		return stats.Counters{}, err
	}
	return countersFromStruct(out), nil
}
