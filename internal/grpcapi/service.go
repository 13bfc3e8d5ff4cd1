// Package grpcapi exposes the stats service over gRPC using protobuf
// well-known types, so no generated stubs are needed.
package grpcapi

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-sim/internal/logger"
	"github.com/xtding233/gacha-sim/internal/stats"
)

const (
	ServiceName = "gachasim.stats.v1.StatsService"

	getStatsMethod   = "/" + ServiceName + "/GetStats"
	recordStatMethod = "/" + ServiceName + "/RecordStat"
)

// StatsServer is the server API for StatsService.
type StatsServer interface {
	GetStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RecordStat(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes StatsService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStats", Handler: getStatsHandler},
		{MethodName: "RecordStat", Handler: recordStatHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gachasim/stats/v1/stats.proto",
}

func getStatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatsServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getStatsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StatsServer).GetStats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func recordStatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatsServer).RecordStat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: recordStatMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StatsServer).RecordStat(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server adapts stats.Service to StatsServer.
type Server struct {
	svc stats.Service
}

// NewServer wraps svc.
func NewServer(svc stats.Service) *Server {
	return &Server{svc: svc}
}

// Register attaches the service to s.
func Register(s *grpc.Server, svc stats.Service) {
	s.RegisterService(&ServiceDesc, NewServer(svc))
}

func (s *Server) GetStats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	c, err := s.svc.Get(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to fetch stats", "error", err)
		return nil, status.Error(codes.Internal, "failed to fetch stats")
	}
	return countersToStruct(c)
}

func (s *Server) RecordStat(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ev, err := eventFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	c, err := s.svc.Record(ctx, ev)
	if err != nil {
		if errors.Is(err, stats.ErrUnknownEventType) || errors.Is(err, stats.ErrInvalidAmount) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		logger.FromContext(ctx).Error("Failed to update stats", "error", err)
		return nil, status.Error(codes.Internal, "failed to update stats")
	}
	return countersToStruct(c)
}

func eventFromStruct(in *structpb.Struct) (stats.Event, error) {
	fields := in.GetFields()
	typ := fields["type"].GetStringValue()
	if typ == "" {
		return stats.Event{}, errors.New("type is required")
	}
	ev := stats.Event{Type: stats.EventType(typ)}
	if ev.Type == stats.EventSpent {
		amount, ok := fields["amount"]
		if !ok {
			return stats.Event{}, errors.New("amount is required")
		}
		if _, isNum := amount.GetKind().(*structpb.Value_NumberValue); !isNum {
			return stats.Event{}, errors.New("amount must be a number")
		}
		ev.Amount = amount.GetNumberValue()
	}
	return ev, nil
}

func countersToStruct(c stats.Counters) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"visitors":   c.Visitors,
		"totalSpent": c.TotalSpent,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

func countersFromStruct(s *structpb.Struct) stats.Counters {
	f := s.GetFields()
	return stats.Counters{
		Visitors:   int64(f["visitors"].GetNumberValue()),
		TotalSpent: f["totalSpent"].GetNumberValue(),
	}
}
