package matching

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/server"
	"github.com/oggyb/muzz-match/internal/service/suggestion"
)

const serviceName = "muzz.match.v1.MatchingService"

type RateRequest struct {
	RaterID     uint64 `json:"rater_id"`
	RatedUserID uint64 `json:"rated_user_id"`
	Type        string `json:"type"`
}

type RateResponse struct {
	Status  string `json:"status"`
	MatchID uint64 `json:"match_id,omitempty"`
}

type UnmatchRequest struct {
	UserID  uint64 `json:"user_id"`
	MatchID uint64 `json:"match_id"`
}

type UnmatchResponse struct{}

type ListMatchesRequest struct {
	UserID uint64 `json:"user_id"`
}

type MatchItem struct {
	MatchID       uint64                 `json:"match_id"`
	OtherUserID   uint64                 `json:"other_user_id"`
	MatchedAt     *timestamppb.Timestamp `json:"matched_at"`
	LastMessage   string                 `json:"last_message,omitempty"`
	LastMessageAt *timestamppb.Timestamp `json:"last_message_at,omitempty"`
	UnreadCount   int64                  `json:"unread_count"`
}

type ListMatchesResponse struct {
	Matches []*MatchItem `json:"matches"`
}

type GetSuggestionsRequest struct {
	UserID uint64  `json:"user_id"`
	Page   int32   `json:"page"`
	Size   int32   `json:"size"`
	Gender *string `json:"gender,omitempty"`
	MinAge *int32  `json:"min_age,omitempty"`
	MaxAge *int32  `json:"max_age,omitempty"`
	City   *string `json:"city,omitempty"`
}

type GetSuggestionsResponse struct {
	Candidates []suggestion.Candidate `json:"candidates"`
	Total      int64                  `json:"total"`
	HasNext    bool                   `json:"has_next"`
}

type CountUnreadRequest struct {
	UserID uint64 `json:"user_id"`
}

type CountUnreadResponse struct {
	Count int64 `json:"count"`
}

// MatchingServer is the server API for muzz.match.v1.MatchingService.
type MatchingServer interface {
	Rate(context.Context, *RateRequest) (*RateResponse, error)
	Unmatch(context.Context, *UnmatchRequest) (*UnmatchResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	GetSuggestions(context.Context, *GetSuggestionsRequest) (*GetSuggestionsResponse, error)
	CountUnreadNotifications(context.Context, *CountUnreadRequest) (*CountUnreadResponse, error)
}

func unaryHandler[Req any](method string, call func(MatchingServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MatchingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MatchingServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes MatchingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MatchingServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Rate",
			Handler: unaryHandler("Rate", func(s MatchingServer, ctx context.Context, in *RateRequest) (any, error) {
				return s.Rate(ctx, in)
			}),
		},
		{
			MethodName: "Unmatch",
			Handler: unaryHandler("Unmatch", func(s MatchingServer, ctx context.Context, in *UnmatchRequest) (any, error) {
				return s.Unmatch(ctx, in)
			}),
		},
		{
			MethodName: "ListMatches",
			Handler: unaryHandler("ListMatches", func(s MatchingServer, ctx context.Context, in *ListMatchesRequest) (any, error) {
				return s.ListMatches(ctx, in)
			}),
		},
		{
			MethodName: "GetSuggestions",
			Handler: unaryHandler("GetSuggestions", func(s MatchingServer, ctx context.Context, in *GetSuggestionsRequest) (any, error) {
				return s.GetSuggestions(ctx, in)
			}),
		},
		{
			MethodName: "CountUnreadNotifications",
			Handler: unaryHandler("CountUnreadNotifications", func(s MatchingServer, ctx context.Context, in *CountUnreadRequest) (any, error) {
				return s.CountUnreadNotifications(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "muzz/match/v1/matching.proto",
}

// MatchingClient is the client API for MatchingService. Every call uses the
// JSON codec.
type MatchingClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchingClient(cc grpc.ClientConnInterface) *MatchingClient {
	return &MatchingClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(server.CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MatchingClient) Rate(ctx context.Context, in *RateRequest, opts ...grpc.CallOption) (*RateResponse, error) {
	return invoke[RateResponse](ctx, c.cc, "Rate", in, opts)
}

func (c *MatchingClient) Unmatch(ctx context.Context, in *UnmatchRequest, opts ...grpc.CallOption) (*UnmatchResponse, error) {
	return invoke[UnmatchResponse](ctx, c.cc, "Unmatch", in, opts)
}

func (c *MatchingClient) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, "ListMatches", in, opts)
}

func (c *MatchingClient) GetSuggestions(ctx context.Context, in *GetSuggestionsRequest, opts ...grpc.CallOption) (*GetSuggestionsResponse, error) {
	return invoke[GetSuggestionsResponse](ctx, c.cc, "GetSuggestions", in, opts)
}

func (c *MatchingClient) CountUnreadNotifications(ctx context.Context, in *CountUnreadRequest, opts ...grpc.CallOption) (*CountUnreadResponse, error) {
	return invoke[CountUnreadResponse](ctx, c.cc, "CountUnreadNotifications", in, opts)
}

func toMatchItem(s MatchSummary) *MatchItem {
	item := &MatchItem{
		MatchID:     s.Match.ID,
		OtherUserID: s.OtherUserID,
		MatchedAt:   timestamppb.New(s.Match.MatchedAt),
		UnreadCount: s.UnreadCount,
	}
	if s.LastMessage != nil {
		item.LastMessage = s.LastMessage.Content
		item.LastMessageAt = timestamppb.New(s.LastMessage.SentAt)
	}
	return item
}

func int32Ptr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func ratingType(s string) (db.RatingType, error) {
	t := db.RatingType(s)
	if !t.Valid() {
		return "", svcErr.Validation("type", "must be LIKE or DISLIKE")
	}
	return t, nil
}
