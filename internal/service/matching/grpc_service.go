package matching

import (
	"context"

	"github.com/oggyb/muzz-match/internal/app"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/notification"
	"github.com/oggyb/muzz-match/internal/service/suggestion"
)

// GRPCService implements MatchingServer on top of the engine, the
// suggestion feed and the notification dispatcher.
type GRPCService struct {
	appCtx      *app.AppContext
	engine      *Engine
	suggestions *suggestion.Service
	notifier    *notification.Dispatcher
}

func NewGRPCService(appCtx *app.AppContext, engine *Engine, suggestions *suggestion.Service, notifier *notification.Dispatcher) *GRPCService {
	return &GRPCService{
		appCtx:      appCtx,
		engine:      engine,
		suggestions: suggestions,
		notifier:    notifier,
	}
}

// Rate stores a rating and reports whether it created a match.
//
// Example:
//
//	svc.Rate(ctx, &RateRequest{RaterID: 1, RatedUserID: 2, Type: "LIKE"})
func (s *GRPCService) Rate(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	s.appCtx.Logger.Debug("Rate called", "rater", req.RaterID, "rated", req.RatedUserID, "type", req.Type)

	t, err := ratingType(req.Type)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out, err := s.engine.Rate(ctx, req.RaterID, req.RatedUserID, t)
	if err != nil {
		return nil, s.fail("Rate", err)
	}
	return &RateResponse{Status: string(out.Status), MatchID: out.MatchID}, nil
}

func (s *GRPCService) Unmatch(ctx context.Context, req *UnmatchRequest) (*UnmatchResponse, error) {
	if err := s.engine.Unmatch(ctx, req.UserID, req.MatchID); err != nil {
		return nil, s.fail("Unmatch", err)
	}
	return &UnmatchResponse{}, nil
}

func (s *GRPCService) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	summaries, err := s.engine.GetActiveMatches(ctx, req.UserID)
	if err != nil {
		return nil, s.fail("ListMatches", err)
	}
	resp := &ListMatchesResponse{Matches: make([]*MatchItem, 0, len(summaries))}
	for _, sum := range summaries {
		resp.Matches = append(resp.Matches, toMatchItem(sum))
	}
	return resp, nil
}

func (s *GRPCService) GetSuggestions(ctx context.Context, req *GetSuggestionsRequest) (*GetSuggestionsResponse, error) {
	prefs := suggestion.Preferences{
		Gender: req.Gender,
		MinAge: int32Ptr(req.MinAge),
		MaxAge: int32Ptr(req.MaxAge),
		City:   req.City,
	}
	page, err := s.suggestions.GetSuggestions(ctx, req.UserID, prefs, int(req.Page), int(req.Size))
	if err != nil {
		return nil, s.fail("GetSuggestions", err)
	}
	return &GetSuggestionsResponse{
		Candidates: page.Items,
		Total:      page.Total,
		HasNext:    page.HasNext,
	}, nil
}

func (s *GRPCService) CountUnreadNotifications(ctx context.Context, req *CountUnreadRequest) (*CountUnreadResponse, error) {
	n, err := s.notifier.GetUnreadCount(ctx, req.UserID)
	if err != nil {
		return nil, s.fail("CountUnreadNotifications", err)
	}
	return &CountUnreadResponse{Count: n}, nil
}

// fail logs store failures and converts err to a gRPC status.
func (s *GRPCService) fail(method string, err error) error {
	if svcErr.KindOf(err) == svcErr.KindInternal {
		s.appCtx.Logger.Error(method+" failed", "err", err)
	}
	return svcErr.Map(err)
}
