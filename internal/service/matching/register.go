package matching

import (
	"google.golang.org/grpc"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/service/notification"
	"github.com/oggyb/muzz-match/internal/service/rating"
	"github.com/oggyb/muzz-match/internal/service/suggestion"
)

// Registrar ties MatchingService into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for MatchingService
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register builds the service graph and attaches it to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	notifier := notification.NewDispatcher(r.appCtx)
	engine := NewEngine(r.appCtx, rating.NewService(r.appCtx), notifier)
	service := NewGRPCService(r.appCtx, engine, suggestion.NewService(r.appCtx), notifier)
	s.RegisterService(&ServiceDesc, service)
}
