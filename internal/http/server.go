// README: API gateway; builds the gin engine and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voyage/internal/infra"
	"voyage/internal/modules/aiusage"
	"voyage/internal/modules/images"
	"voyage/internal/modules/planning"
	"voyage/internal/modules/plans"
	"voyage/internal/observability"
)

// PlacePhotoPath is the proxy route Places photo references resolve through.
const PlacePhotoPath = "/api/images/place-photo"

// ServerDeps lists the services behind the API. Plans and Usage are nil when
// no database is configured; Verifier is nil when no auth backend is.
type ServerDeps struct {
	Planning   *planning.Service
	Plans      *plans.Service
	Images     *images.Service
	Usage      *aiusage.Service
	Verifier   infra.TokenVerifier
	Metrics    *observability.Collector
	Logger     *zap.Logger
	CORSOrigin string
}

type Server struct {
	planning   *planning.Service
	plans      *plans.Service
	images     *images.Service
	usage      *aiusage.Service
	verifier   infra.TokenVerifier
	metrics    *observability.Collector
	logger     *zap.Logger
	corsOrigin string
}

func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		planning:   deps.Planning,
		plans:      deps.Plans,
		images:     deps.Images,
		usage:      deps.Usage,
		verifier:   deps.Verifier,
		metrics:    deps.Metrics,
		logger:     logger,
		corsOrigin: deps.CORSOrigin,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	s.register(r)
	return r
}
