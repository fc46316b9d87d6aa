package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/hazop/pkg/usecase"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
)

type Server struct {
	router             *chi.Mux
	uc                 *usecase.UseCases
	authUC             usecase.AuthUseCaseInterface
	slackSigningSecret string
}

type Options func(*Server)

func WithAuth(authUC usecase.AuthUseCaseInterface) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

// WithSlackInteraction enables the Slack interactivity endpoint used by the
// accept/reject buttons of assignment notifications
func WithSlackInteraction(signingSecret string) Options {
	return func(s *Server) {
		s.slackSigningSecret = signingSecret
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	h := &handler{uc: uc}
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware(s.authUC))

		r.Route("/studies", func(r chi.Router) {
			r.Post("/", h.createStudy)
			r.Get("/", h.listStudies)
			r.Route("/{studyID}", func(r chi.Router) {
				r.Get("/", h.getStudy)
				r.Put("/team", h.setTeam)
				r.Post("/retire", h.retireStudy)
				r.Get("/progress", h.progress)
				r.Post("/send-for-verification", h.sendStudyForVerification)
				r.Post("/sign-off", h.finalSignOff)
				r.Post("/nodes", h.createNode)
				r.Get("/nodes", h.listNodes)
			})
		})
		r.Get("/hazop/{studyID}/progress", h.progress)

		r.Route("/nodes/{nodeID}", func(r chi.Router) {
			r.Get("/", h.getNode)
			r.Post("/complete", h.completeNode)
			r.Get("/deviations", h.listDeviations)
			r.Put("/sequence", h.reorder)
		})

		r.Post("/deviations", h.createDeviation)
		r.Route("/deviations/{deviationID}", func(r chi.Router) {
			r.Get("/", h.getDeviation)
			r.Put("/", h.updateDeviation)
			r.Delete("/", h.deleteDeviation)
			r.Get("/recommendations", h.listRecommendations)
		})

		r.Route("/recommendations/{recommendationID}", func(r chi.Router) {
			r.Get("/", h.getRecommendation)
			r.Delete("/", h.deleteRecommendation)
			r.Get("/history", h.recommendationHistory)
			r.Post("/assign", h.assign)
			r.Post("/reassign", h.reassign)
			r.Post("/accept-reject", h.acceptOrRejectActive)
			r.Post("/complete", h.completeActive)
			r.Post("/send-for-verification", h.sendRecommendationForVerification)
			r.Post("/verify", h.verify)
			r.Post("/dismiss", h.dismiss)
			r.Put("/details", h.setDetails)
		})

		r.Route("/assignments/{assignmentID}", func(r chi.Router) {
			r.Post("/accept-reject", h.acceptOrReject)
			r.Post("/target-date", h.setTargetDate)
			r.Post("/complete", h.complete)
		})

		r.Post("/otp/issue", h.issueOTP)
		r.Post("/otp/redeem", h.redeemOTP)

		r.Get("/risk/matrix", h.riskMatrix)
		r.Get("/employees", h.searchEmployees)
	})

	// Slack interactivity endpoint - No auth required, uses signature verification
	if s.slackSigningSecret != "" {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))
			r.Post("/interaction", NewSlackInteractionHandler(uc.Recommendation).ServeHTTP)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
