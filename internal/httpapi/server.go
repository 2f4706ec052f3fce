// Package httpapi exposes the skill-exchange core over JSON/HTTP
// (spec §6), dispatching each route to the owning service and mapping
// apperr's taxonomy to status codes at the edge.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/cache"
	"github.com/otitou/wap-backend-go/internal/completion"
	"github.com/otitou/wap-backend-go/internal/economy"
	"github.com/otitou/wap-backend-go/internal/email"
	"github.com/otitou/wap-backend-go/internal/matching"
	"github.com/otitou/wap-backend-go/internal/messaging"
	"github.com/otitou/wap-backend-go/internal/moderation"
	"github.com/otitou/wap-backend-go/internal/portfolio"
	"github.com/otitou/wap-backend-go/internal/reviews"
	"github.com/otitou/wap-backend-go/internal/search"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/internal/swaprequest"
	"github.com/otitou/wap-backend-go/internal/vectorindex"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// Server wires every core service to its route table.
type Server struct {
	store       *store.Store
	index       *vectorindex.Index
	cache       *cache.Cache
	email       *email.Notifier
	matcher     *matching.Matcher
	search      *search.Service
	swapRequest *swaprequest.Service
	completion  *completion.Service
	economy     *economy.Engine
	reviews     *reviews.Service
	portfolio   *portfolio.Service
	messaging   *messaging.Service
	moderation  *moderation.Service
	log         *logging.Logger

	router *mux.Router
}

// Deps aggregates every service the HTTP layer dispatches into.
type Deps struct {
	Store       *store.Store
	Index       *vectorindex.Index
	Cache       *cache.Cache
	Email       *email.Notifier
	Matcher     *matching.Matcher
	Search      *search.Service
	SwapRequest *swaprequest.Service
	Completion  *completion.Service
	Economy     *economy.Engine
	Reviews     *reviews.Service
	Portfolio   *portfolio.Service
	Messaging   *messaging.Service
	Moderation  *moderation.Service
}

// New builds a Server with its full route table mounted.
func New(d Deps) *Server {
	s := &Server{
		store:       d.Store,
		index:       d.Index,
		cache:       d.Cache,
		email:       d.Email,
		matcher:     d.Matcher,
		search:      d.Search,
		swapRequest: d.SwapRequest,
		completion:  d.Completion,
		economy:     d.Economy,
		reviews:     d.Reviews,
		portfolio:   d.Portfolio,
		messaging:   d.Messaging,
		moderation:  d.Moderation,
		log:         logging.GetDefault().Component("httpapi"),
	}
	s.routes()
	return s
}

// Handler returns the mounted router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := mux.NewRouter()
	r.StrictSlash(true)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	r.HandleFunc("/profiles/upsert", s.handleUpsertProfile).Methods(http.MethodPost)
	r.HandleFunc("/profiles/email/{email}", s.handleGetProfileByEmail).Methods(http.MethodGet)
	r.HandleFunc("/profiles/{uid}", s.handleGetProfile).Methods(http.MethodGet)
	r.HandleFunc("/profiles/{uid}", s.handlePatchProfile).Methods(http.MethodPatch)
	r.HandleFunc("/profiles/{uid}", s.handleDeleteProfile).Methods(http.MethodDelete)

	r.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/search/recommend-skills", s.handleRecommendSkills).Methods(http.MethodPost)
	r.HandleFunc("/match/reciprocal", s.handleReciprocalMatch).Methods(http.MethodPost)

	r.HandleFunc("/swap-requests", s.handleCreateSwapRequest).Methods(http.MethodPost)
	r.HandleFunc("/swap-requests/incoming", s.handleListIncoming).Methods(http.MethodGet)
	r.HandleFunc("/swap-requests/outgoing", s.handleListOutgoing).Methods(http.MethodGet)
	r.HandleFunc("/swap-requests/{id}/respond", s.handleRespondSwapRequest).Methods(http.MethodPost)
	r.HandleFunc("/swap-requests/{id}", s.handleCancelSwapRequest).Methods(http.MethodDelete)

	r.HandleFunc("/swaps/{id}/complete", s.handleMarkComplete).Methods(http.MethodPost)
	r.HandleFunc("/swaps/{id}/verify", s.handleVerifySwap).Methods(http.MethodPost)
	r.HandleFunc("/swaps/{id}/completion-status", s.handleCompletionStatus).Methods(http.MethodGet)

	r.HandleFunc("/reviews", s.handleSubmitReview).Methods(http.MethodPost)
	r.HandleFunc("/reviews/user/{uid}", s.handleUserReviews).Methods(http.MethodGet)

	r.HandleFunc("/points/balance/{uid}", s.handlePointsBalance).Methods(http.MethodGet)
	r.HandleFunc("/points/spend", s.handlePointsSpend).Methods(http.MethodPost)

	r.HandleFunc("/portfolio/user/{uid}", s.handlePortfolio).Methods(http.MethodGet)

	r.HandleFunc("/conversations", s.handleListConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/messages", s.handleGetMessages).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/messages", s.handleSendMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/mark-read", s.handleMarkRead).Methods(http.MethodPost)

	r.HandleFunc("/moderation/block", s.handleBlock).Methods(http.MethodPost)
	r.HandleFunc("/moderation/block/{blocked_uid}", s.handleUnblock).Methods(http.MethodDelete)
	r.HandleFunc("/moderation/report", s.handleReport).Methods(http.MethodPost)

	s.router = r
}
