package httpapi

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/Leganyst/slotswap-platform/internal/config"
	"github.com/Leganyst/slotswap-platform/internal/notify"
	"github.com/Leganyst/slotswap-platform/internal/repository"
	"github.com/Leganyst/slotswap-platform/internal/service"
)

// API — HTTP-граница обменного ядра.
type API struct {
	cfg      *config.HTTPConfig
	identity *service.IdentityService
	slots    *service.SlotService
	swaps    *service.SwapService
	suggest  *service.SuggestionService
	users    repository.UserRepository
	events   repository.EventRepository
	hub      *notify.Hub
}

func NewAPI(
	cfg *config.HTTPConfig,
	identity *service.IdentityService,
	slots *service.SlotService,
	swaps *service.SwapService,
	suggest *service.SuggestionService,
	users repository.UserRepository,
	events repository.EventRepository,
	hub *notify.Hub,
) *API {
	return &API{
		cfg:      cfg,
		identity: identity,
		slots:    slots,
		swaps:    swaps,
		suggest:  suggest,
		users:    users,
		events:   events,
		hub:      hub,
	}
}

// ServeWS — GET /ws?token=: realtime-уведомления.
// Токен передаётся query-параметром, как при socket.io-handshake.
func (a *API) ServeWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := ParseToken(r.URL.Query().Get("token"), a.cfg.JWTSecret)
	if err != nil {
		writeError(w, err)
		return
	}
	a.hub.ServeWS(claims.UserID, w, r)
}

// Router собирает все маршруты API.
func (a *API) Router(rl *RateLimiter) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		fmt.Fprint(w, "200")
	})

	secret := a.cfg.JWTSecret
	auth := func(h httprouter.Handle) httprouter.Handle {
		return Authenticate(secret, h)
	}

	router.POST("/api/auth/signup", rl.Limit(a.Signup))
	router.POST("/api/auth/login", rl.Limit(a.Login))

	router.GET("/api/events", auth(a.ListEvents))
	router.POST("/api/events", auth(a.CreateEvent))
	router.PUT("/api/events/:id", auth(a.UpdateEvent))
	router.PATCH("/api/events/:id", auth(a.UpdateEvent))
	router.DELETE("/api/events/:id", auth(a.DeleteEvent))

	router.GET("/api/swappable-slots", auth(a.Marketplace))

	router.POST("/api/swap-request", auth(a.CreateSwapRequest))
	router.POST("/api/swap-response/:requestId", auth(a.RespondToSwap))
	router.GET("/api/swap-requests", auth(a.ListSwapRequests))
	router.GET("/api/swap-requests/:requestId/history", auth(a.SwapRequestHistory))

	router.POST("/api/ai/swap-suggestions", auth(a.SwapSuggestions))
	router.GET("/api/ai/schedule-analysis", auth(a.ScheduleAnalysis))

	router.GET("/ws", a.ServeWS)

	return router
}
