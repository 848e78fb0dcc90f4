package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/oggyb/muzz-match/internal/config"
)

// NewRouter registers every route of the REST API and wraps the router in CORS.
func NewRouter(h *Handler, rl config.RateLimitConfig, log *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(Chain(RequestID(log), AccessLog(log), Recovery(log))))

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var rate http.Handler = http.HandlerFunc(h.rate)
	if rl.Enabled {
		rate = RateLimit(h.appCtx.RedisCache, "rate", rl.Requests, rl.Window)(rate)
	}

	m := r.PathPrefix("/matching").Subrouter()
	m.Handle("/rate", rate).Methods(http.MethodPost)
	m.HandleFunc("/suggestions", h.getSuggestions).Methods(http.MethodGet)
	m.HandleFunc("/likes", h.likes).Methods(http.MethodGet)
	m.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	m.HandleFunc("/preferences", h.getPreferences).Methods(http.MethodGet)
	m.HandleFunc("/preferences", h.putPreferences).Methods(http.MethodPut)

	r.HandleFunc("/matches", h.matches).Methods(http.MethodGet)
	r.HandleFunc("/matches/{id:[0-9]+}/unmatch", h.unmatch).Methods(http.MethodDelete)

	msg := r.PathPrefix("/messages").Subrouter()
	msg.HandleFunc("", h.sendMessage).Methods(http.MethodPost)
	msg.HandleFunc("/match/{matchId:[0-9]+}", h.history).Methods(http.MethodGet)
	msg.HandleFunc("/match/{matchId:[0-9]+}/read", h.markConversationRead).Methods(http.MethodPut)
	msg.HandleFunc("/conversation/{matchId:[0-9]+}", h.deleteConversation).Methods(http.MethodDelete)
	msg.HandleFunc("/{id:[0-9]+}/read", h.markMessageRead).Methods(http.MethodPut)
	msg.HandleFunc("/{id:[0-9]+}", h.deleteMessage).Methods(http.MethodDelete)

	n := r.PathPrefix("/notifications").Subrouter()
	n.HandleFunc("", h.listNotifications).Methods(http.MethodGet)
	n.HandleFunc("", h.deleteAllNotifications).Methods(http.MethodDelete)
	n.HandleFunc("/unread", h.unreadNotifications).Methods(http.MethodGet)
	n.HandleFunc("/unread/count", h.unreadCount).Methods(http.MethodGet)
	n.HandleFunc("/read-all", h.markAllNotificationsRead).Methods(http.MethodPut)
	n.HandleFunc("/{id:[0-9]+}/read", h.markNotificationRead).Methods(http.MethodPut)
	n.HandleFunc("/{id:[0-9]+}", h.deleteNotification).Methods(http.MethodDelete)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(r)
}
