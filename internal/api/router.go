package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	_ "github.com/AlexZinkM/wallet-guard/docs"
	"github.com/AlexZinkM/wallet-guard/internal/handler"
	"github.com/AlexZinkM/wallet-guard/internal/messenger"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// AdminTokenHeader carries the admin token on admin routes.
const AdminTokenHeader = "X-Admin-Token"

// Deps are the services the router exposes.
type Deps struct {
	Keys       *handler.KeyHandler
	Networks   *handler.NetworkHandler
	Balance    *handler.BalanceHandler
	Hub        *messenger.Hub
	AdminToken string // empty disables the admin token check
	Logger     *zap.Logger
}

// SetupRouter sets up router with handlers
func SetupRouter(deps Deps) http.Handler {
	log := deps.Logger.Named("api")
	admin := adminOnly(deps.AdminToken)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Page contexts
	mux.Handle("GET /ws", websocketHandler(deps.Hub, log))

	// Admin endpoints
	mux.Handle("GET /keys", admin(deps.Keys.List))
	mux.Handle("POST /keys", admin(deps.Keys.Add))
	mux.Handle("POST /keys/generate", admin(deps.Keys.Generate))
	mux.Handle("DELETE /keys/{identity}", admin(deps.Keys.Delete))
	mux.Handle("GET /keys/{identity}/qr", admin(deps.Keys.QR))

	mux.Handle("GET /networks", admin(deps.Networks.List))
	mux.Handle("POST /networks", admin(deps.Networks.Add))
	mux.Handle("PUT /networks/current", admin(deps.Networks.Change))

	mux.Handle("GET /balance", admin(deps.Balance.Get))

	return mux
}

var errUnauthorized = errors.New("missing or invalid admin token")

func adminOnly(token string) func(http.HandlerFunc) http.Handler {
	return func(next http.HandlerFunc) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(model.NewErrorResponse(errUnauthorized))
				return
			}
			next(w, r)
		})
	}
}

func websocketHandler(hub *messenger.Hub, log *zap.Logger) http.Handler {
	upgrader := websocket.Upgrader{
		// Page contexts are untrusted whatever their origin
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		if err := messenger.ServeWebsocket(r.Context(), hub, conn, log); err != nil {
			log.Debug("page context closed", zap.Error(err))
		}
	})
}
