package api

import (
	"database/sql"
	"net/http"

	"github.com/zoobzio/clockz"
)

// NewRouter creates the API router with all endpoints registered. clock
// supplies "now" for token validity and every due projection.
func NewRouter(db *sql.DB, jwtSecret string, clock clockz.Clock) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, Clock: clock}
	vehiclesHandler := &VehiclesHandler{DB: db, Clock: clock}
	itemsHandler := &ServiceItemsHandler{DB: db, Clock: clock}
	historyHandler := &HistoryHandler{DB: db}
	taxHandler := &TaxHandler{DB: db}
	timelineHandler := &TimelineHandler{DB: db}
	dashboardHandler := &DashboardHandler{DB: db, Clock: clock}

	authMW := AuthMiddleware(jwtSecret, db, clock)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("GET /api/health", Health(db, clock))
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Account.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Vehicles. {id} is the numeric id or the short id.
	mux.Handle("GET /api/vehicles", authed(vehiclesHandler.List))
	mux.Handle("POST /api/vehicles", authed(vehiclesHandler.Create))
	mux.Handle("GET /api/vehicles/{id}", authed(vehiclesHandler.Get))
	mux.Handle("PUT /api/vehicles/{id}", authed(vehiclesHandler.Update))
	mux.Handle("DELETE /api/vehicles/{id}", authed(vehiclesHandler.Delete))
	mux.Handle("PUT /api/vehicles/{id}/km", authed(vehiclesHandler.UpdateOdometer))
	mux.Handle("PUT /api/vehicles/{id}/image", authed(vehiclesHandler.UploadImage))
	mux.Handle("GET /api/vehicles/{id}/image", authed(vehiclesHandler.GetImage))

	// Service items.
	mux.Handle("GET /api/service-items", authed(itemsHandler.List))
	mux.Handle("POST /api/service-items", authed(itemsHandler.Create))
	mux.Handle("GET /api/service-items/{id}", authed(itemsHandler.Get))
	mux.Handle("PUT /api/service-items/{id}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/service-items/{id}", authed(itemsHandler.Delete))

	// Service history.
	mux.Handle("GET /api/service-history", authed(historyHandler.List))
	mux.Handle("POST /api/service-history", authed(historyHandler.Record))
	mux.Handle("GET /api/service-history/{id}", authed(historyHandler.Get))

	// Tax payments.
	mux.Handle("GET /api/tax-payments", authed(taxHandler.List))
	mux.Handle("POST /api/tax-payments", authed(taxHandler.Record))

	// Read models.
	mux.Handle("GET /api/timeline", authed(timelineHandler.Get))
	mux.Handle("GET /api/dashboard", authed(dashboardHandler.Get))

	return mux
}
