package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
}

func registerAdminSyncRoutes(mux *http.ServeMux, handler *Handler, adminSyncSecret string) {
	mux.Handle("POST /v1/admin/sync/full", RequireAdminSyncSecret(adminSyncSecret, http.HandlerFunc(handler.RunFullSync)))
	mux.Handle("POST /v1/admin/sync/schedule", RequireAdminSyncSecret(adminSyncSecret, http.HandlerFunc(handler.RunScheduleImport)))
	mux.Handle("POST /v1/admin/sync/links", RequireAdminSyncSecret(adminSyncSecret, http.HandlerFunc(handler.RunGameLinking)))
	mux.Handle("POST /v1/admin/sync/scores", RequireAdminSyncSecret(adminSyncSecret, http.HandlerFunc(handler.RunScoreSync)))
	mux.Handle("POST /v1/admin/sync/results", RequireAdminSyncSecret(adminSyncSecret, http.HandlerFunc(handler.RunResultConfirmation)))
	mux.Handle("POST /v1/admin/sync/bracket", RequireAdminSyncSecret(adminSyncSecret, http.HandlerFunc(handler.RunBracketSync)))
	// Logo sync authorizes by pool creator in the request body, not the secret.
	mux.Handle("POST /v1/admin/sync/logos", http.HandlerFunc(handler.RunLogoSync))
	mux.Handle("POST /v1/admin/sync/resync", RequireAdminSyncSecret(adminSyncSecret, http.HandlerFunc(handler.RunResync)))
}
