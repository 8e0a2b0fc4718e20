package handlers

import (
	"net/http"

	"github.com/ivv-works/ivv-engine/pkg/auth"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Health   *HealthHandler
	Public   *PublicHandler
	Reports  *ReportHandler
	Projects *ProjectHandler
	Users    *UserHandler
	Comments *CommentHandler
	Uploads  *UploadHandler
	Autofill *AutofillHandler
	Webhook  *WebhookHandler
}

// RegisterRoutes wires all routes onto the mux. The public surface uses
// optional authentication; everything else requires a resolved identity.
func RegisterRoutes(mux *http.ServeMux, h *Handlers, mw *auth.Middleware) {
	mux.HandleFunc("GET /healthz", h.Health.Health)

	// Public read surface. OptionalAuth lets signed-in members see their own
	// pending reports through the same endpoints.
	mux.HandleFunc("GET /api/public/reports", h.Public.ListReports)
	mux.HandleFunc("GET /api/public/filters", h.Public.Filters)
	mux.HandleFunc("POST /api/public/search", h.Public.Search)
	mux.HandleFunc("POST /api/public/answer", h.Public.Answer)
	mux.HandleFunc("GET /api/reports/{id}", mw.OptionalAuth(h.Reports.Get))
	mux.HandleFunc("GET /api/reports/{id}/findings", mw.OptionalAuth(h.Reports.ListFindings))

	// Identity provider webhook, authenticated by signature.
	mux.HandleFunc("POST /webhooks/identity", h.Webhook.IdentityEvent)

	// Authenticated surface.
	mux.HandleFunc("GET /api/me", mw.RequireAuth(h.Users.Me))

	mux.HandleFunc("POST /api/reports", mw.RequireAuth(h.Reports.Submit))
	mux.HandleFunc("POST /api/reports/{id}/approve", mw.RequireAuth(h.Reports.Approve))
	mux.HandleFunc("POST /api/reports/{id}/unapprove", mw.RequireAuth(h.Reports.Unapprove))
	mux.HandleFunc("DELETE /api/reports/{id}", mw.RequireAuth(h.Reports.Delete))
	mux.HandleFunc("POST /api/reports/{id}/final-attachment", mw.RequireAuth(h.Reports.AttachFinal))
	mux.HandleFunc("PATCH /api/reports/{id}/findings/{findingID}", mw.RequireAuth(h.Reports.UpdateFindingStatus))

	mux.HandleFunc("POST /api/reports/{id}/comments", mw.RequireAuth(h.Comments.Add))
	mux.HandleFunc("GET /api/reports/{id}/comments", mw.RequireAuth(h.Comments.ListByReport))
	mux.HandleFunc("GET /api/comments/recent", mw.RequireAuth(h.Comments.Recent))

	mux.HandleFunc("POST /api/projects", mw.RequireAuth(h.Projects.Create))
	mux.HandleFunc("GET /api/projects", mw.RequireAuth(h.Projects.List))
	mux.HandleFunc("GET /api/projects/{id}", mw.RequireAuth(h.Projects.Get))
	mux.HandleFunc("PUT /api/projects/{id}", mw.RequireAuth(h.Projects.Update))
	mux.HandleFunc("DELETE /api/projects/{id}", mw.RequireAuth(h.Projects.Delete))
	mux.HandleFunc("GET /api/projects/{projectID}/reports", mw.RequireAuth(h.Reports.ListForProject))
	mux.HandleFunc("POST /api/projects/{id}/members", mw.RequireAuth(h.Projects.AddMember))
	mux.HandleFunc("DELETE /api/projects/{id}/members/{userID}", mw.RequireAuth(h.Projects.RemoveMember))
	mux.HandleFunc("GET /api/projects/{id}/members", mw.RequireAuth(h.Projects.ListMembers))

	mux.HandleFunc("GET /api/users", mw.RequireAuth(h.Users.List))
	mux.HandleFunc("PATCH /api/users/{id}/role", mw.RequireAuth(h.Users.SetRole))
	mux.HandleFunc("PATCH /api/users/{id}/active", mw.RequireAuth(h.Users.SetActive))
	mux.HandleFunc("GET /api/activity", mw.RequireAuth(h.Users.Activity))

	mux.HandleFunc("POST /api/uploads", mw.RequireAuth(h.Uploads.CreateUpload))
	mux.HandleFunc("GET /api/uploads/download", mw.RequireAuth(h.Uploads.Download))
	mux.HandleFunc("POST /api/autofill", mw.RequireAuth(h.Autofill.Autofill))
}
