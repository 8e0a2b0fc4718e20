package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/services"
)

// WebhookHandler receives provisioning events from the identity provider.
// Requests are authenticated by an HMAC-SHA256 signature over the raw body,
// not by a user token.
type WebhookHandler struct {
	users  services.UserService
	secret string
	logger *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(users services.UserService, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		users:  users,
		secret: secret,
		logger: logger.Named("webhook-handler"),
	}
}

// identityPayload is the provider's webhook envelope: an event type plus
// the user object as the provider models it.
type identityPayload struct {
	Type string `json:"type"`
	Data struct {
		ID                    string `json:"id"`
		Name                  string `json:"name"`
		ImageURL              string `json:"image_url"`
		PrimaryEmailAddressID string `json:"primary_email_address_id"`
		EmailAddresses        []struct {
			ID           string `json:"id"`
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// primaryEmail picks the address the provider marks as primary, falling
// back to the first one listed.
func (p *identityPayload) primaryEmail() string {
	for _, addr := range p.Data.EmailAddresses {
		if addr.ID == p.Data.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(p.Data.EmailAddresses) > 0 {
		return p.Data.EmailAddresses[0].EmailAddress
	}
	return ""
}

// IdentityEvent handles a single identity provisioning event.
func (h *WebhookHandler) IdentityEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		ErrorResponse(w, h.logger, apperrors.ErrValidation)
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		h.logger.Warn("Webhook signature verification failed")
		ErrorResponse(w, h.logger, apperrors.ErrAuthRequired)
		return
	}

	var payload identityPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		ErrorResponse(w, h.logger, apperrors.ErrValidation)
		return
	}

	event := &services.IdentityEvent{
		Kind:        payload.Type,
		ExternalID:  payload.Data.ID,
		Email:       payload.primaryEmail(),
		DisplayName: payload.Data.Name,
		AvatarURL:   payload.Data.ImageURL,
	}

	if err := h.users.HandleIdentityEvent(r.Context(), event); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// verifySignature checks the hex-encoded HMAC-SHA256 of the body.
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
