package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cclient/license-server-go/internal/audit"
	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/jobs"
	"github.com/cclient/license-server-go/internal/service"
)

// AdminHandler exposes operator routes: license registration, subscription
// grants and clawbacks, the ban registry, broadcasts, and the retention
// sweep trigger. Every route sits behind the admin API key middleware.
type AdminHandler struct {
	licenseService      *service.LicenseService
	subscriptionService *service.SubscriptionService
	banService          *service.BanService
	messageService      *service.MessageService
	sweeper             *jobs.Sweeper
}

func NewAdminHandler(
	licenseService *service.LicenseService,
	subscriptionService *service.SubscriptionService,
	banService *service.BanService,
	messageService *service.MessageService,
	sweeper *jobs.Sweeper,
) *AdminHandler {
	return &AdminHandler{
		licenseService:      licenseService,
		subscriptionService: subscriptionService,
		banService:          banService,
		messageService:      messageService,
		sweeper:             sweeper,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/licenses", h.RegisterLicense)
	r.Post("/subscriptions", h.GrantSubscription)
	r.Post("/subscriptions/revoke", h.RevokeSubscription)
	r.Post("/bans", h.Ban)
	r.Delete("/bans/{accountId}", h.Unban)
	r.Post("/broadcasts", h.CreateBroadcast)
	r.Delete("/messages/{messageId}", h.DeleteMessage)
	r.Post("/maintenance/sweep", h.Sweep)

	return r
}

type registerLicenseRequest struct {
	LicenseKey string `json:"licenseKey"`
	Username   string `json:"username"`
	AccountID  string `json:"accountId"`
}

func (h *AdminHandler) RegisterLicense(w http.ResponseWriter, r *http.Request) {
	var req registerLicenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	lic, err := h.licenseService.Register(r.Context(), req.LicenseKey, req.Username, req.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:      audit.EventLicenseRegister,
		AccountID: req.AccountID,
		IP:        r.RemoteAddr,
		Details:   map[string]interface{}{"username": req.Username},
	})

	writeJSON(w, http.StatusCreated, lic)
}

type grantSubscriptionRequest struct {
	AccountID    string `json:"accountId"`
	DurationDays int    `json:"durationDays"`
	GrantedBy    string `json:"grantedBy"`
	IsFreeTrial  bool   `json:"isFreeTrial"`
}

func (h *AdminHandler) GrantSubscription(w http.ResponseWriter, r *http.Request) {
	var req grantSubscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	opts := service.GrantOptions{IsFreeTrial: req.IsFreeTrial}
	if req.GrantedBy != "" {
		opts.GrantedBy = &req.GrantedBy
	}

	endTime, err := h.subscriptionService.Grant(r.Context(), req.AccountID, req.DurationDays, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:      audit.EventSubscriptionGrant,
		AccountID: req.AccountID,
		Actor:     req.GrantedBy,
		IP:        r.RemoteAddr,
		Details:   map[string]interface{}{"durationDays": req.DurationDays, "isFreeTrial": req.IsFreeTrial},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": req.AccountID,
		"endTime":   endTime,
	})
}

type revokeSubscriptionRequest struct {
	AccountID string `json:"accountId"`
	Days      int    `json:"days"`
}

func (h *AdminHandler) RevokeSubscription(w http.ResponseWriter, r *http.Request) {
	var req revokeSubscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	endTime, err := h.subscriptionService.RevokeDays(r.Context(), req.AccountID, req.Days)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:      audit.EventSubscriptionClaw,
		AccountID: req.AccountID,
		IP:        r.RemoteAddr,
		Details:   map[string]interface{}{"days": req.Days},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": req.AccountID,
		"endTime":   endTime,
	})
}

type banRequest struct {
	AccountID    string `json:"accountId"`
	DurationDays int    `json:"durationDays"`
	Reason       string `json:"reason"`
	BannedBy     string `json:"bannedBy"`
}

func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ban, err := h.banService.Ban(r.Context(), req.AccountID, req.DurationDays, req.Reason, req.BannedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:      audit.EventBan,
		AccountID: req.AccountID,
		Actor:     req.BannedBy,
		IP:        r.RemoteAddr,
		Details:   map[string]interface{}{"durationDays": req.DurationDays, "reason": req.Reason},
	})

	writeJSON(w, http.StatusOK, ban)
}

type unbanRequest struct {
	UnbannedBy string `json:"unbannedBy"`
}

func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	if accountID == "" {
		writeError(w, apperrors.MissingRequired("accountId"))
		return
	}

	var req unbanRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.banService.Unban(r.Context(), accountID, req.UnbannedBy); err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:      audit.EventUnban,
		AccountID: accountID,
		Actor:     req.UnbannedBy,
		IP:        r.RemoteAddr,
	})

	writeJSON(w, http.StatusOK, map[string]any{"accountId": accountID, "unbanned": true})
}

type createBroadcastRequest struct {
	Content   string `json:"content"`
	CreatedBy string `json:"createdBy"`
}

func (h *AdminHandler) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
	var req createBroadcastRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	broadcast, err := h.messageService.CreateBroadcast(r.Context(), req.Content, req.CreatedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, broadcast)
}

func (h *AdminHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageId")
	if messageID == "" {
		writeError(w, apperrors.MissingRequired("messageId"))
		return
	}

	if err := h.messageService.Delete(r.Context(), messageID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	report := h.sweeper.Run(r.Context())

	audit.Log(r.Context(), audit.Event{
		Type: audit.EventSweep,
		IP:   r.RemoteAddr,
		Details: map[string]interface{}{
			"authRequestsExpired":  report.AuthRequestsExpired,
			"authRequestsDeleted":  report.AuthRequestsDeleted,
			"subscriptionsDeleted": report.SubscriptionsDeleted,
		},
	})

	writeJSON(w, http.StatusOK, report)
}
