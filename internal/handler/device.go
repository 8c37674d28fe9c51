package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/cclient/license-server-go/internal/audit"
	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/service"
)

// DeviceHandler exposes the routes the client application calls: license
// verification, access code pairing, and auth request creation/polling.
type DeviceHandler struct {
	licenseService *service.LicenseService
	codeService    *service.AccessCodeService
	authService    *service.AuthRequestService
	messageService *service.MessageService
}

func NewDeviceHandler(
	licenseService *service.LicenseService,
	codeService *service.AccessCodeService,
	authService *service.AuthRequestService,
	messageService *service.MessageService,
) *DeviceHandler {
	return &DeviceHandler{
		licenseService: licenseService,
		codeService:    codeService,
		authService:    authService,
		messageService: messageService,
	}
}

func (h *DeviceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/license/verify", h.VerifyLicense)
	r.Post("/license/logout", h.LogoutLicense)
	r.Post("/access-code", h.IssueAccessCode)
	r.Post("/access-code/status", h.AccessCodeStatus)
	r.Post("/access-code/unlink", h.UnlinkAccessCode)
	r.Post("/auth-request", h.CreateAuthRequest)
	r.Get("/auth-request/{requestId}/status", h.PollAuthRequest)
	r.Post("/messages", h.SendMessage)
	r.Get("/messages", h.ListMessages)
	r.Get("/broadcasts", h.ListBroadcasts)

	return r
}

// POST /api/license/verify
func (h *DeviceHandler) VerifyLicense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LicenseKey string `json:"licenseKey"`
		Username   string `json:"username"`
		HWID       string `json:"hwid"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.licenseService.Verify(r.Context(), req.LicenseKey, req.Username, req.HWID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:      audit.EventLicenseVerify,
		AccountID: result.AccountID,
		DeviceID:  req.HWID,
		IP:        r.RemoteAddr,
		Details:   map[string]interface{}{"granted": result.Granted},
	})

	writeJSON(w, http.StatusOK, result)
}

// POST /api/license/logout
func (h *DeviceHandler) LogoutLicense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LicenseKey string `json:"licenseKey"`
		Username   string `json:"username"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.licenseService.Logout(r.Context(), req.LicenseKey, req.Username); err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:    audit.EventLicenseLogout,
		IP:      r.RemoteAddr,
		Details: map[string]interface{}{"username": req.Username},
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /api/access-code
func (h *DeviceHandler) IssueAccessCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HWID string `json:"hwid"`
		IP   string `json:"ip"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sourceIP := req.IP
	if sourceIP == "" {
		sourceIP = r.RemoteAddr
	}

	code, existing, err := h.codeService.Issue(r.Context(), req.HWID, sourceIP)
	if err != nil {
		writeError(w, err)
		return
	}

	if !existing {
		audit.Log(r.Context(), audit.Event{
			Type:     audit.EventCodeIssue,
			DeviceID: req.HWID,
			IP:       r.RemoteAddr,
		})
	}

	message := "New access code generated"
	if existing {
		message = "Existing code retrieved"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessCode": code.Code,
		"formatted":  service.FormatAccessCode(code.Code),
		"message":    message,
	})
}

// POST /api/access-code/status
func (h *DeviceHandler) AccessCodeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessCode string `json:"accessCode"`
		HWID       string `json:"hwid"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	status, err := h.codeService.Status(r.Context(), req.AccessCode, req.HWID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// POST /api/access-code/unlink
func (h *DeviceHandler) UnlinkAccessCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessCode string `json:"accessCode"`
		HWID       string `json:"hwid"`
		AccountID  string `json:"accountId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.codeService.Unlink(r.Context(), req.AccessCode, req.HWID, req.AccountID); err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:      audit.EventCodeUnlink,
		AccountID: req.AccountID,
		DeviceID:  req.HWID,
		IP:        r.RemoteAddr,
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /api/auth-request
func (h *DeviceHandler) CreateAuthRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID  string  `json:"accountId"`
		Username   string  `json:"username"`
		HWID       string  `json:"hwid"`
		IP         string  `json:"ip"`
		AccessCode *string `json:"accessCode,omitempty"`
		Location   *string `json:"location,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sourceIP := req.IP
	if sourceIP == "" {
		sourceIP = r.RemoteAddr
	}

	ar, err := h.authService.Create(r.Context(), service.CreateAuthRequestInput{
		AccountID:  req.AccountID,
		DeviceID:   req.HWID,
		Username:   req.Username,
		SourceIP:   sourceIP,
		AccessCode: req.AccessCode,
		Location:   req.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.Log(r.Context(), audit.Event{
		Type:      audit.EventAuthRequestCreate,
		AccountID: req.AccountID,
		DeviceID:  req.HWID,
		IP:        sourceIP,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"requestId": ar.RequestID,
		"status":    ar.Status,
	})
}

// GET /api/auth-request/{requestId}/status
//
// An unknown id returns 200 with status "not_found": the device treats it
// as a terminal answer, not a transport failure.
func (h *DeviceHandler) PollAuthRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")

	status, err := h.authService.Poll(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

// POST /api/messages
func (h *DeviceHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.messageService.Send(r.Context(), req.From, req.To, req.Content); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GET /api/messages?user=<name>
func (h *DeviceHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")

	msgs, err := h.messageService.ListFor(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	if msgs == nil {
		msgs = []model.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// GET /api/broadcasts
func (h *DeviceHandler) ListBroadcasts(w http.ResponseWriter, r *http.Request) {
	bs, err := h.messageService.Broadcasts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list broadcasts")
		writeError(w, err)
		return
	}

	if bs == nil {
		bs = []model.Broadcast{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"broadcasts": bs})
}
