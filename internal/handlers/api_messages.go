package handlers

import (
	"net/http"

	"github.com/citywatch/citywatch/internal/api"
	"github.com/citywatch/citywatch/internal/database"
)

// handleListMessages handles GET /api/incidents/{id}/messages
func (h *APIHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.svc.Messages.List(r.Context(), r.PathValue("id"))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, messages)
}

// handlePostMessage handles POST /api/incidents/{id}/messages
func (h *APIHandler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req api.PostMessageRequest
	if err := api.DecodeMessageJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.Validate(req); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}

	role := database.MessageSenderStaff
	if req.SenderRole != "" {
		role = database.MessageSenderRole(req.SenderRole)
	}
	sender := req.Sender
	if sender == "" {
		sender = staffUser(r)
	}

	msg, err := h.svc.Messages.Post(r.Context(), r.PathValue("id"), sender, role, req.Body)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusCreated, msg)
}
