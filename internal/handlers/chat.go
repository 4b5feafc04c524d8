package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/avolkov/relay/internal/middleware"
	"github.com/avolkov/relay/internal/notify"
	"github.com/avolkov/relay/internal/store"
)

type ChatHandler struct {
	Store    store.Store
	Notifier *notify.Notifier
	Log      zerolog.Logger
}

type createChatRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	IsGroup bool   `json:"is_group"`
}

type inviteUserRequest struct {
	Username string `json:"username" validate:"required"`
}

func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	chat, err := h.Store.CreateChat(req.Name, req.IsGroup)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.Store.AddMember(chat.ID, user.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(chat)
}

func (h *ChatHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	inviter := middleware.UserFrom(r.Context())
	chatID, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req inviteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	isMember, err := h.Store.IsMember(chatID, inviter.ID)
	if err != nil || !isMember {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	chat, err := h.Store.GetChat(chatID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	invitee, err := h.Store.GetUserByUsername(req.Username)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.Store.AddMember(chatID, invitee.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.Notifier.ChatInvite(invitee.ID, inviter, chat.Name); err != nil {
		// The membership change stands; the invitee just misses the push.
		h.Log.Error().Err(err).Int("user_id", invitee.ID).Msg("invite notification failed")
	}

	w.WriteHeader(http.StatusOK)
}

func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	chatID, _ := strconv.Atoi(mux.Vars(r)["id"])

	isMember, err := h.Store.IsMember(chatID, user.ID)
	if err != nil || !isMember {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	messages, err := h.Store.ListMessages(chatID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(messages)
}
