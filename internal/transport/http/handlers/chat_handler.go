package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/dkosir/partnerhub/internal/domain"
	"github.com/dkosir/partnerhub/internal/service"
	"github.com/dkosir/partnerhub/internal/transport/http/middleware"
	"github.com/dkosir/partnerhub/pkg/validator"
)

type ChatHandler struct {
	broker     *service.BrokerService
	membership *service.MembershipService
	messages   *service.MessageService
	search     *service.SearchService
}

func NewChatHandler(
	broker *service.BrokerService,
	membership *service.MembershipService,
	messages *service.MessageService,
	search *service.SearchService,
) *ChatHandler {
	return &ChatHandler{
		broker:     broker,
		membership: membership,
		messages:   messages,
		search:     search,
	}
}

type createChannelInput struct {
	ParticipantIDs []int64 `json:"participant_ids"`
	RoomType       string  `json:"room_type"`
	ChannelID      string  `json:"channel_id,omitempty"`
}

func (h *ChatHandler) CreateOrGetChannel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input createChannelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateCreateChannel(input.ParticipantIDs, input.RoomType); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	roomType := domain.RoomType(input.RoomType)
	if roomType == "" {
		roomType = domain.RoomTypePersonal
	}

	// The requester is always part of the conversation.
	participants := append(input.ParticipantIDs, userID)

	room, err := h.broker.Resolve(r.Context(), participants, roomType, input.ChannelID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Channel not found")
		case errors.Is(err, service.ErrNoParticipants):
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "At least one participant is required")
		default:
			log.Printf("ERROR resolve channel: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (h *ChatHandler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")

	if err := h.broker.DeleteChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Channel not found")
		} else {
			log.Printf("ERROR delete channel: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	channels, err := h.broker.ListChannelsForUser(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list channels: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, channels)
}

func (h *ChatHandler) SearchChannels(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	term := r.URL.Query().Get("q")

	channels, err := h.search.Search(r.Context(), term, userID)
	if err != nil {
		log.Printf("ERROR search channels: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, channels)
}

type sendMessageInput struct {
	ChannelID      string  `json:"channel_id,omitempty"`
	ParticipantIDs []int64 `json:"participant_ids,omitempty"`
	RoomType       string  `json:"room_type,omitempty"`
	Body           string  `json:"body"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input sendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateSendMessage(input.ChannelID, input.ParticipantIDs, input.Body); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	participants := input.ParticipantIDs
	if input.ChannelID == "" {
		participants = append(participants, userID)
	}

	sent, err := h.messages.Send(r.Context(), service.SendInput{
		ChannelID:      input.ChannelID,
		ParticipantIDs: participants,
		RoomType:       domain.RoomType(input.RoomType),
		SenderID:       userID,
		Body:           input.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Channel not found")
		default:
			log.Printf("ERROR send message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, sent)
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")
	pageToken := r.URL.Query().Get("next_token")

	list, err := h.messages.ListMessages(r.Context(), channelID, pageToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomInconsistent):
			writeError(w, http.StatusConflict, "INCONSISTENT_STATE", "Channel has no local room record")
		default:
			log.Printf("ERROR list messages: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, list)
}

type addMembersInput struct {
	UserIDs []int64 `json:"user_ids"`
}

func (h *ChatHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	channelID := r.PathValue("id")

	var input addMembersInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateAddMembers(input.UserIDs); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	result, err := h.membership.AddMembers(r.Context(), channelID, input.UserIDs, userID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Channel not found")
		} else {
			log.Printf("ERROR add members: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	channelID := r.PathValue("id")

	memberID, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	if err := h.membership.RemoveMember(r.Context(), channelID, memberID, actorID); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Channel not found")
		} else {
			log.Printf("ERROR remove member: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
