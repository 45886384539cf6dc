package communication

import (
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/interactive-solutions/go-communication-hub/internal"
)

const messagePreviewLength = 140

type HttpOption func(h *HttpHandler)

func SetHttpRouter(router Router) HttpOption {
	return func(h *HttpHandler) {
		h.router = router
	}
}

func SetHttpPreferenceRepo(repo PreferenceRepository) HttpOption {
	return func(h *HttpHandler) {
		h.preferenceRepo = repo
	}
}

func SetHttpInboxRepo(repo InboxRepository) HttpOption {
	return func(h *HttpHandler) {
		h.inboxRepo = repo
	}
}

func SetHttpConversationRepo(repo ConversationRepository) HttpOption {
	return func(h *HttpHandler) {
		h.conversationRepo = repo
	}
}

func SetHttpLogger(logger logrus.FieldLogger) HttpOption {
	return func(h *HttpHandler) {
		h.logger = logger
	}
}

type HttpHandler struct {
	logger logrus.FieldLogger

	templates *TemplateStore
	renderer  *Renderer
	router    Router

	preferenceRepo   PreferenceRepository
	inboxRepo        InboxRepository
	conversationRepo ConversationRepository
}

func NewHttpHandler(templates *TemplateStore, options ...HttpOption) *HttpHandler {
	h := &HttpHandler{
		logger:    logrus.New(),
		templates: templates,
		renderer:  NewRenderer(templates),
	}

	for _, option := range options {
		option(h)
	}

	return h
}

// Register mounts the routes whose dependencies are configured.
func (h *HttpHandler) Register(r *mux.Router) {
	r.HandleFunc("/templates", h.GetAllTemplates).Methods(http.MethodGet)
	r.HandleFunc("/templates/{id}", h.GetTemplate).Methods(http.MethodGet)
	r.HandleFunc("/templates/{id}/render", h.RenderTemplate).Methods(http.MethodPost)

	if h.preferenceRepo != nil {
		r.HandleFunc("/preferences/{userId}", h.GetPreferences).Methods(http.MethodGet)
		r.HandleFunc("/preferences/{userId}", h.UpdatePreferences).Methods(http.MethodPut)
	}

	if h.router != nil {
		r.HandleFunc("/notifications", h.Notify).Methods(http.MethodPost)
	}

	if h.inboxRepo != nil {
		r.HandleFunc("/inbox/{userId}", h.GetInbox).Methods(http.MethodGet)
		r.HandleFunc("/inbox/{userId}/{id}/read", h.MarkInboxRead).Methods(http.MethodPost)
	}

	if h.conversationRepo != nil {
		r.HandleFunc("/conversations/{id}/messages", h.PostMessage).Methods(http.MethodPost)
		r.HandleFunc("/conversations/{id}/read/{participantId}", h.MarkConversationRead).Methods(http.MethodPost)
	}
}

func (h *HttpHandler) GetAllTemplates(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Data []Template `json:"data"`
	}{h.templates.All()}

	h.writeJson(w, http.StatusOK, payload)
}

func (h *HttpHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.templates.Get(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}

	h.writeJson(w, http.StatusOK, template)
}

func (h *HttpHandler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.templates.Get(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}

	body := &internal.RenderTemplateRequest{}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		http.Error(w, "Failed to parse incoming json", http.StatusBadRequest)
		return
	}

	vars, err := DecodeVariables(template, body.Variables)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var profile *ClientProfile
	if len(body.Profile) > 0 && string(body.Profile) != "null" {
		profile = &ClientProfile{}
		if err := json.Unmarshal(body.Profile, profile); err != nil {
			http.Error(w, "Failed to parse client profile", http.StatusBadRequest)
			return
		}

		extra := &internal.ProfileAttributes{}
		if err := json.Unmarshal(body.Profile, extra); err != nil {
			http.Error(w, "Failed to parse client profile", http.StatusBadRequest)
			return
		}

		if profile.Attributes, err = DecodeVariables(Template{}, extra.Attributes); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	rendered, err := h.renderer.Render(template.Id, vars, profile)
	if err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	payload := struct {
		Rendered
		Missing []string `json:"missing,omitempty"`
	}{rendered, template.MissingRequired(vars)}

	h.writeJson(w, http.StatusOK, payload)
}

func (h *HttpHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]

	prefs, err := h.preferenceRepo.Get(r.Context(), userId)
	switch errors.Cause(err) {
	case nil:

	case PreferencesNotFoundErr:
		prefs = DisabledPreferences(userId)

	default:
		h.logger.WithField("userId", userId).WithError(err).Error("failed to load preferences")
		http.Error(w, "Failed to retrieve preferences", http.StatusInternalServerError)
		return
	}

	h.writeJson(w, http.StatusOK, prefs)
}

func (h *HttpHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	prefs := &NotificationPreferences{}
	if err := json.NewDecoder(r.Body).Decode(prefs); err != nil {
		http.Error(w, "Failed to parse incoming json", http.StatusBadRequest)
		return
	}

	prefs.UserId = mux.Vars(r)["userId"]
	prefs.UpdatedAt = time.Now()

	if err := prefs.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.preferenceRepo.Save(r.Context(), prefs); err != nil {
		h.logger.WithField("userId", prefs.UserId).WithError(err).Error("failed to save preferences")
		http.Error(w, "Failed to update preferences", http.StatusInternalServerError)
		return
	}

	h.writeJson(w, http.StatusOK, prefs)
}

func (h *HttpHandler) Notify(w http.ResponseWriter, r *http.Request) {
	body := &internal.NotifyRequest{}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		http.Error(w, "Failed to parse incoming json", http.StatusBadRequest)
		return
	}

	n := Notification{
		UserId:    body.UserId,
		Type:      NotificationType(body.Type),
		Priority:  Priority(body.Priority),
		Title:     body.Title,
		Message:   body.Message,
		ActionUrl: body.ActionUrl,
	}

	if n.Priority == "" {
		n.Priority = PriorityNormal
	}

	if n.UserId == "" || !n.Type.Valid() || !n.Priority.Valid() {
		http.Error(w, "userId, a known type and a known priority are required", http.StatusBadRequest)
		return
	}

	payload := struct {
		Dispatched bool `json:"dispatched"`
	}{h.router.Notify(r.Context(), n)}

	h.writeJson(w, http.StatusAccepted, payload)
}

func (h *HttpHandler) GetInbox(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]
	unreadOnly := r.URL.Query().Get("unread") == "true"

	items, err := h.inboxRepo.ForUser(r.Context(), userId, unreadOnly)
	if err != nil {
		h.logger.WithField("userId", userId).WithError(err).Error("failed to load inbox")
		http.Error(w, "Failed to retrieve inbox", http.StatusInternalServerError)
		return
	}

	if items == nil {
		items = []InboxItem{}
	}

	payload := struct {
		Data []InboxItem `json:"data"`
	}{items}

	h.writeJson(w, http.StatusOK, payload)
}

func (h *HttpHandler) MarkInboxRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "Invalid id provided, uuid expected", http.StatusBadRequest)
		return
	}

	if err := h.inboxRepo.MarkRead(r.Context(), vars["userId"], id); err != nil {
		if errors.Cause(err) == InboxItemNotFoundErr {
			http.Error(w, "Inbox item not found", http.StatusNotFound)
			return
		}

		http.Error(w, "Failed to update inbox item", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HttpHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	conversation, ok := h.loadConversation(w, r)
	if !ok {
		return
	}

	body := &internal.PostMessageRequest{}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		http.Error(w, "Failed to parse incoming json", http.StatusBadRequest)
		return
	}

	if body.SenderId == "" || body.Body == "" {
		http.Error(w, "senderId and body are required", http.StatusBadRequest)
		return
	}

	message := &Message{
		Uuid:             uuid.New(),
		ConversationUuid: conversation.Uuid,
		SenderId:         body.SenderId,
		Body:             body.Body,
		Attachments:      body.Attachments,
		CreatedAt:        time.Now(),
	}

	if err := conversation.Append(message); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.conversationRepo.AddMessage(r.Context(), message); err != nil {
		h.logger.WithField("conversation", conversation.Uuid).WithError(err).Error("failed to store message")
		http.Error(w, "Failed to store message", http.StatusInternalServerError)
		return
	}

	if err := h.conversationRepo.Update(r.Context(), &conversation); err != nil {
		h.logger.WithField("conversation", conversation.Uuid).WithError(err).Error("failed to update conversation")
		http.Error(w, "Failed to update conversation", http.StatusInternalServerError)
		return
	}

	if h.router != nil {
		for _, recipient := range conversation.Recipients(message.SenderId) {
			h.router.Notify(r.Context(), Notification{
				UserId:   recipient,
				Type:     TypeNewMessage,
				Priority: PriorityNormal,
				Title:    "New message: " + conversation.Subject,
				Message:  preview(message.Body),
			})
		}
	}

	h.writeJson(w, http.StatusCreated, message)
}

func (h *HttpHandler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	conversation, ok := h.loadConversation(w, r)
	if !ok {
		return
	}

	conversation.MarkRead(mux.Vars(r)["participantId"])

	if err := h.conversationRepo.Update(r.Context(), &conversation); err != nil {
		http.Error(w, "Failed to update conversation", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HttpHandler) loadConversation(w http.ResponseWriter, r *http.Request) (Conversation, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid id provided, uuid expected", http.StatusBadRequest)
		return Conversation{}, false
	}

	conversation, err := h.conversationRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Cause(err) == ConversationNotFoundErr {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return Conversation{}, false
		}

		http.Error(w, "Failed to retrieve conversation", http.StatusInternalServerError)
		return Conversation{}, false
	}

	return conversation, true
}

func (h *HttpHandler) writeJson(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to convert to json", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= messagePreviewLength {
		return body
	}

	runes := []rune(body)
	return string(runes[:messagePreviewLength]) + "..."
}
