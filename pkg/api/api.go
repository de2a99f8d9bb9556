// Package api exposes the HTTP surface: comment CRUD and moderation, the
// news-search proxy, identity endpoints and SPA asset serving.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"newsdesk/pkg/auth"
	"newsdesk/pkg/comments"
	"newsdesk/pkg/moderation"
	"newsdesk/pkg/nyt"
	"newsdesk/pkg/storage"
)

type API struct {
	ServiceName string

	r  *mux.Router
	kw *kafka.Writer

	comments   *comments.Service
	moderation *moderation.Service
	gate       *auth.Gate
	sessions   *auth.Sessions
	provider   auth.Provider
	news       *nyt.Client
	db         storage.Storage

	frontendURL    string
	buildDir       string
	allowedOrigins []string
}

type Options struct {
	ServiceName string

	// DB may be nil when the store connection failed at startup; comment
	// endpoints then answer 503.
	DB       storage.Storage
	Sessions *auth.Sessions
	Provider auth.Provider
	News     *nyt.Client

	FrontendURL    string
	BuildDir       string
	AllowedOrigins []string

	// KafkaWriter, when non-nil, receives one access-log entry per request.
	KafkaWriter *kafka.Writer
}

func New(opts Options) *API {
	api := API{
		ServiceName:    opts.ServiceName,
		r:              mux.NewRouter(),
		kw:             opts.KafkaWriter,
		comments:       comments.NewService(opts.DB),
		moderation:     moderation.NewService(opts.DB),
		gate:           auth.NewGate(opts.Sessions),
		sessions:       opts.Sessions,
		provider:       opts.Provider,
		news:           opts.News,
		db:             opts.DB,
		frontendURL:    opts.FrontendURL,
		buildDir:       opts.BuildDir,
		allowedOrigins: opts.AllowedOrigins,
	}
	api.endpoints()

	return &api
}

func (api *API) Router() *mux.Router {
	return api.r
}

// Handler wraps the router with CORS for the dev setup where the frontend
// is served from a different origin.
func (api *API) Handler() http.Handler {
	if len(api.allowedOrigins) == 0 {
		return api.r
	}

	return handlers.CORS(
		handlers.AllowedOrigins(api.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-Id"}),
		handlers.AllowCredentials(),
	)(api.r)
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	if api.kw != nil {
		api.r.Use(api.loggingMiddleware(api.kw))
	}

	rest := api.r.PathPrefix("/api").Subrouter()
	rest.Use(api.headerMiddleware)

	rest.HandleFunc("/comments", api.createCommentHandler).Methods(http.MethodPost)
	rest.HandleFunc("/comments", api.listCommentsHandler).Methods(http.MethodGet)
	rest.HandleFunc("/comments/{id}", api.commentHandler).Methods(http.MethodGet)
	rest.HandleFunc("/comments/{id}/moderate", api.moderateCommentHandler).Methods(http.MethodPut)

	rest.HandleFunc("/search", api.searchHandler).Methods(http.MethodGet)
	rest.HandleFunc("/searchArticles", api.searchArticlesHandler).Methods(http.MethodGet)
	rest.HandleFunc("/test_articles", api.testArticlesHandler).Methods(http.MethodGet)

	api.r.HandleFunc("/api/login", api.loginHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/api/authorize", api.authorizeHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/api/logout", api.logoutHandler).Methods(http.MethodGet)
	rest.HandleFunc("/me", api.meHandler).Methods(http.MethodGet)

	if api.buildDir != "" {
		api.r.PathPrefix("/").HandlerFunc(api.frontendHandler).Methods(http.MethodGet)
	}
}

func (api *API) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	var req comments.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: invalid JSON", http.StatusBadRequest)
		log.Debugf("[createCommentHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	var ident *auth.Identity
	if api.sessions != nil {
		ident, _ = api.sessions.Identity(r)
	}

	comment, err := api.comments.Create(r.Context(), req, ident)
	if err != nil {
		api.writeError(w, "createCommentHandler", sID, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(comment); err != nil {
		log.Errorf("[createCommentHandler][%s] failed to encode response: %v", sID, err)
	}
}

func (api *API) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	list, err := api.comments.List(r.Context())
	if err != nil {
		api.writeError(w, "listCommentsHandler", sID, err)
		return
	}

	if err := json.NewEncoder(w).Encode(list); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[listCommentsHandler][%s] failed to encode response: %v", sID, err)
		return
	}
	log.Debugf("[listCommentsHandler][%s] %d comments sent to: %v", sID, len(list), r.RemoteAddr)
}

func (api *API) commentHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	idHex := mux.Vars(r)["id"]
	comment, err := api.comments.Get(r.Context(), idHex)
	if err != nil {
		api.writeError(w, "commentHandler", sID, err)
		return
	}

	if err := json.NewEncoder(w).Encode(comment); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[commentHandler][%s] failed to encode response: %v", sID, err)
	}
}

type moderateRequest struct {
	Action     string  `json:"action"`
	NewContent *string `json:"new_content"`
}

func (api *API) moderateCommentHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	ident, err := api.gate.Require(r, auth.RoleAdmin, auth.RoleModerator)
	if err != nil {
		api.writeError(w, "moderateCommentHandler", sID, err)
		return
	}

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: invalid JSON", http.StatusBadRequest)
		log.Debugf("[moderateCommentHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	idHex := mux.Vars(r)["id"]
	comment, err := api.moderation.Moderate(r.Context(), idHex, req.Action, req.NewContent, ident)
	if err != nil {
		api.writeError(w, "moderateCommentHandler", sID, err)
		return
	}

	log.Infof("[moderateCommentHandler][%s] comment %s moderated (%s) by %s", sID, idHex, req.Action, ident.DisplayName())

	if err := json.NewEncoder(w).Encode(comment); err != nil {
		log.Errorf("[moderateCommentHandler][%s] failed to encode response: %v", sID, err)
	}
}
