package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/keepsake/internal/auth"
	"github.com/jason-s-yu/keepsake/internal/models"
	"github.com/jason-s-yu/keepsake/internal/relationship"
	"github.com/sirupsen/logrus"
)

// ProfileWriter syncs the caller's profile into the user directory.
type ProfileWriter interface {
	UpsertUser(ctx context.Context, u models.UserSummary) error
}

// APIServer holds the dependencies shared by every HTTP handler.
type APIServer struct {
	Relationships *relationship.Service
	Profiles      ProfileWriter
	Logger        logrus.FieldLogger
}

// NewAPIServer builds an APIServer. A nil logger discards output.
func NewAPIServer(svc *relationship.Service, profiles ProfileWriter, logger logrus.FieldLogger) *APIServer {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &APIServer{
		Relationships: svc,
		Profiles:      profiles,
		Logger:        logger,
	}
}

// Routes registers every endpoint on a new mux.
func (s *APIServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// friend endpoints
	mux.HandleFunc("POST /friends/request", s.withCaller(s.SendFriendRequestHandler))
	mux.HandleFunc("POST /friends/accept", s.withCaller(s.AcceptFriendRequestHandler))
	mux.HandleFunc("POST /friends/reject", s.withCaller(s.RejectFriendRequestHandler))
	mux.HandleFunc("GET /friends/list", s.withCaller(s.ListFriendsHandler))
	mux.HandleFunc("GET /friends/pending", s.withCaller(s.PendingRequestsHandler))
	mux.HandleFunc("GET /friends/sent", s.withCaller(s.SentRequestsHandler))
	mux.HandleFunc("GET /friends/status", s.withCaller(s.FriendshipStatusHandler))

	// user endpoints
	mux.HandleFunc("GET /users/search", s.withCaller(s.SearchUsersHandler))
	mux.HandleFunc("PUT /user/profile", s.withCaller(s.UpdateProfileHandler))

	return mux
}

// callerHandlerFunc is a handler that receives the verified caller explicitly.
type callerHandlerFunc func(w http.ResponseWriter, r *http.Request, caller uuid.UUID)

// withCaller resolves the caller once at the boundary and passes it down, or answers 401.
func (s *APIServer) withCaller(h callerHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := auth.ResolveCaller(r)
		if err != nil {
			s.Logger.WithError(err).Debug("rejecting unauthenticated request")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r, caller)
	}
}
