package account

import (
	"errors"
	"net/http"

	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/I-Yanis-I/museum-app/internal/httpx"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"github.com/I-Yanis-I/museum-app/internal/session"
	"github.com/I-Yanis-I/museum-app/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	msgUserNotFound     = "User not found"
	msgInvalidBody      = "Invalid request body"
	msgValidationFailed = "Validation failed"
	msgProfileUpdated   = "Profile updated successfully"
	msgDeleted          = "Account successfully deleted"
	msgPartialDeletion  = "Account partially deleted"
	codePartialDeletion = "PARTIAL_DELETION"
)

type Server struct {
	uc      *Usecase
	cookies session.Cookies
	log     *zap.Logger
}

type Opts struct {
	Logger  *zap.Logger
	Cookies session.Cookies
}

func NewServer(uc *Usecase, o Opts) *Server {
	return &Server{uc: uc, cookies: o.Cookies, log: obs.OrNop(o.Logger)}
}

// Mount registers the account endpoints. requireAccess authenticates every route,
// requireAdmin additionally guards the admin routes.
func (s *Server) Mount(r chi.Router, requireAccess, requireAdmin func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAccess)
		r.Get("/auth/profile", s.GetProfile)
		r.Patch("/auth/profile", s.UpdateProfile)
		r.Delete("/auth/delete", s.DeleteAccount)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Patch("/admin/users/{id}/role", s.SetRole)
		})
	})
}

type userResponse struct {
	Message string          `json:"message,omitempty"`
	User    user.PublicUser `json:"user"`
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := session.ClaimsFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, session.MsgUnauthorized)
		return
	}
	u, err := s.uc.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		s.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{User: u.Public()})
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := session.ClaimsFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, session.MsgUnauthorized)
		return
	}
	var patch validation.ProfilePatch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	u, err := s.uc.UpdateProfile(r.Context(), claims.UserID, patch)
	if err != nil {
		s.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{Message: msgProfileUpdated, User: u.Public()})
}

func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := session.ClaimsFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, session.MsgUnauthorized)
		return
	}
	if err := s.uc.DeleteAccount(r.Context(), claims.UserID); err != nil {
		s.mapErr(w, r, err)
		return
	}
	s.cookies.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, userMessage{Message: msgDeleted})
}

type userMessage struct {
	Message string `json:"message"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func (s *Server) SetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	u, err := s.uc.SetRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		s.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{User: u.Public()})
}

func (s *Server) mapErr(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	var partial *PartialDeletionError
	switch {
	case errors.As(err, &verrs):
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: msgValidationFailed, Errors: verrs})
	case errors.Is(err, user.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, msgUserNotFound)
	case errors.As(err, &partial):
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorBody{Error: msgPartialDeletion, Code: codePartialDeletion})
	default:
		obs.WithTrace(r.Context(), s.log).Error("account request failed", zap.String("path", r.URL.Path), zap.Error(err))
		httpx.WriteInternal(w)
	}
}
