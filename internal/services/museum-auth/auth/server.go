package auth

import (
	"errors"
	"net/http"

	tokens "github.com/I-Yanis-I/museum-app/internal/auth"
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/I-Yanis-I/museum-app/internal/httpx"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"github.com/I-Yanis-I/museum-app/internal/session"
	"github.com/I-Yanis-I/museum-app/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	msgInvalidBody       = "Invalid request body"
	msgValidationFailed  = "Validation failed"
	msgEmailInUse        = "This email is already in use"
	msgInvalidLogin      = "Invalid email or password"
	msgNoRefreshToken    = "No refresh token provided"
	msgInvalidRefresh    = "Invalid or expired refresh token"
	msgRegistered        = "Registration successful"
	msgLoggedIn          = "Connection successful"
	msgRefreshed         = "Token refreshed successfully"
	msgLoggedOut         = "Logged out"

	codePartialRegistration = "PARTIAL_REGISTRATION"
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

// Mount registers the /auth endpoints that do not need an access token.
// limit guards the credential endpoints and may be nil.
func (s *Server) Mount(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/auth/register", s.Register)
		r.Post("/auth/login", s.Login)
	})
	r.Post("/auth/refresh", s.Refresh)
	r.Post("/auth/logout", s.Logout)
}

type registerResponse struct {
	User    user.PublicUser `json:"user"`
	Message string          `json:"message"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var in validation.RegisterInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	u, err := s.uc.Register(r.Context(), in)
	if err != nil {
		s.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, registerResponse{User: ExcludePassword(u), Message: msgRegistered})
}

type loginResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    user.PublicUser `json:"user"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	u, pair, err := s.uc.Login(r.Context(), in)
	if err != nil {
		s.mapErr(w, r, err)
		return
	}
	s.cookies.SetAccess(w, pair.AccessToken)
	s.cookies.SetRefresh(w, pair.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{Success: true, Message: msgLoggedIn, User: ExcludePassword(u)})
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	ck, err := r.Cookie(session.RefreshCookie)
	if err != nil || ck.Value == "" {
		httpx.WriteFailure(w, http.StatusUnauthorized, msgNoRefreshToken)
		return
	}

	access, _, err := s.uc.RefreshAccess(r.Context(), ck.Value)
	if err != nil {
		s.mapErr(w, r, err)
		return
	}
	s.cookies.SetAccess(w, access)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: msgRefreshed})
}

func (s *Server) Logout(w http.ResponseWriter, _ *http.Request) {
	s.cookies.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: msgLoggedOut})
}

func (s *Server) mapErr(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	var partial *PartialRegistrationError
	switch {
	case errors.As(err, &verrs):
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: msgValidationFailed, Errors: verrs})
	case errors.Is(err, user.ErrEmailAlreadyExists):
		httpx.WriteError(w, http.StatusConflict, msgEmailInUse)
	case errors.Is(err, ErrInvalidCredentials):
		httpx.WriteFailure(w, http.StatusUnauthorized, msgInvalidLogin)
	case errors.Is(err, tokens.ErrInvalidRefreshToken), errors.Is(err, tokens.ErrRefreshTokenExpired):
		s.cookies.Clear(w)
		httpx.WriteFailure(w, http.StatusUnauthorized, msgInvalidRefresh)
	case errors.As(err, &partial):
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorBody{Error: httpx.MsgInternal, Code: codePartialRegistration})
	default:
		obs.WithTrace(r.Context(), s.log).Error("auth request failed", zap.String("path", r.URL.Path), zap.Error(err))
		httpx.WriteInternal(w)
	}
}
