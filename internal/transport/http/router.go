package http

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"userauth/internal/dto"
	"userauth/internal/httpx"
	"userauth/internal/jwtsigner"
	"userauth/internal/netutil"
	obsmw "userauth/internal/observability/middleware"
	"userauth/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

type Services struct {
	Auth       service.AuthService
	Tokens     service.TokenService
	Identities service.IdentityService
	Profiles   service.ProfileService
	Signer     *jwtsigner.Signer
}

type Options struct {
	TrustProxy     bool
	RequestTimeout time.Duration
	RateLimit      int // requests per minute per client IP; 0 disables
	CORSOrigins    []string
	Metrics        http.Handler // defaults to promhttp.Handler()
}

func NewRouter(s Services, opts Options) http.Handler {
	r := chi.NewRouter()

	// --- Middlewares ---
	r.Use(obsmw.WithRequestAndTrace)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}
	if opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
	}
	origins := originsOrAll(opts.CORSOrigins)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id", "X-Trace-Id"},
		// credentials only for an explicit allow-list; with "*" any origin would be reflected
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	}))
	r.Use(httpx.LogRequests)

	metricsHandler := opts.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.Get("/v1/oauth/jwks", jwks(s.Signer))

	h := handlers{Services: s}
	r.Route("/v1/user", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/token", h.login)
		r.Post("/token/refresh", h.refresh)
		r.Post("/token/blacklist", h.blacklist)
		r.Post("/token/verify", h.verify)

		r.Group(func(pr chi.Router) {
			pr.Use(requireAccessToken(s.Tokens))
			pr.Get("/me", h.getMe)
			pr.Patch("/me", h.updateMe)
			pr.Delete("/me", h.deleteMe)
			pr.Get("/profile", h.getProfile)
			pr.Patch("/profile", h.updateProfile)
			pr.Delete("/profile", h.deleteProfile)
		})
	})

	return r
}

type handlers struct {
	Services
}

func (h handlers) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h handlers) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Auth.Login(r.Context(), req, netutil.ClientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Tokens.Refresh(r.Context(), req.RefreshToken, netutil.ClientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h handlers) blacklist(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Tokens.VerifyAccess(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h handlers) getMe(w http.ResponseWriter, r *http.Request) {
	res, err := h.Identities.Get(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h handlers) updateMe(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Identities.Update(r.Context(), currentUserID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h handlers) deleteMe(w http.ResponseWriter, r *http.Request) {
	res, err := h.Identities.Delete(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	res, err := h.Profiles.Get(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Profiles.Update(r.Context(), currentUserID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h handlers) deleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.Profiles.Delete(r.Context(), currentUserID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func jwks(signer *jwtsigner.Signer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys := []map[string]any{}
		if signer != nil {
			if jwk := signer.PublicJWK(); jwk != nil {
				keys = append(keys, jwk)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
	}
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return false
	}
	return true
}

func originsOrAll(in []string) []string {
	out := []string{}
	for _, o := range in {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
