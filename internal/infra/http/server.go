package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"gitproof/internal/config"
	"gitproof/internal/domain"
	"gitproof/internal/infra/attestation"
	"gitproof/internal/infra/db"
	"gitproof/internal/infra/githubclient"
	"gitproof/internal/infra/policyopa"
	"gitproof/internal/infra/proofmem"
	"gitproof/internal/infra/proofredis"
	"gitproof/internal/infra/ratelimit"
	"gitproof/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	verifyUC *usecase.VerifyActivity
	proofs   usecase.ProofStore

	// memProofs is set only for the in-memory backend; it feeds the
	// health endpoint's storage stats.
	memProofs *proofmem.Store

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.routes()
	return s
}

type ServerDeps struct {
	Verify      *usecase.VerifyActivity
	Proofs      usecase.ProofStore
	MemProofs   *proofmem.Store
	RateLimiter domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:       cfg,
		r:         r,
		verifyUC:  deps.Verify,
		proofs:    deps.Proofs,
		memProofs: deps.MemProofs,
	}
	if s.proofs == nil && s.verifyUC != nil {
		s.proofs = s.verifyUC.Proofs
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() {
	source := githubclient.New(s.cfg.GitHubAPIBase, s.cfg.GitHubToken)

	var proofs usecase.ProofStore
	if s.cfg.RedisAddr != "" {
		if redisStore, err := proofredis.New(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, s.cfg.ProofTTL()); err == nil {
			proofs = redisStore
		} else {
			log.Printf("redis proof store unavailable, falling back to memory: %v", err)
		}
	}
	if proofs == nil {
		memStore := proofmem.New(s.cfg.ProofTTL(), nil)
		s.memProofs = memStore
		proofs = memStore
	}
	s.proofs = proofs

	var attestor usecase.AttestationProvider
	if s.cfg.MAAEndpoint != "" {
		attestor = attestation.New(s.cfg.MAAEndpoint, s.cfg.SKRPort)
	} else {
		log.Printf("MAA_ENDPOINT not configured; attestation disabled")
	}

	var policy usecase.PolicyEngine
	if s.cfg.PolicyBundlePath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(context.Background(), s.cfg.PolicyBundlePath, s.cfg.PolicyBundleID)
		if err != nil {
			log.Fatalf("load policy bundle: %v", err)
		}
		policy = engine
	}

	var audit usecase.VerificationAuditRepository
	if s.store != nil && s.store.DB != nil {
		audit = db.NewVerificationRepository(s.store.DB)
	}

	s.verifyUC = &usecase.VerifyActivity{
		Source:   source,
		Engine:   &usecase.Engine{Source: source},
		Attestor: attestor,
		Proofs:   proofs,
		Audit:    audit,
		Policy:   policy,
	}

	s.initRateLimit(nil)
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	if s.cfg.RateLimitWindowSeconds > 0 {
		s.rateLimitWindow = time.Duration(s.cfg.RateLimitWindowSeconds) * time.Second
	}
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealthz)

	api := s.r.Group("/api")
	{
		api.POST("/verify", s.handleVerify)
	}
	s.r.GET("/proof/:proof_hash", s.handleGetProof)

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) handleHealthz(c *gin.Context) {
	payload := gin.H{"status": "ok"}
	if s.memProofs != nil {
		valid, expired := s.memProofs.Stats()
		payload["proofs"] = gin.H{"valid": valid, "expired": expired}
	}
	if s.store != nil && s.store.DB != nil {
		payload["audit"] = "db"
	} else {
		payload["audit"] = "disabled"
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}
