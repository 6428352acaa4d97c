package http

import (
	"errors"
	"net/http"
	"time"

	"gitproof/internal/domain"
	"gitproof/internal/usecase"

	"github.com/gin-gonic/gin"
)

type verifyRequest struct {
	GitHubUsername   string           `json:"github_username"`
	VerificationType domain.ClaimType `json:"verification_type"`
	Threshold        *int             `json:"threshold,omitempty"`
}

type verificationResponse struct {
	Username         string              `json:"username"`
	VerificationType domain.ClaimType    `json:"verification_type"`
	Threshold        int                 `json:"threshold"`
	MeetsCriteria    bool                `json:"meets_criteria"`
	Attestation      *domain.Attestation `json:"attestation,omitempty"`
	VerifiedAt       string              `json:"verified_at"`
	ProofHash        string              `json:"proof_hash,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Details   string `json:"details,omitempty"`
}

func (s *Server) handleVerify(c *gin.Context) {
	if !s.enforceRateLimit(c, "verify") {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return
	}

	result, err := s.verifyUC.Execute(c.Request.Context(), usecase.VerifyActivityRequest{
		Username:  req.GitHubUsername,
		ClaimType: req.VerificationType,
		Threshold: req.Threshold,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildVerificationResponse(result))
}

func (s *Server) handleGetProof(c *gin.Context) {
	hash := c.Param("proof_hash")
	if !validProofHash(hash) {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_PROOF_HASH", "invalid proof hash format")
		return
	}
	result, ok, err := s.proofs.Get(c.Request.Context(), hash)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeErrorDetails(c, http.StatusNotFound, "PROOF_NOT_FOUND", "proof not found",
			"the proof may have expired or never existed")
		return
	}
	c.JSON(http.StatusOK, buildVerificationResponse(result))
}

// validProofHash requires 64 lowercase hex characters; malformed
// hashes are rejected without consulting the store.
func validProofHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	for i := 0; i < len(hash); i++ {
		ch := hash[i]
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return false
		}
	}
	return true
}

func buildVerificationResponse(result *domain.VerificationResult) verificationResponse {
	if result == nil {
		return verificationResponse{}
	}
	return verificationResponse{
		Username:         result.Username,
		VerificationType: result.ClaimType,
		Threshold:        result.Threshold,
		MeetsCriteria:    result.MeetsCriteria,
		Attestation:      result.Attestation,
		VerifiedAt:       result.VerifiedAt.UTC().Format(time.RFC3339),
		ProofHash:        result.ProofHash,
	}
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	message := "an unexpected error occurred"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, code, message = http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		status, code, message = http.StatusNotFound, "USER_NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		status, code, message = http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
			"GitHub API rate limit exceeded, try again later"
	case errors.Is(err, domain.ErrUpstreamAPI):
		status, code, message = http.StatusBadGateway, "GITHUB_API_ERROR", err.Error()
	case errors.Is(err, domain.ErrNetwork):
		status, code, message = http.StatusBadGateway, "NETWORK_ERROR", "failed to connect to GitHub API"
	case errors.Is(err, domain.ErrDecode):
		status, code, message = http.StatusBadGateway, "JSON_PARSE_ERROR", "failed to parse GitHub API response"
	case errors.Is(err, domain.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	}
	writeErrorCode(c, status, code, message)
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Error:     message,
		ErrorCode: code,
	})
}

func writeErrorDetails(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, errorResponse{
		Error:     message,
		ErrorCode: code,
		Details:   details,
	})
}
