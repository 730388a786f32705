package dto

import (
	"time"

	"github.com/noah-isme/certtrack-api/internal/models"
)

// EligibilityResponse wraps the evaluator output for one trainee.
type EligibilityResponse struct {
	TraineeID    string                                `json:"trainee_id"`
	Certificates []models.CertificateEligibilityResult `json:"certificates"`
}

// CompletionResponse lists a trainee's passed subjects.
type CompletionResponse struct {
	TraineeID   string                     `json:"trainee_id"`
	Completions []models.SubjectCompletion `json:"completions"`
}

// DownloadCertificateRequest asks for a rendered artifact of one certificate.
type DownloadCertificateRequest struct {
	CertificateID   string                 `json:"certificate_id" validate:"required"`
	CertificateType models.CertificateType `json:"certificate_type" validate:"required"`
}

// CertificateArtifactResponse carries the signed download link.
type CertificateArtifactResponse struct {
	DownloadToken string    `json:"download_token"`
	ExpiresAt     time.Time `json:"expires_at"`
}
