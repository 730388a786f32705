package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/certtrack-api/internal/dto"
	"github.com/noah-isme/certtrack-api/internal/models"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
	"github.com/noah-isme/certtrack-api/pkg/export"
)

type certificateStore interface {
	ListByPlan(ctx context.Context, planID string) ([]models.PlanCertificate, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseCertificate, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectCertificate, error)
	CreatePlanCertificate(ctx context.Context, cert *models.PlanCertificate) error
	CreateCourseCertificate(ctx context.Context, cert *models.CourseCertificate) error
	CreateSubjectCertificate(ctx context.Context, cert *models.SubjectCertificate) error
	DeletePlanCertificate(ctx context.Context, id string) error
	DeleteCourseCertificate(ctx context.Context, id string) error
	DeleteSubjectCertificate(ctx context.Context, id string) error
}

type eligibilityChecker interface {
	IsEligibleFor(ctx context.Context, traineeID, certificateID string) (*models.CertificateEligibilityResult, error)
}

type artifactRenderer interface {
	Render(doc export.CertificateDocument) ([]byte, error)
}

type artifactStorage interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type artifactSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (ownerID, relPath string, expiresAt time.Time, err error)
}

// CertificateService manages the certificate catalogs and renders download
// artifacts for eligible trainees.
type CertificateService struct {
	repo        certificateStore
	eligibility eligibilityChecker
	users       userDirectory
	renderer    artifactRenderer
	storage     artifactStorage
	signer      artifactSigner
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCertificateService constructs the service.
func NewCertificateService(repo certificateStore, eligibility eligibilityChecker, users userDirectory, renderer artifactRenderer, storage artifactStorage, signer artifactSigner, validate *validator.Validate, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CertificateService{
		repo:        repo,
		eligibility: eligibility,
		users:       users,
		renderer:    renderer,
		storage:     storage,
		signer:      signer,
		validator:   validate,
		logger:      logger,
	}
}

// CreatePlanCertificate defines a plan-scoped certificate.
func (s *CertificateService) CreatePlanCertificate(ctx context.Context, req dto.CreatePlanCertificateRequest) (*models.PlanCertificate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	cert := &models.PlanCertificate{PlanID: req.PlanID, Name: req.Name, Description: req.Description}
	if err := s.repo.CreatePlanCertificate(ctx, cert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate")
	}
	return cert, nil
}

// CreateCourseCertificate defines a course-scoped certificate.
func (s *CertificateService) CreateCourseCertificate(ctx context.Context, req dto.CreateCourseCertificateRequest) (*models.CourseCertificate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	cert := &models.CourseCertificate{CourseID: req.CourseID, Name: req.Name, Description: req.Description}
	if err := s.repo.CreateCourseCertificate(ctx, cert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate")
	}
	return cert, nil
}

// CreateSubjectCertificate defines a subject-scoped certificate.
func (s *CertificateService) CreateSubjectCertificate(ctx context.Context, req dto.CreateSubjectCertificateRequest) (*models.SubjectCertificate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	cert := &models.SubjectCertificate{SubjectID: req.SubjectID, Name: req.Name, Description: req.Description}
	if err := s.repo.CreateSubjectCertificate(ctx, cert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate")
	}
	return cert, nil
}

// ListByPlan returns the plan's certificate catalog.
func (s *CertificateService) ListByPlan(ctx context.Context, planID string) ([]models.PlanCertificate, error) {
	certs, err := s.repo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// ListByCourse returns the course's certificate catalog.
func (s *CertificateService) ListByCourse(ctx context.Context, courseID string) ([]models.CourseCertificate, error) {
	certs, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// ListBySubject returns the subject's certificate catalog.
func (s *CertificateService) ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectCertificate, error) {
	certs, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// DeletePlanCertificate removes a plan certificate definition.
func (s *CertificateService) DeletePlanCertificate(ctx context.Context, id string) error {
	if err := s.repo.DeletePlanCertificate(ctx, id); err != nil {
		return appErrors.ErrNotFound
	}
	return nil
}

// DeleteCourseCertificate removes a course certificate definition.
func (s *CertificateService) DeleteCourseCertificate(ctx context.Context, id string) error {
	if err := s.repo.DeleteCourseCertificate(ctx, id); err != nil {
		return appErrors.ErrNotFound
	}
	return nil
}

// DeleteSubjectCertificate removes a subject certificate definition.
func (s *CertificateService) DeleteSubjectCertificate(ctx context.Context, id string) error {
	if err := s.repo.DeleteSubjectCertificate(ctx, id); err != nil {
		return appErrors.ErrNotFound
	}
	return nil
}

// IssueArtifact renders a PDF for an eligible (trainee, certificate) pair,
// stores it, and returns a signed download token. Ineligible trainees are
// refused before anything is rendered.
func (s *CertificateService) IssueArtifact(ctx context.Context, traineeID string, req dto.DownloadCertificateRequest) (*dto.CertificateArtifactResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download payload")
	}
	result, err := s.eligibility.IsEligibleFor(ctx, traineeID, req.CertificateID)
	if err != nil {
		return nil, err
	}
	if !result.IsEligible {
		return nil, appErrors.ErrNotEligible
	}
	trainee, err := s.users.FindByID(ctx, traineeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainee")
	}

	doc := export.CertificateDocument{
		CertificateName: result.CertificateName,
		CertificateType: string(result.CertificateType),
		TraineeName:     trainee.FullName,
		PlanName:        result.PlanName,
		CourseName:      result.CourseName,
		SubjectName:     result.SubjectName,
		IssuedAt:        time.Now().UTC(),
		SerialNumber:    uuid.NewString(),
	}
	pdf, err := s.renderer.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	filename := fmt.Sprintf("%s-%s.pdf", traineeID, req.CertificateID)
	if _, err := s.storage.Save(filename, pdf); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate artifact")
	}
	token, expiresAt, err := s.signer.Generate(traineeID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.CertificateArtifactResponse{DownloadToken: token, ExpiresAt: expiresAt}, nil
}

// ResolveArtifact validates a download token and returns the artifact's
// on-disk path for streaming. Owner mismatch or expiry both refuse access.
func (s *CertificateService) ResolveArtifact(traineeID, token string) (string, error) {
	ownerID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	if ownerID != traineeID {
		return "", appErrors.ErrForbidden
	}
	return s.storage.Path(relPath), nil
}
