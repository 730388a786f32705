package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/certtrack-api/internal/dto"
	"github.com/noah-isme/certtrack-api/internal/models"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type matrixStore interface {
	FindByKey(ctx context.Context, specialtyID, subjectID, courseID string) (*models.CourseSubjectSpecialty, error)
	FindByEntityKey(ctx context.Context, entityKey string) (*models.CourseSubjectSpecialty, error)
	ListBySpecialty(ctx context.Context, specialtyID string) ([]models.CourseSubjectSpecialty, error)
	Create(ctx context.Context, matrix *models.CourseSubjectSpecialty) error
	Delete(ctx context.Context, specialtyID, subjectID, courseID string) error
	SetDecision(ctx context.Context, specialtyID, subjectID, courseID string, approved bool, approverID string, decidedAt time.Time) error
}

// MatrixService manages course-subject-specialty links. Entries carry no
// status enum; an entry is approved when ApprovedAt is set.
type MatrixService struct {
	repo      matrixStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMatrixService constructs the service.
func NewMatrixService(repo matrixStore, validate *validator.Validate, logger *zap.Logger) *MatrixService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MatrixService{repo: repo, validator: validate, logger: logger}
}

// Get resolves one entry by its three key columns.
func (s *MatrixService) Get(ctx context.Context, specialtyID, subjectID, courseID string) (*models.CourseSubjectSpecialty, error) {
	matrix, err := s.repo.FindByKey(ctx, specialtyID, subjectID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load matrix entry")
	}
	return matrix, nil
}

// ListBySpecialty returns every entry of one specialty.
func (s *MatrixService) ListBySpecialty(ctx context.Context, specialtyID string) ([]models.CourseSubjectSpecialty, error) {
	entries, err := s.repo.ListBySpecialty(ctx, specialtyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list matrix entries")
	}
	return entries, nil
}

// Create stores a new unapproved entry.
func (s *MatrixService) Create(ctx context.Context, req dto.CreateMatrixRequest) (*models.CourseSubjectSpecialty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid matrix payload")
	}
	matrix := &models.CourseSubjectSpecialty{
		SpecialtyID: req.SpecialtyID,
		SubjectID:   req.SubjectID,
		CourseID:    req.CourseID,
	}
	if err := s.repo.Create(ctx, matrix); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create matrix entry")
	}
	return matrix, nil
}

// Delete removes an entry.
func (s *MatrixService) Delete(ctx context.Context, specialtyID, subjectID, courseID string) error {
	if err := s.repo.Delete(ctx, specialtyID, subjectID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete matrix entry")
	}
	return nil
}

// Decide applies a direct admin decision. Approval stamps the approver and
// timestamp; rejection clears both.
func (s *MatrixService) Decide(ctx context.Context, specialtyID, subjectID, courseID string, approved bool, approverID string) (*models.CourseSubjectSpecialty, error) {
	if err := s.repo.SetDecision(ctx, specialtyID, subjectID, courseID, approved, approverID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide matrix entry")
	}
	return s.Get(ctx, specialtyID, subjectID, courseID)
}
