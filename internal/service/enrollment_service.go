package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/certtrack-api/internal/models"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type enrollmentStore interface {
	CompletedSubjects(ctx context.Context, traineeID string) ([]models.SubjectCompletion, error)
	ActivePlans(ctx context.Context, traineeID string) ([]models.Plan, error)
	Enroll(ctx context.Context, enrollment *models.TraineePlanEnrollment) error
	Deactivate(ctx context.Context, enrollmentID string) error
}

// EnrollmentService exposes the trainee-facing plan and completion surface.
type EnrollmentService struct {
	repo   enrollmentStore
	logger *zap.Logger
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(repo enrollmentStore, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, logger: logger}
}

// Completions lists the trainee's passed subjects, retakes included.
func (s *EnrollmentService) Completions(ctx context.Context, traineeID string) ([]models.SubjectCompletion, error) {
	completions, err := s.repo.CompletedSubjects(ctx, traineeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completions")
	}
	return completions, nil
}

// ActivePlans lists plans the trainee currently studies under.
func (s *EnrollmentService) ActivePlans(ctx context.Context, traineeID string) ([]models.Plan, error) {
	plans, err := s.repo.ActivePlans(ctx, traineeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active plans")
	}
	return plans, nil
}

// Enroll registers a trainee under a plan.
func (s *EnrollmentService) Enroll(ctx context.Context, traineeID, planID string) (*models.TraineePlanEnrollment, error) {
	if traineeID == "" || planID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "trainee_id and plan_id are required")
	}
	enrollment := &models.TraineePlanEnrollment{TraineeID: traineeID, PlanID: planID, IsActive: true}
	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll trainee")
	}
	return enrollment, nil
}

// Withdraw deactivates an enrollment without deleting its history.
func (s *EnrollmentService) Withdraw(ctx context.Context, enrollmentID string) error {
	if err := s.repo.Deactivate(ctx, enrollmentID); err != nil {
		return appErrors.ErrNotFound
	}
	return nil
}
