package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/certtrack-api/internal/models"
)

// Decision carries a reviewer outcome into entity appliers.
type Decision struct {
	Approved   bool
	ApproverID string
	DecidedAt  time.Time
}

// DecisionApplier mutates one target entity after its request is decided.
type DecisionApplier interface {
	Apply(ctx context.Context, entityID string, decision Decision) error
}

// DecisionApplierFunc allows using plain functions.
type DecisionApplierFunc func(ctx context.Context, entityID string, decision Decision) error

// Apply implements DecisionApplier.
func (f DecisionApplierFunc) Apply(ctx context.Context, entityID string, decision Decision) error {
	return f(ctx, entityID, decision)
}

type courseDecisionStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	SetDecision(ctx context.Context, id string, status models.CourseStatus, approverID string, decidedAt time.Time) error
}

type subjectDecisionStore interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	SetDecision(ctx context.Context, id string, status models.SubjectStatus, approverID string, decidedAt time.Time) error
}

type planDecisionStore interface {
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	SetDecision(ctx context.Context, id string, status models.PlanStatus, approverID string, decidedAt time.Time) error
}

type matrixDecisionStore interface {
	FindByEntityKey(ctx context.Context, entityKey string) (*models.CourseSubjectSpecialty, error)
	SetDecision(ctx context.Context, specialtyID, subjectID, courseID string, approved bool, approverID string, decidedAt time.Time) error
}

// CourseDecisionApplier flips a course's status on request decisions.
type CourseDecisionApplier struct {
	repo courseDecisionStore
}

// NewCourseDecisionApplier constructs the applier.
func NewCourseDecisionApplier(repo courseDecisionStore) *CourseDecisionApplier {
	return &CourseDecisionApplier{repo: repo}
}

// Apply writes the decided status plus approver metadata onto the course.
func (a *CourseDecisionApplier) Apply(ctx context.Context, entityID string, decision Decision) error {
	status := models.CourseStatusRejected
	if decision.Approved {
		status = models.CourseStatusApproved
	}
	if err := a.repo.SetDecision(ctx, entityID, status, decision.ApproverID, decision.DecidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("course %s not found", entityID)
		}
		return err
	}
	return nil
}

// SubjectDecisionApplier flips a subject's status on request decisions.
type SubjectDecisionApplier struct {
	repo subjectDecisionStore
}

// NewSubjectDecisionApplier constructs the applier.
func NewSubjectDecisionApplier(repo subjectDecisionStore) *SubjectDecisionApplier {
	return &SubjectDecisionApplier{repo: repo}
}

// Apply writes the decided status plus approver metadata onto the subject.
func (a *SubjectDecisionApplier) Apply(ctx context.Context, entityID string, decision Decision) error {
	status := models.SubjectStatusRejected
	if decision.Approved {
		status = models.SubjectStatusApproved
	}
	if err := a.repo.SetDecision(ctx, entityID, status, decision.ApproverID, decision.DecidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("subject %s not found", entityID)
		}
		return err
	}
	return nil
}

// PlanDecisionApplier flips a plan's status on request decisions.
type PlanDecisionApplier struct {
	repo planDecisionStore
}

// NewPlanDecisionApplier constructs the applier.
func NewPlanDecisionApplier(repo planDecisionStore) *PlanDecisionApplier {
	return &PlanDecisionApplier{repo: repo}
}

// Apply writes the decided status plus approver metadata onto the plan.
func (a *PlanDecisionApplier) Apply(ctx context.Context, entityID string, decision Decision) error {
	status := models.PlanStatusRejected
	if decision.Approved {
		status = models.PlanStatusApproved
	}
	if err := a.repo.SetDecision(ctx, entityID, status, decision.ApproverID, decision.DecidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("plan %s not found", entityID)
		}
		return err
	}
	return nil
}

// MatrixDecisionApplier stamps or clears the matrix approval flag. The matrix
// carries no status enum, so approval sets ApprovedAt and rejection clears it.
type MatrixDecisionApplier struct {
	repo   matrixDecisionStore
	logger *zap.Logger
}

// NewMatrixDecisionApplier constructs the applier.
func NewMatrixDecisionApplier(repo matrixDecisionStore, logger *zap.Logger) *MatrixDecisionApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatrixDecisionApplier{repo: repo, logger: logger}
}

// Apply resolves the matrix row from its concatenated entity key, then writes
// the decision.
func (a *MatrixDecisionApplier) Apply(ctx context.Context, entityID string, decision Decision) error {
	matrix, err := a.repo.FindByEntityKey(ctx, entityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("matrix %s not found", entityID)
		}
		return err
	}
	return a.repo.SetDecision(ctx, matrix.SpecialtyID, matrix.SubjectID, matrix.CourseID,
		decision.Approved, decision.ApproverID, decision.DecidedAt)
}

// BuildDecisionAppliers wires the per-request-type applier map consumed by
// the request service.
func BuildDecisionAppliers(courses courseDecisionStore, subjects subjectDecisionStore, plans planDecisionStore, matrices matrixDecisionStore, logger *zap.Logger) map[models.RequestType]DecisionApplier {
	course := NewCourseDecisionApplier(courses)
	subject := NewSubjectDecisionApplier(subjects)
	plan := NewPlanDecisionApplier(plans)
	matrix := NewMatrixDecisionApplier(matrices, logger)
	return map[models.RequestType]DecisionApplier{
		models.RequestTypeNewCourse:     course,
		models.RequestTypeModifyCourse:  course,
		models.RequestTypeNewSubject:    subject,
		models.RequestTypeModifySubject: subject,
		models.RequestTypeNewPlan:       plan,
		models.RequestTypeModifyPlan:    plan,
		models.RequestTypeNewMatrix:     matrix,
		models.RequestTypeRemoveMatrix:  matrix,
	}
}
