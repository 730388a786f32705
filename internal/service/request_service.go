package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/certtrack-api/internal/dto"
	"github.com/noah-isme/certtrack-api/internal/models"
	"github.com/noah-isme/certtrack-api/internal/repository"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type requestStore interface {
	Create(ctx context.Context, request *models.Request, entity *models.RequestEntity, guard repository.EntityGuard) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	ListEntities(ctx context.Context, requestID string) ([]models.RequestEntity, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
	MarkReviewed(ctx context.Context, params repository.ReviewParams) error
}

type courseStatusSource interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type subjectStatusSource interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type planStatusSource interface {
	FindByID(ctx context.Context, id string) (*models.Plan, error)
}

type matrixStatusSource interface {
	FindByEntityKey(ctx context.Context, entityKey string) (*models.CourseSubjectSpecialty, error)
}

type workflowNotifier interface {
	NotifyUser(ctx context.Context, userID, title, message string) error
	NotifyRole(ctx context.Context, role models.UserRole, title, message string) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type requestValidator interface {
	ValidateCreate(req dto.CreateRequestRequest) error
}

// RequestService orchestrates the approval workflow: opening change requests
// against approval-bearing entities and applying reviewer decisions.
type RequestService struct {
	repo      requestStore
	courses   courseStatusSource
	subjects  subjectStatusSource
	plans     planStatusSource
	matrices  matrixStatusSource
	users     userDirectory
	notifier  workflowNotifier
	appliers  map[models.RequestType]DecisionApplier
	logger    *zap.Logger
	validator requestValidator
}

// RequestServiceOption configures the service.
type RequestServiceOption func(*RequestService)

// WithDecisionAppliers sets the applier map keyed by request type.
func WithDecisionAppliers(appliers map[models.RequestType]DecisionApplier) RequestServiceOption {
	return func(s *RequestService) {
		if s.appliers == nil {
			s.appliers = make(map[models.RequestType]DecisionApplier)
		}
		for k, v := range appliers {
			s.appliers[k] = v
		}
	}
}

// WithWorkflowNotifier sets the notification sink. Delivery failures never
// fail a workflow operation.
func WithWorkflowNotifier(notifier workflowNotifier) RequestServiceOption {
	return func(s *RequestService) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// NewRequestService constructs the service with defaults.
func NewRequestService(repo requestStore, courses courseStatusSource, subjects subjectStatusSource, plans planStatusSource, matrices matrixStatusSource, users userDirectory, logger *zap.Logger, opts ...RequestServiceOption) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RequestService{
		repo:      repo,
		courses:   courses,
		subjects:  subjects,
		plans:     plans,
		matrices:  matrices,
		users:     users,
		appliers:  make(map[models.RequestType]DecisionApplier),
		logger:    logger,
		validator: &defaultRequestValidator{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a new change request. The target entity must exist and still
// be undecided; the same check is replayed inside the insert transaction so a
// concurrent reviewer cannot slip a decision in between.
func (s *RequestService) Create(ctx context.Context, req dto.CreateRequestRequest, userID string) (*models.RequestDetail, error) {
	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, err
	}
	guard, err := s.entityGuard(ctx, req.RequestType, req.EntityID)
	if err != nil {
		return nil, err
	}
	request := &models.Request{
		RequestUserID: userID,
		Description:   strings.TrimSpace(req.Description),
		Notes:         strings.TrimSpace(req.Notes),
	}
	entity := &models.RequestEntity{
		EntityID:      req.EntityID,
		RequestType:   req.RequestType,
		RequestStatus: models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request, entity, guard); err != nil {
		if errors.Is(err, repository.ErrEntityNotPending) {
			return nil, appErrors.ErrInvalidState
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	s.notifyAdmins(ctx, request, entity)
	detail := &models.RequestDetail{
		Request:  *request,
		Entities: []models.RequestEntity{*entity},
	}
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		detail.RequestUserName = user.FullName
	} else {
		s.logger.Warn("failed to resolve requester name", zap.String("user_id", userID), zap.Error(err))
	}
	return detail, nil
}

// Approve closes the request as approved and applies the decision to every
// attached entity.
func (s *RequestService) Approve(ctx context.Context, requestID, approverID string) (*models.RequestDetail, error) {
	return s.review(ctx, requestID, approverID, models.RequestStatusApproved)
}

// Reject closes the request as rejected and applies the decision to every
// attached entity.
func (s *RequestService) Reject(ctx context.Context, requestID, approverID string) (*models.RequestDetail, error) {
	return s.review(ctx, requestID, approverID, models.RequestStatusRejected)
}

func (s *RequestService) review(ctx context.Context, requestID, approverID string, status models.RequestStatus) (*models.RequestDetail, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if request.Reviewed() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request already reviewed")
	}
	entities, err := s.repo.ListEntities(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request entities")
	}

	now := time.Now().UTC()
	params := repository.ReviewParams{
		RequestID:  requestID,
		Status:     status,
		ApproverID: approverID,
		ReviewedAt: now,
	}
	if err := s.repo.MarkReviewed(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	request.ApprovedByUserID = &approverID
	request.ApprovedDate = &now
	request.UpdatedAt = now

	// Entity decisions are applied after the request flip commits. A failure
	// on one entity must not undo the review nor block the remaining entities.
	decision := Decision{
		Approved:   status == models.RequestStatusApproved,
		ApproverID: approverID,
		DecidedAt:  now,
	}
	for i := range entities {
		entities[i].RequestStatus = status
		applier := s.appliers[entities[i].RequestType]
		if applier == nil {
			s.logger.Warn("no decision applier for request type",
				zap.String("request_id", requestID),
				zap.String("request_type", string(entities[i].RequestType)))
			continue
		}
		if err := applier.Apply(ctx, entities[i].EntityID, decision); err != nil {
			s.logger.Error("failed to apply entity decision",
				zap.String("request_id", requestID),
				zap.String("entity_id", entities[i].EntityID),
				zap.String("request_type", string(entities[i].RequestType)),
				zap.Error(err))
		}
	}
	s.notifyRequester(ctx, request, status)
	return &models.RequestDetail{Request: *request, Entities: entities}, nil
}

// Get returns a request with its entities, enforcing scope: non-admins only
// see their own requests.
func (s *RequestService) Get(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.RequestDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if actor.Role != models.RoleAdmin && request.RequestUserID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	entities, err := s.repo.ListEntities(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request entities")
	}
	detail := &models.RequestDetail{Request: *request, Entities: entities}
	if user, err := s.users.FindByID(ctx, request.RequestUserID); err == nil {
		detail.RequestUserName = user.FullName
	}
	return detail, nil
}

// List returns accessible requests respecting actor role.
func (s *RequestService) List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{
		Status:   query.Status,
		Type:     query.Type,
		EntityID: query.EntityID,
	}
	switch actor.Role {
	case models.RoleAdmin:
		filter.RequestedBy = query.RequestedBy
	case models.RoleInstructor:
		filter.RequestedBy = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, nil
}

// entityGuard checks the target's current status and returns the matching
// in-transaction guard. Course, subject, and plan requests require the row to
// still be Pending; matrix requests require the row to not be approved yet.
func (s *RequestService) entityGuard(ctx context.Context, requestType models.RequestType, entityID string) (repository.EntityGuard, error) {
	switch requestType {
	case models.RequestTypeNewCourse, models.RequestTypeModifyCourse:
		course, err := s.courses.FindByID(ctx, entityID)
		if err != nil {
			return repository.EntityGuard{}, s.guardLookupError(err, "course")
		}
		if course.Status != models.CourseStatusPending {
			return repository.EntityGuard{}, appErrors.ErrInvalidState
		}
		return repository.EntityGuard{
			Query: `SELECT 1 FROM courses WHERE id = $1 AND status = $2 FOR UPDATE`,
			Args:  []interface{}{entityID, models.CourseStatusPending},
		}, nil
	case models.RequestTypeNewSubject, models.RequestTypeModifySubject:
		subject, err := s.subjects.FindByID(ctx, entityID)
		if err != nil {
			return repository.EntityGuard{}, s.guardLookupError(err, "subject")
		}
		if subject.Status != models.SubjectStatusPending {
			return repository.EntityGuard{}, appErrors.ErrInvalidState
		}
		return repository.EntityGuard{
			Query: `SELECT 1 FROM subjects WHERE id = $1 AND status = $2 FOR UPDATE`,
			Args:  []interface{}{entityID, models.SubjectStatusPending},
		}, nil
	case models.RequestTypeNewPlan, models.RequestTypeModifyPlan:
		plan, err := s.plans.FindByID(ctx, entityID)
		if err != nil {
			return repository.EntityGuard{}, s.guardLookupError(err, "plan")
		}
		if plan.Status != models.PlanStatusPending {
			return repository.EntityGuard{}, appErrors.ErrInvalidState
		}
		return repository.EntityGuard{
			Query: `SELECT 1 FROM plans WHERE id = $1 AND status = $2 FOR UPDATE`,
			Args:  []interface{}{entityID, models.PlanStatusPending},
		}, nil
	default:
		matrix, err := s.matrices.FindByEntityKey(ctx, entityID)
		if err != nil {
			return repository.EntityGuard{}, s.guardLookupError(err, "matrix")
		}
		if matrix.Approved() {
			return repository.EntityGuard{}, appErrors.ErrInvalidState
		}
		return repository.EntityGuard{
			Query: `SELECT 1 FROM course_subject_specialties WHERE specialty_id || subject_id || course_id = $1 AND approved_at IS NULL FOR UPDATE`,
			Args:  []interface{}{entityID},
		}, nil
	}
}

func (s *RequestService) guardLookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrInvalidState
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", entity))
}

func (s *RequestService) notifyAdmins(ctx context.Context, request *models.Request, entity *models.RequestEntity) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("Request %s (%s) on entity %s awaits review", request.RequestID, entity.RequestType, entity.EntityID)
	if err := s.notifier.NotifyRole(ctx, models.RoleAdmin, "New approval request", message); err != nil {
		s.logger.Warn("failed to notify admins", zap.String("request_id", request.RequestID), zap.Error(err))
	}
}

func (s *RequestService) notifyRequester(ctx context.Context, request *models.Request, status models.RequestStatus) {
	if s.notifier == nil {
		return
	}
	title := "Request approved"
	if status == models.RequestStatusRejected {
		title = "Request rejected"
	}
	message := fmt.Sprintf("Your request %s has been %s", request.RequestID, strings.ToLower(string(status)))
	if err := s.notifier.NotifyUser(ctx, request.RequestUserID, title, message); err != nil {
		s.logger.Warn("failed to notify requester", zap.String("request_id", request.RequestID), zap.Error(err))
	}
}

// defaultRequestValidator enforces basic payload checks.
type defaultRequestValidator struct{}

func (v *defaultRequestValidator) ValidateCreate(req dto.CreateRequestRequest) error {
	if strings.TrimSpace(req.EntityID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "entity_id is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "description is required")
	}
	for _, known := range models.KnownRequestTypes {
		if req.RequestType == known {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "unsupported request type")
}
