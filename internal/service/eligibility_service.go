package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/certtrack-api/internal/models"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type enrollmentSource interface {
	CompletedSubjects(ctx context.Context, traineeID string) ([]models.SubjectCompletion, error)
	ActivePlans(ctx context.Context, traineeID string) ([]models.Plan, error)
}

type studyRecordSource interface {
	ListByPlan(ctx context.Context, planID string) ([]models.StudyRecord, error)
}

type certificateSource interface {
	ListByPlan(ctx context.Context, planID string) ([]models.PlanCertificate, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseCertificate, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectCertificate, error)
}

// EligibilityService evaluates certificate eligibility from the trainee's
// completed subjects and active plan enrollments. Evaluation is read-only:
// results are derived on every call and never stored.
type EligibilityService struct {
	enrollments  enrollmentSource
	studyRecords studyRecordSource
	certificates certificateSource
	logger       *zap.Logger
}

// NewEligibilityService constructs the service.
func NewEligibilityService(enrollments enrollmentSource, studyRecords studyRecordSource, certificates certificateSource, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		enrollments:  enrollments,
		studyRecords: studyRecords,
		certificates: certificates,
		logger:       logger,
	}
}

// GetEligibleCertificates walks every active plan of the trainee and emits one
// result row per defined certificate: plan-level rows first, then course-level
// rows, then subject-level rows, in the order the plan's study records declare
// them. A trainee with no active plans gets an empty list.
func (s *EligibilityService) GetEligibleCertificates(ctx context.Context, traineeID string) ([]models.CertificateEligibilityResult, error) {
	completions, err := s.enrollments.CompletedSubjects(ctx, traineeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completed subjects")
	}
	completed := make(map[string]struct{}, len(completions))
	for _, c := range completions {
		completed[c.SubjectID] = struct{}{}
	}

	plans, err := s.enrollments.ActivePlans(ctx, traineeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active plans")
	}

	results := make([]models.CertificateEligibilityResult, 0)
	for _, plan := range plans {
		records, err := s.studyRecords.ListByPlan(ctx, plan.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study records")
		}
		planSubjects := distinctSubjects(records)

		planCerts, err := s.certificates.ListByPlan(ctx, plan.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan certificates")
		}
		for _, cert := range planCerts {
			missing := missingSubjects(planSubjects, completed)
			results = append(results, models.CertificateEligibilityResult{
				CertificateID:       cert.ID,
				CertificateName:     cert.Name,
				CertificateType:     models.CertificateTypePlan,
				PlanID:              plan.ID,
				PlanName:            plan.Name,
				IsEligible:          len(missing) == 0,
				MissingRequirements: missing,
			})
		}

		for _, course := range distinctCourses(records) {
			courseCerts, err := s.certificates.ListByCourse(ctx, course.CourseID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course certificates")
			}
			if len(courseCerts) == 0 {
				continue
			}
			courseSubjects := distinctSubjects(recordsForCourse(records, course.CourseID))
			for _, cert := range courseCerts {
				missing := missingSubjects(courseSubjects, completed)
				results = append(results, models.CertificateEligibilityResult{
					CertificateID:       cert.ID,
					CertificateName:     cert.Name,
					CertificateType:     models.CertificateTypeCourse,
					PlanID:              plan.ID,
					PlanName:            plan.Name,
					CourseID:            course.CourseID,
					CourseName:          course.CourseName,
					IsEligible:          len(missing) == 0,
					MissingRequirements: missing,
				})
			}
		}

		for _, subject := range planSubjects {
			subjectCerts, err := s.certificates.ListBySubject(ctx, subject.SubjectID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject certificates")
			}
			for _, cert := range subjectCerts {
				missing := missingSubjects([]subjectRef{subject}, completed)
				results = append(results, models.CertificateEligibilityResult{
					CertificateID:       cert.ID,
					CertificateName:     cert.Name,
					CertificateType:     models.CertificateTypeSubject,
					PlanID:              plan.ID,
					PlanName:            plan.Name,
					SubjectID:           subject.SubjectID,
					SubjectName:         subject.SubjectName,
					IsEligible:          len(missing) == 0,
					MissingRequirements: missing,
				})
			}
		}
	}
	return results, nil
}

// IsEligibleFor reports whether the trainee currently qualifies for one
// specific certificate.
func (s *EligibilityService) IsEligibleFor(ctx context.Context, traineeID, certificateID string) (*models.CertificateEligibilityResult, error) {
	results, err := s.GetEligibleCertificates(ctx, traineeID)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].CertificateID == certificateID {
			return &results[i], nil
		}
	}
	return nil, appErrors.ErrNotFound
}

// ProcessSubjectCompletion re-evaluates eligibility after a subject is passed.
// The evaluation itself is side-effect free; this hook exists so callers can
// surface newly earned certificates right after grading.
func (s *EligibilityService) ProcessSubjectCompletion(ctx context.Context, traineeID, subjectID string) ([]models.CertificateEligibilityResult, error) {
	results, err := s.GetEligibleCertificates(ctx, traineeID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("re-evaluated eligibility after subject completion",
		zap.String("trainee_id", traineeID),
		zap.String("subject_id", subjectID),
		zap.Int("rows", len(results)))
	return results, nil
}

type subjectRef struct {
	SubjectID   string
	SubjectName string
}

type courseRef struct {
	CourseID   string
	CourseName string
}

// distinctSubjects keeps the first occurrence of each subject, preserving the
// study-record order.
func distinctSubjects(records []models.StudyRecord) []subjectRef {
	seen := make(map[string]struct{}, len(records))
	refs := make([]subjectRef, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.SubjectID]; ok {
			continue
		}
		seen[rec.SubjectID] = struct{}{}
		refs = append(refs, subjectRef{SubjectID: rec.SubjectID, SubjectName: rec.SubjectName})
	}
	return refs
}

func distinctCourses(records []models.StudyRecord) []courseRef {
	seen := make(map[string]struct{}, len(records))
	refs := make([]courseRef, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.CourseID]; ok {
			continue
		}
		seen[rec.CourseID] = struct{}{}
		refs = append(refs, courseRef{CourseID: rec.CourseID, CourseName: rec.CourseName})
	}
	return refs
}

func recordsForCourse(records []models.StudyRecord, courseID string) []models.StudyRecord {
	filtered := make([]models.StudyRecord, 0, len(records))
	for _, rec := range records {
		if rec.CourseID == courseID {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// missingSubjects lists unmet requirements as "Subject: <name>" rows. Always
// non-nil so callers serialize an empty array rather than null.
func missingSubjects(required []subjectRef, completed map[string]struct{}) []string {
	missing := make([]string, 0)
	for _, subject := range required {
		if _, ok := completed[subject.SubjectID]; !ok {
			missing = append(missing, "Subject: "+subject.SubjectName)
		}
	}
	return missing
}
