package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certtrack-api/internal/models"
)

type enrollmentSourceStub struct {
	completions []models.SubjectCompletion
	plans       []models.Plan
}

func (e *enrollmentSourceStub) CompletedSubjects(ctx context.Context, traineeID string) ([]models.SubjectCompletion, error) {
	return e.completions, nil
}

func (e *enrollmentSourceStub) ActivePlans(ctx context.Context, traineeID string) ([]models.Plan, error) {
	return e.plans, nil
}

type studyRecordSourceStub struct {
	records map[string][]models.StudyRecord
}

func (s *studyRecordSourceStub) ListByPlan(ctx context.Context, planID string) ([]models.StudyRecord, error) {
	return s.records[planID], nil
}

type certificateSourceStub struct {
	planCerts    map[string][]models.PlanCertificate
	courseCerts  map[string][]models.CourseCertificate
	subjectCerts map[string][]models.SubjectCertificate
}

func (c *certificateSourceStub) ListByPlan(ctx context.Context, planID string) ([]models.PlanCertificate, error) {
	return c.planCerts[planID], nil
}

func (c *certificateSourceStub) ListByCourse(ctx context.Context, courseID string) ([]models.CourseCertificate, error) {
	return c.courseCerts[courseID], nil
}

func (c *certificateSourceStub) ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectCertificate, error) {
	return c.subjectCerts[subjectID], nil
}

func newEligibilityFixture() (*EligibilityService, *enrollmentSourceStub) {
	enrollments := &enrollmentSourceStub{
		plans: []models.Plan{{ID: "plan-1", Name: "Avionics"}},
		completions: []models.SubjectCompletion{
			{SubjectID: "subj-hyd", SubjectName: "Hydraulics"},
			{SubjectID: "subj-turb", SubjectName: "Turbines"},
			// retake of an already passed subject stays in the history
			{SubjectID: "subj-turb", SubjectName: "Turbines"},
		},
	}
	records := &studyRecordSourceStub{records: map[string][]models.StudyRecord{
		"plan-1": {
			{PlanID: "plan-1", CourseID: "course-air", CourseName: "Airframes", SubjectID: "subj-hyd", SubjectName: "Hydraulics"},
			{PlanID: "plan-1", CourseID: "course-air", CourseName: "Airframes", SubjectID: "subj-pneu", SubjectName: "Pneumatics"},
			{PlanID: "plan-1", CourseID: "course-eng", CourseName: "Engines", SubjectID: "subj-turb", SubjectName: "Turbines"},
		},
	}}
	certificates := &certificateSourceStub{
		planCerts: map[string][]models.PlanCertificate{
			"plan-1": {{ID: "cert-plan", PlanID: "plan-1", Name: "Avionics Diploma"}},
		},
		courseCerts: map[string][]models.CourseCertificate{
			"course-air": {{ID: "cert-air", CourseID: "course-air", Name: "Airframes Certificate"}},
		},
		subjectCerts: map[string][]models.SubjectCertificate{
			"subj-hyd":  {{ID: "cert-hyd", SubjectID: "subj-hyd", Name: "Hydraulics Certificate"}},
			"subj-turb": {{ID: "cert-turb", SubjectID: "subj-turb", Name: "Turbines Certificate"}},
		},
	}
	return NewEligibilityService(enrollments, records, certificates, nil), enrollments
}

func TestEligibilityWalksPlanCourseSubjectInOrder(t *testing.T) {
	svc, _ := newEligibilityFixture()

	results, err := svc.GetEligibleCertificates(context.Background(), "trainee-1")
	require.NoError(t, err)
	require.Len(t, results, 4)

	require.Equal(t, []models.CertificateType{
		models.CertificateTypePlan,
		models.CertificateTypeCourse,
		models.CertificateTypeSubject,
		models.CertificateTypeSubject,
	}, []models.CertificateType{
		results[0].CertificateType,
		results[1].CertificateType,
		results[2].CertificateType,
		results[3].CertificateType,
	})
	require.Equal(t, "cert-plan", results[0].CertificateID)
	require.Equal(t, "cert-air", results[1].CertificateID)
	require.Equal(t, "cert-hyd", results[2].CertificateID)
	require.Equal(t, "cert-turb", results[3].CertificateID)
}

func TestEligibilityMissingRequirements(t *testing.T) {
	svc, _ := newEligibilityFixture()

	results, err := svc.GetEligibleCertificates(context.Background(), "trainee-1")
	require.NoError(t, err)

	planRow := results[0]
	require.False(t, planRow.IsEligible)
	require.Equal(t, []string{"Subject: Pneumatics"}, planRow.MissingRequirements)
	require.Equal(t, "Avionics", planRow.PlanName)

	courseRow := results[1]
	require.False(t, courseRow.IsEligible)
	require.Equal(t, []string{"Subject: Pneumatics"}, courseRow.MissingRequirements)
	require.Equal(t, "Airframes", courseRow.CourseName)
}

func TestEligibilitySubjectScopeHasSingleRequirement(t *testing.T) {
	svc, _ := newEligibilityFixture()

	results, err := svc.GetEligibleCertificates(context.Background(), "trainee-1")
	require.NoError(t, err)

	hydRow := results[2]
	require.True(t, hydRow.IsEligible)
	require.Empty(t, hydRow.MissingRequirements)
	require.NotNil(t, hydRow.MissingRequirements)
	require.Equal(t, "Hydraulics", hydRow.SubjectName)

	turbRow := results[3]
	require.True(t, turbRow.IsEligible)
}

func TestEligibilityNoActivePlansYieldsEmptyResult(t *testing.T) {
	svc, enrollments := newEligibilityFixture()
	enrollments.plans = nil

	results, err := svc.GetEligibleCertificates(context.Background(), "trainee-2")
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)
}

func TestEligibilityDeduplicatesRepeatedStudyRecords(t *testing.T) {
	svc, enrollments := newEligibilityFixture()
	enrollments.completions = nil
	records := svc.studyRecords.(*studyRecordSourceStub)
	records.records["plan-1"] = append(records.records["plan-1"],
		models.StudyRecord{PlanID: "plan-1", CourseID: "course-eng", CourseName: "Engines", SubjectID: "subj-turb", SubjectName: "Turbines"})

	results, err := svc.GetEligibleCertificates(context.Background(), "trainee-1")
	require.NoError(t, err)

	planRow := results[0]
	require.Equal(t, []string{"Subject: Hydraulics", "Subject: Pneumatics", "Subject: Turbines"}, planRow.MissingRequirements)
}

func TestEligibilityIsEligibleFor(t *testing.T) {
	svc, _ := newEligibilityFixture()

	row, err := svc.IsEligibleFor(context.Background(), "trainee-1", "cert-hyd")
	require.NoError(t, err)
	require.True(t, row.IsEligible)

	_, err = svc.IsEligibleFor(context.Background(), "trainee-1", "cert-unknown")
	require.Error(t, err)
}

func TestEligibilityProcessSubjectCompletion(t *testing.T) {
	svc, _ := newEligibilityFixture()

	results, err := svc.ProcessSubjectCompletion(context.Background(), "trainee-1", "subj-hyd")
	require.NoError(t, err)
	require.Len(t, results, 4)
}
