package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument carries everything printed on a rendered certificate.
type CertificateDocument struct {
	CertificateName string
	CertificateType string
	TraineeName     string
	PlanName        string
	CourseName      string
	SubjectName     string
	IssuedAt        time.Time
	SerialNumber    string
}

// CertificateRenderer produces landscape A4 certificate PDFs.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render creates the PDF document for one issued certificate.
func (r *CertificateRenderer) Render(doc CertificateDocument) ([]byte, error) {
	if doc.CertificateName == "" {
		return nil, fmt.Errorf("certificate name required")
	}
	if doc.TraineeName == "" {
		return nil, fmt.Errorf("trainee name required")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.8)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Times", "B", 28)
	pdf.CellFormat(0, 16, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Times", "", 13)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Times", "B", 20)
	pdf.CellFormat(0, 12, doc.TraineeName, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Times", "", 13)
	pdf.CellFormat(0, 8, "has satisfied every requirement of", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Times", "B", 16)
	pdf.CellFormat(0, 10, strings.ToUpper(doc.CertificateName), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "I", 11)
	for _, line := range r.scopeLines(doc) {
		pdf.CellFormat(0, 6, line, "", 1, "C", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Times", "", 10)
	issued := doc.IssuedAt
	if issued.IsZero() {
		issued = time.Now().UTC()
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued on %s", issued.Format("January 2, 2006")), "", 1, "C", false, 0, "")
	if doc.SerialNumber != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Serial: %s", doc.SerialNumber), "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *CertificateRenderer) scopeLines(doc CertificateDocument) []string {
	lines := make([]string, 0, 3)
	if doc.PlanName != "" {
		lines = append(lines, fmt.Sprintf("Training plan: %s", doc.PlanName))
	}
	if doc.CourseName != "" {
		lines = append(lines, fmt.Sprintf("Course: %s", doc.CourseName))
	}
	if doc.SubjectName != "" {
		lines = append(lines, fmt.Sprintf("Subject: %s", doc.SubjectName))
	}
	return lines
}
