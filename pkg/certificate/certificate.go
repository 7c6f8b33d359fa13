package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// ContentType is the MIME type of rendered certificates.
const ContentType = "application/pdf"

// Data is everything printed on a certificate.
type Data struct {
	CourseName string
	UserName   string
	Language   string
	IssuedAt   time.Time
	Issuer     string
}

// ErrMissingField is returned when required certificate data is empty.
var ErrMissingField = errors.New("certificate data incomplete")

// Render returns a single page landscape A4 PDF.
func Render(d Data) ([]byte, error) {
	if strings.TrimSpace(d.CourseName) == "" || strings.TrimSpace(d.UserName) == "" {
		return nil, ErrMissingField
	}
	if d.IssuedAt.IsZero() {
		d.IssuedAt = time.Now().UTC()
	}
	if d.Issuer == "" {
		d.Issuer = "Course Server Academy"
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetAuthor(d.Issuer, true)
	pdf.SetCreationDate(d.IssuedAt)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, height := pdf.GetPageSize()

	pdf.SetDrawColor(42, 122, 226)
	pdf.SetLineWidth(2)
	pdf.Rect(10, 10, width-20, height-20, "D")
	pdf.SetLineWidth(0.5)
	pdf.Rect(15, 15, width-30, height-30, "D")

	centered := func(y float64, style string, size float64, text string) {
		pdf.SetY(y)
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(0, size*0.6, tr(text), "", 1, "C", false, 0, "")
	}

	pdf.SetTextColor(42, 122, 226)
	centered(40, "B", 34, "Certificate of Completion")

	pdf.SetTextColor(60, 60, 60)
	centered(70, "", 16, "This certifies that")
	centered(85, "B", 28, d.UserName)
	centered(110, "", 16, "has successfully completed the course")
	centered(125, "B", 22, d.CourseName)

	if d.Language != "" {
		centered(145, "I", 14, fmt.Sprintf("Programming language: %s", d.Language))
	}

	pdf.SetTextColor(120, 120, 120)
	centered(170, "", 12, fmt.Sprintf("Issued on %s by %s", d.IssuedAt.Format("January 2, 2006"), d.Issuer))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the suggested download name for a course certificate.
func Filename(courseName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(courseName)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "course"
	}
	return "certificate-" + slug + ".pdf"
}
