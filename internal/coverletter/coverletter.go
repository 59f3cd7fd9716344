// Package coverletter renders the one-page A4 cover letter attached to
// application emails and served from download links.
package coverletter

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/folio/folio/internal/config"
	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"
)

const (
	margin      = 56.0
	lineHeight  = 16.0
	dateLayout  = "02 January 2006"
	fontFamily  = "Times"
	signatureID = "signature"

	// body text stops this far above the bottom margin to keep room for the
	// closing and signature
	signatureReserve = 120.0
)

var headerColor = struct{ r, g, b int }{18, 63, 148} // #123F94

// Letter holds the per-recipient values of one cover letter.
type Letter struct {
	Company         string
	Role            string
	YearsExperience string
	Date            time.Time
}

type Generator struct {
	profile       config.ProfileConfig
	signaturePath string
	logger        *logrus.Logger
}

func NewGenerator(profile config.ProfileConfig, signaturePath string, logger *logrus.Logger) *Generator {
	return &Generator{
		profile:       profile,
		signaturePath: signaturePath,
		logger:        logger,
	}
}

// Generate renders l as a PDF document.
func (g *Generator) Generate(l Letter) ([]byte, error) {
	company := strings.TrimSpace(l.Company)
	if company == "" {
		company = "your company"
	}
	role := strings.TrimSpace(l.Role)
	if role == "" {
		role = "Full Stack Developer"
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	centerX := pageWidth / 2
	maxWidth := pageWidth - margin*2

	centered := func(s string, y float64) {
		s = tr(s)
		pdf.Text(centerX-pdf.GetStringWidth(s)/2, y, s)
	}

	// header
	pdf.SetFont(fontFamily, "B", 20)
	pdf.SetTextColor(headerColor.r, headerColor.g, headerColor.b)
	centered(g.profile.Name, margin+10)

	pdf.SetFont(fontFamily, "", 11)
	centered(joinNonEmpty(g.profile.Location, g.profile.Phone), margin+30)
	centered(joinNonEmpty(g.profile.Email, siteHost(g.profile.Site)), margin+48)

	pdf.SetDrawColor(headerColor.r, headerColor.g, headerColor.b)
	pdf.Line(margin, margin+54, pageWidth-margin, margin+54)

	y := margin + 80

	pdf.SetTextColor(0, 0, 0)
	pdf.Text(margin, y, l.Date.Format(dateLayout))
	y += 24

	for _, line := range []string{"Hiring Manager", company, "Human Resources Department"} {
		pdf.Text(margin, y, tr(line))
		y += lineHeight
	}
	y += 12

	pdf.SetFont(fontFamily, "B", 11)
	pdf.Text(margin, y, tr(fmt.Sprintf("RE: %s Position – %s", role, company)))
	y += 24

	pdf.SetFont(fontFamily, "", 11)
	pdf.Text(margin, y, "Dear Hiring Manager,")
	y += 24

	// opening paragraph with bold runs
	x := margin
	before := "I am writing to express my interest in the "
	pdf.Text(x, y, before)
	x += pdf.GetStringWidth(before)
	pdf.SetFont(fontFamily, "B", 11)
	pdf.Text(x, y, tr(fmt.Sprintf("%s position at %s.", role, company)))
	y += lineHeight + 2

	pdf.SetFont(fontFamily, "", 11)
	mid := "With over "
	pdf.Text(margin, y, mid)
	x = margin + pdf.GetStringWidth(mid)
	pdf.SetFont(fontFamily, "B", 11)
	pdf.Text(x, y, tr(l.YearsExperience))
	x += pdf.GetStringWidth(tr(l.YearsExperience))

	pdf.SetFont(fontFamily, "", 11)
	rest := tr(" of experience delivering scalable, high-performance web applications " +
		"across the full stack and cloud platforms, I believe my skills are a strong match for your engineering team.")
	lines := splitLines(pdf, rest, maxWidth-(x-margin), maxWidth)
	for i, line := range lines {
		lx := margin
		if i == 0 {
			lx = x
		}
		pdf.Text(lx, y, line)
		y += lineHeight
	}
	y += 8

	for _, para := range bodyParagraphs(company) {
		for _, line := range pdf.SplitText(tr(para), maxWidth) {
			if y > pageHeight-margin-signatureReserve {
				break
			}
			pdf.Text(margin, y, line)
			y += lineHeight
		}
		y += 8
	}

	y += 16
	pdf.Text(margin, y, "Thank you for considering my application.")
	y += 24
	pdf.Text(margin, y, "Yours sincerely,")
	y += 40

	g.drawSignature(pdf, y)

	y += 50
	pdf.SetFont(fontFamily, "B", 12)
	pdf.Text(margin, y, tr(g.profile.Name))

	// footer
	footerY := pageHeight - margin + 18
	pdf.SetDrawColor(headerColor.r, headerColor.g, headerColor.b)
	pdf.Line(margin, footerY-18, pageWidth-margin, footerY-18)
	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(headerColor.r, headerColor.g, headerColor.b)
	pdf.Text(margin, footerY, g.profile.Site)
	label := "Cover Letter"
	pdf.Text(pageWidth-margin-pdf.GetStringWidth(label), footerY, label)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render cover letter: %w", err)
	}

	return buf.Bytes(), nil
}

// drawSignature places the signature image if one is configured and
// readable. A missing or broken image is skipped.
func (g *Generator) drawSignature(pdf *fpdf.Fpdf, y float64) {
	if g.signaturePath == "" {
		return
	}

	data, err := os.ReadFile(g.signaturePath)
	if err != nil {
		g.logger.WithError(err).Debug("Signature image not available")
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(signatureID, opts, bytes.NewReader(data))
	if !pdf.Ok() {
		g.logger.WithError(pdf.Error()).Warn("Failed to load signature image")
		pdf.ClearError()
		return
	}

	pdf.ImageOptions(signatureID, margin, y-30, 120, 50, false, opts, 0, "")
}

// splitLines wraps s so the first line fits firstWidth and the rest fit width.
func splitLines(pdf *fpdf.Fpdf, s string, firstWidth, width float64) []string {
	words := strings.Fields(s)
	var lines []string
	var cur string
	limit := firstWidth
	for _, w := range words {
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if cur != "" && pdf.GetStringWidth(candidate) > limit {
			lines = append(lines, cur)
			cur = w
			limit = width
			continue
		}
		cur = candidate
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	if len(lines) > 0 && strings.HasPrefix(s, " ") {
		lines[0] = " " + lines[0]
	}
	return lines
}

func bodyParagraphs(company string) []string {
	return []string{
		"I have delivered full-stack solutions for international clients, covering frontend frameworks, " +
			"backend services, relational and document databases, and secure deployments on cloud hosting " +
			"with containerised release pipelines.",
		"My work has included schema design and query optimisation on large datasets, role-based access " +
			"control, and audit logging for systems where data handling must be provably correct.",
		"On the frontend I focus on performance through code-splitting, response tuning and caching, so " +
			"that complex data views stay fast and responsive.",
		fmt.Sprintf("I would welcome the opportunity to contribute to %s and discuss how my experience "+
			"aligns with your goals.", company),
	}
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "  |  ")
}

func siteHost(site string) string {
	site = strings.TrimPrefix(site, "https://")
	return strings.TrimPrefix(site, "http://")
}
