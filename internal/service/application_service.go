package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/mail"
	"github.com/folio/folio/internal/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultRole = "Full Stack Developer"

var applicationTemplates = map[models.TemplateType]*template.Template{
	models.TemplateGlobal: template.Must(template.New("global").Parse(`Dear Hiring Manager,

I hope you are doing well.

Please find attached my resume and a tailored cover letter for the {{.Role}} position at {{.Company}}.

With over {{.Years}} of experience designing and building scalable enterprise web applications across the full stack and cloud platforms, I am confident that I can contribute effectively to your engineering team.

I am open to relocation and visa sponsorship for international roles, and would welcome the opportunity to discuss how my experience aligns with the goals of {{.Company}}.

Thank you for your time and consideration.

Best regards,
{{.Signature}}`)),

	models.TemplateIndia: template.Must(template.New("india").Parse(`Dear Hiring Manager,

I hope you are doing well.

Please find attached my resume and a tailored cover letter for the {{.Role}} position at {{.Company}}.

With over {{.Years}} of experience designing and building scalable web applications across the full stack and cloud platforms, I am confident that I can contribute effectively to your engineering team.

I am available to join on short notice, as per your requirement.

Thank you for your time and consideration.

Best regards,
{{.Signature}}`)),
}

// ApplicationRequest is one bulk send.
type ApplicationRequest struct {
	Companies       []models.ApplicationTarget
	Template        models.TemplateType
	YearsExperience string
}

type ApplicationService struct {
	letters    *CoverLetterService
	mailer     mail.Mailer
	clock      clock.Clock
	cfg        *config.ApplicationsConfig
	profile    config.ProfileConfig
	production bool
	logger     *logrus.Logger
}

func NewApplicationService(
	letters *CoverLetterService,
	mailer mail.Mailer,
	clk clock.Clock,
	cfg *config.ApplicationsConfig,
	profile config.ProfileConfig,
	production bool,
	logger *logrus.Logger,
) *ApplicationService {
	return &ApplicationService{
		letters:    letters,
		mailer:     mailer,
		clock:      clk,
		cfg:        cfg,
		profile:    profile,
		production: production,
		logger:     logger,
	}
}

// Send mails a cover letter and resume to every valid company row. Rows
// without a name or email are skipped. Per-company failures are reported in
// the results, which keep input order.
func (s *ApplicationService) Send(ctx context.Context, req ApplicationRequest) ([]models.ApplicationResult, error) {
	if len(req.Companies) == 0 {
		return nil, apperror.Validation("companies[] is required")
	}

	tmpl, ok := applicationTemplates[req.Template]
	if !ok {
		tmpl = applicationTemplates[models.TemplateGlobal]
	}

	years := strings.TrimSpace(req.YearsExperience)
	if years == "" {
		years = s.cfg.YearsExperience
	}

	targets := lo.FilterMap(req.Companies, func(c models.ApplicationTarget, _ int) (models.ApplicationTarget, bool) {
		c.Name = strings.TrimSpace(c.Name)
		c.Email = strings.TrimSpace(c.Email)
		c.Role = strings.TrimSpace(c.Role)
		if c.Name == "" || c.Email == "" {
			s.logger.WithField("row", c).Warn("Skipping invalid application row")
			return c, false
		}
		if c.Role == "" {
			c.Role = defaultRole
		}
		return c, true
	})

	resume, err := os.ReadFile(s.cfg.ResumePath)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read resume")
		return nil, apperror.Internal("Internal server error (see logs)", err)
	}

	results := make([]models.ApplicationResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			results[i] = s.sendOne(gctx, target, tmpl, years, resume)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (s *ApplicationService) sendOne(ctx context.Context, target models.ApplicationTarget, tmpl *template.Template, years string, resume []byte) models.ApplicationResult {
	result := models.ApplicationResult{Company: target.Name, Email: target.Email}
	log := s.logger.WithFields(logrus.Fields{"company": target.Name, "email": target.Email})

	fail := func(message string, err error) models.ApplicationResult {
		log.WithError(err).Error(message)
		result.Error = message
		return result
	}

	link, _, err := s.letters.CreateToken(ctx, target.Name, target.Email)
	if err != nil {
		return fail(apperror.As(err).Message, err)
	}
	log.WithField("link", link).Debug("Cover token stored")

	pdf, err := s.letters.Generate(target.Name, target.Role, years, s.clock.Now())
	if err != nil {
		return fail(apperror.As(err).Message, err)
	}

	var body strings.Builder
	err = tmpl.Execute(&body, map[string]string{
		"Role":      target.Role,
		"Company":   target.Name,
		"Years":     years,
		"Signature": s.signature(),
	})
	if err != nil {
		return fail("Failed to render email", err)
	}

	to := target.Email
	if !s.production {
		to = s.cfg.TestRecipient
	}
	if to == "" {
		result.Error = "no test recipient configured"
		return result
	}

	id := uuid.New().String()
	err = s.mailer.Send(ctx, mail.Message{
		ID:       id + "@folio",
		From:     s.cfg.From,
		To:       []string{to},
		Subject:  fmt.Sprintf("Application – %s – %s", target.Role, target.Name),
		TextBody: body.String(),
		Attachments: []mail.Attachment{
			{Filename: fmt.Sprintf("Cover-Letter-%s.pdf", target.Name), ContentType: "application/pdf", Data: pdf},
			{Filename: "resume.pdf", ContentType: "application/pdf", Data: resume},
		},
	})
	mailSentTotal.WithLabelValues("application", mailResult(err)).Inc()
	if err != nil {
		return fail("Failed to send email", err)
	}

	log.WithField("to", to).Info("Application email sent")
	result.Email = to
	result.ID = id
	return result
}

func (s *ApplicationService) signature() string {
	lines := []string{s.profile.Name, s.profile.Location, s.profile.Phone, s.profile.Email, s.profile.Site}
	return strings.Join(lo.Compact(lines), "\n")
}
