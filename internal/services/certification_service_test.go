package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/securepath-labs/compliance-service/internal/events"
	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

func newCertForTest(repo *fakeRepo, publisher events.EventPublisher) CertificationService {
	identity := newIdentityForTest(repo, nil)
	return NewCertificationService(repo, nil, testLogger(), newTestValidator(), identity, nil, publisher)
}

func addTemplate(repo *fakeRepo, template *models.CertificationTemplate) *models.CertificationTemplate {
	if template.ID == 0 {
		template.ID = repo.id()
	}
	if template.ScoreScope == "" {
		template.ScoreScope = models.ScoreScopeAll
	}
	repo.templates[template.ID] = template
	return template
}

func completeModule(repo *fakeRepo, userID string, moduleID uint) {
	repo.progress[progressKey(userID, moduleID)] = &models.UserProgress{
		ID:               repo.id(),
		UserID:           userID,
		ModuleID:         moduleID,
		CompletedAt:      time.Now().UTC(),
		CompletionMethod: models.CompletionQuiz,
	}
}

func addResult(repo *fakeRepo, userID string, quizID uint, percentage float64) {
	repo.results = append(repo.results, &models.QuizResult{
		ID:          repo.id(),
		UserID:      userID,
		QuizID:      quizID,
		Percentage:  percentage,
		Passed:      percentage >= models.DefaultPassScore,
		CompletedAt: time.Now().UTC(),
	})
}

func TestCheckEligibility(t *testing.T) {
	const user = "emp-1"

	tests := []struct {
		name     string
		seed     func(repo *fakeRepo)
		template models.CertificationTemplate
		want     func(t *testing.T, r *EligibilityResult)
	}{
		{
			name: "all criteria met",
			seed: func(repo *fakeRepo) {
				completeModule(repo, user, 101)
				completeModule(repo, user, 102)
				addResult(repo, user, 201, 90)
			},
			template: models.CertificationTemplate{
				Title:           "Security Fundamentals",
				Category:        models.CategoryGeneral,
				RequiredModules: datatypes.NewJSONSlice([]uint{101, 102}),
				RequiredQuizzes: datatypes.NewJSONSlice([]uint{201}),
				MinScore:        80,
				Active:          true,
			},
			want: func(t *testing.T, r *EligibilityResult) {
				if !r.Eligible {
					t.Errorf("eligible = false: %+v", r)
				}
			},
		},
		{
			name: "missing module blocks",
			seed: func(repo *fakeRepo) {
				completeModule(repo, user, 101)
				addResult(repo, user, 201, 90)
			},
			template: models.CertificationTemplate{
				Title:           "Security Fundamentals",
				Category:        models.CategoryGeneral,
				RequiredModules: datatypes.NewJSONSlice([]uint{101, 102}),
				RequiredQuizzes: datatypes.NewJSONSlice([]uint{201}),
				Active:          true,
			},
			want: func(t *testing.T, r *EligibilityResult) {
				if r.Eligible || r.ModuleRequirementsMet {
					t.Errorf("module gap not detected: %+v", r)
				}
				if len(r.MissingModules) != 1 || r.MissingModules[0] != 102 {
					t.Errorf("missing modules = %v, want [102]", r.MissingModules)
				}
			},
		},
		{
			name: "best attempt below min score blocks",
			seed: func(repo *fakeRepo) {
				addResult(repo, user, 201, 60)
				addResult(repo, user, 201, 75)
			},
			template: models.CertificationTemplate{
				Title:           "Quiz Mastery",
				Category:        models.CategoryGeneral,
				RequiredQuizzes: datatypes.NewJSONSlice([]uint{201}),
				MinScore:        80,
				Active:          true,
			},
			want: func(t *testing.T, r *EligibilityResult) {
				if r.Eligible || r.QuizRequirementsMet {
					t.Errorf("quiz gap not detected: %+v", r)
				}
			},
		},
		{
			name: "best attempt counts, not latest",
			seed: func(repo *fakeRepo) {
				addResult(repo, user, 201, 90)
				addResult(repo, user, 201, 40)
			},
			template: models.CertificationTemplate{
				Title:           "Quiz Mastery",
				Category:        models.CategoryGeneral,
				RequiredQuizzes: datatypes.NewJSONSlice([]uint{201}),
				MinScore:        80,
				ScoreScope:      models.ScoreScopeRequired,
				Active:          true,
			},
			want: func(t *testing.T, r *EligibilityResult) {
				if !r.QuizRequirementsMet {
					t.Errorf("best attempt ignored: %+v", r)
				}
				// Overall score over required quizzes: (90+40)/2 = 65 < 80.
				if r.OverallScore != 65 || r.OverallScoreMet {
					t.Errorf("overall = %v met = %v, want 65 false", r.OverallScore, r.OverallScoreMet)
				}
			},
		},
		{
			name: "zero min score needs only an attempt",
			seed: func(repo *fakeRepo) {
				addResult(repo, user, 201, 10)
			},
			template: models.CertificationTemplate{
				Title:           "Participation",
				Category:        models.CategoryGeneral,
				RequiredQuizzes: datatypes.NewJSONSlice([]uint{201}),
				MinScore:        0,
				Active:          true,
			},
			want: func(t *testing.T, r *EligibilityResult) {
				if !r.Eligible {
					t.Errorf("attempt with zero threshold not eligible: %+v", r)
				}
			},
		},
		{
			name: "unattempted required quiz blocks even at zero min score",
			seed: func(repo *fakeRepo) {},
			template: models.CertificationTemplate{
				Title:           "Participation",
				Category:        models.CategoryGeneral,
				RequiredQuizzes: datatypes.NewJSONSlice([]uint{201}),
				Active:          true,
			},
			want: func(t *testing.T, r *EligibilityResult) {
				if r.Eligible || r.QuizRequirementsMet {
					t.Errorf("missing attempt not detected: %+v", r)
				}
			},
		},
		{
			name: "unrelated results drag the all-scope average down",
			seed: func(repo *fakeRepo) {
				addResult(repo, user, 201, 90)
				addResult(repo, user, 999, 10)
			},
			template: models.CertificationTemplate{
				Title:           "Strict Average",
				Category:        models.CategoryGeneral,
				RequiredQuizzes: datatypes.NewJSONSlice([]uint{201}),
				MinScore:        80,
				ScoreScope:      models.ScoreScopeAll,
				Active:          true,
			},
			want: func(t *testing.T, r *EligibilityResult) {
				if r.OverallScore != 50 || r.OverallScoreMet {
					t.Errorf("overall = %v met = %v, want 50 false", r.OverallScore, r.OverallScoreMet)
				}
				if r.Eligible {
					t.Error("eligible despite failed overall score")
				}
			},
		},
		{
			name: "empty template is trivially satisfiable",
			seed: func(repo *fakeRepo) {},
			template: models.CertificationTemplate{
				Title:    "Welcome",
				Category: models.CategoryGeneral,
				Active:   true,
			},
			want: func(t *testing.T, r *EligibilityResult) {
				if !r.Eligible {
					t.Errorf("empty requirements not eligible: %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			addUser(repo, user, models.RoleEmployee)
			tt.seed(repo)
			template := tt.template
			addTemplate(repo, &template)
			svc := newCertForTest(repo, nil)

			result, err := svc.CheckEligibility(context.Background(), user, user, template.ID)
			if err != nil {
				t.Fatalf("CheckEligibility() error = %v", err)
			}
			tt.want(t, result)
		})
	}
}

func TestCheckEligibilityAccess(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "emp-1", models.RoleEmployee)
	addUser(repo, "emp-2", models.RoleEmployee)
	addUser(repo, "hr-1", models.RoleHR)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title: "Welcome", Category: models.CategoryGeneral, Active: true,
	})
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	if _, err := svc.CheckEligibility(ctx, "emp-2", "emp-1", template.ID); !IsPermissionError(err) {
		t.Errorf("peer eligibility check error = %v, want permission error", err)
	}
	if _, err := svc.CheckEligibility(ctx, "hr-1", "emp-1", template.ID); err != nil {
		t.Errorf("hr eligibility check error = %v", err)
	}
}

func TestAward(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "emp-1", models.RoleEmployee)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title:        "Security Fundamentals",
		Category:     models.CategoryGeneral,
		ValidityDays: 365,
		Credits:      5,
		Active:       true,
	})
	publisher := events.NewMockEventPublisher()
	svc := newCertForTest(repo, publisher)
	ctx := context.Background()

	resp, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID, Notes: "annual training"})
	if err != nil {
		t.Fatalf("Award() error = %v", err)
	}

	cert := resp.Certification
	if cert.Title != template.Title || cert.Credits != 5 {
		t.Errorf("template snapshot wrong: %+v", cert)
	}
	if !strings.HasPrefix(cert.CertificateID, "CERT-") {
		t.Errorf("certificate id = %q", cert.CertificateID)
	}
	if len(cert.VerificationCode) != 12 {
		t.Errorf("verification code = %q, want 12 chars", cert.VerificationCode)
	}
	if cert.ExpiresAt == nil {
		t.Fatal("expires_at not derived from validity days")
	}
	wantExpiry := cert.IssuedAt.AddDate(0, 0, 365)
	if !cert.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires_at = %v, want %v", cert.ExpiresAt, wantExpiry)
	}
	if resp.EffectiveStatus != models.CertActive {
		t.Errorf("effective status = %q", resp.EffectiveStatus)
	}

	// Second award for the same title is rejected while one is active.
	if _, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID}); !errors.Is(err, ErrDuplicateActiveCertificate) {
		t.Errorf("duplicate award error = %v, want ErrDuplicateActiveCertificate", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.TypeCertificationAwarded {
		t.Errorf("published = %+v, want one certification.awarded", published)
	}
}

func TestAwardRetriesIdentifierCollision(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "emp-1", models.RoleEmployee)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title: "Security Fundamentals", Category: models.CategoryGeneral, Active: true,
	})
	publisher := events.NewMockEventPublisher()
	svc := newCertForTest(repo, publisher)

	// One generated identifier collides with an existing row; the award
	// regenerates and succeeds instead of reporting a duplicate award.
	repo.identifierCollisions = 1

	resp, err := svc.Award(context.Background(), "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID})
	if err != nil {
		t.Fatalf("Award() error = %v", err)
	}
	if resp.CertificateID == "" || resp.VerificationCode == "" {
		t.Errorf("identifiers missing after retry: %+v", resp.Certification)
	}
	if len(repo.certs) != 1 {
		t.Errorf("certifications = %d, want 1", len(repo.certs))
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.TypeCertificationAwarded {
		t.Errorf("published = %+v, want one certification.awarded", published)
	}
}

func TestAwardGivesUpAfterRepeatedIdentifierCollisions(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "emp-1", models.RoleEmployee)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title: "Security Fundamentals", Category: models.CategoryGeneral, Active: true,
	})
	publisher := events.NewMockEventPublisher()
	svc := newCertForTest(repo, publisher)

	repo.identifierCollisions = maxIdentifierAttempts

	_, err := svc.Award(context.Background(), "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	// A collision of generated identifiers is not a duplicate award.
	if errors.Is(err, ErrDuplicateActiveCertificate) {
		t.Errorf("error = %v, want identifier collision, not duplicate award", err)
	}
	if !errors.Is(err, repositories.ErrDuplicateIdentifier) {
		t.Errorf("error = %v, want wrapped ErrDuplicateIdentifier", err)
	}
	if len(repo.certs) != 0 {
		t.Errorf("certifications = %d, want 0", len(repo.certs))
	}
	if published := publisher.GetPublishedEvents(); len(published) != 0 {
		t.Errorf("published = %+v, want none", published)
	}
}

func TestAwardGuards(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "mgr-1", models.RoleManager)
	addUser(repo, "emp-1", models.RoleEmployee)
	active := addTemplate(repo, &models.CertificationTemplate{
		Title: "Active", Category: models.CategoryGeneral, Active: true,
	})
	inactive := addTemplate(repo, &models.CertificationTemplate{
		Title: "Retired", Category: models.CategoryGeneral, Active: false,
	})
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	if _, err := svc.Award(ctx, "mgr-1", &AwardRequest{UserID: "emp-1", TemplateID: active.ID}); !IsPermissionError(err) {
		t.Errorf("manager award error = %v, want permission error", err)
	}
	if _, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: inactive.ID}); !errors.Is(err, ErrTemplateInactive) {
		t.Errorf("inactive template error = %v", err)
	}
	if _, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "ghost", TemplateID: active.ID}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v", err)
	}
	if _, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: 9999}); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("missing template error = %v", err)
	}
}

func TestCheckAndAwardEligible(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "emp-1", models.RoleEmployee)
	completeModule(repo, "emp-1", 101)
	addResult(repo, "emp-1", 201, 95)

	eligible := addTemplate(repo, &models.CertificationTemplate{
		Title:           "Auto Basic",
		Category:        models.CategoryGeneral,
		RequiredModules: datatypes.NewJSONSlice([]uint{101}),
		AutoAward:       true,
		Active:          true,
	})
	addTemplate(repo, &models.CertificationTemplate{
		Title:           "Auto Advanced",
		Category:        models.CategoryGeneral,
		RequiredModules: datatypes.NewJSONSlice([]uint{101, 999}),
		AutoAward:       true,
		Active:          true,
	})
	addTemplate(repo, &models.CertificationTemplate{
		Title:     "Manual Only",
		Category:  models.CategoryGeneral,
		AutoAward: false,
		Active:    true,
	})
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	awarded, err := svc.CheckAndAwardEligible(ctx, "emp-1")
	if err != nil {
		t.Fatalf("CheckAndAwardEligible() error = %v", err)
	}
	if len(awarded) != 1 || awarded[0].TemplateID != eligible.ID {
		t.Fatalf("awarded = %+v, want one for template %d", awarded, eligible.ID)
	}
	if awarded[0].IssuedBy != "system" {
		t.Errorf("issued_by = %q, want system", awarded[0].IssuedBy)
	}

	// A second sweep is idempotent.
	again, err := svc.CheckAndAwardEligible(ctx, "emp-1")
	if err != nil {
		t.Fatalf("second sweep error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second sweep awarded %d, want 0", len(again))
	}
	if len(repo.certs) != 1 {
		t.Errorf("certifications = %d, want 1", len(repo.certs))
	}
}

func TestRevoke(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "emp-1", models.RoleEmployee)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title: "Security Fundamentals", Category: models.CategoryGeneral, Active: true,
	})
	publisher := events.NewMockEventPublisher()
	svc := newCertForTest(repo, publisher)
	ctx := context.Background()

	resp, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID, Notes: "initial award"})
	if err != nil {
		t.Fatalf("Award() error = %v", err)
	}
	publisher.ClearEvents()

	revoked, err := svc.Revoke(ctx, "admin-1", resp.ID, &RevokeRequest{Reason: "policy violation"})
	if err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if revoked.Status != models.CertRevoked || revoked.EffectiveStatus != models.CertRevoked {
		t.Errorf("status = %q/%q, want revoked", revoked.Status, revoked.EffectiveStatus)
	}
	// The reason is appended; existing notes survive.
	if !strings.Contains(revoked.Notes, "initial award") || !strings.Contains(revoked.Notes, "policy violation") {
		t.Errorf("notes = %q, want original and reason", revoked.Notes)
	}

	// Revoking twice fails.
	if _, err := svc.Revoke(ctx, "admin-1", resp.ID, &RevokeRequest{Reason: "again"}); !errors.Is(err, ErrCertNotRevocable) {
		t.Errorf("double revoke error = %v", err)
	}

	// The title is re-awardable once no active certification holds it.
	if _, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID}); err != nil {
		t.Errorf("re-award after revoke error = %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) == 0 || published[0].Type != events.TypeCertificationRevoked {
		t.Errorf("published = %+v, want certification.revoked first", published)
	}
}

func TestRevokeValidation(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "emp-1", models.RoleEmployee)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title: "T", Category: models.CategoryGeneral, Active: true,
	})
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	resp, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID})
	if err != nil {
		t.Fatalf("Award() error = %v", err)
	}

	if _, err := svc.Revoke(ctx, "admin-1", resp.ID, &RevokeRequest{}); err == nil {
		t.Error("revoke without reason accepted")
	}
	if _, err := svc.Revoke(ctx, "admin-1", 9999, &RevokeRequest{Reason: "x"}); !errors.Is(err, ErrCertificationNotFound) {
		t.Errorf("missing cert error = %v", err)
	}
}

func TestRenew(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "emp-1", models.RoleEmployee)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title: "Annual Refresh", Category: models.CategoryGeneral, ValidityDays: 180, Active: true,
	})
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	resp, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID})
	if err != nil {
		t.Fatalf("Award() error = %v", err)
	}
	issuedAt := resp.IssuedAt

	// Simulate expiry, then renew with an explicit window.
	expired := time.Now().UTC().AddDate(0, 0, -1)
	stored := repo.certs[resp.ID]
	stored.ExpiresAt = &expired

	days := 90
	renewed, err := svc.Renew(ctx, "admin-1", resp.ID, &days)
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}
	if renewed.EffectiveStatus != models.CertActive {
		t.Errorf("effective status = %q, want active", renewed.EffectiveStatus)
	}
	if renewed.ExpiresAt == nil || !renewed.ExpiresAt.After(time.Now().UTC().AddDate(0, 0, 89)) {
		t.Errorf("expires_at = %v, want ~90 days out", renewed.ExpiresAt)
	}
	if !renewed.IssuedAt.Equal(issuedAt) {
		t.Errorf("issued_at changed on renewal: %v != %v", renewed.IssuedAt, issuedAt)
	}

	// Without an explicit window the template's validity applies.
	renewed, err = svc.Renew(ctx, "admin-1", resp.ID, nil)
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}
	if renewed.ExpiresAt == nil || !renewed.ExpiresAt.After(time.Now().UTC().AddDate(0, 0, 179)) {
		t.Errorf("expires_at = %v, want ~180 days out", renewed.ExpiresAt)
	}
}

func seedCert(repo *fakeRepo, userID, title string, status models.CertificationStatus, expiresAt *time.Time) *models.Certification {
	cert := &models.Certification{
		ID:               repo.id(),
		UserID:           userID,
		TemplateID:       1,
		Title:            title,
		Category:         models.CategoryGeneral,
		CertificateID:    "CERT-" + title,
		VerificationCode: "CODE" + title,
		Status:           status,
		IssuedAt:         time.Now().UTC().AddDate(0, -6, 0),
		ExpiresAt:        expiresAt,
		IssuedBy:         "system",
	}
	repo.certs[cert.ID] = cert
	return cert
}

func TestFlagUpcomingRenewals(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now().UTC()
	soon := now.AddDate(0, 0, 10)
	far := now.AddDate(0, 0, 200)
	imminent := now.AddDate(0, 0, 5)

	due := seedCert(repo, "emp-1", "Expiring", models.CertActive, &soon)
	seedCert(repo, "emp-1", "Fresh", models.CertActive, &far)
	seedCert(repo, "emp-2", "Revoked", models.CertRevoked, &imminent)
	seedCert(repo, "emp-2", "Perpetual", models.CertActive, nil)

	publisher := events.NewMockEventPublisher()
	svc := newCertForTest(repo, publisher)
	ctx := context.Background()

	flagged, err := svc.FlagUpcomingRenewals(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("FlagUpcomingRenewals() error = %v", err)
	}
	if flagged != 1 {
		t.Fatalf("flagged = %d, want 1", flagged)
	}
	if !repo.certs[due.ID].RenewalNotified {
		t.Error("expiring certification not marked notified")
	}
	for _, cert := range repo.certs {
		if cert.ID != due.ID && cert.RenewalNotified {
			t.Errorf("certification %q flagged unexpectedly", cert.Title)
		}
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.TypeCertificationRenewalDue {
		t.Fatalf("published = %+v, want one certification.renewal_due", published)
	}
	payload, ok := published[0].Data.(events.CertificationEvent)
	if !ok || payload.CertificationID != due.ID {
		t.Errorf("payload = %+v, want certification %d", published[0].Data, due.ID)
	}

	// Already-notified certifications are not flagged again.
	flagged, err = svc.FlagUpcomingRenewals(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("second sweep error = %v", err)
	}
	if flagged != 0 {
		t.Errorf("second sweep flagged = %d, want 0", flagged)
	}
}

func TestRenewClearsRenewalFlag(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	soon := time.Now().UTC().AddDate(0, 0, 10)
	cert := seedCert(repo, "emp-1", "Expiring", models.CertActive, &soon)
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	if _, err := svc.FlagUpcomingRenewals(ctx, 30*24*time.Hour); err != nil {
		t.Fatalf("FlagUpcomingRenewals() error = %v", err)
	}
	if !repo.certs[cert.ID].RenewalNotified {
		t.Fatal("certification not flagged")
	}

	days := 365
	if _, err := svc.Renew(ctx, "admin-1", cert.ID, &days); err != nil {
		t.Fatalf("Renew() error = %v", err)
	}
	// The next expiry cycle can flag the certification again.
	if repo.certs[cert.ID].RenewalNotified {
		t.Error("renewal flag not cleared by renew")
	}
}

func TestVerifyByCode(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "emp-1", models.RoleEmployee)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title: "Security Fundamentals", Category: models.CategoryGeneral, Active: true,
	})
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	resp, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID})
	if err != nil {
		t.Fatalf("Award() error = %v", err)
	}

	verification, err := svc.VerifyByCode(ctx, resp.VerificationCode)
	if err != nil {
		t.Fatalf("VerifyByCode() error = %v", err)
	}
	if verification.Status != models.CertActive || verification.CertificateID != resp.CertificateID {
		t.Errorf("verification = %+v", verification)
	}

	// Unknown code fails.
	if _, err := svc.VerifyByCode(ctx, "NOSUCHCODE"); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("unknown code error = %v", err)
	}
	if _, err := svc.VerifyByCode(ctx, "  "); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("blank code error = %v", err)
	}

	// Expired certs verify with the derived status.
	expired := time.Now().UTC().AddDate(0, 0, -1)
	repo.certs[resp.ID].ExpiresAt = &expired
	verification, err = svc.VerifyByCode(ctx, resp.VerificationCode)
	if err != nil {
		t.Fatalf("VerifyByCode() expired error = %v", err)
	}
	if verification.Status != models.CertExpired {
		t.Errorf("status = %q, want expired", verification.Status)
	}

	// Revoked certs stay verifiable and report revoked.
	if _, err := svc.Revoke(ctx, "admin-1", resp.ID, &RevokeRequest{Reason: "fraud"}); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	verification, err = svc.VerifyByCode(ctx, resp.VerificationCode)
	if err != nil {
		t.Fatalf("VerifyByCode() revoked error = %v", err)
	}
	if verification.Status != models.CertRevoked {
		t.Errorf("status = %q, want revoked", verification.Status)
	}
}

func TestTemplateCreateValidation(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "mgr-1", models.RoleManager)
	addUser(repo, "emp-1", models.RoleEmployee)
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	valid := &CreateTemplateRequest{
		Title:           "Data Protection",
		Category:        models.CategoryDataProtection,
		RequiredModules: []uint{1},
		MinScore:        75,
	}
	template, err := svc.CreateTemplate(ctx, "mgr-1", valid)
	if err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}
	if !template.Active {
		t.Error("active default not applied")
	}
	if template.ScoreScope != models.ScoreScopeAll {
		t.Errorf("score scope default = %q", template.ScoreScope)
	}

	if _, err := svc.CreateTemplate(ctx, "emp-1", valid); !IsPermissionError(err) {
		t.Errorf("employee create error = %v, want permission error", err)
	}

	// Auto-award with no requirements would certify everyone.
	if _, err := svc.CreateTemplate(ctx, "mgr-1", &CreateTemplateRequest{
		Title:     "Free Pass",
		Category:  models.CategoryGeneral,
		AutoAward: true,
	}); err == nil {
		t.Error("auto-award template without requirements accepted")
	}
}

func TestGetUserCertificationsAccess(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "admin-1", models.RoleAdmin)
	addUser(repo, "emp-1", models.RoleEmployee)
	addUser(repo, "emp-2", models.RoleEmployee)
	template := addTemplate(repo, &models.CertificationTemplate{
		Title: "T", Category: models.CategoryGeneral, Active: true,
	})
	svc := newCertForTest(repo, nil)
	ctx := context.Background()

	if _, err := svc.Award(ctx, "admin-1", &AwardRequest{UserID: "emp-1", TemplateID: template.ID}); err != nil {
		t.Fatalf("Award() error = %v", err)
	}

	own, err := svc.GetUserCertifications(ctx, "emp-1", "emp-1")
	if err != nil || len(own) != 1 {
		t.Errorf("own certifications = %v, %v", own, err)
	}
	if _, err := svc.GetUserCertifications(ctx, "emp-2", "emp-1"); !IsPermissionError(err) {
		t.Errorf("peer read error = %v, want permission error", err)
	}
}
