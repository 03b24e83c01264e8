package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/validator"
)

// fakeRepo is an in-memory Repository for service tests. It honors the
// same contracts the Postgres implementation does: gorm.ErrRecordNotFound
// for misses, ErrDuplicateKey for the one-active-certificate rule, and
// upsert semantics for progress rows.
type fakeRepo struct {
	mu sync.Mutex

	users     map[string]*models.User
	audits    []*models.RoleAuditLog
	modules   map[uint]*models.TrainingModule
	quizzes   map[uint]*models.Quiz
	results   []*models.QuizResult
	progress  map[string]*models.UserProgress
	templates map[uint]*models.CertificationTemplate
	certs     map[uint]*models.Certification

	nextID uint

	failProgressUpsert bool
	failResultCreate   bool

	// identifierCollisions makes the next N certification inserts fail as
	// if a generated certificate id or verification code already existed.
	identifierCollisions int

	// bootstrapMu mirrors the transaction-scoped advisory lock: taken by
	// LockBootstrap, released when the surrounding transaction ends.
	bootstrapMu    sync.Mutex
	bootstrapHeld  bool
	bootstrapLocks int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     map[string]*models.User{},
		modules:   map[uint]*models.TrainingModule{},
		quizzes:   map[uint]*models.Quiz{},
		progress:  map[string]*models.UserProgress{},
		templates: map[uint]*models.CertificationTemplate{},
		certs:     map[uint]*models.Certification{},
	}
}

func (r *fakeRepo) id() uint {
	r.nextID++
	return r.nextID
}

func progressKey(userID string, moduleID uint) string {
	return fmt.Sprintf("%s:%d", userID, moduleID)
}

func (r *fakeRepo) User() repositories.UserRepository                   { return (*fakeUserRepo)(r) }
func (r *fakeRepo) RoleAudit() repositories.RoleAuditRepository         { return (*fakeAuditRepo)(r) }
func (r *fakeRepo) Module() repositories.ModuleRepository               { return (*fakeModuleRepo)(r) }
func (r *fakeRepo) Quiz() repositories.QuizRepository                   { return (*fakeQuizRepo)(r) }
func (r *fakeRepo) Result() repositories.ResultRepository               { return (*fakeResultRepo)(r) }
func (r *fakeRepo) Progress() repositories.ProgressRepository           { return (*fakeProgressRepo)(r) }
func (r *fakeRepo) Template() repositories.TemplateRepository           { return (*fakeTemplateRepo)(r) }
func (r *fakeRepo) Certification() repositories.CertificationRepository { return (*fakeCertRepo)(r) }
func (r *fakeRepo) Report() repositories.ReportRepository               { return (*fakeReportRepo)(r) }

func (r *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	err := fn(r)

	// A transaction-scoped lock releases when the transaction ends,
	// whether it committed or rolled back.
	r.mu.Lock()
	held := r.bootstrapHeld
	r.bootstrapHeld = false
	r.mu.Unlock()
	if held {
		r.bootstrapMu.Unlock()
	}

	return err
}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

// ===== users =====

type fakeUserRepo fakeRepo

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return repositories.ErrDuplicateKey
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Role = role
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*models.User
	for _, user := range r.users {
		if filters.Role != "" && user.Role != filters.Role {
			continue
		}
		if filters.Query != "" &&
			!strings.Contains(strings.ToLower(user.FullName), strings.ToLower(filters.Query)) &&
			!strings.Contains(strings.ToLower(user.Email), strings.ToLower(filters.Query)) {
			continue
		}
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

func (r *fakeUserRepo) LockBootstrap(ctx context.Context, tx *gorm.DB) error {
	base := (*fakeRepo)(r)
	base.bootstrapMu.Lock()
	base.mu.Lock()
	base.bootstrapHeld = true
	base.bootstrapLocks++
	base.mu.Unlock()
	return nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, user := range r.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

// ===== role audit =====

type fakeAuditRepo fakeRepo

func (r *fakeAuditRepo) Append(ctx context.Context, tx *gorm.DB, entry *models.RoleAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	copied.ID = (*fakeRepo)(r).id()
	r.audits = append(r.audits, &copied)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AuditFilters) ([]*models.RoleAuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []*models.RoleAuditLog
	for _, entry := range r.audits {
		if filters.TargetUserID != nil && entry.TargetUserID != *filters.TargetUserID {
			continue
		}
		copied := *entry
		entries = append(entries, &copied)
	}
	// Newest first, like the storage implementation.
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, int64(len(entries)), nil
}

// ===== modules =====

type fakeModuleRepo fakeRepo

func (r *fakeModuleRepo) Create(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	module.ID = (*fakeRepo)(r).id()
	copied := *module
	r.modules[module.ID] = &copied
	return nil
}

func (r *fakeModuleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	module, ok := r.modules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *module
	return &copied, nil
}

func (r *fakeModuleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.TrainingModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modules []*models.TrainingModule
	for _, id := range ids {
		if module, ok := r.modules[id]; ok {
			copied := *module
			modules = append(modules, &copied)
		}
	}
	return modules, nil
}

func (r *fakeModuleRepo) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (*models.TrainingModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, module := range r.modules {
		if module.QuizID != nil && *module.QuizID == quizID {
			copied := *module
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeModuleRepo) Update(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[module.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *module
	r.modules[module.ID] = &copied
	return nil
}

func (r *fakeModuleRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.modules, id)
	return nil
}

func (r *fakeModuleRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ModuleFilters) ([]*models.TrainingModule, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modules []*models.TrainingModule
	for _, module := range r.modules {
		if filters.Status != nil && module.Status != *filters.Status {
			continue
		}
		if filters.Category != nil && module.Category != *filters.Category {
			continue
		}
		if filters.Required != nil && module.Required != *filters.Required {
			continue
		}
		copied := *module
		modules = append(modules, &copied)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, int64(len(modules)), nil
}

// ===== quizzes =====

type fakeQuizRepo fakeRepo

func (r *fakeQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz.ID = (*fakeRepo)(r).id()
	for i := range quiz.Questions {
		quiz.Questions[i].ID = (*fakeRepo)(r).id()
		quiz.Questions[i].QuizID = quiz.ID
	}
	copied := *quiz
	copied.Questions = append([]models.Question(nil), quiz.Questions...)
	r.quizzes[quiz.ID] = &copied
	return nil
}

func (r *fakeQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *quiz
	copied.Questions = nil
	return &copied, nil
}

func (r *fakeQuizRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *quiz
	copied.Questions = append([]models.Question(nil), quiz.Questions...)
	sort.Slice(copied.Questions, func(i, j int) bool { return copied.Questions[i].Position < copied.Questions[j].Position })
	return &copied, nil
}

func (r *fakeQuizRepo) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.quizzes[quiz.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	questions := stored.Questions
	copied := *quiz
	copied.Questions = questions
	r.quizzes[quiz.ID] = &copied
	return nil
}

func (r *fakeQuizRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.quizzes, id)
	return nil
}

func (r *fakeQuizRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Quiz, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var quizzes []*models.Quiz
	for _, quiz := range r.quizzes {
		copied := *quiz
		copied.Questions = nil
		quizzes = append(quizzes, &copied)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes, int64(len(quizzes)), nil
}

func (r *fakeQuizRepo) ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uint, questions []models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	replaced := make([]models.Question, len(questions))
	for i, q := range questions {
		q.ID = (*fakeRepo)(r).id()
		q.QuizID = quizID
		replaced[i] = q
	}
	quiz.Questions = replaced
	return nil
}

// ===== results =====

type fakeResultRepo fakeRepo

func (r *fakeResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failResultCreate {
		return fmt.Errorf("result insert failed")
	}
	result.ID = (*fakeRepo)(r).id()
	copied := *result
	r.results = append(r.results, &copied)
	return nil
}

func (r *fakeResultRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var results []*models.QuizResult
	for _, result := range r.results {
		if result.UserID != userID {
			continue
		}
		if filters.QuizID != nil && result.QuizID != *filters.QuizID {
			continue
		}
		if filters.Passed != nil && result.Passed != *filters.Passed {
			continue
		}
		copied := *result
		results = append(results, &copied)
	}
	return results, int64(len(results)), nil
}

func (r *fakeResultRepo) GetByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) ([]*models.QuizResult, error) {
	results, _, err := r.GetByUser(ctx, tx, userID, repositories.ResultFilters{QuizID: &quizID})
	return results, err
}

func (r *fakeResultRepo) BestPercentage(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best float64
	attempted := false
	for _, result := range r.results {
		if result.UserID != userID || result.QuizID != quizID {
			continue
		}
		attempted = true
		if result.Percentage > best {
			best = result.Percentage
		}
	}
	return best, attempted, nil
}

// ===== progress =====

type fakeProgressRepo fakeRepo

func (r *fakeProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failProgressUpsert {
		return fmt.Errorf("progress upsert failed")
	}
	key := progressKey(progress.UserID, progress.ModuleID)
	existing, ok := r.progress[key]
	if !ok {
		copied := *progress
		copied.ID = (*fakeRepo)(r).id()
		r.progress[key] = &copied
		return nil
	}
	// Mirrors the single-statement upsert: completed_at is set once and
	// never cleared by later writes.
	existing.QuizScore = progress.QuizScore
	existing.LastAccessedAt = progress.LastAccessedAt
	if existing.CompletedAt.IsZero() && !progress.CompletedAt.IsZero() {
		existing.CompletedAt = progress.CompletedAt
		existing.CompletionMethod = progress.CompletionMethod
	}
	return nil
}

func (r *fakeProgressRepo) Get(ctx context.Context, tx *gorm.DB, userID string, moduleID uint) (*models.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	progress, ok := r.progress[progressKey(userID, moduleID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *progress
	return &copied, nil
}

func (r *fakeProgressRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []*models.UserProgress
	for _, progress := range r.progress {
		if progress.UserID == userID {
			copied := *progress
			rows = append(rows, &copied)
		}
	}
	return rows, nil
}

func (r *fakeProgressRepo) GetByModule(ctx context.Context, tx *gorm.DB, moduleID uint, limit, offset int) ([]*models.UserProgress, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []*models.UserProgress
	for _, progress := range r.progress {
		if progress.ModuleID == moduleID {
			copied := *progress
			rows = append(rows, &copied)
		}
	}
	return rows, int64(len(rows)), nil
}

// ===== templates =====

type fakeTemplateRepo fakeRepo

func (r *fakeTemplateRepo) Create(ctx context.Context, tx *gorm.DB, template *models.CertificationTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	template.ID = (*fakeRepo)(r).id()
	copied := *template
	r.templates[template.ID] = &copied
	return nil
}

func (r *fakeTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CertificationTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	template, ok := r.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *template
	return &copied, nil
}

func (r *fakeTemplateRepo) Update(ctx context.Context, tx *gorm.DB, template *models.CertificationTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[template.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *template
	r.templates[template.ID] = &copied
	return nil
}

func (r *fakeTemplateRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *fakeTemplateRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.TemplateFilters) ([]*models.CertificationTemplate, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var templates []*models.CertificationTemplate
	for _, template := range r.templates {
		if filters.Active != nil && template.Active != *filters.Active {
			continue
		}
		if filters.AutoAward != nil && template.AutoAward != *filters.AutoAward {
			continue
		}
		copied := *template
		templates = append(templates, &copied)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, int64(len(templates)), nil
}

func (r *fakeTemplateRepo) GetAutoAwardable(ctx context.Context, tx *gorm.DB) ([]*models.CertificationTemplate, error) {
	active := true
	auto := true
	templates, _, err := r.List(ctx, tx, repositories.TemplateFilters{Active: &active, AutoAward: &auto})
	return templates, err
}

// ===== certifications =====

type fakeCertRepo fakeRepo

func (r *fakeCertRepo) Create(ctx context.Context, tx *gorm.DB, cert *models.Certification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.certs {
		if existing.UserID == cert.UserID && existing.Title == cert.Title && existing.Status == models.CertActive && cert.Status == models.CertActive {
			return repositories.ErrDuplicateKey
		}
	}
	if r.identifierCollisions > 0 {
		r.identifierCollisions--
		return repositories.ErrDuplicateIdentifier
	}
	for _, existing := range r.certs {
		if existing.CertificateID == cert.CertificateID || existing.VerificationCode == cert.VerificationCode {
			return repositories.ErrDuplicateIdentifier
		}
	}
	cert.ID = (*fakeRepo)(r).id()
	copied := *cert
	r.certs[cert.ID] = &copied
	return nil
}

func (r *fakeCertRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Certification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cert, ok := r.certs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *cert
	return &copied, nil
}

func (r *fakeCertRepo) GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cert := range r.certs {
		if cert.VerificationCode == code {
			copied := *cert
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCertRepo) Update(ctx context.Context, tx *gorm.DB, cert *models.Certification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.certs[cert.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *cert
	r.certs[cert.ID] = &copied
	return nil
}

func (r *fakeCertRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.CertificationFilters) ([]*models.Certification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var certs []*models.Certification
	for _, cert := range r.certs {
		if filters.Status != nil && cert.Status != *filters.Status {
			continue
		}
		if filters.UserID != nil && cert.UserID != *filters.UserID {
			continue
		}
		if filters.TemplateID != nil && cert.TemplateID != *filters.TemplateID {
			continue
		}
		copied := *cert
		certs = append(certs, &copied)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].ID < certs[j].ID })
	return certs, int64(len(certs)), nil
}

func (r *fakeCertRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Certification, error) {
	certs, _, err := r.List(ctx, tx, repositories.CertificationFilters{UserID: &userID})
	return certs, err
}

func (r *fakeCertRepo) HasActiveByTitle(ctx context.Context, tx *gorm.DB, userID, title string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cert := range r.certs {
		if cert.UserID == userID && cert.Title == title && cert.Status == models.CertActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCertRepo) ListRenewalDue(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*models.Certification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var certs []*models.Certification
	for _, cert := range r.certs {
		if cert.Status != models.CertActive || cert.RenewalNotified {
			continue
		}
		if cert.ExpiresAt == nil || cert.ExpiresAt.After(cutoff) {
			continue
		}
		copied := *cert
		certs = append(certs, &copied)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].ID < certs[j].ID })
	return certs, nil
}

func (r *fakeCertRepo) ExistsByCertificateID(ctx context.Context, tx *gorm.DB, certificateID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cert := range r.certs {
		if cert.CertificateID == certificateID {
			return true, nil
		}
	}
	return false, nil
}

// ===== reports =====

type fakeReportRepo fakeRepo

func (r *fakeReportRepo) GetPlatformOverview(ctx context.Context, tx *gorm.DB) (*repositories.PlatformOverview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	overview := &repositories.PlatformOverview{
		TotalUsers:   int64(len(r.users)),
		TotalModules: int64(len(r.modules)),
		TotalQuizzes: int64(len(r.quizzes)),
		TotalResults: int64(len(r.results)),
	}
	for _, cert := range r.certs {
		switch cert.Status {
		case models.CertActive:
			overview.ActiveCertificates++
		case models.CertRevoked:
			overview.RevokedCertificates++
		}
	}
	return overview, nil
}

func (r *fakeReportRepo) GetModuleCompletionStats(ctx context.Context, tx *gorm.DB) ([]*repositories.ModuleCompletionStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats []*repositories.ModuleCompletionStat
	for _, module := range r.modules {
		stat := &repositories.ModuleCompletionStat{
			ModuleID: module.ID,
			Title:    module.Title,
			Required: module.Required,
		}
		for _, progress := range r.progress {
			if progress.ModuleID == module.ID && progress.Completed() {
				stat.CompletedUsers++
			}
		}
		if len(r.users) > 0 {
			stat.CompletionRate = float64(stat.CompletedUsers) / float64(len(r.users)) * 100
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (r *fakeReportRepo) GetQuizPassStats(ctx context.Context, tx *gorm.DB) ([]*repositories.QuizPassStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats []*repositories.QuizPassStat
	for _, quiz := range r.quizzes {
		stat := &repositories.QuizPassStat{QuizID: quiz.ID, Title: quiz.Title}
		var sum float64
		for _, result := range r.results {
			if result.QuizID != quiz.ID {
				continue
			}
			stat.TotalAttempts++
			sum += result.Percentage
			if result.Passed {
				stat.PassedCount++
			}
		}
		if stat.TotalAttempts > 0 {
			stat.PassRate = float64(stat.PassedCount) / float64(stat.TotalAttempts) * 100
			stat.AverageScore = sum / float64(stat.TotalAttempts)
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (r *fakeReportRepo) GetUserComplianceStats(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*repositories.UserComplianceStat, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var requiredModules int64
	for _, module := range r.modules {
		if module.Required && module.Status == models.ModuleActive {
			requiredModules++
		}
	}
	var stats []*repositories.UserComplianceStat
	for _, user := range r.users {
		stat := &repositories.UserComplianceStat{
			UserID:          user.ID,
			FullName:        user.FullName,
			Email:           user.Email,
			RequiredModules: requiredModules,
		}
		for _, progress := range r.progress {
			if progress.UserID != user.ID || !progress.Completed() {
				continue
			}
			if module, ok := r.modules[progress.ModuleID]; ok && module.Required && module.Status == models.ModuleActive {
				stat.CompletedModules++
			}
		}
		if requiredModules > 0 {
			stat.ComplianceScore = float64(stat.CompletedModules) / float64(requiredModules) * 100
		} else {
			stat.ComplianceScore = 100
		}
		stats = append(stats, stat)
	}
	return stats, int64(len(stats)), nil
}

// ===== shared test helpers =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func addUser(repo *fakeRepo, id string, role models.UserRole) *models.User {
	user := &models.User{
		ID:       id,
		FullName: "Test " + id,
		Email:    id + "@example.com",
		Role:     role,
	}
	repo.users[id] = user
	return user
}

func newTestValidator() *validator.Validator {
	return validator.New()
}
