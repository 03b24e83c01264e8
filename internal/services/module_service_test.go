package services

import (
	"context"
	"errors"
	"testing"

	"github.com/securepath-labs/compliance-service/internal/events"
	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

func newModuleForTest(repo *fakeRepo, publisher events.EventPublisher) ModuleService {
	identity := newIdentityForTest(repo, nil)
	return NewModuleService(repo, nil, testLogger(), newTestValidator(), identity, nil, publisher)
}

func addModule(repo *fakeRepo, status models.ModuleStatus, required bool) *models.TrainingModule {
	module := &models.TrainingModule{
		ID:         repo.id(),
		Title:      "Password Hygiene",
		Category:   models.CategoryPasswords,
		Difficulty: models.DifficultyBeginner,
		Status:     status,
		Required:   required,
	}
	repo.modules[module.ID] = module
	return module
}

func TestModuleCreate(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "teacher-1", models.RoleTeacher)
	addUser(repo, "emp-1", models.RoleEmployee)
	svc := newModuleForTest(repo, nil)
	ctx := context.Background()

	req := &CreateModuleRequest{
		Title:      "Spotting Phishing Mail",
		Category:   models.CategoryPhishing,
		Difficulty: models.DifficultyBeginner,
		Required:   true,
	}

	module, err := svc.Create(ctx, "teacher-1", req)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if module.Status != models.ModuleDraft {
		t.Errorf("status = %q, want draft default", module.Status)
	}
	if module.CreatedBy != "teacher-1" {
		t.Errorf("created_by = %q", module.CreatedBy)
	}

	if _, err := svc.Create(ctx, "emp-1", req); !IsPermissionError(err) {
		t.Errorf("employee create error = %v, want permission error", err)
	}

	// Linking a nonexistent quiz is rejected.
	missing := uint(9999)
	req.QuizID = &missing
	if _, err := svc.Create(ctx, "teacher-1", req); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("bad quiz link error = %v", err)
	}
}

func TestModuleListVisibility(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "teacher-1", models.RoleTeacher)
	addUser(repo, "emp-1", models.RoleEmployee)
	addModule(repo, models.ModuleActive, true)
	addModule(repo, models.ModuleDraft, false)
	svc := newModuleForTest(repo, nil)
	ctx := context.Background()

	// Editors see drafts.
	resp, err := svc.List(ctx, "teacher-1", repositories.ModuleFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("editor total = %d, want 2", resp.Total)
	}

	// Everyone else is forced onto active only.
	resp, err = svc.List(ctx, "emp-1", repositories.ModuleFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("learner total = %d, want 1", resp.Total)
	}
	if resp.Modules[0].Status != models.ModuleActive {
		t.Errorf("learner saw %q module", resp.Modules[0].Status)
	}
}

func TestModuleListMergesProgress(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "emp-1", models.RoleEmployee)
	module := addModule(repo, models.ModuleActive, true)
	completeModule(repo, "emp-1", module.ID)
	svc := newModuleForTest(repo, nil)

	resp, err := svc.List(context.Background(), "emp-1", repositories.ModuleFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Modules[0].Progress == nil || !resp.Modules[0].Progress.Completed() {
		t.Errorf("progress not merged: %+v", resp.Modules[0])
	}
}

func TestMarkCompleted(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "hr-1", models.RoleHR)
	addUser(repo, "emp-1", models.RoleEmployee)
	module := addModule(repo, models.ModuleActive, true)
	publisher := events.NewMockEventPublisher()
	svc := newModuleForTest(repo, publisher)
	ctx := context.Background()

	progress, err := svc.MarkCompleted(ctx, "hr-1", module.ID, &ManualCompletionRequest{UserID: "emp-1", Note: "instructor led"})
	if err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if !progress.Completed() || progress.CompletionMethod != models.CompletionManual {
		t.Errorf("progress = %+v", progress)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.TypeModuleCompleted {
		t.Errorf("published = %+v", published)
	}

	// Guards: unknown user, unknown module, non-privileged actor.
	if _, err := svc.MarkCompleted(ctx, "hr-1", module.ID, &ManualCompletionRequest{UserID: "ghost"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v", err)
	}
	if _, err := svc.MarkCompleted(ctx, "hr-1", 9999, &ManualCompletionRequest{UserID: "emp-1"}); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("unknown module error = %v", err)
	}
	if _, err := svc.MarkCompleted(ctx, "emp-1", module.ID, &ManualCompletionRequest{UserID: "emp-1"}); !IsPermissionError(err) {
		t.Errorf("employee mark error = %v, want permission error", err)
	}
}

func TestModuleUpdateAndDeleteGates(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "teacher-1", models.RoleTeacher)
	addUser(repo, "mgr-1", models.RoleManager)
	module := addModule(repo, models.ModuleDraft, false)
	svc := newModuleForTest(repo, nil)
	ctx := context.Background()

	newTitle := "Updated Title"
	active := models.ModuleActive
	updated, err := svc.Update(ctx, "teacher-1", module.ID, &UpdateModuleRequest{Title: &newTitle, Status: &active})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != newTitle || updated.Status != models.ModuleActive {
		t.Errorf("updated = %+v", updated)
	}

	// Teachers edit content but cannot delete it.
	if err := svc.Delete(ctx, "teacher-1", module.ID); !IsPermissionError(err) {
		t.Errorf("teacher delete error = %v, want permission error", err)
	}
	if err := svc.Delete(ctx, "mgr-1", module.ID); err != nil {
		t.Errorf("manager delete error = %v", err)
	}
	if err := svc.Delete(ctx, "mgr-1", module.ID); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("double delete error = %v", err)
	}
}

func TestGetUserProgressAccess(t *testing.T) {
	repo := newFakeRepo()
	addUser(repo, "emp-1", models.RoleEmployee)
	addUser(repo, "emp-2", models.RoleEmployee)
	addUser(repo, "sec-1", models.RoleSecurityOfficer)
	module := addModule(repo, models.ModuleActive, true)
	completeModule(repo, "emp-1", module.ID)
	svc := newModuleForTest(repo, nil)
	ctx := context.Background()

	own, err := svc.GetUserProgress(ctx, "emp-1", "emp-1")
	if err != nil || len(own) != 1 {
		t.Errorf("own progress = %v, %v", own, err)
	}
	if _, err := svc.GetUserProgress(ctx, "sec-1", "emp-1"); err != nil {
		t.Errorf("security officer read error = %v", err)
	}
	if _, err := svc.GetUserProgress(ctx, "emp-2", "emp-1"); !IsPermissionError(err) {
		t.Errorf("peer read error = %v, want permission error", err)
	}
}
