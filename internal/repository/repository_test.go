package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"thinkfirst/internal/database"
	"thinkfirst/internal/models"
)

// setupTestDB creates a temp sqlite database with the full schema
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.InitializeSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestStreakRepositoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreakRepository(db)

	st, err := repo.GetState("student-1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if st != nil {
		t.Fatal("GetState() on empty table should return nil")
	}

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	st = &models.FreezeState{
		UserID:          "student-1",
		PersonalFreezes: 3,
		LastFreezeGrant: &now,
		LastActivity:    &now,
	}
	if err := repo.SaveState(st); err != nil {
		t.Fatalf("SaveState() insert error = %v", err)
	}
	if err := repo.AppendEvents("student-1", []models.FreezeEvent{
		{Type: models.FreezeGranted, Source: models.SourcePersonal, CreatedAt: now},
		{Type: models.FreezeConsumed, Source: models.SourcePersonal, CreatedAt: now.Add(time.Hour)},
	}); err != nil {
		t.Fatalf("AppendEvents() error = %v", err)
	}

	loaded, err := repo.GetState("student-1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("GetState() returned nil after save")
	}
	if loaded.PersonalFreezes != 3 {
		t.Errorf("PersonalFreezes = %d, want 3", loaded.PersonalFreezes)
	}
	if loaded.LastFreezeGrant == nil || !loaded.LastFreezeGrant.Equal(now) {
		t.Errorf("LastFreezeGrant = %v, want %v", loaded.LastFreezeGrant, now)
	}
	if len(loaded.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(loaded.History))
	}
	if loaded.History[0].Type != models.FreezeGranted || loaded.History[1].Type != models.FreezeConsumed {
		t.Errorf("history order wrong: %+v", loaded.History)
	}

	// Update path.
	loaded.PersonalFreezes = 2
	if err := repo.SaveState(loaded); err != nil {
		t.Fatalf("SaveState() update error = %v", err)
	}
	again, err := repo.GetState("student-1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if again.PersonalFreezes != 2 {
		t.Errorf("PersonalFreezes after update = %d, want 2", again.PersonalFreezes)
	}

	// Activity days deduplicate; the window counts only what falls in it.
	for _, day := range []time.Time{now, now, now.AddDate(0, 0, 2)} {
		if err := repo.MarkActiveDay("student-1", day); err != nil {
			t.Fatalf("MarkActiveDay() error = %v", err)
		}
	}
	days, err := repo.CountActiveDaysSince("student-1", now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CountActiveDaysSince() error = %v", err)
	}
	if days != 1 {
		t.Errorf("CountActiveDaysSince = %d, want 1", days)
	}

	used, err := repo.CountFreezesUsedSince("student-1", now)
	if err != nil {
		t.Fatalf("CountFreezesUsedSince() error = %v", err)
	}
	if used != 1 {
		t.Errorf("CountFreezesUsedSince = %d, want 1 (grants excluded)", used)
	}
}

func TestGuardianRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGuardianRepository(db)

	got, err := repo.GetSettings("parent-1")
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != nil {
		t.Fatal("GetSettings() on empty table should return nil")
	}

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	settings := &models.GuardianSettings{
		UserID:      "parent-1",
		PINHash:     "hash-value",
		ReportEmail: "parent@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateSettings(settings); err != nil {
		t.Fatalf("CreateSettings() error = %v", err)
	}

	loaded, err := repo.GetSettings("parent-1")
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if loaded == nil || loaded.PINHash != "hash-value" || loaded.ReportEmail != "parent@example.com" {
		t.Fatalf("GetSettings() = %+v, want stored settings", loaded)
	}

	loaded.ForceMasteryMode = true
	loaded.UpdatedAt = now.Add(time.Hour)
	if err := repo.UpdateSettings(loaded); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	updated, _ := repo.GetSettings("parent-1")
	if !updated.ForceMasteryMode {
		t.Error("ForceMasteryMode not persisted")
	}
	if updated.PINHash != "hash-value" {
		t.Error("UpdateSettings must not touch the pin hash")
	}

	// Pin security: missing row is a clean zero state.
	sec, err := repo.GetPinSecurity("parent-1")
	if err != nil {
		t.Fatalf("GetPinSecurity() error = %v", err)
	}
	if sec.AttemptCount != 0 || sec.LockoutUntil != nil {
		t.Errorf("zero state = %+v", sec)
	}

	until := now.Add(5 * time.Minute)
	sec.AttemptCount = 3
	sec.LockoutUntil = &until
	if err := repo.SavePinSecurity(sec); err != nil {
		t.Fatalf("SavePinSecurity() error = %v", err)
	}
	sec2, _ := repo.GetPinSecurity("parent-1")
	if sec2.AttemptCount != 3 || sec2.LockoutUntil == nil || !sec2.LockoutUntil.Equal(until) {
		t.Errorf("SavePinSecurity round trip = %+v", sec2)
	}

	if err := repo.DeleteSettings("parent-1"); err != nil {
		t.Fatalf("DeleteSettings() error = %v", err)
	}
	gone, _ := repo.GetSettings("parent-1")
	if gone != nil {
		t.Error("settings survived DeleteSettings")
	}
	cleared, _ := repo.GetPinSecurity("parent-1")
	if cleared.AttemptCount != 0 {
		t.Error("pin security survived DeleteSettings")
	}
}

func TestFamilyRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFamilyRepository(db)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	link := &models.FamilyLink{
		Code:           "FAM-ABC",
		ParentUserID:   "parent-1",
		SubscriptionID: "sub-1",
		MaxAccounts:    2,
		PoolFreezes:    5,
		CreatedAt:      now,
	}
	if err := repo.Replace(link); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if link.ID == 0 {
		t.Fatal("Replace() did not set the link id")
	}

	loaded, err := repo.GetByCode("FAM-ABC")
	if err != nil {
		t.Fatalf("GetByCode() error = %v", err)
	}
	if loaded == nil || loaded.SubscriptionID != "sub-1" || loaded.PoolFreezes != 5 {
		t.Fatalf("GetByCode() = %+v", loaded)
	}

	unknown, err := repo.GetByCode("FAM-ZZZ")
	if err != nil {
		t.Fatalf("GetByCode(unknown) error = %v", err)
	}
	if unknown != nil {
		t.Error("unknown code should return nil")
	}

	if err := repo.LinkStudent(loaded, "student-1", now); err != nil {
		t.Fatalf("LinkStudent() error = %v", err)
	}
	if err := repo.LinkStudent(loaded, "student-2", now); err != nil {
		t.Fatalf("LinkStudent() error = %v", err)
	}

	// Transactional capacity re-check refuses the third student.
	if err := repo.LinkStudent(loaded, "student-3", now); !errors.Is(err, ErrCapacityReached) {
		t.Errorf("LinkStudent over capacity error = %v, want ErrCapacityReached", err)
	}

	full, _ := repo.GetByCode("FAM-ABC")
	if len(full.LinkedAccounts) != 2 {
		t.Fatalf("LinkedAccounts = %v, want 2 entries", full.LinkedAccounts)
	}

	sl, err := repo.GetStudentLink("student-1")
	if err != nil {
		t.Fatalf("GetStudentLink() error = %v", err)
	}
	if sl == nil || sl.Code != "FAM-ABC" {
		t.Errorf("GetStudentLink() = %+v, want FAM-ABC", sl)
	}

	if err := repo.UnlinkStudent("student-1"); err != nil {
		t.Fatalf("UnlinkStudent() error = %v", err)
	}
	// Idempotent: a second unlink is not an error.
	if err := repo.UnlinkStudent("student-1"); err != nil {
		t.Fatalf("second UnlinkStudent() error = %v", err)
	}
	afterUnlink, _ := repo.GetByCode("FAM-ABC")
	if len(afterUnlink.LinkedAccounts) != 1 {
		t.Errorf("LinkedAccounts after unlink = %v", afterUnlink.LinkedAccounts)
	}
	if gone, _ := repo.GetStudentLink("student-1"); gone != nil {
		t.Error("student link survived unlink")
	}

	// Replace discards the old code for the subscription but keeps
	// the remaining member attached under the new one.
	next := &models.FamilyLink{
		Code:           "FAM-XYZ",
		ParentUserID:   "parent-1",
		SubscriptionID: "sub-1",
		MaxAccounts:    5,
		CreatedAt:      now,
	}
	if err := repo.Replace(next); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if old, _ := repo.GetByCode("FAM-ABC"); old != nil {
		t.Error("old code still active after Replace")
	}
	if len(next.LinkedAccounts) != 1 || next.LinkedAccounts[0] != "student-2" {
		t.Errorf("LinkedAccounts after rotation = %v, want [student-2]", next.LinkedAccounts)
	}
	if sl2, _ := repo.GetStudentLink("student-2"); sl2 == nil || sl2.Code != "FAM-XYZ" {
		t.Errorf("student link after rotation = %+v, want FAM-XYZ", sl2)
	}

	if err := repo.SetPoolFreezes(next.ID, 4); err != nil {
		t.Fatalf("SetPoolFreezes() error = %v", err)
	}
	refreshed, _ := repo.GetBySubscription("sub-1")
	if refreshed.PoolFreezes != 4 {
		t.Errorf("PoolFreezes = %d, want 4", refreshed.PoolFreezes)
	}
}

func TestSubscriptionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	missing, err := repo.GetByUserID("student-1")
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if missing != nil {
		t.Fatal("missing subscription should be nil")
	}

	sub := &models.Subscription{
		ID:             "sub-1",
		UserID:         "student-1",
		Plan:           models.PlanFamily,
		IsFamilyMember: true,
		Status:         "active",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.Upsert(sub); err != nil {
		t.Fatalf("Upsert() insert error = %v", err)
	}

	loaded, _ := repo.GetByUserID("student-1")
	if loaded == nil || loaded.Plan != models.PlanFamily || !loaded.IsFamilyMember {
		t.Fatalf("GetByUserID() = %+v", loaded)
	}

	loaded.Plan = models.PlanSolo
	loaded.UpdatedAt = now.Add(time.Hour)
	if err := repo.Upsert(loaded); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	again, _ := repo.GetByUserID("student-1")
	if again.Plan != models.PlanSolo {
		t.Errorf("Plan after update = %s, want solo", again.Plan)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 || all[0].UserID != "student-1" || all[0].Plan != models.PlanSolo {
		t.Errorf("List() = %+v, want the one updated subscription", all)
	}
}
