package store

import (
	"context"
	"testing"
	"time"

	"github.com/trustpass/trustpass/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{}) // in-memory SQLite
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedEmployee(t *testing.T, s *Store, mutate func(*model.Employee)) *model.Employee {
	t.Helper()
	e := &model.Employee{
		EmployeeID:     "MCS-2024-001",
		FullName:       "Jane Doe",
		Email:          "jane@example.com",
		DBSNumber:      "001234567890",
		Position:       "Cleaning Operative",
		StartDate:      time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
		EmploymentType: model.EmploymentPermanent,
		IsActive:       true,
	}
	if mutate != nil {
		mutate(e)
	}
	if err := s.CreateEmployee(context.Background(), e); err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	return e
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("re-running migrations: %v", err)
	}
}

func TestEmployeeCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := seedEmployee(t, s, nil)
	if e.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}

	got, err := s.GetEmployee(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEmployee: %v", err)
	}
	if got.EmployeeID != "MCS-2024-001" {
		t.Errorf("got employee_id %q, want %q", got.EmployeeID, "MCS-2024-001")
	}
	if got.EmploymentType != model.EmploymentPermanent {
		t.Errorf("got employment_type %q, want %q", got.EmploymentType, model.EmploymentPermanent)
	}
	if !got.IsActive || got.IsSuspended {
		t.Errorf("got is_active=%v is_suspended=%v, want true/false", got.IsActive, got.IsSuspended)
	}

	got2, err := s.GetEmployeeByBusinessID(ctx, "MCS-2024-001")
	if err != nil {
		t.Fatalf("GetEmployeeByBusinessID: %v", err)
	}
	if got2.ID != e.ID {
		t.Errorf("got ID %d, want %d", got2.ID, e.ID)
	}

	list, err := s.ListEmployees(ctx)
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d employees, want 1", len(list))
	}

	e.IsSuspended = true
	e.Position = "Site Supervisor"
	if err := s.UpdateEmployee(ctx, e); err != nil {
		t.Fatalf("UpdateEmployee: %v", err)
	}
	got3, _ := s.GetEmployee(ctx, e.ID)
	if !got3.IsSuspended {
		t.Error("suspension flag not persisted")
	}
	if got3.Position != "Site Supervisor" {
		t.Errorf("got position %q, want %q", got3.Position, "Site Supervisor")
	}

	if err := s.DeleteEmployee(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}
	if _, err := s.GetEmployee(ctx, e.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEmployeeNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetEmployee(ctx, 9999); err != ErrNotFound {
		t.Errorf("GetEmployee: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetEmployeeByBusinessID(ctx, "NOPE"); err != ErrNotFound {
		t.Errorf("GetEmployeeByBusinessID: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateEmployee(ctx, &model.Employee{ID: 9999, EmploymentType: model.EmploymentPermanent}); err != ErrNotFound {
		t.Errorf("UpdateEmployee: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteEmployee(ctx, 9999); err != ErrNotFound {
		t.Errorf("DeleteEmployee: expected ErrNotFound, got %v", err)
	}
}

func TestListExpiringDBS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	in10 := now.AddDate(0, 0, 10)
	in90 := now.AddDate(0, 0, 90)

	soon := seedEmployee(t, s, func(e *model.Employee) {
		e.EmployeeID = "EXP-SOON"
		e.DBSExpiryDate = &in10
	})
	seedEmployee(t, s, func(e *model.Employee) {
		e.EmployeeID = "EXP-FAR"
		e.DBSExpiryDate = &in90
	})
	seedEmployee(t, s, func(e *model.Employee) {
		e.EmployeeID = "NO-DATE"
	})
	seedEmployee(t, s, func(e *model.Employee) {
		e.EmployeeID = "INACTIVE"
		e.DBSExpiryDate = &in10
		e.IsActive = false
	})

	got, err := s.ListExpiringDBS(ctx, now.AddDate(0, 0, 60))
	if err != nil {
		t.Fatalf("ListExpiringDBS: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d employees, want 1", len(got))
	}
	if got[0].ID != soon.ID {
		t.Errorf("got employee %q, want %q", got[0].EmployeeID, soon.EmployeeID)
	}
}

func TestVerificationsAppendAndCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := seedEmployee(t, s, nil)

	for i := 0; i < 3; i++ {
		v := &model.Verification{EmployeeID: e.ID, VerifierIP: "192.168.1.10"}
		if err := s.CreateVerification(ctx, v); err != nil {
			t.Fatalf("CreateVerification: %v", err)
		}
		if v.ID == 0 {
			t.Fatal("expected non-zero verification ID")
		}
	}

	list, err := s.ListVerificationsByEmployee(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListVerificationsByEmployee: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("got %d verifications, want 3", len(list))
	}

	// Deleting the employee removes its verification log.
	if err := s.DeleteEmployee(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}
	list, err = s.ListVerificationsByEmployee(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListVerificationsByEmployee after delete: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d verifications after delete, want 0", len(list))
	}
}

func TestNotificationDedupWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	e := seedEmployee(t, s, nil)

	n := &model.Notification{
		EmployeeID: e.ID,
		Type:       model.NotificationDBSExpiry,
		SentAt:     now.AddDate(0, 0, -3),
		Details:    `{"expiry_date":"2025-08-01"}`,
	}
	if err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	// Inside the 7-day window.
	cutoff := now.AddDate(0, 0, -7)
	found, err := s.HasNotificationSince(ctx, e.ID, model.NotificationDBSExpiry, &cutoff)
	if err != nil {
		t.Fatalf("HasNotificationSince: %v", err)
	}
	if !found {
		t.Error("expected notification inside 7-day window")
	}

	// A cutoff equal to sent_at is outside the window: the match is strict.
	cutoff = n.SentAt
	found, err = s.HasNotificationSince(ctx, e.ID, model.NotificationDBSExpiry, &cutoff)
	if err != nil {
		t.Fatalf("HasNotificationSince: %v", err)
	}
	if found {
		t.Error("expected row sent exactly at cutoff not to count")
	}

	// Outside a 1-day window.
	cutoff = now.AddDate(0, 0, -1)
	found, err = s.HasNotificationSince(ctx, e.ID, model.NotificationDBSExpiry, &cutoff)
	if err != nil {
		t.Fatalf("HasNotificationSince: %v", err)
	}
	if found {
		t.Error("expected no notification inside 1-day window")
	}

	// Different type never matches.
	cutoff = now.AddDate(0, 0, -7)
	found, _ = s.HasNotificationSince(ctx, e.ID, model.NotificationDBSExpired, &cutoff)
	if found {
		t.Error("dbs_expired should not match a dbs_expiry row")
	}

	// Unbounded lookback matches regardless of age.
	found, _ = s.HasNotificationSince(ctx, e.ID, model.NotificationDBSExpiry, nil)
	if !found {
		t.Error("expected notification with unbounded lookback")
	}
}

func TestEmployeeStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := seedEmployee(t, s, func(e *model.Employee) { e.EmployeeID = "A" })
	seedEmployee(t, s, func(e *model.Employee) { e.EmployeeID = "B"; e.IsActive = false })
	seedEmployee(t, s, func(e *model.Employee) { e.EmployeeID = "C"; e.IsSuspended = true })

	// One verification today, one yesterday.
	if err := s.CreateVerification(ctx, &model.Verification{EmployeeID: a.ID, VerifiedAt: now}); err != nil {
		t.Fatalf("CreateVerification: %v", err)
	}
	if err := s.CreateVerification(ctx, &model.Verification{EmployeeID: a.ID, VerifiedAt: now.AddDate(0, 0, -1)}); err != nil {
		t.Fatalf("CreateVerification: %v", err)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	st, err := s.EmployeeStats(ctx, midnight)
	if err != nil {
		t.Fatalf("EmployeeStats: %v", err)
	}
	if st.TotalEmployees != 3 {
		t.Errorf("total: got %d, want 3", st.TotalEmployees)
	}
	if st.ActiveEmployees != 1 {
		t.Errorf("active: got %d, want 1", st.ActiveEmployees)
	}
	if st.InactiveEmployees != 1 {
		t.Errorf("inactive: got %d, want 1", st.InactiveEmployees)
	}
	if st.SuspendedEmployees != 1 {
		t.Errorf("suspended: got %d, want 1", st.SuspendedEmployees)
	}
	if st.TodayVerifications != 1 {
		t.Errorf("today verifications: got %d, want 1", st.TodayVerifications)
	}
}

func TestAdminAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	has, err := s.HasAnyAdmin(ctx)
	if err != nil {
		t.Fatalf("HasAnyAdmin: %v", err)
	}
	if has {
		t.Fatal("fresh store should have no admins")
	}

	a := &model.Admin{Email: "admin@example.com", PasswordHash: "$2a$10$fake", Name: "Admin", IsActive: true}
	if err := s.CreateAdmin(ctx, a); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("expected non-zero admin ID")
	}

	has, _ = s.HasAnyAdmin(ctx)
	if !has {
		t.Error("HasAnyAdmin should be true after create")
	}

	got, err := s.GetAdminByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if got.LastLoginAt != nil {
		t.Error("fresh admin should have nil last_login_at")
	}

	if err := s.UpdateAdminLastLogin(ctx, a.ID); err != nil {
		t.Fatalf("UpdateAdminLastLogin: %v", err)
	}
	got, _ = s.GetAdminByEmail(ctx, "admin@example.com")
	if got.LastLoginAt == nil {
		t.Error("last_login_at not stamped")
	}

	if _, err := s.GetAdminByEmail(ctx, "nobody@example.com"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "scanner.last_check_date"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unset key, got %v", err)
	}

	if err := s.SetSetting(ctx, "scanner.last_check_date", "2025-06-15"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	v, err := s.GetSetting(ctx, "scanner.last_check_date")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "2025-06-15" {
		t.Errorf("got %q, want %q", v, "2025-06-15")
	}

	// Upsert replaces.
	if err := s.SetSetting(ctx, "scanner.last_check_date", "2025-06-16"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	v, _ = s.GetSetting(ctx, "scanner.last_check_date")
	if v != "2025-06-16" {
		t.Errorf("got %q, want %q", v, "2025-06-16")
	}
}
