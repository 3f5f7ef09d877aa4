package session

import (
	"context"
	"testing"

	"roomscan/pkg/domain"
	"roomscan/pkg/kvstore"
)

func TestFreshSessionDefaults(t *testing.T) {
	s := New()
	if s.IsAuthenticated() {
		t.Fatalf("fresh session should be anonymous")
	}
	if s.Tier() != domain.TierFree {
		t.Fatalf("fresh tier = %q, want free", s.Tier())
	}
	if s.LifetimeScans() != 0 || s.SoftPromptShown() {
		t.Fatalf("fresh counters not zeroed: scans=%d prompt=%v", s.LifetimeScans(), s.SoftPromptShown())
	}
}

func TestLifetimeCounterIsMonotonicAndTierIndependent(t *testing.T) {
	s := New()
	s.SetTier(domain.TierPremium)
	s.RecordScanCompleted()
	s.RecordScanCompleted()
	s.RecordScanCompleted()
	if s.LifetimeScans() != 3 {
		t.Fatalf("lifetime scans = %d, want 3", s.LifetimeScans())
	}
}

func TestAuthenticateKeepsTier(t *testing.T) {
	s := New()
	s.SetTier(domain.TierPremium)
	s.Authenticate(domain.Account{ID: "acct-1", Email: "a@example.com"})
	if !s.IsAuthenticated() {
		t.Fatalf("authenticate did not take effect")
	}
	if s.Tier() != domain.TierPremium {
		t.Fatalf("authenticate altered tier: %q", s.Tier())
	}
	acct, ok := s.Account()
	if !ok || acct.ID != "acct-1" {
		t.Fatalf("account = %+v ok=%v", acct, ok)
	}
}

func TestSignOutResetsTierToFree(t *testing.T) {
	s := New()
	s.Authenticate(domain.Account{ID: "acct-1"})
	s.SetTier(domain.TierPremium)
	s.RecordScanCompleted()
	s.MarkSoftPromptShown()

	s.SignOut()

	if s.IsAuthenticated() {
		t.Fatalf("sign-out should drop identity")
	}
	if s.Tier() != domain.TierFree {
		t.Fatalf("sign-out should reset tier, got %q", s.Tier())
	}
	// Counters survive sign-out: they belong to the installation.
	if s.LifetimeScans() != 1 || !s.SoftPromptShown() {
		t.Fatalf("sign-out altered counters: scans=%d prompt=%v", s.LifetimeScans(), s.SoftPromptShown())
	}
}

func TestSoftPromptMarkIsOneWay(t *testing.T) {
	s := New()
	s.MarkSoftPromptShown()
	s.MarkSoftPromptShown()
	if !s.SoftPromptShown() {
		t.Fatalf("soft prompt mark lost")
	}
	s.SignOut()
	if !s.SoftPromptShown() {
		t.Fatalf("sign-out cleared soft prompt mark")
	}
}

func TestRestoreNormalizesCorruptState(t *testing.T) {
	s := Restore(State{Tier: "gold", LifetimeScans: -5, Account: &domain.Account{}})
	if s.Tier() != domain.TierFree {
		t.Fatalf("unknown tier should normalize to free, got %q", s.Tier())
	}
	if s.LifetimeScans() != 0 {
		t.Fatalf("negative scans should clamp to 0, got %d", s.LifetimeScans())
	}
	if s.IsAuthenticated() {
		t.Fatalf("account without id should be dropped")
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	kv := kvstore.NewMemoryKV()
	repo := NewRepository(kv, "")
	ctx := context.Background()

	s := New()
	s.Authenticate(domain.Account{ID: "acct-9", DisplayName: "Sam"})
	s.RecordScanCompleted()
	if err := repo.Save(ctx, s.Snapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}

	st, ok, err := repo.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	restored := Restore(st)
	if !restored.IsAuthenticated() || restored.LifetimeScans() != 1 {
		t.Fatalf("restored session lost state: %+v", restored.Snapshot())
	}

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, _ := repo.Load(ctx); ok {
		t.Fatalf("reset should remove persisted state")
	}
}
