package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hitoshi/petpals/internal/model"
	"github.com/hitoshi/petpals/internal/repository"
)

// --- モック定義 ---

// mockCampaignRepo はCampaignRepositoryのモック実装。
type mockCampaignRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.DonationCampaign, error)
	updateBalanceFn func(ctx context.Context, id string, oldBalance, newBalance int64) (bool, error)
}

func (m *mockCampaignRepo) FindByID(ctx context.Context, id string) (*model.DonationCampaign, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCampaignRepo) ListPage(ctx context.Context, offset, limit int) ([]*model.DonationCampaign, int, error) {
	return nil, 0, nil
}

func (m *mockCampaignRepo) ListByOwner(ctx context.Context, ownerEmail string) ([]*model.DonationCampaign, error) {
	return nil, nil
}

func (m *mockCampaignRepo) ListExcluding(ctx context.Context, excludeID string) ([]*model.DonationCampaign, error) {
	return nil, nil
}

func (m *mockCampaignRepo) Create(ctx context.Context, c *model.DonationCampaign) error {
	return nil
}

func (m *mockCampaignRepo) Update(ctx context.Context, c *model.DonationCampaign) (int64, error) {
	return 0, nil
}

func (m *mockCampaignRepo) UpdatePause(ctx context.Context, id string, paused bool) (int64, error) {
	return 0, nil
}

func (m *mockCampaignRepo) UpdateBalance(ctx context.Context, id string, oldBalance, newBalance int64) (bool, error) {
	if m.updateBalanceFn != nil {
		return m.updateBalanceFn(ctx, id, oldBalance, newBalance)
	}
	return true, nil
}

func (m *mockCampaignRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	return 0, nil
}

var _ repository.CampaignRepository = (*mockCampaignRepo)(nil)

// mockDonationRepo はDonationRepositoryのモック実装。
type mockDonationRepo struct {
	createFn func(ctx context.Context, entry *model.DonationHistoryEntry) error

	mu      sync.Mutex
	entries []*model.DonationHistoryEntry
}

func (m *mockDonationRepo) Create(ctx context.Context, entry *model.DonationHistoryEntry) error {
	if m.createFn != nil {
		return m.createFn(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockDonationRepo) ListByOwnerEmail(ctx context.Context, ownerEmail string) ([]*model.DonationHistoryEntry, error) {
	return nil, nil
}

func (m *mockDonationRepo) ListByDonorEmail(ctx context.Context, donorEmail string) ([]*model.DonationHistoryEntry, error) {
	return nil, nil
}

func (m *mockDonationRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	return 0, nil
}

var _ repository.DonationRepository = (*mockDonationRepo)(nil)

// casCampaignStore はCAS付き残高を持つスレッドセーフなインメモリストア。
// 並行テストで実DBの条件付きUPDATEと同じ直列化特性を再現する。
type casCampaignStore struct {
	mockCampaignRepo

	mu       sync.Mutex
	campaign model.DonationCampaign
}

func newCASCampaignStore(c model.DonationCampaign) *casCampaignStore {
	return &casCampaignStore{campaign: c}
}

func (s *casCampaignStore) FindByID(ctx context.Context, id string) (*model.DonationCampaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.campaign
	return &c, nil
}

func (s *casCampaignStore) UpdateBalance(ctx context.Context, id string, oldBalance, newBalance int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.campaign.MaxAmount != oldBalance {
		return false, nil
	}
	s.campaign.MaxAmount = newBalance
	return true, nil
}

// activeCampaign は寄付受付中のテスト用キャンペーンを返す。
func activeCampaign(balance int64) *model.DonationCampaign {
	return &model.DonationCampaign{
		ID:            "campaign-1",
		OwnerEmail:    "owner@example.com",
		PetName:       "Pochi",
		MaxAmount:     balance,
		PauseStatus:   false,
		UserCanDonate: true,
	}
}

// --- ApplyDonation テスト ---

func TestApplyDonation_AddsAmountAndRecordsHistory(t *testing.T) {
	campaigns := newCASCampaignStore(*activeCampaign(100))
	donations := &mockDonationRepo{}
	u := NewUpdater(campaigns, donations, nil, nil)

	newBalance, err := u.ApplyDonation(context.Background(), "campaign-1", "donor@example.com", 50)
	if err != nil {
		t.Fatalf("ApplyDonation returned error: %v", err)
	}
	if newBalance != 150 {
		t.Errorf("newBalance = %d, want 150", newBalance)
	}

	if len(donations.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(donations.entries))
	}
	entry := donations.entries[0]
	if entry.DonorEmail != "donor@example.com" {
		t.Errorf("DonorEmail = %q, want %q", entry.DonorEmail, "donor@example.com")
	}
	if entry.OwnerEmail != "owner@example.com" {
		t.Errorf("OwnerEmail = %q, want %q", entry.OwnerEmail, "owner@example.com")
	}
	if entry.Amount != 50 {
		t.Errorf("Amount = %d, want 50", entry.Amount)
	}
	if entry.ID == "" {
		t.Error("history entry ID should be set")
	}
}

func TestApplyDonation_RejectsNonPositiveAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
	}{
		{"zero", 0},
		{"negative", -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaigns := newCASCampaignStore(*activeCampaign(100))
			donations := &mockDonationRepo{}
			u := NewUpdater(campaigns, donations, nil, nil)

			_, err := u.ApplyDonation(context.Background(), "campaign-1", "donor@example.com", tt.amount)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeInvalidAmount {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidAmount)
			}
			if len(donations.entries) != 0 {
				t.Error("no history should be written for rejected donation")
			}
		})
	}
}

func TestApplyDonation_RejectsPausedCampaign(t *testing.T) {
	paused := activeCampaign(100)
	paused.PauseStatus = true
	campaigns := newCASCampaignStore(*paused)
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)

	_, err := u.ApplyDonation(context.Background(), "campaign-1", "donor@example.com", 50)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDonationsPaused {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDonationsPaused)
	}

	// 残高は変化しない
	c, _ := campaigns.FindByID(context.Background(), "campaign-1")
	if c.MaxAmount != 100 {
		t.Errorf("balance = %d, want 100", c.MaxAmount)
	}
}

func TestApplyDonation_RejectsNonDonatableCampaign(t *testing.T) {
	closed := activeCampaign(100)
	closed.UserCanDonate = false
	campaigns := newCASCampaignStore(*closed)
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)

	_, err := u.ApplyDonation(context.Background(), "campaign-1", "donor@example.com", 50)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDonationsPaused {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDonationsPaused)
	}
}

func TestApplyDonation_CampaignNotFound(t *testing.T) {
	campaigns := &mockCampaignRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.DonationCampaign, error) {
			return nil, nil
		},
	}
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)

	_, err := u.ApplyDonation(context.Background(), "missing", "donor@example.com", 50)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeCampaignNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeCampaignNotFound)
	}
}

func TestApplyDonation_HistoryFailureKeepsBalance(t *testing.T) {
	campaigns := newCASCampaignStore(*activeCampaign(100))
	donations := &mockDonationRepo{
		createFn: func(ctx context.Context, entry *model.DonationHistoryEntry) error {
			return errors.New("history insert failed")
		},
	}
	metrics := &spyMetrics{}
	u := NewUpdater(campaigns, donations, metrics, nil)

	newBalance, err := u.ApplyDonation(context.Background(), "campaign-1", "donor@example.com", 50)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodePartialWrite {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodePartialWrite)
	}

	// 残高の加算はロールバックされない
	if newBalance != 150 {
		t.Errorf("newBalance = %d, want 150", newBalance)
	}
	c, _ := campaigns.FindByID(context.Background(), "campaign-1")
	if c.MaxAmount != 150 {
		t.Errorf("stored balance = %d, want 150 (not rolled back)", c.MaxAmount)
	}
	if metrics.partialWrites != 1 {
		t.Errorf("partialWrites = %d, want 1", metrics.partialWrites)
	}
}

func TestApplyDonation_RetriesOnCASConflict(t *testing.T) {
	attempts := 0
	campaigns := &mockCampaignRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.DonationCampaign, error) {
			return activeCampaign(100), nil
		},
		updateBalanceFn: func(ctx context.Context, id string, oldBalance, newBalance int64) (bool, error) {
			attempts++
			// 最初の2回は競合で空振り、3回目で成立する
			return attempts >= 3, nil
		},
	}
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)

	newBalance, err := u.ApplyDonation(context.Background(), "campaign-1", "donor@example.com", 50)
	if err != nil {
		t.Fatalf("ApplyDonation returned error: %v", err)
	}
	if newBalance != 150 {
		t.Errorf("newBalance = %d, want 150", newBalance)
	}
	if attempts != 3 {
		t.Errorf("UpdateBalance attempts = %d, want 3", attempts)
	}
}

func TestApplyDonation_ConflictAfterMaxAttempts(t *testing.T) {
	campaigns := &mockCampaignRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.DonationCampaign, error) {
			return activeCampaign(100), nil
		},
		updateBalanceFn: func(ctx context.Context, id string, oldBalance, newBalance int64) (bool, error) {
			return false, nil
		},
	}
	donations := &mockDonationRepo{}
	u := NewUpdater(campaigns, donations, nil, nil)

	_, err := u.ApplyDonation(context.Background(), "campaign-1", "donor@example.com", 50)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeConcurrentConflict {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeConcurrentConflict)
	}
	if len(donations.entries) != 0 {
		t.Error("no history should be written when balance commit fails")
	}
}

// --- ApplyRefund テスト ---

func TestApplyRefund_SubtractsAmount(t *testing.T) {
	campaigns := newCASCampaignStore(*activeCampaign(150))
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)

	newBalance, err := u.ApplyRefund(context.Background(), "campaign-1", 150)
	if err != nil {
		t.Fatalf("ApplyRefund returned error: %v", err)
	}
	// 残高ちょうどの返金は残高0になる
	if newBalance != 0 {
		t.Errorf("newBalance = %d, want 0", newBalance)
	}
}

func TestApplyRefund_RejectsOverBalance(t *testing.T) {
	campaigns := newCASCampaignStore(*activeCampaign(100))
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)

	_, err := u.ApplyRefund(context.Background(), "campaign-1", 101)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInsufficientBalance {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInsufficientBalance)
	}

	// 拒否された返金は残高を変更しない
	c, _ := campaigns.FindByID(context.Background(), "campaign-1")
	if c.MaxAmount != 100 {
		t.Errorf("balance = %d, want 100 (unchanged)", c.MaxAmount)
	}
}

func TestApplyRefund_RejectsNonPositiveAmount(t *testing.T) {
	campaigns := newCASCampaignStore(*activeCampaign(100))
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)

	_, err := u.ApplyRefund(context.Background(), "campaign-1", 0)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidAmount {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidAmount)
	}
}

func TestApplyRefund_DonateThenRefundSequence(t *testing.T) {
	campaigns := newCASCampaignStore(*activeCampaign(100))
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)
	ctx := context.Background()

	// 100に50寄付して150
	balance, err := u.ApplyDonation(ctx, "campaign-1", "donor@example.com", 50)
	if err != nil {
		t.Fatalf("ApplyDonation returned error: %v", err)
	}
	if balance != 150 {
		t.Errorf("balance after donation = %d, want 150", balance)
	}

	// 200の返金は拒否される
	if _, err := u.ApplyRefund(ctx, "campaign-1", 200); err == nil {
		t.Error("refund of 200 against balance 150 should fail")
	}

	// 150の返金で残高0
	balance, err = u.ApplyRefund(ctx, "campaign-1", 150)
	if err != nil {
		t.Fatalf("ApplyRefund returned error: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance after refund = %d, want 0", balance)
	}
}

// TestApplyRefund_ConcurrentRefundsSerialize は同時返金がCASで直列化され、
// 残高が負にならないことを検証する。残高と同額に分割したN件の同時返金は
// すべて成功し、最終残高はちょうど0になる。
func TestApplyRefund_ConcurrentRefundsSerialize(t *testing.T) {
	const workers = 10
	const each = int64(10)

	campaigns := newCASCampaignStore(*activeCampaign(workers * each))
	u := NewUpdater(campaigns, &mockDonationRepo{}, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// CAS競合でmaxAttemptsを超える場合があるため、競合エラーは再試行する
			for {
				_, err := u.ApplyRefund(context.Background(), "campaign-1", each)
				var apiErr *model.APIError
				if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeConcurrentConflict {
					continue
				}
				errs[i] = err
				return
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: unexpected error: %v", i, err)
		}
	}

	c, _ := campaigns.FindByID(context.Background(), "campaign-1")
	if c.MaxAmount != 0 {
		t.Errorf("final balance = %d, want exactly 0", c.MaxAmount)
	}
}

// --- メトリクス記録テスト ---

// spyMetrics はMetricsインターフェースの記録回数を数えるスパイ。
type spyMetrics struct {
	mu              sync.Mutex
	donations       int
	refunds         int
	refundRejected  int
	balanceConflict int
	partialWrites   int
}

func (s *spyMetrics) RecordDonation(amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations++
}

func (s *spyMetrics) RecordRefund(amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refunds++
}

func (s *spyMetrics) RecordRefundRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refundRejected++
}

func (s *spyMetrics) RecordBalanceConflict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balanceConflict++
}

func (s *spyMetrics) RecordPartialWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partialWrites++
}

func TestUpdater_RecordsMetrics(t *testing.T) {
	campaigns := newCASCampaignStore(*activeCampaign(100))
	metrics := &spyMetrics{}
	u := NewUpdater(campaigns, &mockDonationRepo{}, metrics, nil)
	ctx := context.Background()

	if _, err := u.ApplyDonation(ctx, "campaign-1", "donor@example.com", 50); err != nil {
		t.Fatalf("ApplyDonation returned error: %v", err)
	}
	if _, err := u.ApplyRefund(ctx, "campaign-1", 50); err != nil {
		t.Fatalf("ApplyRefund returned error: %v", err)
	}
	if _, err := u.ApplyRefund(ctx, "campaign-1", 1000); err == nil {
		t.Fatal("over-balance refund should fail")
	}

	if metrics.donations != 1 {
		t.Errorf("donations = %d, want 1", metrics.donations)
	}
	if metrics.refunds != 1 {
		t.Errorf("refunds = %d, want 1", metrics.refunds)
	}
	if metrics.refundRejected != 1 {
		t.Errorf("refundRejected = %d, want 1", metrics.refundRejected)
	}
}
