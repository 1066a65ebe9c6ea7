package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/internal/pkg/ledger"
)

type fakeTierRepo struct{}

func (fakeTierRepo) Create(tier *models.Tier) error { return nil }
func (fakeTierRepo) GetByID(id uint) (*models.Tier, error) {
	return nil, gorm.ErrRecordNotFound
}
func (fakeTierRepo) GetByBroadcasterAndRank(broadcasterID, rank string) (*models.Tier, error) {
	return nil, gorm.ErrRecordNotFound
}
func (fakeTierRepo) ListByBroadcaster(broadcasterID string) ([]models.Tier, error) {
	return nil, nil
}
func (fakeTierRepo) Update(tier *models.Tier) error { return nil }

type fakeSubscriptionRepo struct {
	expireCalls int
	expireCount int64
}

func (r *fakeSubscriptionRepo) GetByID(id uint) (*models.Subscription, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeSubscriptionRepo) FindActive(viewerID, broadcasterID string) (*models.Subscription, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeSubscriptionRepo) ListByViewer(viewerID string) ([]models.Subscription, error) {
	return nil, nil
}
func (r *fakeSubscriptionRepo) Save(sub *models.Subscription) error { return nil }
func (r *fakeSubscriptionRepo) Activate(sub *models.Subscription, prior *models.Subscription) error {
	return nil
}
func (r *fakeSubscriptionRepo) Cancel(sub *models.Subscription) error { return nil }
func (r *fakeSubscriptionRepo) ExpireDue(now time.Time) (int64, error) {
	r.expireCalls++
	return r.expireCount, nil
}

func newTestManager() (*Manager, *fakeSubscriptionRepo) {
	subRepo := &fakeSubscriptionRepo{}
	return NewManager(ledger.NewService(subRepo, fakeTierRepo{})), subRepo
}

func TestRunSweepNow(t *testing.T) {
	mgr, subRepo := newTestManager()
	subRepo.expireCount = 3

	expired, err := mgr.RunSweepNow()
	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)
	assert.Equal(t, 1, subRepo.expireCalls)
}

func TestStartStop(t *testing.T) {
	t.Setenv("SUBSCRIPTION_SWEEP_INTERVAL_SECONDS", "3600")

	mgr, _ := newTestManager()

	assert.False(t, mgr.running)

	mgr.Start()
	mgr.mu.Lock()
	running := mgr.running
	mgr.mu.Unlock()
	assert.True(t, running)

	// Starting twice is a no-op.
	mgr.Start()

	mgr.Stop()
	mgr.mu.Lock()
	running = mgr.running
	mgr.mu.Unlock()
	assert.False(t, running)

	// Stopping twice is a no-op.
	mgr.Stop()
}

func TestRestart(t *testing.T) {
	t.Setenv("SUBSCRIPTION_SWEEP_INTERVAL_SECONDS", "3600")

	mgr, _ := newTestManager()

	mgr.Start()
	mgr.Stop()

	// The stop channel is recreated, so a second cycle works.
	mgr.Start()
	mgr.mu.Lock()
	running := mgr.running
	mgr.mu.Unlock()
	assert.True(t, running)
	mgr.Stop()
}
