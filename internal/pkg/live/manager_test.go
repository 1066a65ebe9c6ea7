package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/internal/pkg/events"
	"github.com/lumencast/lumencast/internal/pkg/faults"
	"github.com/lumencast/lumencast/internal/pkg/mediatransport"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uint]*models.StreamSession
	nextID   uint
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uint]*models.StreamSession), nextID: 1}
}

func (r *fakeSessionRepo) Create(session *models.StreamSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = r.nextID
	r.nextID++
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) GetByID(id uint) (*models.StreamSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) GetByPublicID(publicID string) (*models.StreamSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.PublicID == publicID {
			copied := *session
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindLiveByBroadcaster(broadcasterID string) (*models.StreamSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.BroadcasterID == broadcasterID && session.State == models.SessionStateLive {
			copied := *session
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) ListLive(category string) ([]models.StreamSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StreamSession
	for _, session := range r.sessions {
		if session.State != models.SessionStateLive {
			continue
		}
		if category != "" && session.Category != category {
			continue
		}
		out = append(out, *session)
	}
	return out, nil
}

func (r *fakeSessionRepo) Save(session *models.StreamSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) MarkEnded(session *models.StreamSession, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.State = models.SessionStateEnded
	stored.EndedAt = &endedAt
	session.State = models.SessionStateEnded
	session.EndedAt = &endedAt
	return nil
}

func (r *fakeSessionRepo) RaisePeakViewers(id uint, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok && count > session.PeakViewers {
		session.PeakViewers = count
	}
	return nil
}

type fakeRoomProvider struct {
	mu        sync.Mutex
	createErr error
	created   int
	destroyed []string
}

func (p *fakeRoomProvider) CreateRoom(ctx context.Context, meta mediatransport.SessionMeta) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return "", p.createErr
	}
	p.created++
	return "room-" + meta.SessionPublicID, nil
}

func (p *fakeRoomProvider) DestroyRoom(ctx context.Context, roomToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = append(p.destroyed, roomToken)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) byType(t events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestManager() (*Manager, *fakeSessionRepo, *fakeRoomProvider, *recordingPublisher) {
	repo := newFakeSessionRepo()
	rooms := &fakeRoomProvider{}
	pub := &recordingPublisher{}
	return NewManager(repo, rooms, pub, nil), repo, rooms, pub
}

func TestStartSession(t *testing.T) {
	mgr, _, rooms, pub := newTestManager()

	session, err := mgr.Start(context.Background(), "caster-1", "First stream", "music")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateLive, session.State)
	assert.NotEmpty(t, session.PublicID)
	assert.NotEmpty(t, session.ShareLink)
	assert.Equal(t, "room-"+session.PublicID, session.RoomToken)
	assert.NotNil(t, session.StartedAt)
	assert.Equal(t, 1, rooms.created)
	assert.Len(t, pub.byType(events.TypeSessionStarted), 1)
}

func TestStartSessionRequiresTitle(t *testing.T) {
	mgr, _, _, _ := newTestManager()

	_, err := mgr.Start(context.Background(), "caster-1", "   ", "")
	require.Error(t, err)
	assert.Equal(t, faults.KindValidation, faults.KindOf(err))
}

func TestStartSessionWhileLive(t *testing.T) {
	mgr, _, _, _ := newTestManager()

	_, err := mgr.Start(context.Background(), "caster-1", "First", "")
	require.NoError(t, err)

	_, err = mgr.Start(context.Background(), "caster-1", "Second", "")
	assert.ErrorIs(t, err, faults.ErrAlreadyLive)

	// A different broadcaster is unaffected.
	_, err = mgr.Start(context.Background(), "caster-2", "Other", "")
	assert.NoError(t, err)
}

func TestStartSessionConcurrent(t *testing.T) {
	mgr, repo, _, _ := newTestManager()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mgr.Start(context.Background(), "caster-1", "Race", "")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, faults.ErrAlreadyLive)
		}
	}
	assert.Equal(t, 1, winners)

	live, err := repo.ListLive("")
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestStartSessionTransportFailure(t *testing.T) {
	mgr, repo, rooms, pub := newTestManager()
	rooms.createErr = faults.ErrTransportUnavailable

	_, err := mgr.Start(context.Background(), "caster-1", "Doomed", "")
	assert.ErrorIs(t, err, faults.ErrTransportUnavailable)

	// The attempt left an idle row, never a live one.
	_, err = repo.FindLiveByBroadcaster("caster-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, pub.byType(events.TypeSessionStarted))

	// The broadcaster can retry once the transport recovers.
	rooms.createErr = nil
	session, err := mgr.Start(context.Background(), "caster-1", "Recovered", "")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateLive, session.State)
}

func TestStartSessionTransportTimeout(t *testing.T) {
	mgr, _, rooms, _ := newTestManager()
	rooms.createErr = context.DeadlineExceeded

	_, err := mgr.Start(context.Background(), "caster-1", "Slow", "")
	assert.ErrorIs(t, err, faults.ErrTransportUnavailable)
}

func TestEndSession(t *testing.T) {
	mgr, repo, rooms, pub := newTestManager()

	session, err := mgr.Start(context.Background(), "caster-1", "Stream", "")
	require.NoError(t, err)

	require.NoError(t, mgr.End(context.Background(), session.ID))

	stored, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateEnded, stored.State)
	assert.NotNil(t, stored.EndedAt)
	assert.Equal(t, []string{session.RoomToken}, rooms.destroyed)
	assert.Len(t, pub.byType(events.TypeSessionEnded), 1)

	// Ending twice fails, the session is no longer live.
	assert.ErrorIs(t, mgr.End(context.Background(), session.ID), faults.ErrNotLive)

	// The broadcaster can go live again.
	_, err = mgr.Start(context.Background(), "caster-1", "Round two", "")
	assert.NoError(t, err)
}

func TestEndUnknownSession(t *testing.T) {
	mgr, _, _, _ := newTestManager()
	assert.ErrorIs(t, mgr.End(context.Background(), 42), faults.ErrSessionNotFound)
}

func TestForceEndSession(t *testing.T) {
	mgr, repo, _, _ := newTestManager()

	session, err := mgr.Start(context.Background(), "caster-1", "Stream", "")
	require.NoError(t, err)

	require.NoError(t, mgr.ForceEnd(context.Background(), session.ID))

	stored, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateEnded, stored.State)
}

func TestActiveSession(t *testing.T) {
	mgr, _, _, _ := newTestManager()

	session, err := mgr.ActiveSession("caster-1")
	require.NoError(t, err)
	assert.Nil(t, session)

	started, err := mgr.Start(context.Background(), "caster-1", "Stream", "")
	require.NoError(t, err)

	session, err = mgr.ActiveSession("caster-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, started.ID, session.ID)
}

func TestLiveSessionsCategoryFilter(t *testing.T) {
	mgr, _, _, _ := newTestManager()

	_, err := mgr.Start(context.Background(), "caster-1", "Jam", "music")
	require.NoError(t, err)
	_, err = mgr.Start(context.Background(), "caster-2", "Run", "speedrun")
	require.NoError(t, err)

	all, err := mgr.LiveSessions("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	music, err := mgr.LiveSessions("music")
	require.NoError(t, err)
	require.Len(t, music, 1)
	assert.Equal(t, "caster-1", music[0].BroadcasterID)
}

type failingArchiver struct{ calls int }

func (a *failingArchiver) Archive(ctx context.Context, session *models.StreamSession) error {
	a.calls++
	return errors.New("bucket offline")
}

func TestEndSessionArchiverFailureIsBestEffort(t *testing.T) {
	repo := newFakeSessionRepo()
	archiver := &failingArchiver{}
	mgr := NewManager(repo, &fakeRoomProvider{}, &recordingPublisher{}, archiver)

	session, err := mgr.Start(context.Background(), "caster-1", "Stream", "")
	require.NoError(t, err)

	// Archive failure must not block the transition.
	require.NoError(t, mgr.End(context.Background(), session.ID))
	assert.Equal(t, 1, archiver.calls)

	stored, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateEnded, stored.State)
}
