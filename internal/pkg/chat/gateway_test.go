package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/internal/pkg/entitlements"
	"github.com/lumencast/lumencast/internal/pkg/events"
	"github.com/lumencast/lumencast/internal/pkg/faults"
)

type fakeSessionRepo struct {
	sessions map[uint]*models.StreamSession
}

func (r *fakeSessionRepo) Create(session *models.StreamSession) error { return nil }

func (r *fakeSessionRepo) GetByID(id uint) (*models.StreamSession, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) GetByPublicID(publicID string) (*models.StreamSession, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindLiveByBroadcaster(broadcasterID string) (*models.StreamSession, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) ListLive(category string) ([]models.StreamSession, error) { return nil, nil }

func (r *fakeSessionRepo) Save(session *models.StreamSession) error { return nil }

func (r *fakeSessionRepo) MarkEnded(session *models.StreamSession, endedAt time.Time) error {
	return nil
}

func (r *fakeSessionRepo) RaisePeakViewers(id uint, count int64) error { return nil }

type fakeChatRepo struct {
	messages []*models.ChatMessage
	nextID   uint
}

func (r *fakeChatRepo) Create(message *models.ChatMessage) error {
	r.nextID++
	message.ID = r.nextID
	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *fakeChatRepo) GetByID(id uint) (*models.ChatMessage, error) {
	for _, m := range r.messages {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeChatRepo) ListBySession(sessionID uint, limit int) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, *m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeSubscriptionRepo struct {
	subs []*models.Subscription
}

func (r *fakeSubscriptionRepo) GetByID(id uint) (*models.Subscription, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSubscriptionRepo) FindActive(viewerID, broadcasterID string) (*models.Subscription, error) {
	for _, sub := range r.subs {
		if sub.ViewerID == viewerID && sub.BroadcasterID == broadcasterID && sub.Status == models.SubscriptionStatusActive {
			copied := *sub
			return &copied, nil
		}
	}
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

func (r *fakeSubscriptionRepo) ExpireDue(now time.Time) (int64, error) { return 0, nil }

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) {
	p.events = append(p.events, event)
}

func newTestGateway(subs *fakeSubscriptionRepo, sessions ...*models.StreamSession) (*Gateway, *fakeChatRepo, *recordingPublisher) {
	sessionRepo := &fakeSessionRepo{sessions: make(map[uint]*models.StreamSession)}
	for _, s := range sessions {
		sessionRepo.sessions[s.ID] = s
	}
	chatRepo := &fakeChatRepo{}
	pub := &recordingPublisher{}
	resolver := entitlements.NewResolver(subs)
	return NewGateway(sessionRepo, chatRepo, resolver, pub), chatRepo, pub
}

func liveSession(id uint, broadcasterID string) *models.StreamSession {
	return &models.StreamSession{ID: id, BroadcasterID: broadcasterID, State: models.SessionStateLive}
}

func subscribedViewer(viewerID, broadcasterID, rank string) *fakeSubscriptionRepo {
	now := time.Now()
	return &fakeSubscriptionRepo{subs: []*models.Subscription{{
		ViewerID:      viewerID,
		BroadcasterID: broadcasterID,
		Tier:          models.Tier{Rank: rank},
		Status:        models.SubscriptionStatusActive,
		StartsAt:      now.Add(-time.Hour),
		EndsAt:        now.Add(24 * time.Hour),
	}}}
}

func TestSendStampsBadge(t *testing.T) {
	gateway, chats, pub := newTestGateway(subscribedViewer("viewer-1", "caster-1", "gold"), liveSession(1, "caster-1"))

	message, err := gateway.Send(context.Background(), 1, "viewer-1", "hello chat")
	require.NoError(t, err)
	require.NotNil(t, message.TierBadge)
	assert.Equal(t, "gold", *message.TierBadge)
	assert.Equal(t, "hello chat", message.Body)
	require.Len(t, chats.messages, 1)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeChatMessage, pub.events[0].Type)
	require.NotNil(t, pub.events[0].Badge)
	assert.Equal(t, "gold", *pub.events[0].Badge)
}

func TestSendWithoutSubscription(t *testing.T) {
	gateway, _, _ := newTestGateway(&fakeSubscriptionRepo{}, liveSession(1, "caster-1"))

	message, err := gateway.Send(context.Background(), 1, "viewer-1", "hello")
	require.NoError(t, err)
	assert.Nil(t, message.TierBadge)
}

func TestSendBadgeSurvivesCancellation(t *testing.T) {
	subs := subscribedViewer("viewer-1", "caster-1", "gold")
	gateway, _, _ := newTestGateway(subs, liveSession(1, "caster-1"))

	_, err := gateway.Send(context.Background(), 1, "viewer-1", "while subscribed")
	require.NoError(t, err)

	// The subscription lapses; old messages keep their badge, new ones get none.
	subs.subs[0].Status = models.SubscriptionStatusCancelled
	_, err = gateway.Send(context.Background(), 1, "viewer-1", "after cancel")
	require.NoError(t, err)

	history, err := gateway.History(1, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[0].TierBadge)
	assert.Equal(t, "gold", *history[0].TierBadge)
	assert.Nil(t, history[1].TierBadge)
}

func TestSendValidation(t *testing.T) {
	gateway, _, _ := newTestGateway(&fakeSubscriptionRepo{}, liveSession(1, "caster-1"))

	_, err := gateway.Send(context.Background(), 1, "viewer-1", "   ")
	assert.ErrorIs(t, err, faults.ErrEmptyMessage)

	_, err = gateway.Send(context.Background(), 1, "viewer-1", strings.Repeat("a", maxMessageLength+1))
	require.Error(t, err)
	assert.Equal(t, faults.KindValidation, faults.KindOf(err))
	assert.Equal(t, "message_too_long", faults.CodeOf(err))
}

func TestSendLengthCountsRunesNotBytes(t *testing.T) {
	gateway, _, _ := newTestGateway(&fakeSubscriptionRepo{}, liveSession(1, "caster-1"))

	// A full-length CJK message is ~3 bytes per character; it must still fit.
	body := strings.Repeat("配", maxMessageLength)
	message, err := gateway.Send(context.Background(), 1, "viewer-1", body)
	require.NoError(t, err)
	assert.Equal(t, body, message.Body)

	_, err = gateway.Send(context.Background(), 1, "viewer-1", strings.Repeat("配", maxMessageLength+1))
	require.Error(t, err)
	assert.Equal(t, "message_too_long", faults.CodeOf(err))
}

func TestSendSubscriberLengthPrivilege(t *testing.T) {
	gateway, _, _ := newTestGateway(subscribedViewer("viewer-1", "caster-1", "gold"), liveSession(1, "caster-1"))

	// Over the base limit but within the subscriber limit.
	body := strings.Repeat("a", maxMessageLength+50)
	message, err := gateway.Send(context.Background(), 1, "viewer-1", body)
	require.NoError(t, err)
	assert.Equal(t, body, message.Body)

	_, err = gateway.Send(context.Background(), 1, "viewer-1", strings.Repeat("a", maxMessageLengthSubscriber+1))
	require.Error(t, err)
	assert.Equal(t, "message_too_long", faults.CodeOf(err))
}

func TestSendRequiresLiveSession(t *testing.T) {
	gateway, _, _ := newTestGateway(&fakeSubscriptionRepo{},
		&models.StreamSession{ID: 1, State: models.SessionStateEnded},
	)

	_, err := gateway.Send(context.Background(), 1, "viewer-1", "hello")
	assert.ErrorIs(t, err, faults.ErrSessionNotLive)

	_, err = gateway.Send(context.Background(), 99, "viewer-1", "hello")
	assert.ErrorIs(t, err, faults.ErrSessionNotFound)
}

func TestHistoryAfterSessionEnd(t *testing.T) {
	session := liveSession(1, "caster-1")
	gateway, _, _ := newTestGateway(&fakeSubscriptionRepo{}, session)

	_, err := gateway.Send(context.Background(), 1, "viewer-1", "first")
	require.NoError(t, err)
	_, err = gateway.Send(context.Background(), 1, "viewer-2", "second")
	require.NoError(t, err)

	session.State = models.SessionStateEnded

	history, err := gateway.History(1, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Body)
	assert.Equal(t, "second", history[1].Body)
}
