package live

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/app/repository"
	"github.com/lumencast/lumencast/internal/pkg/events"
	"github.com/lumencast/lumencast/internal/pkg/faults"
	"github.com/lumencast/lumencast/internal/pkg/mediatransport"
	"github.com/lumencast/lumencast/internal/pkg/shortener"
)

const (
	shareLinkLength    = 10
	defaultRoomTimeout = 10 * time.Second
)

// TranscriptArchiver stores an ended session's chat log somewhere durable.
// Optional; archiving failures never block the session transition.
type TranscriptArchiver interface {
	Archive(ctx context.Context, session *models.StreamSession) error
}

// Manager owns the lifecycle of broadcasters' live sessions. It is the
// admission point for the one-active-session-per-broadcaster invariant:
// the check and the transition run under a per-broadcaster lock, so two
// concurrent starts (say, two browser tabs) cannot both win.
type Manager struct {
	sessions repository.SessionRepository
	rooms    mediatransport.RoomProvider
	pub      events.Publisher
	archiver TranscriptArchiver

	locks       *broadcasterLocks
	roomTimeout time.Duration
}

// NewManager creates a session manager. archiver may be nil.
func NewManager(sessions repository.SessionRepository, rooms mediatransport.RoomProvider, pub events.Publisher, archiver TranscriptArchiver) *Manager {
	return &Manager{
		sessions:    sessions,
		rooms:       rooms,
		pub:         pub,
		archiver:    archiver,
		locks:       newBroadcasterLocks(),
		roomTimeout: defaultRoomTimeout,
	}
}

// Start takes a broadcaster live. Exactly one of N concurrent starts for
// the same broadcaster succeeds; the rest fail with ErrAlreadyLive. The
// session goes live only once the media transport handed out a room; when
// the room request fails or times out the session stays idle, so no live
// session ever exists without a backing room.
func (m *Manager) Start(ctx context.Context, broadcasterID, title, category string) (*models.StreamSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, faults.New(faults.KindValidation, "empty_title", "session title is required")
	}

	unlock := m.locks.Acquire(broadcasterID)
	defer unlock()

	_, err := m.sessions.FindLiveByBroadcaster(broadcasterID)
	if err == nil {
		return nil, faults.ErrAlreadyLive
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	shareLink, err := shortener.GenerateSecureSlug(shareLinkLength)
	if err != nil {
		return nil, err
	}
	session := &models.StreamSession{
		PublicID:      uuid.NewString(),
		BroadcasterID: broadcasterID,
		Title:         title,
		Category:      strings.TrimSpace(category),
		State:         models.SessionStateIdle,
		ShareLink:     shareLink,
	}
	if err := m.sessions.Create(session); err != nil {
		return nil, err
	}

	roomCtx, cancel := context.WithTimeout(ctx, m.roomTimeout)
	defer cancel()
	roomToken, err := m.rooms.CreateRoom(roomCtx, mediatransport.SessionMeta{
		SessionPublicID: session.PublicID,
		BroadcasterID:   broadcasterID,
		Title:           title,
	})
	if err != nil {
		// The session never went live, the idle row just records the attempt.
		log.Warnf("[Live] room creation failed for broadcaster %s, session %s stays idle: %v", broadcasterID, session.PublicID, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, faults.ErrTransportUnavailable
		}
		return nil, err
	}

	now := time.Now()
	session.State = models.SessionStateLive
	session.RoomToken = roomToken
	session.StartedAt = &now
	if err := m.sessions.Save(session); err != nil {
		return nil, err
	}

	m.pub.Publish(ctx, events.Event{
		Type:          events.TypeSessionStarted,
		SessionID:     session.ID,
		BroadcasterID: broadcasterID,
	})
	log.Infof("[Live] broadcaster %s went live, session %s", broadcasterID, session.PublicID)
	return session, nil
}

// End stops a live session on the owning broadcaster's request.
func (m *Manager) End(ctx context.Context, sessionID uint) error {
	return m.end(ctx, sessionID, false)
}

// ForceEnd stops a live session on behalf of an authority other than the
// owning broadcaster (moderation). Same transition as End.
func (m *Manager) ForceEnd(ctx context.Context, sessionID uint) error {
	return m.end(ctx, sessionID, true)
}

func (m *Manager) end(ctx context.Context, sessionID uint, forced bool) error {
	session, err := m.get(sessionID)
	if err != nil {
		return err
	}

	unlock := m.locks.Acquire(session.BroadcasterID)
	defer unlock()

	// Re-read under the lock, a concurrent end may have won.
	session, err = m.get(sessionID)
	if err != nil {
		return err
	}
	if !session.IsLive() {
		return faults.ErrNotLive
	}

	// The transition and the presence cascade are one transaction.
	if err := m.sessions.MarkEnded(session, time.Now()); err != nil {
		return err
	}

	// Best effort from here on: the session is ended regardless.
	teardownCtx, cancel := context.WithTimeout(ctx, m.roomTimeout)
	defer cancel()
	if err := m.rooms.DestroyRoom(teardownCtx, session.RoomToken); err != nil {
		log.Warnf("[Live] room teardown failed for session %s (reconcile later): %v", session.PublicID, err)
	}
	if m.archiver != nil {
		if err := m.archiver.Archive(ctx, session); err != nil {
			log.Warnf("[Live] transcript archive failed for session %s: %v", session.PublicID, err)
		}
	}

	m.pub.Publish(ctx, events.Event{
		Type:          events.TypeSessionEnded,
		SessionID:     session.ID,
		BroadcasterID: session.BroadcasterID,
	})
	if forced {
		log.Infof("[Live] session %s force-ended", session.PublicID)
	} else {
		log.Infof("[Live] session %s ended", session.PublicID)
	}
	return nil
}

// ActiveSession returns the broadcaster's live session, or nil when the
// broadcaster is not live.
func (m *Manager) ActiveSession(broadcasterID string) (*models.StreamSession, error) {
	session, err := m.sessions.FindLiveByBroadcaster(broadcasterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// LiveSessions lists all live sessions, optionally filtered by category.
func (m *Manager) LiveSessions(category string) ([]models.StreamSession, error) {
	return m.sessions.ListLive(category)
}

// Get returns a session by ID.
func (m *Manager) Get(sessionID uint) (*models.StreamSession, error) {
	return m.get(sessionID)
}

func (m *Manager) get(sessionID uint) (*models.StreamSession, error) {
	session, err := m.sessions.GetByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}
