package presence

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/app/repository"
	"github.com/lumencast/lumencast/internal/pkg/events"
	"github.com/lumencast/lumencast/internal/pkg/faults"
)

// Tracker records which viewers are attached to a live session. Presence is
// an ephemeral artifact of the session: rows disappear on leave and are
// cascaded away when the session ends.
type Tracker struct {
	sessions  repository.SessionRepository
	presences repository.PresenceRepository
	pub       events.Publisher
}

// NewTracker creates a presence tracker from injected repositories.
func NewTracker(sessions repository.SessionRepository, presences repository.PresenceRepository, pub events.Publisher) *Tracker {
	return &Tracker{sessions: sessions, presences: presences, pub: pub}
}

// Join attaches a viewer to a live session. Re-joining is idempotent and
// refreshes the joined-at timestamp, so a viewer never counts twice.
func (t *Tracker) Join(ctx context.Context, sessionID uint, viewerID string) error {
	session, err := t.getSession(sessionID)
	if err != nil {
		return err
	}
	if !session.IsLive() {
		return faults.ErrSessionNotLive
	}

	if err := t.presences.Upsert(&models.Presence{
		SessionID: sessionID,
		ViewerID:  viewerID,
		JoinedAt:  time.Now(),
	}); err != nil {
		return err
	}

	// Best effort: the watermark only ever rises, so a lost update here is
	// corrected by the next join.
	if count, err := t.presences.CountBySession(sessionID); err == nil {
		if err := t.sessions.RaisePeakViewers(sessionID, count); err != nil {
			log.Warnf("presence: raising peak viewers for session %d failed: %v", sessionID, err)
		}
	}

	t.pub.Publish(ctx, events.Event{
		Type:          events.TypeViewerJoined,
		SessionID:     sessionID,
		BroadcasterID: session.BroadcasterID,
		ViewerID:      viewerID,
	})
	return nil
}

// Leave detaches a viewer. Leaving a session the viewer never joined is a
// no-op, not an error.
func (t *Tracker) Leave(ctx context.Context, sessionID uint, viewerID string) error {
	session, err := t.getSession(sessionID)
	if err != nil {
		return err
	}

	removed, err := t.presences.Delete(sessionID, viewerID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	t.pub.Publish(ctx, events.Event{
		Type:          events.TypeViewerLeft,
		SessionID:     sessionID,
		BroadcasterID: session.BroadcasterID,
		ViewerID:      viewerID,
	})
	return nil
}

// Count returns the session's current viewer cardinality.
func (t *Tracker) Count(sessionID uint) (int64, error) {
	if _, err := t.getSession(sessionID); err != nil {
		return 0, err
	}
	return t.presences.CountBySession(sessionID)
}

func (t *Tracker) getSession(sessionID uint) (*models.StreamSession, error) {
	session, err := t.sessions.GetByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}
