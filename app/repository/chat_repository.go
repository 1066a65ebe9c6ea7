package repository

import (
	"github.com/lumencast/lumencast/app/models"
	"gorm.io/gorm"
)

const defaultChatHistoryLimit = 100

// chatRepository implements the ChatRepository interface
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository instance
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Create appends a chat message to the session log
func (r *chatRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

// GetByID retrieves a single chat message
func (r *chatRepository) GetByID(id uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListBySession returns the newest messages of a session in send order
func (r *chatRepository) ListBySession(sessionID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultChatHistoryLimit
	}
	var messages []models.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order for display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
