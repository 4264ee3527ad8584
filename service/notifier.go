package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier writes in-app notification rows after successful transitions.
// Dispatch is fire-and-forget: failures are logged and swallowed, never
// surfaced to the triggering request.
type Notifier struct {
	db *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

// Notify asynchronously records a notification for each recipient.
func (n *Notifier) Notify(ctx context.Context, userIDs []string, message string, metadata map[string]any) {
	// Detach from the request context so a finished request does not cancel
	// the write mid-flight.
	reqID, _ := ctx.Value(logger.RequestIDKey).(string)
	go n.dispatch(reqID, userIDs, message, metadata)
}

func (n *Notifier) dispatch(requestID string, userIDs []string, message string, metadata map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if requestID != "" {
		ctx = context.WithValue(ctx, logger.RequestIDKey, requestID)
	}

	var meta string
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			meta = string(raw)
		}
	}

	for _, userID := range userIDs {
		notif := model.Notification{
			ID:      uuid.New().String(),
			UserID:  userID,
			Message: message,
			Metadata: meta,
		}
		if err := n.db.WithContext(ctx).Create(&notif).Error; err != nil {
			logger.Warn(ctx, "notification dispatch failed",
				"user_id", userID,
				"error", err,
			)
		}
	}
}

// ListForUser returns the user's notifications, newest first.
func (n *Notifier) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	var notifs []model.Notification
	err := n.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifs).Error
	return notifs, err
}

// MarkRead marks a notification read for its recipient.
func (n *Notifier) MarkRead(ctx context.Context, userID, notificationID string) error {
	return n.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true).Error
}
