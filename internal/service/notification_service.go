package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/certtrack-api/internal/models"
	"github.com/noah-isme/certtrack-api/pkg/config"
	"github.com/noah-isme/certtrack-api/pkg/dispatch"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type roleDirectory interface {
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

// EventPublisher fans notification events out to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher publishes notification events on a Redis pub/sub channel.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps a Redis client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish implements EventPublisher.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// NotificationService persists in-app notifications and broadcasts them over
// pub/sub. Deliveries run through a worker pool so callers never wait on the
// broker; a delivery that keeps failing is logged and dropped.
type NotificationService struct {
	repo       notificationStore
	users      roleDirectory
	publisher  EventPublisher
	channel    string
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService constructs the service and its delivery pool. Call
// Start before enqueueing and Stop on shutdown.
func NewNotificationService(repo notificationStore, users roleDirectory, publisher EventPublisher, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		repo:      repo,
		users:     users,
		publisher: publisher,
		channel:   cfg.Channel,
		logger:    logger,
	}
	svc.dispatcher = dispatch.New("notifications", svc.deliver, dispatch.Config{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.dispatcher.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

// NotifyUser queues an in-app notification for one user.
func (s *NotificationService) NotifyUser(ctx context.Context, userID, title, message string) error {
	notification := &models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
	}
	return s.dispatcher.Enqueue(dispatch.Task{
		ID:      notification.ID,
		Kind:    "notification",
		Payload: notification,
	})
}

// NotifyRole queues a notification for every user holding the role.
func (s *NotificationService) NotifyRole(ctx context.Context, role models.UserRole, title, message string) error {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve role recipients")
	}
	for _, user := range users {
		if err := s.NotifyUser(ctx, user.ID, title, message); err != nil {
			return err
		}
	}
	return nil
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	notifications, err := s.repo.List(ctx, models.NotificationFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one notification as read, scoped to its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return appErrors.ErrNotFound
	}
	return nil
}

// deliver persists the notification and publishes the pub/sub event. Returning
// an error lets the dispatcher retry the whole delivery; Create is keyed on the
// pre-assigned id so a retry after a publish failure does not duplicate rows.
func (s *NotificationService) deliver(ctx context.Context, task dispatch.Task) error {
	notification, ok := task.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", task.Payload)
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	if s.publisher == nil || s.channel == "" {
		return nil
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.channel, payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
