package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certtrack-api/internal/models"
	"github.com/noah-isme/certtrack-api/pkg/config"
	"github.com/noah-isme/certtrack-api/pkg/dispatch"
)

type notificationRepoStub struct {
	mu      sync.Mutex
	created []*models.Notification
	fail    bool
}

func (r *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("insert failed")
	}
	r.created = append(r.created, notification)
	return nil
}

func (r *notificationRepoStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created)
}

func (r *notificationRepoStub) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	result := make([]models.Notification, 0, len(r.created))
	for _, n := range r.created {
		if n.UserID == filter.UserID {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (r *notificationRepoStub) MarkRead(ctx context.Context, id, userID string) error {
	for _, n := range r.created {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return fmt.Errorf("not found")
}

type roleDirStub struct {
	users []models.User
}

func (r *roleDirStub) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	result := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		if u.Role == role {
			result = append(result, u)
		}
	}
	return result, nil
}

type publisherStub struct {
	channels []string
	payloads [][]byte
}

func (p *publisherStub) Publish(ctx context.Context, channel string, payload []byte) error {
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return nil
}

func newNotificationFixture() (*NotificationService, *notificationRepoStub, *publisherStub) {
	repo := &notificationRepoStub{}
	users := &roleDirStub{users: []models.User{
		{ID: "admin-1", Role: models.RoleAdmin},
		{ID: "admin-2", Role: models.RoleAdmin},
		{ID: "trainee-1", Role: models.RoleTrainee},
	}}
	publisher := &publisherStub{}
	svc := NewNotificationService(repo, users, publisher, config.NotificationsConfig{
		Channel: "certtrack:notifications",
	}, nil)
	return svc, repo, publisher
}

func TestNotificationDeliverPersistsAndPublishes(t *testing.T) {
	svc, repo, publisher := newNotificationFixture()
	notification := &models.Notification{ID: "n-1", UserID: "admin-1", Title: "New approval request", Message: "REQ000001 awaits review"}

	err := svc.deliver(context.Background(), dispatch.Task{ID: "n-1", Kind: "notification", Payload: notification})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	require.Equal(t, []string{"certtrack:notifications"}, publisher.channels)

	var decoded models.Notification
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &decoded))
	require.Equal(t, "admin-1", decoded.UserID)
}

func TestNotificationDeliverPropagatesStoreFailure(t *testing.T) {
	svc, repo, publisher := newNotificationFixture()
	repo.fail = true

	err := svc.deliver(context.Background(), dispatch.Task{Payload: &models.Notification{ID: "n-1", UserID: "admin-1"}})
	require.Error(t, err)
	require.Empty(t, publisher.channels)
}

func TestNotifyUserRequiresStartedDispatcher(t *testing.T) {
	svc, _, _ := newNotificationFixture()

	err := svc.NotifyUser(context.Background(), "admin-1", "title", "message")
	require.Error(t, err)
}

func TestNotifyRoleFansOutToEveryHolder(t *testing.T) {
	svc, repo, _ := newNotificationFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	err := svc.NotifyRole(ctx, models.RoleAdmin, "New approval request", "REQ000001 awaits review")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return repo.count() == 2 }, 2*time.Second, 10*time.Millisecond)
}
