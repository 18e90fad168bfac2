//go:build integration

package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pretor/internal/lawsuit"
	"pretor/internal/movimentation"
	"pretor/internal/notification"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
	"pretor/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *notification.PostgresStore

	lawsuits *lawsuit.PostgresStore
	movs     *movimentation.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), "../../migrations")
	s.store = notification.NewPostgresStore(s.postgres.DB)
	s.lawsuits = lawsuit.NewPostgresStore(s.postgres.DB)
	s.movs = movimentation.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"notifications", "movimentations", "lawsuits", "clients")
	s.Require().NoError(err)
}

// seedMovimentation builds the client/lawsuit/movimentation chain a
// notification row depends on.
func (s *PostgresStoreSuite) seedMovimentation() (*movimentation.Movimentation, *lawsuit.Client) {
	ctx := context.Background()

	client := &lawsuit.Client{
		ID:         id.NewClientID(),
		RegistryID: 7,
		Name:       "MARIA DA SILVA",
		Phones:     []string{"+5551999990000"},
	}
	s.Require().NoError(s.lawsuits.SaveClient(ctx, client))

	suit := &lawsuit.Lawsuit{
		ID:         id.NewLawsuitID(),
		RegistryID: 42,
		CNJ:        "0001234-56.2026.8.21.0001",
		ClientID:   client.ID,
	}
	s.Require().NoError(s.lawsuits.SaveLawsuit(ctx, suit))

	mov := &movimentation.Movimentation{
		ID:           id.NewMovimentationID(),
		RegistryID:   100,
		LawsuitID:    suit.ID,
		Kind:         movimentation.KindHearing,
		Date:         time.Now().AddDate(0, 1, 0),
		LastModified: time.Now(),
		Active:       true,
	}
	s.Require().NoError(s.movs.Save(ctx, mov))
	return mov, client
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	mov, client := s.seedMovimentation()

	notif := &notification.Notification{
		ID:              id.NewNotificationID(),
		MovimentationID: mov.ID,
		ClientID:        client.ID,
		Kind:            notification.KindInitial,
		Message:         "Olá Maria",
		Status:          notification.StatusNotSent,
	}
	s.Require().NoError(s.store.Save(ctx, notif))
	s.False(notif.CreatedAt.IsZero())

	found, err := s.store.FindByID(ctx, notif.ID)
	s.Require().NoError(err)
	s.Equal(notification.StatusNotSent, found.Status)
	s.Empty(found.ErrorCode)
	s.Nil(found.SentAt)
	s.Nil(found.ScheduledAt)
}

func (s *PostgresStoreSuite) TestUniqueKindPerMovimentation() {
	ctx := context.Background()
	mov, client := s.seedMovimentation()

	first := &notification.Notification{
		ID:              id.NewNotificationID(),
		MovimentationID: mov.ID,
		ClientID:        client.ID,
		Kind:            notification.KindInitial,
		Message:         "Olá Maria",
		Status:          notification.StatusNotSent,
	}
	s.Require().NoError(s.store.Save(ctx, first))

	dup := &notification.Notification{
		ID:              id.NewNotificationID(),
		MovimentationID: mov.ID,
		ClientID:        client.ID,
		Kind:            notification.KindInitial,
		Message:         "Olá Maria",
		Status:          notification.StatusNotSent,
	}
	s.ErrorIs(s.store.Save(ctx, dup), sentinel.ErrConflict)

	reminder := &notification.Notification{
		ID:              id.NewNotificationID(),
		MovimentationID: mov.ID,
		ClientID:        client.ID,
		Kind:            notification.KindReminder,
		Message:         "Lembrete",
		Status:          notification.StatusNotSent,
	}
	s.NoError(s.store.Save(ctx, reminder), "a different kind on the same movimentation is fine")
}

func (s *PostgresStoreSuite) TestUpdatePersistsTransition() {
	ctx := context.Background()
	mov, client := s.seedMovimentation()

	notif := &notification.Notification{
		ID:              id.NewNotificationID(),
		MovimentationID: mov.ID,
		ClientID:        client.ID,
		Kind:            notification.KindReminder,
		Message:         "Lembrete",
		Status:          notification.StatusNotSent,
	}
	s.Require().NoError(s.store.Save(ctx, notif))

	scheduledAt := time.Now().Add(24 * time.Hour).Truncate(time.Second).UTC()
	notif.Status = notification.StatusScheduled
	notif.ScheduleRef = "scheduler:reminders:" + notif.ID.String()
	notif.ScheduledAt = &scheduledAt
	s.Require().NoError(s.store.Update(ctx, notif))

	found, err := s.store.FindByMovimentationAndKind(ctx, mov.ID, notification.KindReminder)
	s.Require().NoError(err)
	s.Equal(notification.StatusScheduled, found.Status)
	s.Equal(notif.ScheduleRef, found.ScheduleRef)
	s.Require().NotNil(found.ScheduledAt)
	s.True(found.ScheduledAt.Equal(scheduledAt))
}

func (s *PostgresStoreSuite) TestListByMovimentation() {
	ctx := context.Background()
	mov, client := s.seedMovimentation()

	for _, kind := range []notification.Kind{notification.KindInitial, notification.KindReminder} {
		notif := &notification.Notification{
			ID:              id.NewNotificationID(),
			MovimentationID: mov.ID,
			ClientID:        client.ID,
			Kind:            kind,
			Message:         "msg",
			Status:          notification.StatusNotSent,
		}
		s.Require().NoError(s.store.Save(ctx, notif))
	}

	list, err := s.store.ListByMovimentation(ctx, mov.ID)
	s.Require().NoError(err)
	s.Len(list, 2)
}
