// Package scheduler arranges future reminder sends. Entries live in a redis
// sorted set keyed by notification id with the trigger time as score; a
// polling worker claims due entries and feeds them back into the notification
// lifecycle.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pretor/internal/notification"
	id "pretor/pkg/domain"
)

const scheduleKey = "scheduler:reminders"

// RedisScheduler implements notification.Scheduler on a redis ZSET.
type RedisScheduler struct {
	client redis.Cmdable
}

func NewRedisScheduler(client redis.Cmdable) *RedisScheduler {
	return &RedisScheduler{client: client}
}

// ScheduleAt records a trigger for the notification. The member doubles as
// the schedule reference handed back to the caller.
func (s *RedisScheduler) ScheduleAt(ctx context.Context, at time.Time, notificationID id.NotificationID) (string, error) {
	member := notificationID.String()
	err := s.client.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: member,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("schedule notification %s: %w", notificationID, err)
	}
	return scheduleKey + ":" + member, nil
}

// Due returns the notification ids whose trigger time has passed, removing
// each returned entry. Removal is the claim: an entry comes back from at most
// one Due call even with concurrent pollers.
func (s *RedisScheduler) Due(ctx context.Context, now time.Time) ([]id.NotificationID, error) {
	members, err := s.client.ZRangeByScore(ctx, scheduleKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}

	var due []id.NotificationID
	for _, member := range members {
		removed, err := s.client.ZRem(ctx, scheduleKey, member).Result()
		if err != nil {
			return nil, fmt.Errorf("claim schedule %s: %w", member, err)
		}
		if removed == 0 {
			continue // another poller claimed it first
		}
		notifID, err := id.ParseNotificationID(member)
		if err != nil {
			continue // foreign member, drop it
		}
		due = append(due, notifID)
	}
	return due, nil
}

var _ notification.Scheduler = (*RedisScheduler)(nil)
