package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

type memoryLedger struct {
	seen map[string]bool
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{seen: map[string]bool{}}
}

func (m *memoryLedger) MarkRun(ctx context.Context, jobName, targetKey string, ranAt time.Time) (bool, error) {
	key := jobName + "|" + targetKey
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

type recordingNotifier struct {
	single []notifications.NotifyInput
	bulk   []notifications.NotifyInput
	bulkTo [][]uuid.UUID
}

func (r *recordingNotifier) Notify(ctx context.Context, input notifications.NotifyInput) error {
	r.single = append(r.single, input)
	return nil
}

func (r *recordingNotifier) NotifyMany(ctx context.Context, userIDs []uuid.UUID, input notifications.NotifyInput) error {
	r.bulk = append(r.bulk, input)
	r.bulkTo = append(r.bulkTo, userIDs)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

type fakePublisher struct {
	published int64
	calls     int
}

func (f *fakePublisher) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	f.calls++
	return f.published, nil
}

func TestPublishContentJobDueEveryFifthMinute(t *testing.T) {
	job, err := NewPublishContentJob(PublishContentJobParams{
		Logger:       testLogger(),
		Education:    &fakePublisher{},
		EveryMinutes: 5,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if !job.Due(base) {
		t.Fatalf("expected job due at minute 0")
	}
	if job.Due(base.Add(3 * time.Minute)) {
		t.Fatalf("expected job idle at minute 3")
	}
	if !job.Due(base.Add(35 * time.Minute)) {
		t.Fatalf("expected job due at minute 35")
	}
}

func TestPublishContentJobDelegates(t *testing.T) {
	publisher := &fakePublisher{published: 3}
	job, err := NewPublishContentJob(PublishContentJobParams{
		Logger:    testLogger(),
		Education: publisher,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("run: %v", err)
	}
	if publisher.calls != 1 {
		t.Fatalf("expected one publish call, got %d", publisher.calls)
	}
}

type fakeMedicalDirectory struct {
	byDate map[string][]models.User
}

func (f *fakeMedicalDirectory) ListWithMedicalExpiringOn(ctx context.Context, day time.Time) ([]models.User, error) {
	return f.byDate[day.Format("2006-01-02")], nil
}

func TestMedicalReminderJobDedupsViaLedger(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	user := models.User{ID: uuid.New()}
	directory := &fakeMedicalDirectory{byDate: map[string][]models.User{
		now.AddDate(0, 0, 30).Format("2006-01-02"): {user},
	}}
	notifier := &recordingNotifier{}
	ledger := newMemoryLedger()

	job, err := NewMedicalReminderJob(MedicalReminderJobParams{
		Logger:    testLogger(),
		Users:     directory,
		Notify:    notifier,
		Ledger:    ledger,
		DailyHour: 9,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if !job.Due(now) {
		t.Fatalf("expected job due at 09:00")
	}
	if job.Due(now.Add(time.Minute)) {
		t.Fatalf("expected job idle at 09:01")
	}

	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(notifier.single) != 1 {
		t.Fatalf("expected one reminder, got %d", len(notifier.single))
	}
	if notifier.single[0].Category != enums.NotificationCategoryMedical {
		t.Fatalf("unexpected category %s", notifier.single[0].Category)
	}
	if notifier.single[0].UserID != user.ID {
		t.Fatalf("reminder sent to the wrong user")
	}

	// Same tick replayed: the ledger already has the target key.
	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(notifier.single) != 1 {
		t.Fatalf("expected dedup to hold, got %d reminders", len(notifier.single))
	}
}

type fakeOpenSlots struct {
	byDate map[string][]models.Match
}

func (f *fakeOpenSlots) ListWithOpenSlotsOn(ctx context.Context, day time.Time) ([]models.Match, error) {
	return f.byDate[day.Format("2006-01-02")], nil
}

type fakeCommittee struct {
	ids []uuid.UUID
}

func (f *fakeCommittee) ListCommittee(ctx context.Context) ([]uuid.UUID, error) {
	return f.ids, nil
}

func TestMatchReminderJobNotifiesCommitteeOncePerMatchAndHorizon(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	match := models.Match{ID: uuid.New(), KickoffAt: now.AddDate(0, 0, 3)}
	source := &fakeOpenSlots{byDate: map[string][]models.Match{
		now.AddDate(0, 0, 3).Format("2006-01-02"): {match},
	}}
	committee := &fakeCommittee{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	notifier := &recordingNotifier{}

	job, err := NewMatchReminderJob(MatchReminderJobParams{
		Logger:    testLogger(),
		Matches:   source,
		Committee: committee,
		Notify:    notifier,
		Ledger:    newMemoryLedger(),
		DailyHour: 9,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(notifier.bulk) != 1 {
		t.Fatalf("expected one fan-out, got %d", len(notifier.bulk))
	}
	if len(notifier.bulkTo[0]) != 2 {
		t.Fatalf("expected both committee members, got %d", len(notifier.bulkTo[0]))
	}
	if notifier.bulk[0].Link == nil || *notifier.bulk[0].Link != "/matches/"+match.ID.String() {
		t.Fatalf("unexpected link in reminder")
	}

	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(notifier.bulk) != 1 {
		t.Fatalf("expected ledger dedup, got %d fan-outs", len(notifier.bulk))
	}
}

func TestMatchReminderJobQuietWithoutCommittee(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{}
	job, err := NewMatchReminderJob(MatchReminderJobParams{
		Logger:    testLogger(),
		Matches:   &fakeOpenSlots{},
		Committee: &fakeCommittee{},
		Notify:    notifier,
		Ledger:    newMemoryLedger(),
		DailyHour: 9,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(notifier.bulk) != 0 {
		t.Fatalf("expected no fan-out without committee members")
	}
}

type fakePruner struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakePruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestNotificationRetentionJobComputesCutoff(t *testing.T) {
	pruner := &fakePruner{deleted: 12}
	job, err := NewNotificationRetentionJob(NotificationRetentionJobParams{
		Logger:        testLogger(),
		Notifications: pruner,
		RetentionDays: 90,
		DailyHour:     9,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := now.Add(-90 * 24 * time.Hour)
	if !pruner.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", pruner.cutoff, want)
	}
}

