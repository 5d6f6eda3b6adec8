package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/glavox/glavox-backend/internal/logger"
	"github.com/glavox/glavox-backend/internal/repos"
	"github.com/glavox/glavox-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.UserToken{}, &types.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestSessionService(t *testing.T) (SessionService, repos.SessionRepo, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()
	sessionRepo := repos.NewSessionRepo(db, log)
	return NewSessionService(db, log, sessionRepo), sessionRepo, db
}

func TestCreateOrResumeIdempotent(t *testing.T) {
	svc, sessionRepo, _ := newTestSessionService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, created, err := svc.CreateOrResume(ctx, userID, nil)
	if err != nil {
		t.Fatalf("first CreateOrResume: %v", err)
	}
	if !created {
		t.Fatalf("first CreateOrResume reported resume, want create")
	}

	second, created, err := svc.CreateOrResume(ctx, userID, nil)
	if err != nil {
		t.Fatalf("second CreateOrResume: %v", err)
	}
	if created {
		t.Fatalf("second CreateOrResume reported create, want resume")
	}
	if first.ID != second.ID {
		t.Fatalf("resume returned session %s, want %s", second.ID, first.ID)
	}

	sessions, err := sessionRepo.ListByUserID(ctx, nil, userID, 100)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("found %d sessions, want 1", len(sessions))
	}
}

func TestCreateOrResumeAfterClose(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, _, err := svc.CreateOrResume(ctx, userID, nil)
	if err != nil {
		t.Fatalf("CreateOrResume: %v", err)
	}
	if _, err := svc.Close(ctx, first.ID, nil); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, created, err := svc.CreateOrResume(ctx, userID, nil)
	if err != nil {
		t.Fatalf("CreateOrResume after close: %v", err)
	}
	if !created {
		t.Fatalf("expected a fresh session after the previous one closed")
	}
	if second.ID == first.ID {
		t.Fatalf("fresh session reused the closed session's id")
	}
}

func TestRecordUtteranceAggregates(t *testing.T) {
	cases := []struct {
		name         string
		durations    []float64
		wantCount    int
		wantTotal    float64
		wantLongest  float64
		wantShortest float64
		wantAverage  float64
	}{
		{
			name:      "no_utterances",
			durations: nil,
		},
		{
			name:         "single",
			durations:    []float64{4},
			wantCount:    1,
			wantTotal:    4,
			wantLongest:  4,
			wantShortest: 4,
			wantAverage:  4,
		},
		{
			name:         "five_mixed_with_zero",
			durations:    []float64{3, 0, 5, 2, 1},
			wantCount:    5,
			wantTotal:    11,
			wantLongest:  5,
			wantShortest: 0,
			wantAverage:  2.2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestSessionService(t)
			ctx := context.Background()

			session, _, err := svc.CreateOrResume(ctx, uuid.New(), nil)
			if err != nil {
				t.Fatalf("CreateOrResume: %v", err)
			}
			for _, d := range tc.durations {
				if _, err := svc.RecordUtterance(ctx, session.ID, d); err != nil {
					t.Fatalf("RecordUtterance(%v): %v", d, err)
				}
			}

			got, err := svc.GetByID(ctx, session.ID)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if got.SpeakingCount != tc.wantCount {
				t.Fatalf("SpeakingCount = %d, want %d", got.SpeakingCount, tc.wantCount)
			}
			if got.TotalSpeakingTimeInSeconds != tc.wantTotal {
				t.Fatalf("TotalSpeakingTime = %v, want %v", got.TotalSpeakingTimeInSeconds, tc.wantTotal)
			}
			if got.LongestDurationInSeconds != tc.wantLongest {
				t.Fatalf("Longest = %v, want %v", got.LongestDurationInSeconds, tc.wantLongest)
			}
			if got.ShortestSeconds() != tc.wantShortest {
				t.Fatalf("Shortest = %v, want %v", got.ShortestSeconds(), tc.wantShortest)
			}
			if math.Abs(got.AverageDurationInSeconds-tc.wantAverage) > 1e-9 {
				t.Fatalf("Average = %v, want %v", got.AverageDurationInSeconds, tc.wantAverage)
			}
			if len(tc.durations) == 0 && got.ShortestDurationInSeconds != nil {
				t.Fatalf("Shortest marker set with no utterances recorded")
			}
		})
	}
}

func TestRecordUtteranceZeroDistinctFromUnset(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	session, _, err := svc.CreateOrResume(ctx, uuid.New(), nil)
	if err != nil {
		t.Fatalf("CreateOrResume: %v", err)
	}
	got, err := svc.RecordUtterance(ctx, session.ID, 0)
	if err != nil {
		t.Fatalf("RecordUtterance(0): %v", err)
	}
	if got.ShortestDurationInSeconds == nil {
		t.Fatalf("a recorded zero-second utterance should set the shortest marker")
	}
	if *got.ShortestDurationInSeconds != 0 {
		t.Fatalf("Shortest = %v, want 0", *got.ShortestDurationInSeconds)
	}

	// A later longer utterance must not displace the genuine zero.
	got, err = svc.RecordUtterance(ctx, session.ID, 3)
	if err != nil {
		t.Fatalf("RecordUtterance(3): %v", err)
	}
	if got.ShortestSeconds() != 0 {
		t.Fatalf("Shortest = %v after longer utterance, want 0", got.ShortestSeconds())
	}
}

func TestRecordUtteranceRejectsNegative(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	session, _, err := svc.CreateOrResume(ctx, uuid.New(), nil)
	if err != nil {
		t.Fatalf("CreateOrResume: %v", err)
	}
	if _, err := svc.RecordUtterance(ctx, session.ID, -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("RecordUtterance(-1) error = %v, want ErrInvalidInput", err)
	}
}

func TestRecordUtteranceUnknownSession(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	if _, err := svc.RecordUtterance(context.Background(), uuid.New(), 1); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestRecordScoringFinalScoresMean(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	session, _, err := svc.CreateOrResume(ctx, uuid.New(), nil)
	if err != nil {
		t.Fatalf("CreateOrResume: %v", err)
	}

	var finalScores types.ScoreSet
	for _, combined := range []float64{50, 70, 90} {
		scores := types.ScoreSet{
			Pronunciation:   combined,
			Confidence:      combined - 10,
			Clarity:         combined + 5,
			ResponseTime:    combined,
			InteractionFlow: combined,
			Combined:        combined,
		}
		finalScores, err = svc.RecordScoring(ctx, session.ID, scores, types.MetricSnapshot{})
		if err != nil {
			t.Fatalf("RecordScoring(%v): %v", combined, err)
		}
	}

	if math.Abs(finalScores.Combined-70) > 1e-9 {
		t.Fatalf("final Combined = %v, want 70 (simple mean)", finalScores.Combined)
	}
	if math.Abs(finalScores.Confidence-60) > 1e-9 {
		t.Fatalf("final Confidence = %v, want 60", finalScores.Confidence)
	}

	got, err := svc.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.ScoringHistory) != 3 {
		t.Fatalf("history length = %d, want 3", len(got.ScoringHistory))
	}
	if got.FinalScores != finalScores {
		t.Fatalf("persisted FinalScores = %+v, want %+v", got.FinalScores, finalScores)
	}
}

func TestCloseIdempotent(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	enter := time.Now().Add(-5 * time.Minute)
	session, _, err := svc.CreateOrResume(ctx, uuid.New(), &enter)
	if err != nil {
		t.Fatalf("CreateOrResume: %v", err)
	}

	exit := enter.Add(2 * time.Minute)
	closed, err := svc.Close(ctx, session.ID, &exit)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.ExitTime == nil {
		t.Fatalf("session still open after Close")
	}
	if closed.TotalChatDurationInSeconds != 120 {
		t.Fatalf("chat duration = %d, want 120", closed.TotalChatDurationInSeconds)
	}
	if closed.FormattedChatDuration != "02:00" {
		t.Fatalf("formatted chat duration = %q, want 02:00", closed.FormattedChatDuration)
	}

	laterExit := exit.Add(time.Hour)
	again, err := svc.Close(ctx, session.ID, &laterExit)
	if err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !again.ExitTime.Equal(exit) {
		t.Fatalf("second Close moved exit time to %v, want %v", again.ExitTime, exit)
	}
	if again.TotalChatDurationInSeconds != 120 {
		t.Fatalf("second Close changed duration to %d, want 120", again.TotalChatDurationInSeconds)
	}
}

func TestCloseReleasesSessionLock(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	session, _, err := svc.CreateOrResume(ctx, uuid.New(), nil)
	if err != nil {
		t.Fatalf("CreateOrResume: %v", err)
	}
	if _, err := svc.RecordUtterance(ctx, session.ID, 2); err != nil {
		t.Fatalf("RecordUtterance: %v", err)
	}

	impl := svc.(*sessionService)
	impl.locksMu.Lock()
	_, held := impl.locks[session.ID]
	impl.locksMu.Unlock()
	if !held {
		t.Fatalf("no lock entry after a mutation")
	}

	if _, err := svc.Close(ctx, session.ID, nil); err != nil {
		t.Fatalf("Close: %v", err)
	}
	impl.locksMu.Lock()
	_, held = impl.locks[session.ID]
	impl.locksMu.Unlock()
	if held {
		t.Fatalf("lock entry still present after close")
	}
}

func TestRecordUtteranceConcurrent(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	session, _, err := svc.CreateOrResume(ctx, uuid.New(), nil)
	if err != nil {
		t.Fatalf("CreateOrResume: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordUtterance(ctx, session.ID, 1); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent RecordUtterance: %v", err)
	}

	got, err := svc.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SpeakingCount != workers {
		t.Fatalf("SpeakingCount = %d after %d concurrent calls, want %d", got.SpeakingCount, workers, workers)
	}
	if got.TotalSpeakingTimeInSeconds != workers {
		t.Fatalf("TotalSpeakingTime = %v, want %d", got.TotalSpeakingTimeInSeconds, workers)
	}
}
