package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/glavox/glavox-backend/internal/logger"
	"github.com/glavox/glavox-backend/internal/repos"
	"github.com/glavox/glavox-backend/internal/types"
	"github.com/glavox/glavox-backend/internal/utils"
)

func floatPtr(v float64) *float64 { return &v }

func TestCalculateSpeakingStats(t *testing.T) {
	cases := []struct {
		name     string
		sessions []*types.Session
		want     SpeakingStats
	}{
		{
			name:     "no_sessions",
			sessions: nil,
			want:     SpeakingStats{},
		},
		{
			name: "single_session",
			sessions: []*types.Session{
				{
					TotalSpeakingTimeInSeconds: 12,
					SpeakingCount:              3,
					LongestDurationInSeconds:   6,
					ShortestDurationInSeconds:  floatPtr(2),
				},
			},
			want: SpeakingStats{
				TotalSpeakingTime: 12,
				AverageDuration:   4,
				LongestDuration:   6,
				ShortestDuration:  2,
				SpeakingCount:     3,
			},
		},
		{
			name: "shortest_unset_sessions_ignored",
			sessions: []*types.Session{
				{
					TotalSpeakingTimeInSeconds: 10,
					SpeakingCount:              2,
					LongestDurationInSeconds:   7,
					ShortestDurationInSeconds:  floatPtr(3),
				},
				{
					// Open session with no utterances yet.
					SpeakingCount: 0,
				},
				{
					TotalSpeakingTimeInSeconds: 5,
					SpeakingCount:              5,
					LongestDurationInSeconds:   2,
					ShortestDurationInSeconds:  floatPtr(0.5),
				},
			},
			want: SpeakingStats{
				TotalSpeakingTime: 15,
				AverageDuration:   15.0 / 7.0,
				LongestDuration:   7,
				ShortestDuration:  0.5,
				SpeakingCount:     7,
			},
		},
		{
			name: "genuine_zero_shortest_wins",
			sessions: []*types.Session{
				{
					TotalSpeakingTimeInSeconds: 4,
					SpeakingCount:              2,
					LongestDurationInSeconds:   4,
					ShortestDurationInSeconds:  floatPtr(0),
				},
				{
					TotalSpeakingTimeInSeconds: 6,
					SpeakingCount:              1,
					LongestDurationInSeconds:   6,
					ShortestDurationInSeconds:  floatPtr(6),
				},
			},
			want: SpeakingStats{
				TotalSpeakingTime: 10,
				AverageDuration:   10.0 / 3.0,
				LongestDuration:   6,
				ShortestDuration:  0,
				SpeakingCount:     3,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateSpeakingStats(tc.sessions)
			if math.Abs(got.TotalSpeakingTime-tc.want.TotalSpeakingTime) > 1e-9 {
				t.Errorf("TotalSpeakingTime = %v, want %v", got.TotalSpeakingTime, tc.want.TotalSpeakingTime)
			}
			if math.Abs(got.AverageDuration-tc.want.AverageDuration) > 1e-9 {
				t.Errorf("AverageDuration = %v, want %v", got.AverageDuration, tc.want.AverageDuration)
			}
			if got.LongestDuration != tc.want.LongestDuration {
				t.Errorf("LongestDuration = %v, want %v", got.LongestDuration, tc.want.LongestDuration)
			}
			if got.ShortestDuration != tc.want.ShortestDuration {
				t.Errorf("ShortestDuration = %v, want %v", got.ShortestDuration, tc.want.ShortestDuration)
			}
			if got.SpeakingCount != tc.want.SpeakingCount {
				t.Errorf("SpeakingCount = %d, want %d", got.SpeakingCount, tc.want.SpeakingCount)
			}
		})
	}
}

func seedClosedSession(t *testing.T, svc SessionService, userID uuid.UUID, lengthMinutes float64) {
	t.Helper()
	ctx := context.Background()
	enter := time.Now().Add(-24 * time.Hour)
	session, _, err := svc.CreateOrResume(ctx, userID, &enter)
	if err != nil {
		t.Fatalf("CreateOrResume: %v", err)
	}
	exit := enter.Add(time.Duration(lengthMinutes * float64(time.Minute)))
	if _, err := svc.Close(ctx, session.ID, &exit); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestStudentClustersBuckets(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	sessionRepo := repos.NewSessionRepo(db, log)
	sessionSvc := NewSessionService(db, log, sessionRepo)
	userRepo := repos.NewUserRepo(db, log)
	analyticsSvc := NewAnalyticsService(log, sessionRepo)
	ctx := context.Background()

	lengths := []float64{5, 14.9, 15, 30, 31, 90}
	for _, minutes := range lengths {
		user := &types.User{
			Email:     uuid.NewString() + "@example.com",
			Password:  "x",
			FirstName: "Test",
			LastName:  "Student",
		}
		if _, err := userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
			t.Fatalf("create user: %v", err)
		}
		seedClosedSession(t, sessionSvc, user.ID, minutes)
	}

	clusters, err := analyticsSvc.StudentClusters(ctx)
	if err != nil {
		t.Fatalf("StudentClusters: %v", err)
	}

	if len(clusters.Cluster1) != 2 {
		t.Errorf("cluster1 has %d entries, want 2 (under 15 minutes)", len(clusters.Cluster1))
	}
	if len(clusters.Cluster2) != 2 {
		t.Errorf("cluster2 has %d entries, want 2 (15 to 30 minutes)", len(clusters.Cluster2))
	}
	if len(clusters.Cluster3) != 2 {
		t.Errorf("cluster3 has %d entries, want 2 (over 30 minutes)", len(clusters.Cluster3))
	}

	for _, bucket := range [][]ClusterEntry{clusters.Cluster1, clusters.Cluster2, clusters.Cluster3} {
		for i := 1; i < len(bucket); i++ {
			if bucket[i].DurationMinutes > bucket[i-1].DurationMinutes {
				t.Errorf("bucket not sorted by duration descending: %v before %v",
					bucket[i-1].DurationMinutes, bucket[i].DurationMinutes)
			}
		}
		for _, entry := range bucket {
			if entry.Name != "Test Student" {
				t.Errorf("entry name = %q, want %q", entry.Name, "Test Student")
			}
		}
	}
}

func TestOverviewWeeklyWindow(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	sessionRepo := repos.NewSessionRepo(db, log)
	analyticsSvc := NewAnalyticsService(log, sessionRepo)
	ctx := context.Background()
	userID := uuid.New()

	recent := time.Now().Add(-2 * 24 * time.Hour)
	old := time.Now().Add(-30 * 24 * time.Hour)
	for _, enter := range []time.Time{recent, old} {
		exit := enter.Add(10 * time.Minute)
		session := &types.Session{
			UserID:                     userID,
			EnterTime:                  enter,
			ExitTime:                   &exit,
			TotalChatDurationInSeconds: utils.DurationInSeconds(enter, exit),
			TotalSpeakingTimeInSeconds: 60,
			SpeakingCount:              4,
		}
		if _, err := sessionRepo.Create(ctx, nil, session); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	overview, err := analyticsSvc.Overview(ctx, userID)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.AllTime.TotalSessions != 2 {
		t.Errorf("all-time sessions = %d, want 2", overview.AllTime.TotalSessions)
	}
	if overview.Weekly.TotalSessions != 1 {
		t.Errorf("weekly sessions = %d, want 1", overview.Weekly.TotalSessions)
	}
	if overview.AllTime.TotalSpeakingTime != 120 {
		t.Errorf("all-time speaking time = %v, want 120", overview.AllTime.TotalSpeakingTime)
	}
}
