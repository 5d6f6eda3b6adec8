package types

import (
  "math"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/glavox/glavox-backend/internal/utils"
)

// Session is one practice-chat interaction window for a user, from screen
// enter to screen exit. All aggregate fields are maintained by the session
// service; clients never set them directly. A session with no ExitTime is
// open, and a user may have at most one open session at a time.
type Session struct {
  ID                            uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
  UserID                        uuid.UUID                           `gorm:"type:uuid;index:idx_session_user_enter;not null" json:"user_id"`
  User                          *User                               `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
  EnterTime                     time.Time                           `gorm:"index:idx_session_user_enter;not null;column:enter_time" json:"enter_time"`
  ExitTime                      *time.Time                          `gorm:"column:exit_time" json:"exit_time,omitempty"`
  TotalChatDurationInSeconds    int                                 `gorm:"column:total_chat_duration_in_seconds" json:"total_chat_duration_in_seconds"`
  FormattedChatDuration         string                              `gorm:"column:formatted_chat_duration" json:"formatted_chat_duration"`
  SpeakingCount                 int                                 `gorm:"column:speaking_count" json:"speaking_count"`
  TotalSpeakingTimeInSeconds    float64                             `gorm:"column:total_speaking_time_in_seconds" json:"total_speaking_time_in_seconds"`
  FormattedSpeakingTime         string                              `gorm:"column:formatted_speaking_time" json:"formatted_speaking_time"`
  LongestDurationInSeconds      float64                             `gorm:"column:longest_duration_in_seconds" json:"longest_duration_in_seconds"`
  ShortestDurationInSeconds     *float64                            `gorm:"column:shortest_duration_in_seconds" json:"-"`
  AverageDurationInSeconds      float64                             `gorm:"column:average_duration_in_seconds" json:"average_duration_in_seconds"`
  ScoringHistory                datatypes.JSONSlice[ScoringEntry]   `gorm:"column:scoring_history" json:"scoring_history"`
  FinalScores                   ScoreSet                            `gorm:"embedded;embeddedPrefix:final_" json:"final_scores"`
  CreatedAt                     time.Time                           `gorm:"not null" json:"created_at"`
  UpdatedAt                     time.Time                           `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string {
  return "user_session"
}

func (s *Session) IsOpen() bool {
  return s.ExitTime == nil
}

// ShortestSeconds reports the shortest recorded utterance, or 0 when no
// utterance has been recorded yet. A nil ShortestDurationInSeconds marks
// "unset", so a genuine zero-second utterance is still distinguishable.
func (s *Session) ShortestSeconds() float64 {
  if s.ShortestDurationInSeconds == nil {
    return 0
  }
  return *s.ShortestDurationInSeconds
}

// TotalScreenTimeSeconds is the wall time the session has been (or was)
// on screen. Open sessions are measured against now.
func (s *Session) TotalScreenTimeSeconds(now time.Time) int {
  end := now
  if s.ExitTime != nil {
    end = *s.ExitTime
  }
  return utils.DurationInSeconds(s.EnterTime, end)
}

// SessionView is the read-time projection of a session: localized
// timestamp strings, formatted durations and the speaking percentage.
// None of these fields are stored; they are derived on every read.
type SessionView struct {
  *Session
  ShortestDurationInSeconds     float64       `json:"shortest_duration_in_seconds"`
  EnterTimeIST                  string        `json:"enter_time_ist"`
  ExitTimeIST                   string        `json:"exit_time_ist"`
  ChatDuration                  string        `json:"chat_duration"`
  TotalScreenTimeInSeconds      int           `json:"total_screen_time_in_seconds"`
  SpeakingTimeFormatted         string        `json:"speaking_time_formatted"`
  SpeakingPercentage            int           `json:"speaking_percentage"`
}

// View derives the point-in-time projection of the session against now.
func (s *Session) View(now time.Time) SessionView {
  view := SessionView{
    Session:                   s,
    ShortestDurationInSeconds: s.ShortestSeconds(),
    EnterTimeIST:              utils.FormatISTDateTime(s.EnterTime),
    ExitTimeIST:               "N/A",
    ChatDuration:              "00:00",
    TotalScreenTimeInSeconds:  s.TotalScreenTimeSeconds(now),
    SpeakingTimeFormatted:     utils.FormatDuration(s.TotalSpeakingTimeInSeconds),
  }
  if s.ExitTime != nil {
    view.ExitTimeIST = utils.FormatISTDateTime(*s.ExitTime)
    view.ChatDuration = utils.FormatDuration(float64(utils.DurationInSeconds(s.EnterTime, *s.ExitTime)))
  }
  if view.TotalScreenTimeInSeconds > 0 {
    pct := s.TotalSpeakingTimeInSeconds / float64(view.TotalScreenTimeInSeconds) * 100
    view.SpeakingPercentage = int(math.Round(pct))
  }
  return view
}
