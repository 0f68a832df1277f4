package domain

import "time"

// MissionState is the lifecycle state of a mission progression.
type MissionState string

const (
	// StateGame means the mission is in progress.
	StateGame MissionState = "game"
	// StateSucceed and StateFailed are terminal until an explicit reopen.
	StateSucceed MissionState = "succeed"
	StateFailed  MissionState = "failed"
)

// Terminal reports whether the state forbids implicit mutation.
func (s MissionState) Terminal() bool {
	return s == StateSucceed || s == StateFailed
}

// Progression is the persisted per-(user, mission) record.
type Progression struct {
	UserID    string       `json:"userId"`
	MissionID string       `json:"missionId"`
	Points    float64      `json:"points"`
	State     MissionState `json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Question is the payload emitted to the client for one quiz step.
// Solution carries the encrypted, delimiter-joined candidate token; the
// plaintext never leaves the server.
type Question struct {
	ID       int      `json:"id"`
	Label    string   `json:"label"`
	Content  string   `json:"content"`
	Solution string   `json:"solution"`
	Answers  []string `json:"answers"`
	Step     int      `json:"step"`
	Total    int      `json:"total"`
}

// Answer is the inbound submission for a previously issued question.
// Duration is client-measured milliseconds and feeds scoring directly.
type Answer struct {
	QuestionID int    `json:"question"`
	Answer     string `json:"quiz-answer"`
	Solution   string `json:"quiz-solution"`
	Duration   int64  `json:"duration"`
}

// AnswerResult summarizes one evaluated submission.
type AnswerResult struct {
	Solution   []string `json:"solution"`
	IsCorrect  bool     `json:"isCorrect"`
	IsComplete bool     `json:"isComplete"`
}

// AskedQuestion records one evaluated question for the current session.
type AskedQuestion struct {
	ID        int   `json:"id"`
	Duration  int64 `json:"duration"`
	IsCorrect bool  `json:"isCorrect"`
}
