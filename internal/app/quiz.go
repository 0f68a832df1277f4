package app

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"mission-engine/internal/domain"
	"mission-engine/internal/obfuscate"
)

// QuestionContent is what a question producer yields: display payload,
// shuffled candidate answers, and one or more acceptable solutions.
type QuestionContent struct {
	Label     string
	Content   string
	Solutions []string
	Answers   []string
}

// QuestionFunc generates one question. Producers are invoked at most once
// per selection and report failures via the error return, never by panic.
type QuestionFunc func(ctx context.Context) (QuestionContent, error)

// PrepareResult is the outcome of one quiz turn: exactly one of Question
// (a freshly issued question), Result (an evaluated answer), or Idle (the
// bank is exhausted and nothing was submitted).
type PrepareResult struct {
	Question *domain.Question
	Result   *domain.AnswerResult
	Idle     bool
}

// QuizMission drives a bank of generated questions on top of the mission
// lifecycle core: non-repeating selection, obfuscated-answer evaluation,
// and time-decayed scoring.
type QuizMission struct {
	*Mission

	codec     *obfuscate.Codec
	questions []QuestionFunc

	questionsNumber int
	questionsLeft   int
	issued          map[int]string // question id -> encrypted solution token
	asked           map[int]domain.AskedQuestion

	rnd *rand.Rand
}

// NewQuizMission wraps a mission core. The codec key is process-wide
// configuration; see obfuscate.NewCodec.
func NewQuizMission(core *Mission, codec *obfuscate.Codec) *QuizMission {
	q := &QuizMission{
		Mission: core,
		codec:   codec,
		issued:  make(map[int]string),
		asked:   make(map[int]domain.AskedQuestion),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	core.Bind(q)
	return q
}

// AddQuestion appends a producer to the bank. Registration order defines
// the stable ids 0..N-1.
func (q *QuizMission) AddQuestion(fn QuestionFunc) {
	q.questions = append(q.questions, fn)
	q.questionsNumber = len(q.questions)
	q.questionsLeft = q.questionsNumber
}

// IsCompleted holds once the running total reaches the configured threshold.
func (q *QuizMission) IsCompleted() bool {
	return q.Points() >= q.PointsRequired()
}

// ResetSession clears the per-session bookkeeping. Called from Open.
func (q *QuizMission) ResetSession() {
	q.issued = make(map[int]string)
	q.asked = make(map[int]domain.AskedQuestion)
	q.questionsLeft = q.questionsNumber
}

// Prepare handles one inbound turn. A non-nil answer is evaluated against
// the question it references; otherwise a new question is issued while the
// bank has any left, and an idle result is returned once it does not.
func (q *QuizMission) Prepare(ctx context.Context, answer *domain.Answer) (PrepareResult, error) {
	if answer != nil {
		result, err := q.evaluate(ctx, answer)
		if err != nil {
			return PrepareResult{}, err
		}
		return PrepareResult{Result: result}, nil
	}

	if q.questionsLeft > 0 {
		question, err := q.issue(ctx)
		if err != nil {
			return PrepareResult{}, err
		}
		return PrepareResult{Question: question}, nil
	}

	// Nothing left to present and nothing submitted: base no-op path.
	return PrepareResult{Idle: true}, nil
}

// evaluate scores a submission. Malformed payloads are request-level
// errors and leave every piece of state untouched.
func (q *QuizMission) evaluate(ctx context.Context, answer *domain.Answer) (*domain.AnswerResult, error) {
	if answer.Answer == "" {
		return nil, &domain.RequestError{Err: domain.ErrNoAnswerData}
	}
	if answer.Duration < 0 {
		return nil, &domain.RequestError{Err: fmt.Errorf("%w: negative duration", domain.ErrNoAnswerData)}
	}

	token, issued := q.issued[answer.QuestionID]
	if !issued {
		return nil, &domain.RequestError{Err: domain.ErrQuestionNotFound}
	}
	if _, done := q.asked[answer.QuestionID]; done {
		return nil, &domain.RequestError{Err: domain.ErrQuestionAnswered}
	}
	// The stored token is authoritative; a tampered echo is malformed input.
	if answer.Solution != "" && answer.Solution != token {
		return nil, &domain.RequestError{Err: fmt.Errorf("%w: solution token mismatch", domain.ErrNoAnswerData)}
	}

	// Comparison happens in ciphertext space: re-encode the submission and
	// match it against the issued candidates, so the key stays server-side.
	encoded := q.codec.Encode(answer.Answer)
	isCorrect := false
	for _, candidate := range obfuscate.SplitToken(token) {
		if candidate == encoded {
			isCorrect = true
			break
		}
	}

	solutions, err := q.codec.DecodeAll(token)
	if err != nil {
		return nil, fmt.Errorf("decode issued solutions: %w", err)
	}

	if isCorrect {
		q.RecordPoints(ScoreForDuration(answer.Duration))
	}
	q.asked[answer.QuestionID] = domain.AskedQuestion{
		ID:        answer.QuestionID,
		Duration:  answer.Duration,
		IsCorrect: isCorrect,
	}
	q.questionsLeft--

	result := &domain.AnswerResult{
		Solution:  solutions,
		IsCorrect: isCorrect,
	}
	if q.questionsLeft <= 0 {
		if err := q.Close(ctx); err != nil {
			return nil, err
		}
		result.IsComplete = true
	}
	return result, nil
}

// issue selects an unasked question, runs its producer, and emits the
// payload with the encrypted solution token attached. A producer failure
// aborts the attempt without touching any bookkeeping.
func (q *QuizMission) issue(ctx context.Context) (*domain.Question, error) {
	id, err := q.randomQuestionID()
	if err != nil {
		return nil, err
	}

	content, err := q.questions[id](ctx)
	if err != nil {
		return nil, fmt.Errorf("question producer %d: %w", id, err)
	}
	if len(content.Solutions) == 0 {
		return nil, fmt.Errorf("question producer %d: no solutions", id)
	}

	token := q.codec.EncodeAll(content.Solutions)
	q.issued[id] = token

	return &domain.Question{
		ID:       id,
		Label:    content.Label,
		Content:  content.Content,
		Solution: token,
		Answers:  content.Answers,
		Step:     q.Step(),
		Total:    q.questionsNumber,
	}, nil
}

// randomQuestionID redraws uniformly until it lands on an id outside the
// issued set. Callers guard questionsLeft > 0, and the exhaustion check
// compares counts, so the loop terminates.
func (q *QuizMission) randomQuestionID() (int, error) {
	if q.questionsNumber == 0 || len(q.issued) >= q.questionsNumber {
		return 0, domain.ErrQuizExhausted
	}
	for {
		id := q.rnd.Intn(q.questionsNumber)
		if _, used := q.issued[id]; !used {
			return id, nil
		}
	}
}

// CountQuestionSuccess returns how many evaluated questions were correct.
func (q *QuizMission) CountQuestionSuccess() int {
	count := 0
	for _, rec := range q.asked {
		if rec.IsCorrect {
			count++
		}
	}
	return count
}

// Step is the 1-based index of the current question for display.
func (q *QuizMission) Step() int {
	return q.questionsNumber - q.questionsLeft + 1
}

// QuestionsLeft returns the remaining-to-ask counter.
func (q *QuizMission) QuestionsLeft() int { return q.questionsLeft }

// QuestionsNumber returns the bank size.
func (q *QuizMission) QuestionsNumber() int { return q.questionsNumber }

// seedRandom pins the selection sequence for tests.
func (q *QuizMission) seedRandom(seed int64) {
	q.rnd = rand.New(rand.NewSource(seed))
}

// ScoreForDuration awards points for a correct answer submitted after
// duration milliseconds: full value near zero, decaying cubically. The
// duration is caller-supplied and unauthenticated, and the curve goes
// negative for large values; both are inherited product behavior.
func ScoreForDuration(durationMs int64) float64 {
	d := float64(durationMs)
	return -1*math.Pow(d, 3)*(10.0/125.0) + 10
}
