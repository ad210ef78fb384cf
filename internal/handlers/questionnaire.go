package handlers

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"telegram-mood-tracker/internal/models"
)

const (
	ModeStepwise = "stepwise"
	ModeSingle   = "single"
)

// Questionnaire is the follow-up policy started by a negative slot answer.
// Exactly one implementation is active per process.
type Questionnaire interface {
	Mode() string
	// ScheduleOnStart reports whether the followup is scheduled with the
	// negative answer rather than when the questionnaire completes.
	ScheduleOnStart() bool
	Begin(c *models.Conversation)
	// Answer consumes one message and reports whether the questionnaire is complete.
	Answer(ctx context.Context, c *models.Conversation, text string) (bool, error)
	// Pending returns the prompts the ask unit still owes the user.
	Pending(c *models.Conversation) []string
}

func NewQuestionnaire(mode string) (Questionnaire, error) {
	switch mode {
	case "", ModeStepwise:
		return Stepwise{}, nil
	case ModeSingle:
		return Single{}, nil
	}
	return nil, fmt.Errorf("unknown questionnaire mode %q", mode)
}

// Stepwise asks the five questions one message at a time.
type Stepwise struct{}

const evAnswer = "answer"

var stepEvents = func() fsm.Events {
	var evs fsm.Events
	for i, st := range models.QuestionStates {
		evs = append(evs, fsm.EventDesc{
			Name: evAnswer,
			Src:  []string{string(st)},
			Dst:  string(models.StateForStep(i + 1)),
		})
	}
	return evs
}()

func (Stepwise) Mode() string          { return ModeStepwise }
func (Stepwise) ScheduleOnStart() bool { return false }

func (Stepwise) Begin(c *models.Conversation) {
	c.Active = true
	c.Step = 0
	c.LastQuestionSent = -1
	c.AwaitingDetails = false
	c.Answers = models.Answers{}
}

func (Stepwise) Answer(ctx context.Context, c *models.Conversation, text string) (bool, error) {
	if c.Step >= len(models.QuestionStates) {
		return true, nil
	}
	machine := fsm.NewFSM(
		string(models.StateForStep(c.Step)),
		stepEvents,
		fsm.Callbacks{
			"before_" + evAnswer: func(_ context.Context, e *fsm.Event) {
				setAnswer(&c.Answers, models.State(e.Src), text)
			},
		},
	)
	if err := machine.Event(ctx, evAnswer); err != nil {
		return false, fmt.Errorf("questionnaire step %d: %w", c.Step, err)
	}
	next := models.State(machine.Current())
	c.Step = models.StepForState(next)
	return next == models.StateDone, nil
}

func (Stepwise) Pending(c *models.Conversation) []string {
	if c.Step >= len(Questions) || c.LastQuestionSent >= c.Step {
		return nil
	}
	var out []string
	if c.Step == 0 && c.LastQuestionSent < 0 {
		out = append(out, txtIntro)
	}
	return append(out, Questions[c.Step])
}

// Single sends one template and expects all five fields in one reply.
type Single struct{}

func (Single) Mode() string          { return ModeSingle }
func (Single) ScheduleOnStart() bool { return true }

func (Single) Begin(c *models.Conversation) {
	c.Active = true
	c.Step = 0
	c.LastQuestionSent = -1
	c.AwaitingDetails = true
	c.Answers = models.Answers{}
}

func (Single) Answer(_ context.Context, c *models.Conversation, text string) (bool, error) {
	c.Answers = ParseDetails(text)
	c.Answers.Choice = NormalizeChoice(c.Answers.Choice)
	c.AwaitingDetails = false
	c.Step = len(models.QuestionStates)
	return true, nil
}

func (Single) Pending(c *models.Conversation) []string {
	if !c.AwaitingDetails || c.LastQuestionSent >= 0 {
		return nil
	}
	return []string{txtDetailsTemplate}
}
