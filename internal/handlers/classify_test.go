package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"telegram-mood-tracker/internal/models"
)

func TestParseSlotAnswerAccepts(t *testing.T) {
	slots := map[string]models.Slot{"9": models.SlotMorning, "09": models.SlotMorning, "15": models.SlotAfternoon, "21": models.SlotEvening}
	seps := []string{"", "h", ":", "H"}
	spaces := []string{" ", "   ", "\t"}
	answers := map[string]bool{"oui": true, "non": false, "OUI": true, "Non": false}

	for tok, slot := range slots {
		for _, sep := range seps {
			for _, sp := range spaces {
				for ans, yes := range answers {
					text := fmt.Sprintf("  %s%s%s%s ", tok, sep, sp, ans)
					got, gotYes, ok := ParseSlotAnswer(text)
					if assert.True(t, ok, "%q", text) {
						assert.Equal(t, slot, got, "%q", text)
						assert.Equal(t, yes, gotYes, "%q", text)
					}
				}
			}
		}
	}
}

func TestParseSlotAnswerRejects(t *testing.T) {
	for _, text := range []string{
		"", "oui", "non", "9", "9oui", "12 oui", "9 peut-être", "oui 9", "21:00 non",
		"9 ouii", "19 non", "09:30 oui", "bonjour", "9 o ui",
	} {
		_, _, ok := ParseSlotAnswer(text)
		assert.False(t, ok, "%q", text)
	}
}

func TestParseSlotAnswerSeparatorWithoutSpace(t *testing.T) {
	for text, want := range map[string]models.Slot{
		"9:oui":  models.SlotMorning,
		"9houi":  models.SlotMorning,
		"21hnon": models.SlotEvening,
	} {
		slot, _, ok := ParseSlotAnswer(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, slot, text)
	}
}

func TestParseSlotAnswerIgnoresExtraTokens(t *testing.T) {
	slot, yes, ok := ParseSlotAnswer("15 non pas terrible")
	assert.True(t, ok)
	assert.Equal(t, models.SlotAfternoon, slot)
	assert.False(t, yes)
}

func TestParseSlot(t *testing.T) {
	for in, want := range map[string]models.Slot{
		"9": models.SlotMorning, "09": models.SlotMorning, "9h": models.SlotMorning, "09:00": models.SlotMorning,
		"15": models.SlotAfternoon, "15h00": models.SlotAfternoon, "21:00": models.SlotEvening,
	} {
		got, ok := ParseSlot(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseSlot("10:00")
	assert.False(t, ok)
}

func TestClassifyPriority(t *testing.T) {
	sentAt := time.Now()
	awaiting := []models.FollowupEntry{{ID: "a", ChatID: testChat, Sent: true, AwaitingResponse: true, SentAt: &sentAt}}
	notYetSent := []models.FollowupEntry{{ID: "b", ChatID: testChat}}
	active := &models.Conversation{ChatID: testChat, Active: true}

	tests := []struct {
		name      string
		text      string
		conv      *models.Conversation
		followups []models.FollowupEntry
		want      Classification
	}{
		{"followup wins over conversation", " Oui ", active, awaiting, Classification{Kind: FollowupReply, Yes: true, Text: "oui"}},
		{"followup non", "non", nil, awaiting, Classification{Kind: FollowupReply, Yes: false, Text: "non"}},
		{"unsent followup does not capture", "oui", nil, notYetSent, Classification{Kind: Unrecognized}},
		{"conversation takes free text", "  3h  ", active, awaiting, Classification{Kind: QuestionnaireAnswer, Text: "3h"}},
		{"conversation takes slot-looking text", "9 oui", active, nil, Classification{Kind: QuestionnaireAnswer, Text: "9 oui"}},
		{"inactive conversation ignored", "21 non", &models.Conversation{}, nil, Classification{Kind: SlotAnswer, Slot: models.SlotEvening}},
		{"slot answer", "9h oui", nil, nil, Classification{Kind: SlotAnswer, Slot: models.SlotMorning, Yes: true}},
		{"bare oui without followup", "oui", nil, nil, Classification{Kind: Unrecognized}},
		{"noise", "salut", nil, nil, Classification{Kind: Unrecognized}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, tt.conv, tt.followups))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "slot_answer", SlotAnswer.String())
	assert.Equal(t, "unrecognized", Kind(42).String())
}
