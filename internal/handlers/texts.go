package handlers

import (
	"fmt"
	"strings"
	"time"

	"telegram-mood-tracker/internal/models"
)

// Actions is the fixed vocabulary of things to do when the mood is low.
var Actions = []string{"Balade Katajanokka", "Sauna", "Baignade", "Pompes/Gainage"}

var Questions = []string{
	"Depuis combien d’heures ça dure ?",
	"Pour quelle raison ?",
	"Quelles sont les pensées qui te traversent l’esprit ?",
	"Qu’est-ce que tu as envie de faire ?",
	"Quelle solution tu choisis ? (Balade Katajanokka / Sauna / Baignade / Pompes/Gainage)",
}

const (
	txtIntro = "Tu as répondu non. Voici 4 solutions possibles :\n" +
		"- Balade à Katajanokka\n- Sauna\n- Baignade\n- Pompes / Gainage"

	txtDetailsTemplate = "Tu as répondu non. Réponds en un seul message avec ce modèle :\n" +
		"Durée: \n" +
		"Raison: \n" +
		"Pensées: \n" +
		"Envie: \n" +
		"Choix: (Balade Katajanokka / Sauna / Baignade / Pompes/Gainage)"

	txtThanks = "Merci pour ton retour."

	superseded = "superseded"
)

func suggestedActions() string {
	return strings.Join(Actions, " | ")
}

// ReminderText is the slot check-in prompt.
func ReminderText(day string, slot models.Slot) string {
	return fmt.Sprintf("[%s %s] Es-tu dans un bon état émotionnel ? Prends ton temps pour répondre \n"+
		"Réponds ici avec le format: 9 oui / 9 non (ou 15 oui/non, 21 oui/non).", day, slot)
}

// FollowupText is the delayed re-check for a negative answer.
func FollowupText(slot models.Slot, delay time.Duration) string {
	return fmt.Sprintf("Il y a ~%s tu as répondu NON pour %s. Est-ce que ça va mieux ? (oui/non)", shortDuration(delay), slot)
}

func shortDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%dh", d/time.Hour)
	}
	return fmt.Sprintf("%dmin", d/time.Minute)
}
