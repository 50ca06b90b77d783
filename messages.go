package naparnik

import "fmt"

const (
	CompletionMessage = "Time's up. How did it go? Report with ok, partial or lost."
	NoDueItemsMessage = "Nothing to review right now."
)

func FocusMessage(progress string) string {
	return "One round. No heroics. I'm with you.\n\n" + progress
}

func ReminderMessage(dueWords, duePhrases int) string {
	return fmt.Sprintf("Review time: %d words and %d phrases are due.", dueWords, duePhrases)
}

func ReviewPrompt(item ExistingReviewItem) string {
	return fmt.Sprintf("%s: %s\n\nDo you remember the translation?", item.Kind, item.Term)
}

func ReviewAnswer(item ExistingReviewItem) string {
	if item.Note == "" {
		return fmt.Sprintf("%s: %s", item.Term, item.Translation)
	}
	return fmt.Sprintf("%s: %s\n%s", item.Term, item.Translation, item.Note)
}
