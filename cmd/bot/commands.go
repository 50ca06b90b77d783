package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/srs"
)

const (
	defaultErrorMsg = "Looks like something went wrong. Try again in a bit."
	helpMsg         = `Commands:
focus <domain> <task type> - start a focus session
pause, resume, cancel
outcome <ok|partial|lost> [what you did]
word <term> | <translation> | <note>
review <words|phrases>
delete <item id>
seed - add the starter phrase deck`
)

// Reply is what a command answers with. Transports add their own controls:
// answer buttons when Item is set, outcome buttons when AskOutcome is set.
type Reply struct {
	Text       string
	Item       *naparnik.ExistingReviewItem
	AskOutcome bool
}

func textReply(format string, args ...any) Reply {
	return Reply{Text: fmt.Sprintf(format, args...)}
}

type commandHandler struct {
	sessionManager SessionManager
	l              *log.Logger
}

func NewCommandHandler(sm SessionManager, logger *log.Logger) *commandHandler {
	return &commandHandler{
		sessionManager: sm,
		l:              logger,
	}
}

func (h *commandHandler) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 10*time.Second)
}

// HandleText parses a chat message such as "/focus english reading" and runs it.
func (h *commandHandler) HandleText(ctx context.Context, userID, text string) Reply {
	name, args := splitCommand(text)
	switch name {
	case "focus", "start":
		fields := strings.Fields(args)
		if len(fields) < 2 {
			return textReply("Usage: focus <domain> <task type>")
		}
		return h.Focus(ctx, userID, fields[0], strings.Join(fields[1:], " "))
	case "pause":
		return h.Pause(userID)
	case "resume":
		return h.Resume(userID)
	case "cancel", "stop":
		return h.Cancel(userID)
	case "outcome":
		quality, description, _ := strings.Cut(args, " ")
		return h.Outcome(ctx, userID, quality, description)
	case "word":
		parts := strings.SplitN(args, "|", 3)
		if len(parts) < 2 {
			return textReply("Usage: word <term> | <translation> | <note>")
		}
		var note string
		if len(parts) == 3 {
			note = parts[2]
		}
		return h.AddWord(ctx, userID, parts[0], parts[1], note)
	case "review":
		return h.Review(ctx, userID, args)
	case "delete":
		return h.Delete(ctx, userID, naparnik.ReviewItemID(args))
	case "seed":
		return h.Seed(ctx, userID)
	default:
		return Reply{Text: helpMsg}
	}
}

// splitCommand lowercases the command word and drops a leading slash and a
// trailing @botname.
func splitCommand(text string) (name, args string) {
	text = strings.TrimSpace(text)
	name, args, _ = strings.Cut(text, " ")
	name = strings.TrimPrefix(name, "/")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), strings.TrimSpace(args)
}

func (h *commandHandler) Focus(ctx context.Context, userID, domain, taskType string) Reply {
	timeout, c := h.timeout(ctx)
	defer c()

	info, err := h.sessionManager.StartSession(timeout, startSessionRequest{
		userID:   userID,
		domain:   domain,
		taskType: taskType,
		replace:  true,
	})
	if err != nil {
		return h.errorReply("failed to start session", userID, err)
	}
	return textReply("Focus on %s / %s for %d minutes.", info.Domain, info.TaskType, info.PlannedMinutes)
}

func (h *commandHandler) Pause(userID string) Reply {
	if _, ok := h.sessionManager.PauseSession(userID); !ok {
		return textReply("No running session to pause.")
	}
	return textReply("Paused.")
}

func (h *commandHandler) Resume(userID string) Reply {
	if _, ok := h.sessionManager.ResumeSession(userID); !ok {
		return textReply("No paused session to resume.")
	}
	return textReply("Back to it.")
}

func (h *commandHandler) Cancel(userID string) Reply {
	info, ok := h.sessionManager.CancelSession(userID)
	if !ok {
		return textReply("No session to cancel.")
	}
	return Reply{
		Text:       fmt.Sprintf("Session stopped after %d:%02d. How did it go?", info.ElapsedSeconds/60, info.ElapsedSeconds%60),
		AskOutcome: true,
	}
}

func (h *commandHandler) Outcome(ctx context.Context, userID, quality, description string) Reply {
	q, err := naparnik.ParseFocusQuality(strings.ToLower(strings.TrimSpace(quality)))
	if err != nil {
		return textReply("Usage: outcome <ok|partial|lost> [what you did]")
	}

	timeout, c := h.timeout(ctx)
	defer c()
	rec, err := h.sessionManager.RecordOutcome(timeout, userID, q, description)
	if errors.Is(err, naparnik.ErrNotFound) {
		return textReply("There is no finished session waiting for an outcome.")
	}
	if err != nil {
		return h.errorReply("failed to record outcome", userID, err)
	}
	return textReply("Saved: %d of %d minutes, %s.", rec.ActualMinutes, rec.PlannedMinutes, rec.Status)
}

func (h *commandHandler) AddWord(ctx context.Context, userID, term, translation, note string) Reply {
	timeout, c := h.timeout(ctx)
	defer c()

	item, err := h.sessionManager.AddReviewItem(timeout, userID, naparnik.WordKind, term, translation, note)
	if err != nil {
		if !errors.Is(err, naparnik.ErrPersistence) {
			return textReply("Usage: word <term> | <translation> | <note>")
		}
		return h.errorReply("failed to add word", userID, err)
	}
	return textReply("Added %q. id: %s", item.Term, item.ID)
}

func (h *commandHandler) Review(ctx context.Context, userID, kind string) Reply {
	if kind == "" {
		kind = naparnik.WordKind.String()
	}
	k, err := naparnik.ParseReviewKind(strings.ToLower(strings.TrimSpace(kind)))
	if err != nil {
		return textReply("Usage: review <words|phrases>")
	}

	timeout, c := h.timeout(ctx)
	defer c()
	items, err := h.sessionManager.DueItems(timeout, userID, k)
	if err != nil {
		return h.errorReply("failed to list due items", userID, err)
	}
	if len(items) == 0 {
		return Reply{Text: naparnik.NoDueItemsMessage}
	}
	first := items[0]
	return Reply{
		Text: fmt.Sprintf("%s\n\n%d due.", naparnik.ReviewPrompt(first), len(items)),
		Item: &first,
	}
}

// Answer applies a review outcome and moves on to the next due item of the same kind.
func (h *commandHandler) Answer(ctx context.Context, userID string, id naparnik.ReviewItemID, o srs.Outcome) Reply {
	timeout, c := h.timeout(ctx)
	defer c()

	item, err := h.sessionManager.ReviewItem(timeout, userID, id, o, "")
	if errors.Is(err, naparnik.ErrNotFound) {
		return textReply("That item no longer exists.")
	}
	if err != nil {
		return h.errorReply("failed to review item", userID, err)
	}

	next := h.Review(ctx, userID, item.Kind.String())
	next.Text = fmt.Sprintf("%s\nNext review: %s\n\n%s", naparnik.ReviewAnswer(item), item.NextReview.Format(time.DateOnly), next.Text)
	return next
}

func (h *commandHandler) Delete(ctx context.Context, userID string, id naparnik.ReviewItemID) Reply {
	if id == "" {
		return textReply("Usage: delete <item id>")
	}
	timeout, c := h.timeout(ctx)
	defer c()

	err := h.sessionManager.DeleteReviewItem(timeout, userID, id)
	if errors.Is(err, naparnik.ErrNotFound) {
		return textReply("No item with id %s.", id)
	}
	if err != nil {
		return h.errorReply("failed to delete item", userID, err)
	}
	return textReply("Deleted.")
}

func (h *commandHandler) Seed(ctx context.Context, userID string) Reply {
	timeout, c := h.timeout(ctx)
	defer c()

	n, err := h.sessionManager.SeedPhrases(timeout, userID)
	if err != nil {
		return h.errorReply("failed to seed phrases", userID, err)
	}
	if n == 0 {
		return textReply("You already have phrases to review.")
	}
	return textReply("Added %d phrases. Try: review phrases", n)
}

func (h *commandHandler) errorReply(msg, userID string, err error) Reply {
	h.l.Error(msg, "uid", userID, "err", err)
	return Reply{Text: defaultErrorMsg}
}
