package botapp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/miraclemap/internal/domain/model"
	tginfra "github.com/ivankudzin/miraclemap/internal/infra/telegram"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
)

const (
	reasonCodeOther = "OTHER"

	helpText          = "Commands:\n/queue - pending submissions\n/stats - recent violations"
	accessDeniedText  = "Access denied."
	queueEmptyText    = "Moderation queue is empty."
	askReasonText     = "Send the rejection reason as a message."
	chooseReasonText  = "Choose a rejection reason:"
	alreadyDecidedMsg = "Already decided by someone else."
)

func (a *App) handleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	if !a.isModerator(update.UserID) {
		return a.send(ctx, update.ChatID, accessDeniedText)
	}

	switch update.Command {
	case "queue":
		return a.sendQueue(ctx, update.ChatID)
	case "stats":
		return a.sendStats(ctx, update.ChatID)
	case "cancel":
		a.clearPendingReject(update.UserID)
		return a.send(ctx, update.ChatID, "Cancelled.")
	default:
		return a.send(ctx, update.ChatID, helpText)
	}
}

func (a *App) handleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	action, args, ok := tginfra.ParseCallbackData(update.Data)
	if !ok {
		return nil
	}
	if !a.isModerator(update.UserID) {
		a.answer(ctx, update.CallbackID, accessDeniedText)
		return nil
	}

	switch action {
	case tginfra.ActionApprove:
		id := args[0]
		if _, err := a.moderation.Approve(ctx, id, actorID(update.UserID)); err != nil {
			a.answer(ctx, update.CallbackID, a.describeError(err, id))
			return nil
		}
		a.answer(ctx, update.CallbackID, "Approved")
		return a.send(ctx, update.ChatID, fmt.Sprintf("Submission %s approved.", id))

	case tginfra.ActionReject:
		a.answer(ctx, update.CallbackID, "")
		return a.sendReasonPicker(ctx, update.ChatID, args[0])

	case tginfra.ActionReason:
		if len(args) != 2 {
			return nil
		}
		code, id := args[0], args[1]
		if code == reasonCodeOther {
			a.setPendingReject(update.UserID, id)
			a.answer(ctx, update.CallbackID, "")
			return a.send(ctx, update.ChatID, askReasonText)
		}
		a.answer(ctx, update.CallbackID, "")
		return a.reject(ctx, update.ChatID, update.UserID, id, modsvc.RejectRequest{ReasonCode: code})
	}

	return nil
}

// handleText completes a pending OTHER rejection with the moderator's note.
func (a *App) handleText(ctx context.Context, update tginfra.TextUpdate) error {
	id, ok := a.takePendingReject(update.UserID)
	if !ok {
		return nil
	}
	if !a.isModerator(update.UserID) {
		return a.send(ctx, update.ChatID, accessDeniedText)
	}
	return a.reject(ctx, update.ChatID, update.UserID, id, modsvc.RejectRequest{
		ReasonCode: reasonCodeOther,
		Reason:     update.Text,
	})
}

func (a *App) reject(ctx context.Context, chatID, userID int64, id string, req modsvc.RejectRequest) error {
	req.ActorID = actorID(userID)
	state, _, err := a.moderation.Reject(ctx, id, req)
	if err != nil {
		return a.send(ctx, chatID, a.describeError(err, id))
	}
	return a.send(ctx, chatID, fmt.Sprintf("Submission %s rejected: %s", id, state.RejectionReason))
}

func (a *App) sendQueue(ctx context.Context, chatID int64) error {
	items, err := a.moderation.ListPending(ctx, "", a.cfg.Bot.QueuePageSize)
	if err != nil {
		a.logger.Error("list pending for bot", zap.Error(err))
		return a.send(ctx, chatID, "Failed to load the queue.")
	}
	if len(items) == 0 {
		return a.send(ctx, chatID, queueEmptyText)
	}
	for _, item := range items {
		if err := a.sendInline(ctx, chatID, tginfra.ReviewCard(item), tginfra.DecisionRows(item.Submission.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) sendReasonPicker(ctx context.Context, chatID int64, id string) error {
	reasons := a.moderation.ListRejectReasons()
	rows := make([][]tginfra.InlineButton, 0, len(reasons))
	for _, reason := range reasons {
		rows = append(rows, []tginfra.InlineButton{{
			Text: reason.Label,
			Data: tginfra.CallbackData(tginfra.ActionReason, reason.ReasonCode, id),
		}})
	}
	return a.sendInline(ctx, chatID, chooseReasonText, rows)
}

func (a *App) sendStats(ctx context.Context, chatID int64) error {
	stats, err := a.violations.Stats(ctx, 0)
	if err != nil {
		a.logger.Error("violation stats for bot", zap.Error(err))
		return a.send(ctx, chatID, "Failed to load stats.")
	}
	return a.send(ctx, chatID, formatStats(stats))
}

func formatStats(stats model.ViolationStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Violations in window: %d\n", stats.Total)

	lines := make([]string, 0, len(stats.ByViolationType)+len(stats.ByContentKind))
	for t, n := range stats.ByViolationType {
		lines = append(lines, fmt.Sprintf("  %s: %d", t, n))
	}
	sort.Strings(lines)
	kinds := make([]string, 0, len(stats.ByContentKind))
	for k, n := range stats.ByContentKind {
		kinds = append(kinds, fmt.Sprintf("  %s: %d", k, n))
	}
	sort.Strings(kinds)
	for _, line := range append(lines, kinds...) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(stats.Recent) > 0 {
		b.WriteString("Latest:\n")
		for _, rec := range stats.Recent {
			fmt.Fprintf(&b, "  %s %s %s\n", rec.CreatedAt.UTC().Format("2006-01-02 15:04"), rec.SubmissionID, rec.ViolationType)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) describeError(err error, id string) string {
	switch {
	case errors.Is(err, modsvc.ErrSubmissionNotFound):
		return fmt.Sprintf("Submission %s not found.", id)
	case modsvc.IsConflict(err):
		return alreadyDecidedMsg
	case errors.Is(err, modsvc.ErrValidation):
		return err.Error()
	default:
		a.logger.Error("bot moderation action failed", zap.String("submission_id", id), zap.Error(err))
		return "Something went wrong, try again."
	}
}

func (a *App) isModerator(userID int64) bool {
	_, ok := a.moderators[userID]
	return ok
}

func (a *App) setPendingReject(userID int64, id string) {
	a.rejectMu.Lock()
	defer a.rejectMu.Unlock()
	a.rejectByUser[userID] = id
}

func (a *App) takePendingReject(userID int64) (string, bool) {
	a.rejectMu.Lock()
	defer a.rejectMu.Unlock()
	id, ok := a.rejectByUser[userID]
	delete(a.rejectByUser, userID)
	return id, ok
}

func (a *App) clearPendingReject(userID int64) {
	a.rejectMu.Lock()
	defer a.rejectMu.Unlock()
	delete(a.rejectByUser, userID)
}

func (a *App) send(ctx context.Context, chatID int64, text string) error {
	if a.messenger == nil {
		return nil
	}
	if err := a.messenger.SendText(ctx, chatID, text); err != nil {
		a.logger.Warn("send telegram text", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return nil
}

func (a *App) sendInline(ctx context.Context, chatID int64, text string, rows [][]tginfra.InlineButton) error {
	if a.messenger == nil {
		return nil
	}
	if err := a.messenger.SendInline(ctx, chatID, text, rows); err != nil {
		a.logger.Warn("send telegram inline", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return nil
}

func (a *App) answer(ctx context.Context, callbackID, text string) {
	if a.messenger == nil {
		return
	}
	if err := a.messenger.AnswerCallback(ctx, callbackID, text); err != nil {
		a.logger.Debug("answer callback", zap.Error(err))
	}
}

// actorID names a telegram moderator in moderation decisions.
func actorID(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}
