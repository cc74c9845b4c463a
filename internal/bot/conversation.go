package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"task-planner/internal/schedule"
	"task-planner/internal/service"
)

type conversationStage int

const (
	stageTitle conversationStage = iota
	stageDescription
	stageCategory
	stageStart
	stageEnd
	stageRepeat
	stageEstimate
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

type stagePrompt struct {
	text   string
	markup func() tgbotapi.ReplyKeyboardMarkup
}

var stagePrompts = map[conversationStage]stagePrompt{
	stageTitle:       {"🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard},
	stageDescription: {"✏️ Добавь короткое описание (или нажми «Пропустить»).", skipKeyboard},
	stageCategory:    {"🏷 Выбери категорию или отправь свою (можно «Пропустить»).", categoryKeyboard},
	stageStart:       {"📅 Когда начать? Дата <code>2025-11-30</code>, <code>завтра</code> или <code>+2</code> («Пропустить» = сегодня).", skipKeyboard},
	stageEnd:         {"⏰ До какого дня? Укажи дату окончания или число дней, например <code>3</code>.", cancelKeyboard},
	stageRepeat:      {"🔁 Повторять каждые N дней? Отправь число (или «Пропустить»).", skipKeyboard},
	stageEstimate:    {"⏱ Сколько минут займёт задача? (или «Пропустить»)", skipKeyboard},
}

func (b *Bot) startNewTaskConversation(chatID, userID int64) error {
	b.log.Info("start new task conversation", zap.Int64("from", userID))
	b.setConversation(userID, &conversationState{stage: stageTitle})
	return b.prompt(chatID, stageTitle, "")
}

// prompt asks for stage, optionally prefixed by a complaint about the
// previous answer.
func (b *Bot) prompt(chatID int64, stage conversationStage, complaint string) error {
	p := stagePrompts[stage]
	text := p.text
	if complaint != "" {
		text = complaint + "\n" + text
	}
	return b.send(chatID, text, p.markup())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}
	b.log.Debug("conversation step", zap.Int64("from", msg.From.ID), zap.Int("stage", int(state.stage)))

	complaint := applyAnswer(state, msg.Text, b.now())
	if complaint != "" {
		return b.prompt(msg.Chat.ID, state.stage, complaint)
	}
	if state.stage < stageEstimate {
		state.stage++
		return b.prompt(msg.Chat.ID, state.stage, "")
	}

	b.clearConversation(msg.From.ID)
	return b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
}

// applyAnswer stores text as the answer to the current stage. It returns a
// complaint when the answer cannot be used, leaving state untouched.
func applyAnswer(state *conversationState, text string, now time.Time) string {
	text = strings.TrimSpace(text)
	in := &state.input
	switch state.stage {
	case stageTitle:
		if text == "" {
			return "Название не может быть пустым."
		}
		in.Title = text
	case stageDescription:
		if !isSkipInput(text) {
			in.Description = text
		}
	case stageCategory:
		if !isSkipInput(text) {
			in.Category = text
		}
	case stageStart:
		start := schedule.StartOfDay(now)
		if !isSkipInput(text) {
			parsed, err := parseDayArg(text, now)
			if err != nil {
				return "Не могу распознать дату."
			}
			start = parsed
		}
		in.StartDate = &start
	case stageEnd:
		end, rangeDays, err := parseEndInput(text, now)
		if err != nil {
			return "Нужна дата окончания или положительное число дней."
		}
		if end != nil && schedule.CompareDays(*end, *in.StartDate) < 0 {
			return "Дата окончания не может быть раньше начала."
		}
		in.EndDate, in.RangeDays = end, rangeDays
	case stageRepeat:
		repeat, err := parseOptionalNumber(text)
		if err != nil {
			return "Интервал повтора должен быть неотрицательным числом."
		}
		in.RepeatDays = repeat
	case stageEstimate:
		estimate, err := parseOptionalNumber(text)
		if err != nil {
			return "Оценка должна быть неотрицательным числом минут."
		}
		in.TimeEstimateMins = estimate
	}
	return ""
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendText(chatID, "Не удалось сохранить задачу. "+b.userError(err))
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	fmt.Fprintf(&summary, "• <b>ID:</b> %d\n", task.ID)
	fmt.Fprintf(&summary, "• <b>Название:</b> %s\n", escape(service.NormalizeTitle(task.Title)))
	if task.Description != "" {
		fmt.Fprintf(&summary, "• <b>Описание:</b> %s\n", escape(task.Description))
	}
	fmt.Fprintf(&summary, "• <b>Срок:</b> %s → %s (%d дн.)\n",
		task.StartDate.Format(time.DateOnly), task.EndDate.Format(time.DateOnly), task.RangeDays)
	if task.IsRepeating() {
		fmt.Fprintf(&summary, "• <b>Повтор:</b> каждые %d дн.\n", *task.RepeatDays)
	}
	if task.TimeEstimateMins != nil {
		fmt.Fprintf(&summary, "• <b>Оценка:</b> %s\n", service.FormatEstimate(*task.TimeEstimateMins))
	}

	if err := b.send(chatID, strings.TrimSpace(summary.String()), tgbotapi.NewRemoveKeyboard(true)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user, service.ListOptions{SortBy: service.SortByEnd})
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
