package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-planner/internal/config"
	"task-planner/internal/model"
	"task-planner/internal/repository"
	"task-planner/internal/schedule"
	"task-planner/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbPostponePrefix = "postpone:"
)

const weekDays = 7

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

// Bot connects the Telegram API to the planner services. Dialog and
// confirmation state is kept per Telegram user.
type Bot struct {
	api         *tgbotapi.BotAPI
	users       *repository.UserRepository
	categorySvc *service.CategoryService
	taskSvc     *service.TaskService
	reminderSvc *service.ReminderService
	config      *config.Config
	log         *zap.Logger

	mu            sync.Mutex
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
}

func New(token string, users *repository.UserRepository, categorySvc *service.CategoryService, taskSvc *service.TaskService, reminderSvc *service.ReminderService, cfg *config.Config, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:           api,
		users:         users,
		categorySvc:   categorySvc,
		taskSvc:       taskSvc,
		reminderSvc:   reminderSvc,
		config:        cfg,
		log:           log,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	b.log.Info("polling updates")
	for update := range updates {
		var err error
		switch {
		case update.CallbackQuery != nil:
			err = b.handleCallback(ctx, update.CallbackQuery)
		case update.Message != nil && update.Message.Chat != nil && update.Message.Chat.IsPrivate():
			err = b.handleMessage(ctx, update.Message)
		default:
			continue
		}
		if err != nil {
			b.log.Error("handle update", zap.Int("update_id", update.UpdateID), zap.Error(err))
		}
	}
	return nil
}

func (b *Bot) now() time.Time {
	return b.config.LocalTime(time.Now())
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID, userID := msg.Chat.ID, msg.From.ID

	if msg.IsCommand() {
		b.log.Debug("command",
			zap.Int64("from", userID),
			zap.String("command", msg.Command()),
			zap.String("args", msg.CommandArguments()))
		return b.handleCommand(ctx, msg, msg.Command(), msg.CommandArguments())
	}

	if isCancelDialogInput(msg.Text) {
		b.clearConversation(userID)
		b.clearConfirmation(userID)
		return b.sendText(chatID, "⏪ Ввод отменён. Можно начать заново.")
	}
	if pending, ok := b.getConfirmation(userID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}
	if b.hasConversation(userID) {
		return b.handleConversation(ctx, msg)
	}
	if command, ok := menuCommands[strings.ToLower(strings.TrimSpace(msg.Text))]; ok {
		return b.handleCommand(ctx, msg, command, "")
	}

	return b.sendText(chatID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, command, args string) error {
	chatID := msg.Chat.ID
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	switch command {
	case "start":
		return b.handleStart(chatID, msg.From)
	case "help":
		return b.sendText(chatID, helpText)
	case "newtask":
		return b.startNewTaskConversation(chatID, msg.From.ID)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "⏪ Диалог создания задачи отменён.")
	case "today":
		return b.sendDay(ctx, chatID, user, "")
	case "day":
		return b.sendDay(ctx, chatID, user, args)
	case "week":
		return b.sendWeek(ctx, chatID, user)
	case "tasks":
		opts, err := parseListArgs(args)
		if err != nil {
			return b.sendText(chatID, "Сортировка: start, end, range, estimate или repeat, например /tasks estimate desc")
		}
		return b.sendTaskList(ctx, chatID, user, opts)
	case "categories":
		return b.sendCategories(ctx, chatID, user)
	case "complete", "delete":
		taskID, err := parseTaskID(args, "")
		if err != nil {
			return b.sendText(chatID, fmt.Sprintf("Укажи ID задачи: /%s 12", command))
		}
		if command == "delete" {
			return b.deleteTask(ctx, chatID, user, taskID)
		}
		return b.completeTask(ctx, chatID, user, taskID)
	case "postpone":
		return b.handlePostpone(ctx, chatID, user, args)
	case "report":
		return b.sendReport(ctx, chatID, user)
	case "reports":
		return b.toggleReports(ctx, chatID, user, args)
	default:
		return b.sendText(chatID, "Команда не поддерживается. Загляни в /help.")
	}
}

const helpText = "ℹ️ <b>Команды</b>\n" +
	"• /newtask — добавить задачу пошагово\n" +
	"• /today — задачи на сегодня\n" +
	"• /day &lt;дата&gt; — задачи на день (например, /day 2025-11-30 или /day +3)\n" +
	"• /week — план на неделю с повторами\n" +
	"• /tasks [start|end|range|estimate|repeat] [desc] [all] — список задач\n" +
	"• /complete &lt;id&gt; — отметить задачу выполненной\n" +
	"• /postpone &lt;id&gt; &lt;дата&gt; — отложить задачу\n" +
	"• /delete &lt;id&gt; — удалить задачу\n" +
	"• /categories — список категорий\n" +
	"• /report — отчёт прямо сейчас\n" +
	"• /reports on|off — включить или выключить рассылку отчётов\n" +
	"• /cancel — отменить текущий ввод"

func (b *Bot) handleStart(chatID int64, from *tgbotapi.User) error {
	name := strings.TrimSpace(from.FirstName)
	if name == "" {
		name = "друг"
	}
	text := fmt.Sprintf("👋 Привет, %s!\n<b>Я планировщик задач: покажу, что важно сегодня и что ждёт впереди.</b>\n\n%s",
		escape(name), helpText)
	return b.sendText(chatID, text)
}

func (b *Bot) sendReport(ctx context.Context, chatID int64, user *model.User) error {
	text, err := b.reminderSvc.DailySummary(ctx, *user, b.now())
	if err != nil {
		return b.sendText(chatID, "Не удалось сформировать отчёт. "+b.userError(err))
	}
	return b.sendText(chatID, text)
}

func (b *Bot) toggleReports(ctx context.Context, chatID int64, user *model.User, args string) error {
	var muted bool
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on", "вкл":
	case "off", "выкл":
		muted = true
	default:
		state := "включена"
		if user.ReportsMuted {
			state = "выключена"
		}
		return b.sendText(chatID, fmt.Sprintf("Рассылка отчётов %s. Используй /reports on или /reports off.", state))
	}

	if err := b.users.SetReportsMuted(ctx, user, muted); err != nil {
		return b.sendText(chatID, b.userError(err))
	}
	if muted {
		return b.sendText(chatID, "🔕 Отчёты больше не будут приходить.")
	}
	return b.sendText(chatID, "🔔 Отчёты снова включены.")
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, user *model.User, arg string) error {
	now := b.now()
	target, err := parseDayArg(arg, now)
	if err != nil {
		return b.sendText(chatID, "Не могу распознать дату. Используй <code>2025-11-30</code>, <code>завтра</code> или <code>+3</code>.")
	}

	tasks, err := b.taskSvc.TasksForDay(ctx, user, target, now)
	if err != nil {
		return b.sendText(chatID, "Не удалось получить задачи. "+b.userError(err))
	}
	catNames, _ := b.categorySvc.Names(ctx, user)

	var out strings.Builder
	fmt.Fprintf(&out, "🗓 <b>%s</b>\n\n", dayTitle(target, now))
	if len(tasks) == 0 {
		out.WriteString("Задач на этот день нет.")
		return b.sendText(chatID, out.String())
	}

	at := service.PriorityAt(target, now)
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		out.WriteString(service.FormatTask(task, at, catNames))
		out.WriteByte('\n')
		if !task.IsProjected && !task.IsCompleted() {
			rows = append(rows, taskButtons(task))
		}
	}
	return b.send(chatID, strings.TrimSpace(out.String()), inlineMarkup(rows))
}

func (b *Bot) sendWeek(ctx context.Context, chatID int64, user *model.User) error {
	now := b.now()
	agenda, err := b.taskSvc.Agenda(ctx, user, now, weekDays, now)
	if err != nil {
		return b.sendText(chatID, "Не удалось построить план. "+b.userError(err))
	}

	var out strings.Builder
	out.WriteString("📅 <b>План на неделю</b>\n")
	for _, day := range agenda {
		fmt.Fprintf(&out, "\n<b>%s</b>\n", dayTitle(day.Day, now))
		if len(day.Tasks) == 0 {
			out.WriteString("— свободно\n")
			continue
		}
		at := service.PriorityAt(day.Day, now)
		for _, task := range day.Tasks {
			fmt.Fprintf(&out, "%s %s\n", service.TaskIcon(task, at), escape(service.NormalizeTitle(task.Title)))
		}
	}
	return b.sendText(chatID, strings.TrimSpace(out.String()))
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User, opts service.ListOptions) error {
	tasks, err := b.taskSvc.ListTasks(ctx, user, opts)
	if err != nil {
		return b.sendText(chatID, "Не удалось получить задачи. "+b.userError(err))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "У тебя нет открытых задач. Добавь новую через /newtask.")
	}
	catNames, _ := b.categorySvc.Names(ctx, user)

	now := b.now()
	var out strings.Builder
	out.WriteString("📋 <b>Задачи</b>\n")
	out.WriteString("Кнопки: выполнить, отложить на день, удалить.\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		out.WriteString(service.FormatTask(task, now, catNames))
		out.WriteByte('\n')
		if !task.IsCompleted() {
			rows = append(rows, taskButtons(task))
		}
	}
	return b.send(chatID, strings.TrimSpace(out.String()), inlineMarkup(rows))
}

func (b *Bot) sendCategories(ctx context.Context, chatID int64, user *model.User) error {
	categories, err := b.categorySvc.List(ctx, user)
	if err != nil {
		return b.sendText(chatID, "Не удалось получить категории. "+b.userError(err))
	}
	if len(categories) == 0 {
		return b.sendText(chatID, "Категорий пока нет. Их можно задать при создании задачи.")
	}
	var out strings.Builder
	out.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range categories {
		fmt.Fprintf(&out, "• %s\n", escape(strings.TrimSpace(cat.Name)))
	}
	return b.sendText(chatID, strings.TrimSpace(out.String()))
}

func (b *Bot) handlePostpone(ctx context.Context, chatID int64, user *model.User, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return b.sendText(chatID, "Укажи ID задачи и дату: /postpone 12 2025-11-30")
	}
	taskID, err := parseTaskID(fields[0], "")
	if err != nil {
		return b.sendText(chatID, "ID задачи должен быть числом.")
	}
	now := b.now()
	until, err := parseDayArg(fields[1], now)
	if err != nil {
		return b.sendText(chatID, "Не могу распознать дату. Используй формат <code>2025-11-30</code>.")
	}
	return b.postpone(ctx, chatID, user, taskID, until, now)
}

func (b *Bot) postpone(ctx context.Context, chatID int64, user *model.User, taskID uint, until, now time.Time) error {
	task, err := b.taskSvc.PostponeTask(ctx, user, taskID, until, now)
	if err != nil {
		return b.sendText(chatID, b.userError(err))
	}
	return b.sendText(chatID, fmt.Sprintf("⏸ Задача «%s» отложена до %s.",
		escape(service.NormalizeTitle(task.Title)), until.Format(time.DateOnly)))
}

// SendDailyReports sends a summary to every user that has not muted reports.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.users.ListReportable(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := b.reminderSvc.DailySummary(ctx, user, now)
		if err != nil {
			b.log.Warn("build summary", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}
		if err := b.send(user.TelegramID, text, nil); err != nil {
			b.log.Warn("send summary", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		}
	}
	b.log.Info("reports sent", zap.Int("users", len(users)))
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}
	b.log.Debug("callback", zap.Int64("from", cb.From.ID), zap.String("data", cb.Data))

	prefix, _, _ := strings.Cut(cb.Data, ":")
	taskID, err := parseTaskID(cb.Data, prefix+":")
	if err != nil {
		return nil
	}
	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}

	chatID := cb.Message.Chat.ID
	switch prefix + ":" {
	case cbCompletePrefix:
		return b.askConfirmation(ctx, chatID, cb.From.ID, user, taskID, actionComplete)
	case cbDeletePrefix:
		return b.askConfirmation(ctx, chatID, cb.From.ID, user, taskID, actionDelete)
	case cbPostponePrefix:
		task, err := b.taskSvc.GetTask(ctx, user, taskID)
		if err != nil {
			return b.sendText(chatID, b.userError(err))
		}
		now := b.now()
		return b.postpone(ctx, chatID, user, taskID, nextPostponeDay(*task, now), now)
	default:
		return nil
	}
}

func (b *Bot) askConfirmation(ctx context.Context, chatID, userID int64, user *model.User, taskID uint, action confirmationAction) error {
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, b.userError(err))
	}

	title := escape(service.NormalizeTitle(task.Title))
	text := fmt.Sprintf("Удалить задачу «%s» (#%d)?", title, task.ID)
	if action == actionComplete {
		if task.IsCompleted() {
			return b.sendText(chatID, b.userError(service.ErrAlreadyCompleted))
		}
		text = fmt.Sprintf("Отметить задачу «%s» (#%d) как выполненную?", title, task.ID)
	}

	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, action: action})
	return b.send(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	chatID := msg.Chat.ID
	switch {
	case isConfirmInput(msg.Text):
		b.clearConfirmation(msg.From.ID)
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		if req.action == actionDelete {
			return b.deleteTask(ctx, chatID, user, req.taskID)
		}
		return b.completeTask(ctx, chatID, user, req.taskID)
	case isCancelInput(msg.Text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(chatID)
	default:
		prompt := "Подтверди или отмени выполнение задачи."
		if req.action == actionDelete {
			prompt = "Подтверди или отмени удаление задачи."
		}
		return b.send(chatID, prompt, confirmKeyboard())
	}
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, user *model.User, taskID uint) error {
	task, next, err := b.taskSvc.CompleteTask(ctx, user, taskID, b.now())
	if err != nil {
		return b.sendTextWithRemove(chatID, b.userError(err))
	}

	info := fmt.Sprintf("✅ Задача «%s» выполнена.", escape(service.NormalizeTitle(task.Title)))
	if next != nil {
		info += fmt.Sprintf("\n♻️ Следующий раз: %s (#%d).", next.StartDate.Format(time.DateOnly), next.ID)
	}
	if err := b.sendTextWithRemove(chatID, info); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user, service.ListOptions{SortBy: service.SortByEnd})
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, user *model.User, taskID uint) error {
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err == nil {
		err = b.taskSvc.DeleteTask(ctx, user, taskID)
	}
	if err != nil {
		return b.sendTextWithRemove(chatID, b.userError(err))
	}
	return b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(service.NormalizeTitle(task.Title))))
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

// send delivers an HTML message. A nil markup leaves the current keyboard.
func (b *Bot) send(chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.send(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	if err := b.send(chatID, text, tgbotapi.NewRemoveKeyboard(true)); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	return b.send(chatID, "🔹 Главное меню", mainMenuKeyboard())
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

const internalErrorReply = "Что-то пошло не так, попробуй ещё раз позже."

// userError renders err as a reply. Known sentinel errors get a readable
// explanation. Anything else is logged and answered with a generic message.
func (b *Bot) userError(err error) string {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "Задача не найдена или уже удалена."
	case errors.Is(err, service.ErrAlreadyCompleted):
		return "Задача уже выполнена."
	case errors.Is(err, service.ErrInvalidPostpone):
		return "Отложить можно только на день позже сегодняшнего, начала задачи и прошлого переноса."
	case errors.Is(err, schedule.ErrInvalidArgument):
		return "Проверь введённые данные: " + escape(err.Error())
	default:
		b.log.Error("request failed", zap.Error(err))
		return internalErrorReply
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}
