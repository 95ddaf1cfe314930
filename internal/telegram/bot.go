package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/config"
	"cafeteria-planner/internal/export"
	"cafeteria-planner/internal/history"
	"cafeteria-planner/internal/menu"
	"cafeteria-planner/internal/order"
	"cafeteria-planner/internal/recipe"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	historyLimit   = 5
	usageDays      = 7
	requestTimeout = 30 * time.Second
)

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot wraps the Telegram API and the planner application.
type Bot struct {
	client sender
	app    *app.App
	cfg    *config.Config

	mu       sync.Mutex
	sessions map[int64]menu.WeeklyMenu
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Info().Str("response", resp.Description).Msg("webhook set")

	return newBot(api, cfg, a), nil
}

func newBot(client sender, cfg *config.Config, a *app.App) *Bot {
	return &Bot{
		client:   client,
		app:      a,
		cfg:      cfg,
		sessions: make(map[int64]menu.WeeklyMenu),
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("failed to parse update")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.allowed(msg.From.ID) {
		log.Warn().Int64("user_id", msg.From.ID).Str("username", msg.From.UserName).Msg("unauthorized access attempt")
		return
	}

	go b.processMessage(msg)
}

func (b *Bot) allowed(userID int64) bool {
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cmd, args := parseCommand(msg.Text)
	chatID := msg.Chat.ID

	switch cmd {
	case "start", "ayuda", "help":
		b.reply(chatID, helpText)
	case "recetas":
		b.handleRecipes(chatID, args)
	case "menu":
		b.reply(chatID, formatMenu(b.session(chatID)))
	case "asignar":
		b.handleAssign(chatID, args)
	case "quitar":
		b.handleClear(chatID, args)
	case "limpiar":
		b.updateSession(chatID, func(m *menu.WeeklyMenu) error {
			m.Reset()
			return nil
		})
		b.reply(chatID, "🧹 Menú vacío.")
	case "calcular":
		b.handleCalculate(ctx, chatID, msg.From.ID, args)
	case "historial":
		b.handleHistory(ctx, chatID, msg.From.ID)
	case "metrics":
		b.handleMetricsRequest(ctx, msg)
	default:
		b.reply(chatID, "🤔 No entiendo ese comando.\n\n"+helpText)
	}
}

const helpText = "🍽 *Planificador del comedor*\n\n" +
	"/recetas [categoría] - lista de recetas\n" +
	"/menu - menú de la semana\n" +
	"/asignar <día> <plato> <receta> - asigna una receta\n" +
	"/quitar <día> <plato> - vacía un plato\n" +
	"/limpiar - vacía todo el menú\n" +
	"/calcular <comensales> [día] - calcula el pedido\n" +
	"/historial - últimos pedidos"

// parseCommand splits "/asignar@bot lunes principal Arroz" into the command
// name and its arguments. Text that is not a command yields an empty name.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}

func (b *Bot) session(chatID int64) menu.WeeklyMenu {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) updateSession(chatID int64, fn func(m *menu.WeeklyMenu) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.sessions[chatID]
	if err := fn(&m); err != nil {
		return err
	}
	b.sessions[chatID] = m
	return nil
}

func (b *Bot) handleRecipes(chatID int64, args []string) {
	var recipes []recipe.Recipe
	if len(args) > 0 {
		cat, err := recipe.NormalizeCategory(strings.Join(args, " "))
		if err != nil {
			b.reply(chatID, "❌ Categoría desconocida. Usa principal, acompañamiento, postre o fruta.")
			return
		}
		recipes = b.app.RecipesByCategory(cat)
	} else {
		for _, e := range b.app.Recipes() {
			recipes = append(recipes, e.Recipe)
		}
	}
	b.reply(chatID, formatRecipes(recipes))
}

func (b *Bot) handleAssign(chatID int64, args []string) {
	if len(args) < 3 {
		b.reply(chatID, "Uso: /asignar <día> <plato> <receta>")
		return
	}
	day, slot, err := parseDaySlot(args[0], args[1])
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	name := strings.Join(args[2:], " ")

	if err := b.updateSession(chatID, func(m *menu.WeeklyMenu) error {
		return m.Assign(day, slot, name)
	}); err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}

	text := fmt.Sprintf("✅ *%s* / %s: %s", dayLabel(day), slotLabel(slot), escape(name))
	if _, ok := b.app.FindRecipe(name); !ok {
		text += "\n⚠️ La receta no está en el catálogo y se omitirá del pedido."
	}
	b.reply(chatID, text)
}

func (b *Bot) handleClear(chatID int64, args []string) {
	if len(args) < 2 {
		b.reply(chatID, "Uso: /quitar <día> <plato>")
		return
	}
	day, slot, err := parseDaySlot(args[0], args[1])
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	b.updateSession(chatID, func(m *menu.WeeklyMenu) error {
		return m.Assign(day, slot, "")
	})
	b.reply(chatID, fmt.Sprintf("🗑 *%s* / %s vacío.", dayLabel(day), slotLabel(slot)))
}

func parseDaySlot(dayArg, slotArg string) (menu.Weekday, menu.Slot, error) {
	day, err := menu.ParseWeekday(dayArg)
	if err != nil {
		return 0, 0, err
	}
	slot, err := menu.ParseSlot(slotArg)
	if err != nil {
		return 0, 0, err
	}
	return day, slot, nil
}

func (b *Bot) handleCalculate(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		b.reply(chatID, "Uso: /calcular <comensales> [día]")
		return
	}
	headcount, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(chatID, "❌ La cantidad de comensales debe ser un número entero.")
		return
	}
	filter, err := menu.ParseDayFilter(strings.Join(args[1:], " "))
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}

	m := b.session(chatID)
	if m.Empty() {
		b.reply(chatID, "📭 El menú está vacío. Usa /asignar primero.")
		return
	}

	res, _, err := b.app.Calculate(ctx, app.CalculateRequest{
		UserID:    strconv.FormatInt(userID, 10),
		Source:    app.SourceBot,
		Menu:      m,
		Headcount: headcount,
		Day:       filter,
		Save:      true,
	})
	if err != nil {
		if errors.Is(err, order.ErrNegativeHeadcount) {
			b.reply(chatID, "❌ La cantidad de comensales no puede ser negativa.")
			return
		}
		log.Error().Err(err).Int64("chat_id", chatID).Msg("calculation failed")
		b.reply(chatID, fmt.Sprintf("❌ *Error al calcular:*\n```\n%s\n```", strings.ReplaceAll(err.Error(), "`", "'")))
		return
	}

	b.reply(chatID, formatOrderMarkdown(res, headcount, filter))
	if len(res.Warnings) > 0 {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Missing Recipes Alert*\nChat: %d\nMissing: %d", chatID, len(res.Warnings)))
	}
	if len(res.Items) == 0 {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteOrder(&buf, res.Items); err != nil {
		log.Error().Err(err).Msg("failed to build order workbook")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: export.OrderFileName, Bytes: buf.Bytes()})
	if _, err := b.client.Send(doc); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send order workbook")
	}
}

func (b *Bot) handleHistory(ctx context.Context, chatID, userID int64) {
	recs, err := b.app.History(ctx, strconv.FormatInt(userID, 10), history.Range{})
	if err != nil {
		log.Error().Err(err).Msg("failed to load history")
		b.reply(chatID, "❌ No se pudo leer el historial.")
		return
	}
	b.reply(chatID, formatHistory(recs, historyLimit))
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	usage, err := b.app.Usage(ctx, usageDays)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch usage")
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	b.reply(msg.Chat.ID, formatUsage(usage))
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.reply(b.cfg.AdminTelegramID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.client.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}
