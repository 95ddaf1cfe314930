package telegram

import (
	"fmt"
	"strings"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/history"
	"cafeteria-planner/internal/menu"
	"cafeteria-planner/internal/order"
	"cafeteria-planner/internal/recipe"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var dayLabels = map[menu.Weekday]string{
	menu.Monday:    "Lunes",
	menu.Tuesday:   "Martes",
	menu.Wednesday: "Miércoles",
	menu.Thursday:  "Jueves",
	menu.Friday:    "Viernes",
}

var slotLabels = map[menu.Slot]string{
	menu.SlotMain:    "Principal",
	menu.SlotSide:    "Acompañamiento",
	menu.SlotDessert: "Postre",
}

var categoryLabels = map[recipe.Category]string{
	recipe.CategoryMain:    "Principales",
	recipe.CategorySide:    "Acompañamientos",
	recipe.CategoryDessert: "Postres",
	recipe.CategoryFruit:   "Frutas",
}

func dayLabel(d menu.Weekday) string { return dayLabels[d] }

func slotLabel(s menu.Slot) string { return slotLabels[s] }

func escape(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) }

func filterLabel(f menu.DayFilter) string {
	if d, ok := f.Single(); ok {
		return dayLabel(d)
	}
	return "toda la semana"
}

func formatRecipes(recipes []recipe.Recipe) string {
	if len(recipes) == 0 {
		return "📭 No hay recetas."
	}

	var sb strings.Builder
	sb.WriteString("📖 *Recetas*\n")
	for _, cat := range recipe.Categories {
		header := false
		for _, r := range recipes {
			if r.Category != cat {
				continue
			}
			if !header {
				sb.WriteString(fmt.Sprintf("\n*%s*\n", categoryLabels[cat]))
				header = true
			}
			sb.WriteString(fmt.Sprintf("• %s\n", escape(r.Name)))
		}
	}
	return sb.String()
}

func formatMenu(m menu.WeeklyMenu) string {
	if m.Empty() {
		return "📭 El menú está vacío. Usa /asignar <día> <plato> <receta>."
	}

	var sb strings.Builder
	sb.WriteString("📅 *Menú de la semana*\n")
	for _, d := range menu.Weekdays {
		day := m.Day(d)
		if day.Empty() {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n*%s*\n", dayLabel(d)))
		for _, s := range menu.Slots {
			if name := day.Get(s); name != "" {
				sb.WriteString(fmt.Sprintf("• %s: %s\n", slotLabel(s), escape(name)))
			}
		}
	}
	return sb.String()
}

func formatOrderMarkdown(res order.Result, headcount int, filter menu.DayFilter) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *Pedido* (%d comensales, %s)\n\n", headcount, filterLabel(filter)))
	if len(res.Items) == 0 {
		sb.WriteString("_Sin ingredientes_\n")
	}
	for _, it := range res.Items {
		sb.WriteString(fmt.Sprintf("• %s: %s %s\n", escape(it.Name), history.FormatQuantity(it.Quantity), it.Unit))
	}

	if len(res.Warnings) > 0 {
		sb.WriteString("\n⚠️ *Recetas no encontradas*\n")
		for _, w := range res.Warnings {
			sb.WriteString(fmt.Sprintf("• %s / %s: %s\n", dayLabel(w.Day), slotLabel(w.Slot), escape(w.Recipe)))
		}
	}
	return sb.String()
}

func formatHistory(recs []history.Record, limit int) string {
	if len(recs) == 0 {
		return "📭 Todavía no hay pedidos guardados."
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}

	var sb strings.Builder
	sb.WriteString("🗂 *Últimos pedidos*\n")
	for _, r := range recs {
		sb.WriteString(fmt.Sprintf("\n*%s* - %d comensales, %s\n",
			r.CreatedAt.Format("02/01/2006 15:04"), r.Headcount, filterLabel(r.DayFilter)))
		sb.WriteString(escape(r.ItemsSummary()))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatUsage(u app.Usage) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Calculations*\n")
	if len(u.Daily) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range u.Daily {
		sb.WriteString(fmt.Sprintf("• *%s*: %d calcs, %d items, %d missing (%.0fms avg)\n",
			d.Date, d.Calculations, d.TotalItems, d.MissingRecipes, d.AvgLatencyMS))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", u.Health.Uptime))
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", u.Health.AllocMB, u.Health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", u.Health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", u.Health.DataDiskSize))
	return sb.String()
}
