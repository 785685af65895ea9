package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createStatusCommand creates the /status command
func (m *module) createStatusCommand() *discord.Command {
	return discord.NewCommand(
		"status",
		"Show the bot status",
		"utils",
		m.statusHandler,
	)
}

// statusHandler handles the /status command
func (m *module) statusHandler(ctx *discord.CommandContext) error {
	sctx, cancel := storeContext()
	defer cancel()

	records := "🔴 unavailable"
	if n, err := m.store.Count(sctx); err == nil {
		records = fmt.Sprintf("🟢 %d", n)
	}

	guilds, uptime := 0, time.Duration(0)
	if ctx.Client != nil {
		guilds = ctx.Client.GuildCount()
		if !ctx.Client.StartTime.IsZero() {
			uptime = time.Since(ctx.Client.StartTime).Round(time.Second)
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title: "📊 Bot status",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🤖 Version", Value: config.Version, Inline: true},
			{Name: "🐹 Go", Value: strings.TrimPrefix(runtime.Version(), "go"), Inline: true},
			{Name: "📚 DiscordGo", Value: discordgo.VERSION, Inline: true},
			{Name: "🗄️ Records", Value: records, Inline: true},
			{Name: "🌐 Servers", Value: fmt.Sprintf("%d", guilds), Inline: true},
			{Name: "⏱️ Uptime", Value: uptime.String(), Inline: true},
			{Name: "🖥 RAM", Value: fmt.Sprintf("%.2f MB", float64(mem.Alloc)/1024/1024), Inline: true},
			{Name: "🧵 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
		},
	})
}
