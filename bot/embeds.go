package bot

import (
	"fmt"
	"strings"
	"time"

	"lottery/bot/common"
	"lottery/events"
	"lottery/models"

	"github.com/bwmarrin/discordgo"
)

// CreateSettlementEmbed creates the winner announcement for a committed settlement
func CreateSettlementEmbed(event events.SettlementCompletedEvent, decimals int) *discordgo.MessageEmbed {
	asset := common.FormatAsset(event.Asset)

	payoutLines := make([]string, 0, len(event.Payouts))
	for _, payout := range event.Payouts {
		if payout.Role == models.WinnerRole {
			continue
		}
		payoutLines = append(payoutLines, fmt.Sprintf("%s: %s %s to `%s`",
			payout.Role, common.FormatAmount(payout.Amount, decimals), asset, common.ShortKey(payout.To)))
	}
	payoutStr := "None"
	if len(payoutLines) > 0 {
		payoutStr = strings.Join(payoutLines, "\n")
	}

	description := fmt.Sprintf("`%s` takes the pool", event.Winner.String())
	var timestamp string
	if !event.SettledAt.IsZero() {
		description += fmt.Sprintf("\nSettled %s", common.FormatDiscordTimestamp(event.SettledAt, "R"))
		timestamp = event.SettledAt.UTC().Format(time.RFC3339)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Lottery #%d - %s %s", event.LotteryID, common.FormatAmount(event.PoolAmount, decimals), asset),
		Color:       common.ColorSuccess,
		Description: description,
		Timestamp:   timestamp,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Winner payout",
				Value:  fmt.Sprintf("%s %s", common.FormatAmount(event.WinnerAmount, decimals), asset),
				Inline: true,
			},
			{
				Name:   "Participants",
				Value:  fmt.Sprintf("%d", event.Participants),
				Inline: true,
			},
			{
				Name:   "Fixed shares",
				Value:  payoutStr,
				Inline: false,
			},
			{
				Name:   "Result account",
				Value:  fmt.Sprintf("`%s`", event.ResultAddress.String()),
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Settlement %s", event.SettlementID),
		},
	}
}
