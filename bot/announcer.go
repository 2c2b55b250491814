package bot

import (
	"context"
	"fmt"

	"lottery/events"
	"lottery/metrics"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds announcer configuration
type Config struct {
	Token         string
	ChannelID     string
	AssetDecimals int
}

// MessageSender is the part of a discord session the announcer needs
type MessageSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts a winner embed to a channel for every committed settlement
type Announcer struct {
	config  Config
	sender  MessageSender
	session *discordgo.Session
}

// New opens a discord session and subscribes the announcer to settlement events
func New(config Config, eventBus *events.Bus) (*Announcer, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	announcer := NewAnnouncer(config, dg)
	announcer.session = dg
	announcer.Subscribe(eventBus)

	log.WithField("channelID", config.ChannelID).Info("Settlement announcements enabled")
	return announcer, nil
}

// NewAnnouncer creates an announcer that sends through sender
func NewAnnouncer(config Config, sender MessageSender) *Announcer {
	return &Announcer{
		config: config,
		sender: sender,
	}
}

// Subscribe registers the announcer for settlement completions on the bus
func (a *Announcer) Subscribe(eventBus *events.Bus) {
	eventBus.Subscribe(events.EventTypeSettlementCompleted, func(ctx context.Context, event events.Event) {
		completed, ok := event.(events.SettlementCompletedEvent)
		if !ok {
			return
		}
		if err := a.Announce(ctx, completed); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"settlementID": completed.SettlementID,
				"lotteryID":    completed.LotteryID,
			}).Error("Failed to announce settlement")
		}
	})
}

// Announce posts the winner embed for one settlement
func (a *Announcer) Announce(ctx context.Context, event events.SettlementCompletedEvent) error {
	embed := CreateSettlementEmbed(event, a.config.AssetDecimals)

	_, err := a.sender.ChannelMessageSendEmbed(a.config.ChannelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		metrics.AnnouncementsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to send announcement: %w", err)
	}

	metrics.AnnouncementsTotal.WithLabelValues("ok").Inc()
	log.WithFields(log.Fields{
		"settlementID": event.SettlementID,
		"lotteryID":    event.LotteryID,
		"channelID":    a.config.ChannelID,
	}).Info("Announced settlement")
	return nil
}

// Close closes the discord session if the announcer opened one
func (a *Announcer) Close() error {
	if a.session == nil {
		return nil
	}
	return a.session.Close()
}
