package discord

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mklimuk/worklog-pilot/pkg/integration/commands"
	"github.com/mklimuk/worklog-pilot/pkg/sync"
)

// Bot wraps the Discord session and dependencies
type Bot struct {
	Session  *discordgo.Session
	Commands *commands.Commands
	Git      *sync.GitManager
}

// NewBot creates a new Discord bot
func NewBot(token string, cmds *commands.Commands, git *sync.GitManager) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	bot := &Bot{
		Session:  dg,
		Commands: cmds,
		Git:      git,
	}

	dg.AddHandler(bot.messageCreate)

	return bot, nil
}

// Start opens the websocket connection
func (b *Bot) Start() error {
	return b.Session.Open()
}

// Stop closes the websocket connection
func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from self
	if m.Author.ID == s.State.User.ID {
		return
	}

	command, arg := commands.Parse(m.Content, "!")
	if command == "" {
		return
	}

	reply := b.Commands.Handle(command, arg, time.Now())
	if reply == "" {
		return
	}

	if command == "log" && b.Git != nil {
		go func() {
			if err := b.Git.Sync("Log entry via Discord"); err != nil {
				log.Printf("discord: git sync failed: %v", err)
			}
		}()
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		log.Printf("discord: failed to send reply: %v", err)
	}
}
