package telegram

import (
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mklimuk/worklog-pilot/pkg/integration/commands"
	"github.com/mklimuk/worklog-pilot/pkg/sync"
)

// Bot wraps the Telegram bot API and dependencies
type Bot struct {
	API      *tgbotapi.BotAPI
	Commands *commands.Commands
	Git      *sync.GitManager
	stopCh   chan struct{}
}

// NewBot creates a new Telegram bot
func NewBot(token string, cmds *commands.Commands, git *sync.GitManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram bot: %w", err)
	}

	return &Bot{
		API:      api,
		Commands: cmds,
		Git:      git,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins polling for updates in a goroutine
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.API.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-b.stopCh:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil {
					b.handleMessage(update.Message)
				}
			}
		}
	}()

	return nil
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	close(b.stopCh)
	b.API.StopReceivingUpdates()
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	command, arg := commands.Parse(msg.Text, "/")
	if command == "" {
		return
	}

	reply := b.Commands.Handle(command, arg, time.Now())
	if reply == "" {
		return
	}

	if command == "log" && b.Git != nil {
		go func() {
			if err := b.Git.Sync("Log entry via Telegram"); err != nil {
				log.Printf("telegram: git sync failed: %v", err)
			}
		}()
	}

	if _, err := b.API.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		log.Printf("telegram: failed to send reply: %v", err)
	}
}
