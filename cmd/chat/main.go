// Command chat is a terminal front-end for the blog companion: it streams
// answers over the ask protocol and keeps a reconciled session history.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"blog-ask-client/internal/bootstrap"
	"blog-ask-client/internal/config"
	"blog-ask-client/internal/dto"
	"blog-ask-client/internal/tracer"
	"blog-ask-client/internal/transport"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	auth := transport.NewStaticAuthProvider(cfg.Auth.Token)
	container := bootstrap.NewContainer(cfg, auth)
	defer container.Logger.Sync()

	ownerUserID := os.Getenv("BLOG_OWNER_USER_ID")
	if ownerUserID == "" {
		log.Fatal("BLOG_OWNER_USER_ID is required")
	}
	requesterID := os.Getenv("REQUESTER_USER_ID")
	if requesterID == "" {
		requesterID = uuid.NewString()
	}

	ctx := context.Background()
	container.Store.Reset(ownerUserID)
	if err := container.Store.FetchInitialSessions(ctx, ownerUserID, 20); err != nil {
		color.Yellow("could not load sessions: %v", err)
	}

	list := container.Store.SessionList()
	if len(list.Sessions) > 0 {
		color.Cyan("Recent sessions:")
		for _, s := range list.Sessions {
			title := "(untitled)"
			if s.Title != nil {
				title = *s.Title
			}
			fmt.Printf("  #%d  %s\n", s.SessionID, title)
		}
	}

	color.Green("Ask away (ctrl-d to quit):")
	prompt := color.New(color.FgHiWhite, color.Bold)
	answer := color.New(color.FgHiCyan)

	var sessionID *int64
	scanner := bufio.NewScanner(os.Stdin)
	for {
		prompt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		req := &dto.AskRequest{
			Question:        question,
			UserID:          ownerUserID,
			CategoryID:      1,
			SpeechTone:      "friendly",
			SessionID:       sessionID,
			RequesterUserID: requesterID,
		}

		if err := container.ChatService.AskQuestion(ctx, req); err != nil {
			color.Red("error: %v", err)
			continue
		}

		if selected := container.Store.Selected(); selected != nil {
			sessionID = selected
		}
		exchange := container.Store.Exchange()
		if exchange.Error != "" {
			color.Red(exchange.Error)
		}
		if sessionID != nil {
			history := container.Store.Messages(*sessionID)
			if n := len(history.Messages); n > 0 {
				last := history.Messages[n-1]
				if last.Role == dto.MessageRoleAssistant {
					answer.Println(last.Content)
				}
			}
		} else {
			for _, m := range exchange.Messages {
				if m.Role == dto.MessageRoleAssistant && m.Content != "" {
					answer.Println(m.Content)
				}
			}
		}
		fmt.Println()
	}
}
