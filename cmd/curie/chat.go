package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/repositories"
	"alfredoptarigan/agentic-curie/internal/services"
)

const chatHelp = `Commands:
  /attach <path>  add a local file to the next message
  /files          list stored files
  /exit           leave the chat`

var errExit = errors.New("exit requested")

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "session id to continue (default: a new session)")
}

type chatSession struct {
	agent     services.ChatAgent
	files     repositories.FileRepository
	sessionID string
	pending   []string
	out       io.Writer
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	c, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	session := &chatSession{
		agent:     c.Agent,
		files:     c.Files,
		sessionID: sessionID,
		out:       cmd.OutOrStdout(),
	}

	fmt.Fprintf(session.out, "Session %s\n%s\n", sessionID, chatHelp)

	prompt := promptui.Prompt{Label: "you"}
	for {
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if err := session.handle(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(session.out, "error: %v\n", err)
		}
	}
}

// handle processes one line of input: a slash command or a chat message.
func (s *chatSession) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case line == "/exit" || line == "/quit":
		return errExit
	case line == "/help":
		fmt.Fprintln(s.out, chatHelp)
		return nil
	case line == "/files":
		return s.listFiles(ctx)
	case strings.HasPrefix(line, "/attach "):
		return s.attach(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/attach ")))
	}

	resp, err := s.agent.Chat(ctx, models.ChatRequest{
		Message:       line,
		SessionID:     s.sessionID,
		AttachmentIDs: s.pending,
	})
	if err != nil {
		return err
	}
	s.pending = nil

	for _, trace := range resp.ToolCalls {
		if trace.Type == "call" {
			fmt.Fprintf(s.out, "  → %s %s\n", trace.Tool, trace.Arguments)
		} else {
			fmt.Fprintf(s.out, "  ← %s\n", trace.Output)
		}
	}
	fmt.Fprintf(s.out, "curie: %s\n", resp.Final)
	return nil
}

func (s *chatSession) attach(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	file, err := s.files.Save(ctx, data, name, mime.TypeByExtension(filepath.Ext(name)))
	if err != nil {
		return err
	}

	s.pending = append(s.pending, file.ID)
	fmt.Fprintf(s.out, "attached %s as %s\n", file.Filename, file.ID)
	return nil
}

func (s *chatSession) listFiles(ctx context.Context) error {
	files, err := s.files.List(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(s.out, "no stored files")
		return nil
	}
	for _, f := range files {
		fmt.Fprintf(s.out, "%s  %s  %d bytes\n", f.ID, f.Filename, f.Size)
	}
	return nil
}
