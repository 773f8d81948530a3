package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/config"
	"github.com/komekarch/site/backend/internal/model/chat"
	chatservice "github.com/komekarch/site/backend/internal/service/chat"
)

type chatOptions struct {
	engine *topic.Engine
	delay  time.Duration
	serial bool
}

// console serialises writes from the input loop and the event listener.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

func runChat(ctx context.Context, in io.Reader, out io.Writer, opts chatOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	mode := config.ReplyConcurrent
	if opts.serial {
		mode = config.ReplySerial
	}
	svc := chatservice.NewService(chatservice.Options{
		ReplyDelay: opts.delay,
		ReplyMode:  mode,
		Responder:  chatservice.EngineResponder(opts.engine),
	})
	defer svc.Shutdown()

	session, err := svc.Mount(ctx)
	if err != nil {
		return err
	}
	term := &console{out: out}

	snap := session.Snapshot()
	term.println(renderHeader(snap.Widget))
	for _, msg := range snap.Messages {
		term.println(renderBubble(msg.Role, msg.Text))
	}

	events, unsubscribe := session.Subscribe()
	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		listen(events, term)
	}()
	defer func() {
		unsubscribe()
		<-listenerDone
	}()

	if _, err := session.Open(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		quit, err := handleLine(session, line)
		if err != nil {
			term.println(errorStyle.Render(err.Error()))
		}
		if quit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// let replies still in flight land before exiting
	waitForReplies(ctx, session, opts.delay)
	return nil
}

func handleLine(session *chatservice.Session, line string) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		_, err := session.Submit(line)
		return false, err
	}

	switch cmd := strings.TrimPrefix(trimmed, "/"); cmd {
	case "quit", "exit":
		return true, nil
	case "open":
		_, err := session.Open()
		return false, err
	case "close":
		_, err := session.Close()
		return false, err
	case "clear":
		_, err := session.Clear()
		return false, err
	default:
		index, err := strconv.Atoi(cmd)
		if err != nil {
			return false, fail("unknown command /%s", cmd)
		}
		_, err = session.SubmitSuggestion(index - 1)
		return false, err
	}
}

// listen renders session events until the subscription closes.
func listen(events <-chan chatservice.Event, term *console) {
	composing := false
	open := false
	for ev := range events {
		switch ev.Type {
		case chatservice.EventMessage:
			if ev.Message.Role == roleAssistant {
				term.println(renderBubble(roleAssistant, ev.Message.Text))
			} else if ev.Message.Role == roleUser {
				term.println(renderBubble(roleUser, ev.Message.Text))
			}
		case chatservice.EventCleared:
			term.println(hintStyle.Render("— история очищена —"))
			term.println(renderBubble(roleAssistant, chat.Greeting))
		case chatservice.EventState:
			snap := ev.Snapshot
			if snap.IsComposingReply && !composing {
				term.println(hintStyle.Render("AI печатает…"))
			}
			if snap.IsOpen != open {
				if snap.IsOpen {
					term.println(hintStyle.Render("[виджет открыт]"))
				} else {
					term.println(hintStyle.Render("[виджет закрыт]"))
				}
			}
			composing = snap.IsComposingReply
			open = snap.IsOpen
		}
	}
}

func waitForReplies(ctx context.Context, session *chatservice.Session, delay time.Duration) {
	deadline := time.Now().Add(delay*time.Duration(session.Snapshot().PendingReplies+1) + time.Second)
	for session.Snapshot().IsComposingReply && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
}
