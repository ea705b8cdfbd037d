package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"docqa/internal/app"
	"docqa/internal/bootstrap"
	"docqa/internal/render"
	"docqa/internal/transcript"
)

const helpText = `Type a question and press enter. Commands:
  /session            show the current session
  /reset              start a new session
  /docs               list indexed documents
  /refresh            reload the document list
  /select <paths...>  choose files to upload
  /upload             upload the selected files
  /clear              clear the selected files
  /delete <id>        delete an indexed document
  /toggle <n>         show or hide the references of answer [n]
  /quit               exit`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("close resources failed: %v", err)
		}
	}()

	term := render.NewTerminal(os.Stdout, color.NoColor)
	sub := term.Attach(a.View)
	defer sub.Dispose()

	repl := &repl{app: a, term: term}
	repl.run(ctx, os.Stdin)
}

// repl never waits on an answer or an upload. Results are printed by the
// terminal subscription when they arrive.
type repl struct {
	app     *bootstrap.App
	term    *render.Terminal
	uploads sync.WaitGroup
}

func (r *repl) run(ctx context.Context, in io.Reader) {
	fmt.Println(helpText)
	r.term.Notice("session %s", r.app.Sessions.Display(ctx))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	defer r.uploads.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				r.app.Exchange.Wait()
				return
			}
			if quit := r.handle(ctx, line); quit {
				r.app.Exchange.Wait()
				return
			}
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) bool {
	cmd, args := parseCommand(line)
	switch cmd {
	case "":
		r.ask(ctx, line)
	case "quit", "exit":
		return true
	case "help":
		fmt.Println(helpText)
	case "session":
		r.term.Notice("session %s", r.app.Sessions.Display(ctx))
	case "reset":
		if _, err := r.app.Sessions.Reset(ctx); err != nil {
			r.term.Notice("session not saved: %v", err)
		}
		r.term.Notice("session %s", r.app.Sessions.Display(ctx))
	case "docs":
		r.term.Catalog(r.app.Catalog.State())
	case "refresh":
		_ = r.app.Catalog.Refresh(ctx)
		r.term.Catalog(r.app.Catalog.State())
	case "select":
		if err := r.app.Intake.SelectPaths(args); err != nil {
			r.term.Notice("%v", err)
		}
		r.term.Intake(r.app.Intake.State())
	case "upload":
		r.upload(ctx)
	case "clear":
		r.app.Intake.Clear()
		r.term.Intake(r.app.Intake.State())
	case "delete":
		r.delete(ctx, args)
	case "toggle":
		r.toggle(args)
	default:
		r.term.Notice("unknown command /%s", cmd)
	}
	return false
}

// parseCommand splits "/cmd a b" into its name and arguments. Plain text
// yields an empty name.
func parseCommand(line string) (string, []string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return "", nil
	}
	fields := strings.Fields(strings.TrimPrefix(trimmed, "/"))
	if len(fields) == 0 {
		return "help", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

func (r *repl) ask(ctx context.Context, line string) {
	_, err := r.app.Exchange.Submit(ctx, line)
	switch {
	case errors.Is(err, app.ErrEmptyInput), errors.Is(err, app.ErrExchangeInFlight):
	case err != nil:
		r.term.Notice("%v", err)
	}
}

func (r *repl) upload(ctx context.Context) {
	done, err := r.app.Intake.Upload(ctx)
	if err != nil {
		r.term.Notice("%v", err)
		return
	}
	r.term.Intake(r.app.Intake.State())

	r.uploads.Add(1)
	go func() {
		defer r.uploads.Done()
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
		r.term.Intake(r.app.Intake.State())
		r.term.Catalog(r.app.Catalog.State())
	}()
}

func (r *repl) delete(ctx context.Context, args []string) {
	if len(args) != 1 {
		r.term.Notice("usage: /delete <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		r.term.Notice("usage: /delete <id>")
		return
	}
	if err := r.app.Catalog.Delete(ctx, id); err != nil {
		r.term.Notice("%v", err)
	}
	r.term.Catalog(r.app.Catalog.State())
}

func (r *repl) toggle(args []string) {
	n := 0
	if len(args) == 1 {
		n, _ = strconv.Atoi(args[0])
	}
	id, ok := r.term.Number(n)
	if !ok {
		r.term.Notice("usage: /toggle <n>")
		return
	}
	if _, err := r.app.View.Toggle(id); err != nil {
		if errors.Is(err, transcript.ErrBlockNotFound) {
			r.term.Notice("answer [%d] is no longer shown", n)
			return
		}
		r.term.Notice("%v", err)
	}
}
