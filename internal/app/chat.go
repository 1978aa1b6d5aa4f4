package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

type responder interface {
	HandleMessage(ctx context.Context, text string) (string, error)
}

// Chat runs the interactive terminal loop on stdin/stdout.
func (a *App) Chat(ctx context.Context) error {
	return RunChat(ctx, a.assistant, os.Stdin, os.Stdout)
}

// RunChat reads messages line by line and prints the assistant's replies.
// A single "." exits; blank lines are skipped. Assistant errors are printed
// and the loop continues.
func RunChat(ctx context.Context, r responder, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, `Chat is open. Type "." to exit.`)

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			break
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "." {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if text == "" {
			continue
		}

		reply, err := r.HandleMessage(ctx, text)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, "Assistant:", reply)
	}
	return scanner.Err()
}
