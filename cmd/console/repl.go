package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"server-console/pkg/cmd"
)

const prompt = "> "

// console serializes writes so job results arriving in the background do not
// interleave with the prompt.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, s)
}

func (c *console) reply(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, msg)
}

// repl reads command lines from in until EOF, "quit" or ctx is done and
// writes every reply to out.
func repl(ctx context.Context, d *cmd.Dispatcher, caller cmd.Caller, in io.Reader, out io.Writer) error {
	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
	}()

	con := &console{w: out}
	con.print(prompt)
	for {
		select {
		case <-ctx.Done():
			con.print("\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				con.print("\n")
				return <-readErr
			}
			line = strings.TrimSpace(line)
			switch strings.ToLower(line) {
			case "quit", "exit":
				return nil
			case "":
			default:
				// Failures were already shown to the caller.
				_ = d.Dispatch(ctx, caller, line, con.reply)
			}
			con.print(prompt)
		}
	}
}
