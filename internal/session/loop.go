package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const maxLineBytes = 1 << 20

type inputLine struct {
	text    string
	tooLong bool
}

// Run greets the user and answers one line at a time until in is exhausted
// or ctx is cancelled. Cancellation is a normal way to end and returns nil.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if _, err := fmt.Fprintln(out, Greeting); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	lines := make(chan inputLine)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			line, err := readLine(reader, maxLineBytes)
			if err == nil || line.text != "" || line.tooLong {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
		}
	}()

	for {
		if _, err := fmt.Fprint(out, InputPrompt); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				_, _ = fmt.Fprintln(out)
				if err := <-readErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				return nil
			}
			report := Report{Err: ErrLineTooLong}
			if line.tooLong {
				s.logger.WarnContext(ctx, "input line rejected", slog.Int("limit_bytes", maxLineBytes))
			} else {
				report = s.HandleTurn(ctx, line.text)
			}
			if err := report.Render(out); err != nil {
				return err
			}
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// limit is consumed up to its newline and reported as tooLong with no text.
func readLine(reader *bufio.Reader, limit int) (inputLine, error) {
	var (
		buf  []byte
		line inputLine
	)
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			line.text = string(buf)
			return line, err
		}
		if !line.tooLong {
			if len(buf)+len(chunk) > limit {
				line.tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			line.text = string(buf)
			return line, nil
		}
	}
}
