package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/askql/askql/internal/query"
)

func TestRunAnswersUntilEOF(t *testing.T) {
	f := newFixture(t)
	f.translator.sql["How many customers are there?"] = "SELECT COUNT(*) FROM Customers;"
	f.executor.outcomes["SELECT COUNT(*) FROM Customers;"] = query.Outcome{
		Columns: []string{"COUNT(*)"},
		Rows:    [][]any{{int64(10)}},
	}

	var out bytes.Buffer
	in := strings.NewReader("\nHow many customers are there?\n")
	if err := f.session.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, Greeting+"\nYou: Please enter a valid question.\nYou: SQL Query: ") {
		t.Fatalf("unexpected transcript start:\n%s", got)
	}
	if !strings.Contains(got, "Explanation:\nThere are 10 customers.\n") {
		t.Fatalf("transcript missing explanation:\n%s", got)
	}
	if !strings.HasSuffix(got, "You: \n") {
		t.Fatalf("transcript should end at a fresh prompt:\n%q", got)
	}
	if len(f.session.History()) != 1 {
		t.Fatalf("History() len = %d", len(f.session.History()))
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	f := newFixture(t)
	reader, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() { done <- f.session.Run(ctx, reader, &out) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
	if len(f.translator.requests) != 0 {
		t.Fatalf("translator called %d times", len(f.translator.requests))
	}
}

func TestRunSkipsOverlongLine(t *testing.T) {
	f := newFixture(t)
	f.translator.sql["How many customers are there?"] = "SELECT COUNT(*) FROM Customers;"

	var out bytes.Buffer
	long := strings.Repeat("x", 2*maxLineBytes)
	in := strings.NewReader(long + "\nHow many customers are there?\n")
	if err := f.session.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, Greeting+"\nYou: "+LongInputNotice+"\nYou: SQL Query: ") {
		t.Fatalf("unexpected transcript start:\n%.300s", got)
	}
	if len(f.translator.requests) != 1 || f.translator.requests[0].Question != "How many customers are there?" {
		t.Fatalf("translator requests = %d", len(f.translator.requests))
	}
	if len(f.session.History()) != 1 {
		t.Fatalf("History() len = %d", len(f.session.History()))
	}
}

func TestReadLine(t *testing.T) {
	reader := bufio.NewReaderSize(strings.NewReader("short\n"+strings.Repeat("y", 40)+"\r\nfits\nlast"), 16)

	tests := []inputLine{
		{text: "short"},
		{tooLong: true},
		{text: "fits"},
		{text: "last"},
	}
	for _, want := range tests {
		got, err := readLine(reader, 32)
		if err != nil {
			t.Fatalf("readLine() error = %v", err)
		}
		if got != want {
			t.Fatalf("readLine() = %+v, want %+v", got, want)
		}
	}
	if _, err := readLine(reader, 32); !errors.Is(err, io.EOF) {
		t.Fatalf("readLine() error = %v, want EOF", err)
	}
}
