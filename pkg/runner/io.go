package runner

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"
)

type inputResult struct {
	text string
	err  error
}

// lineReader turns a blocking reader into context-aware line reads.
// A single pump goroutine owns the reader; a line read after the caller gave
// up is kept for the next call. After close the pump exits as soon as its
// current read returns.
type lineReader struct {
	reader    *bufio.Reader
	lines     chan inputResult
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		reader: bufio.NewReader(r),
		lines:  make(chan inputResult),
		done:   make(chan struct{}),
	}
}

func (l *lineReader) next(ctx context.Context) (string, error) {
	l.startOnce.Do(func() {
		go l.pump()
	})

	select {
	case <-l.done:
		return "", io.EOF
	default:
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-l.done:
		return "", io.EOF
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

func (l *lineReader) close() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *lineReader) pump() {
	for {
		text, err := l.reader.ReadString('\n')

		// A final line without newline still counts.
		if text != "" && !l.send(inputResult{text: text}) {
			return
		}

		if err != nil {
			if err == io.EOF {
				close(l.lines)
				return
			}
			if !l.send(inputResult{err: err}) {
				return
			}
			// Backoff so a persistently failing reader does not spin.
			select {
			case <-time.After(50 * time.Millisecond):
			case <-l.done:
				return
			}
		}
	}
}

// send hands res to a reader and reports false once the lineReader is closed.
func (l *lineReader) send(res inputResult) bool {
	select {
	case l.lines <- res:
		return true
	case <-l.done:
		return false
	}
}
