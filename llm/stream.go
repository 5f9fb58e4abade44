package llm

import (
	"bufio"
	"context"
	"io"

	"github.com/plasma-umass/llm-utils/httpclient"
	"github.com/plasma-umass/llm-utils/httpclient/sse"
)

// readStream dispatches to the reader for the dialect's format, closes ch
// and returns the error, if any, that ended the stream.
func (a *Adapter) readStream(ctx context.Context, resp *httpclient.StreamResponse, ch chan<- StreamChunk) error {
	defer close(ch)
	defer func() { _ = resp.Close() }()

	var err error
	switch a.dialect.StreamFormat() {
	case StreamSSE:
		err = a.readSSEStream(ctx, resp.SSE, ch)
	case StreamNDJSON:
		err = a.readNDJSONStream(ctx, resp.Body, ch)
	}
	if err != nil {
		// The consumer may have gone away with ctx.
		select {
		case ch <- StreamChunk{Err: err}:
		case <-ctx.Done():
		}
	}
	return err
}

// send delivers chunk unless ctx is done first.
func send(ctx context.Context, ch chan<- StreamChunk, chunk StreamChunk) error {
	select {
	case ch <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readSSEStream reads Server-Sent Events and parses each data payload.
func (a *Adapter) readSSEStream(ctx context.Context, reader sse.Reader, ch chan<- StreamChunk) error {
	if reader == nil {
		return ErrNoSSEReader
	}

	for {
		event, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		content, done, err := a.dialect.ParseStreamChunk([]byte(event.Data))
		if err != nil {
			return err
		}
		if err := send(ctx, ch, StreamChunk{Content: content, Done: done}); err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// readNDJSONStream reads newline-delimited JSON and parses each line.
func (a *Adapter) readNDJSONStream(ctx context.Context, body io.ReadCloser, ch chan<- StreamChunk) error {
	if body == nil {
		return ErrNoStreamBody
	}

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		content, done, err := a.dialect.ParseStreamChunk(line)
		if err != nil {
			return err
		}
		if err := send(ctx, ch, StreamChunk{Content: content, Done: done}); err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return scanner.Err()
}
