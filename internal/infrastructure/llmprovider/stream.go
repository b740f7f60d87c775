package llmprovider

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"parley/conversation-api/internal/domain/llm"
)

// sseStream implements llm.Stream backed by an http.Response body with SSE
// parsing. The "[DONE]" sentinel and a choice carrying a finish reason both
// surface as a final chunk, never as io.EOF, so consumers get exactly one
// IsFinal signal per stream.
type sseStream struct {
	resp   *http.Response
	reader *bufio.Reader
	done   bool
}

func newSSEStream(resp *http.Response) *sseStream {
	return &sseStream{
		resp:   resp,
		reader: bufio.NewReader(resp.Body),
	}
}

func (s *sseStream) Recv() (*llm.StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Upstream closed without [DONE]; treat what we have
				// as complete rather than failing the whole run.
				s.done = true
				return &llm.StreamChunk{IsFinal: true}, nil
			}
			return nil, llm.Transient(fmt.Errorf("read stream: %w", err))
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		if data == "[DONE]" {
			s.done = true
			return &llm.StreamChunk{IsFinal: true}, nil
		}

		var delta chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &delta); err != nil {
			// Skip malformed chunks
			continue
		}

		chunk := delta.toStreamChunk()
		if chunk == nil {
			continue
		}
		return chunk, nil
	}
}

func (s *sseStream) Close() error {
	return s.resp.Body.Close()
}

var _ llm.Stream = (*sseStream)(nil)

// chatCompletionChunk mirrors the OpenAI streaming chunk format.
type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			ToolCalls        []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *llm.Usage `json:"usage"`
}

// toStreamChunk flattens the wire chunk into the domain form. Returns nil
// for chunks carrying nothing of interest.
func (c *chatCompletionChunk) toStreamChunk() *llm.StreamChunk {
	chunk := &llm.StreamChunk{Usage: c.Usage}
	interesting := c.Usage != nil

	if len(c.Choices) > 0 {
		choice := c.Choices[0]
		chunk.Text = choice.Delta.Content
		chunk.ReasoningText = choice.Delta.ReasoningContent
		if chunk.Text != "" || chunk.ReasoningText != "" {
			interesting = true
		}
		if len(choice.Delta.ToolCalls) > 0 {
			tc := choice.Delta.ToolCalls[0]
			chunk.ToolCall = &llm.ToolCallFragment{
				Index:          tc.Index,
				ID:             tc.ID,
				Name:           tc.Function.Name,
				ArgumentsDelta: tc.Function.Arguments,
			}
			interesting = true
		}
		// finish_reason is not the end of the stream: the usage chunk
		// follows it. Only [DONE] or EOF closes the stream.
	}

	if !interesting {
		return nil
	}
	return chunk
}
