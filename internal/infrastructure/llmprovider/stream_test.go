package llmprovider

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func streamOf(body string) *sseStream {
	return newSSEStream(&http.Response{Body: io.NopCloser(strings.NewReader(body))})
}

func TestSSEStream_TextChunks(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\", world\"}}]}\n" +
		"data: [DONE]\n"
	stream := streamOf(body)
	defer stream.Close()

	var text string
	for {
		chunk, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		text += chunk.Text
		if chunk.IsFinal {
			break
		}
	}
	if text != "Hello, world" {
		t.Errorf("text = %q, want %q", text, "Hello, world")
	}

	if _, err := stream.Recv(); err != io.EOF {
		t.Errorf("Recv after final chunk: err = %v, want io.EOF", err)
	}
}

func TestSSEStream_SkipsCommentsAndBlankLines(t *testing.T) {
	body := ": keepalive\n" +
		"\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n" +
		"data: [DONE]\n"
	stream := streamOf(body)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if chunk.Text != "hi" {
		t.Errorf("Text = %q, want %q", chunk.Text, "hi")
	}
}

func TestSSEStream_MalformedChunkSkipped(t *testing.T) {
	body := "data: {not valid json\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n" +
		"data: [DONE]\n"
	stream := streamOf(body)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if chunk.Text != "ok" {
		t.Errorf("malformed chunk should be skipped, got Text = %q", chunk.Text)
	}
}

func TestSSEStream_EOFWithoutDoneIsFinal(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n"
	stream := streamOf(body)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if chunk.Text != "partial" {
		t.Fatalf("Text = %q, want %q", chunk.Text, "partial")
	}

	chunk, err = stream.Recv()
	if err != nil {
		t.Fatalf("Recv at EOF: %v", err)
	}
	if !chunk.IsFinal {
		t.Error("EOF without [DONE] should yield a final chunk, not an error")
	}
}

func TestSSEStream_FinishReasonDoesNotFinalize(t *testing.T) {
	// The usage chunk trails the finish_reason chunk; ending the stream at
	// finish_reason would drop token counts.
	body := "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n" +
		"data: {\"usage\":{\"prompt_tokens\":12,\"completion_tokens\":7,\"total_tokens\":19}}\n" +
		"data: [DONE]\n"
	stream := streamOf(body)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if chunk.IsFinal {
		t.Fatal("finish_reason chunk must not be final")
	}
	if chunk.Usage == nil || chunk.Usage.CompletionTokens != 7 {
		t.Fatalf("expected usage chunk after finish_reason, got %+v", chunk)
	}

	chunk, err = stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if !chunk.IsFinal {
		t.Error("expected [DONE] to finalize the stream")
	}
}

func TestSSEStream_ToolCallFragments(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"function\":{\"name\":\"web_search\",\"arguments\":\"{\\\"query\\\":\"}}]}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"\\\"tides\\\"}\"}}]}}]}\n" +
		"data: [DONE]\n"
	stream := streamOf(body)
	defer stream.Close()

	first, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if first.ToolCall == nil || first.ToolCall.Name != "web_search" || first.ToolCall.ID != "call_1" {
		t.Fatalf("first fragment = %+v", first.ToolCall)
	}

	second, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if second.ToolCall == nil {
		t.Fatal("second chunk should carry a tool call fragment")
	}
	if got := first.ToolCall.ArgumentsDelta + second.ToolCall.ArgumentsDelta; got != `{"query":"tides"}` {
		t.Errorf("joined arguments = %q", got)
	}
}

func TestToStreamChunk_NothingOfInterest(t *testing.T) {
	var c chatCompletionChunk
	if got := c.toStreamChunk(); got != nil {
		t.Errorf("empty wire chunk should map to nil, got %+v", got)
	}
}
