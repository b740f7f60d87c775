package repair

import "testing"

func TestInferCall(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]interface{}
		wantAction string
		wantOK     bool
	}{
		{
			name:       "explicit wire envelope passes through",
			payload:    map[string]interface{}{"action": "web_search", "params": map[string]interface{}{"query": "x"}},
			wantAction: "web_search",
			wantOK:     true,
		},
		{
			name:       "envelope without params gets empty params",
			payload:    map[string]interface{}{"action": "get_profile"},
			wantAction: "get_profile",
			wantOK:     true,
		},
		{
			name:       "memory shape",
			payload:    map[string]interface{}{"memory_type": "journal", "content": "slept well"},
			wantAction: "memory_write",
			wantOK:     true,
		},
		{
			name:       "document update shape wins over create",
			payload:    map[string]interface{}{"document_id": "doc_1", "content": "v2", "title": "notes"},
			wantAction: "update_document",
			wantOK:     true,
		},
		{
			name:       "document create shape",
			payload:    map[string]interface{}{"title": "notes", "content": "v1"},
			wantAction: "create_document",
			wantOK:     true,
		},
		{
			name:       "search shape",
			payload:    map[string]interface{}{"query": "weather"},
			wantAction: "web_search",
			wantOK:     true,
		},
		{
			name:       "fetch shape requires query absent",
			payload:    map[string]interface{}{"url": "https://example.com"},
			wantAction: "web_fetch",
			wantOK:     true,
		},
		{
			name:       "url with query is a search, not a fetch",
			payload:    map[string]interface{}{"url": "https://example.com", "query": "weather"},
			wantAction: "web_search",
			wantOK:     true,
		},
		{
			name:       "persona shape",
			payload:    map[string]interface{}{"persona": "terse and practical"},
			wantAction: "set_persona",
			wantOK:     true,
		},
		{
			name:    "unrecognized shape is not guessed",
			payload: map[string]interface{}{"foo": "bar"},
			wantOK:  false,
		},
		{
			name:    "empty action string is not an envelope",
			payload: map[string]interface{}{"action": ""},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := inferCall(tt.payload)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if call.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", call.Action, tt.wantAction)
			}
			if call.Params == nil {
				t.Error("params should never be nil")
			}
		})
	}
}
