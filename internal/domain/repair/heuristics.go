package repair

// inferredCall is a tool call recovered from a hallucinated payload.
type inferredCall struct {
	Action string
	Params map[string]interface{}
}

// shapeRule maps a key shape to the action the payload was meant for. Rules
// are tried in order; the first whose required keys are all present wins.
// requiredAbsent disambiguates shapes that share keys.
type shapeRule struct {
	action         string
	requiredKeys   []string
	requiredAbsent []string
}

// shapeRules is the structural heuristic table. A payload matching none of
// these is left untouched: repair never guesses.
var shapeRules = []shapeRule{
	{action: "memory_write", requiredKeys: []string{"memory_type", "content"}},
	{action: "update_document", requiredKeys: []string{"document_id", "content"}},
	{action: "create_document", requiredKeys: []string{"title", "content"}},
	{action: "web_search", requiredKeys: []string{"query"}},
	{action: "web_fetch", requiredKeys: []string{"url"}, requiredAbsent: []string{"query"}},
	{action: "set_persona", requiredKeys: []string{"persona"}},
}

// inferCall recovers the intended action from a hallucinated payload.
// Payloads already shaped like the wire form {"action": ..., "params": ...}
// pass through directly; everything else goes through the shape table.
func inferCall(payload map[string]interface{}) (inferredCall, bool) {
	if action, ok := payload["action"].(string); ok && action != "" {
		params, _ := payload["params"].(map[string]interface{})
		if params == nil {
			params = make(map[string]interface{})
		}
		return inferredCall{Action: action, Params: params}, true
	}

	for _, rule := range shapeRules {
		if rule.matches(payload) {
			return inferredCall{Action: rule.action, Params: payload}, true
		}
	}
	return inferredCall{}, false
}

func (r shapeRule) matches(payload map[string]interface{}) bool {
	for _, key := range r.requiredKeys {
		if _, ok := payload[key]; !ok {
			return false
		}
	}
	for _, key := range r.requiredAbsent {
		if _, ok := payload[key]; ok {
			return false
		}
	}
	return true
}
