package httpapi

import "encoding/json"

func mustMarshalHTTP(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}
