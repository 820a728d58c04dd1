package domain

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Form is an assignment definition. Only the id is interpreted; the rest of
// the server's JSON is carried verbatim in Definition.
type Form struct {
	ID         string
	Definition json.RawMessage
}

// MarshalJSON writes the original definition, or a bare reference when
// only the id is known.
func (f Form) MarshalJSON() ([]byte, error) {
	if len(f.Definition) > 0 {
		return f.Definition, nil
	}
	return json.Marshal(struct {
		ID string `json:"id"`
	}{ID: f.ID})
}

// UnmarshalJSON accepts any JSON object carrying an "id" (string or number).
func (f *Form) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("form is not valid json")
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return fmt.Errorf("form must be a json object")
	}
	id := parsed.Get("id")
	if !id.Exists() || id.String() == "" {
		return fmt.Errorf("form has no id")
	}
	f.ID = id.String()
	f.Definition = append(json.RawMessage(nil), data...)
	return nil
}

// FormIDs lists the ids of forms in order.
func FormIDs(forms []Form) []string {
	ids := make([]string, 0, len(forms))
	for _, form := range forms {
		ids = append(ids, form.ID)
	}
	return ids
}
