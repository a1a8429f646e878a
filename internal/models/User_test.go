package models

import (
	"encoding/json"
	"testing"
)

func TestUserJSONUsesSnakeCase(t *testing.T) {
	company := "c1"
	raw, err := json.Marshal(User{ID: "u1", FirstName: "Jane", LastName: "Doe", PhoneNumber: "0700", CompanyID: &company, Password: "hash"})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"first_name", "last_name", "phone_number", "company_id", "onboarding_stage"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	for _, key := range []string{"firstName", "lastName", "Password", "password"} {
		if _, ok := got[key]; ok {
			t.Errorf("unexpected key %q in %s", key, raw)
		}
	}
}
