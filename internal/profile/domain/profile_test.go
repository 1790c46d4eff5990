package domain

import "testing"

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Profile
		wantErr bool
	}{
		{"valid", Profile{IdentityID: 1, Name: "Alice"}, false},
		{"missing identity", Profile{Name: "Alice"}, true},
		{"blank name", Profile{IdentityID: 1, Name: "  "}, true},
	}
	for _, tt := range tests {
		if err := tt.p.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
