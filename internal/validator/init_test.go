package validator

import "testing"

type registration struct {
	Mode       string `validate:"required,mode"`
	Difficulty string `validate:"omitempty,difficulty"`
}

func TestCustomTags(t *testing.T) {
	tests := []struct {
		name    string
		input   registration
		wantErr bool
	}{
		{"single player hard", registration{Mode: "single_player", Difficulty: "hard"}, false},
		{"two player no difficulty", registration{Mode: "two_player"}, false},
		{"low alias", registration{Mode: "single_player", Difficulty: "low"}, false},
		{"unknown mode", registration{Mode: "co_op"}, true},
		{"unknown difficulty", registration{Mode: "single_player", Difficulty: "insane"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GetValidator().Struct(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
