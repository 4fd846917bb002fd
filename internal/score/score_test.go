package score

import (
	"errors"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		time    float64
		end     bool
		instr   string
		dur     float64
		pfields []float64
	}{
		{"instrument", "0 tone 1", 0, false, "tone", 1, nil},
		{"pfields", "1.5 tone 2 440 0.25", 1.5, false, "tone", 2, []float64{440, 0.25}},
		{"negative pfield", "0 pan 1 -0.5", 0, false, "pan", 1, []float64{-0.5}},
		{"unbounded", "0 drone -1", 0, false, "drone", -1, nil},
		{"end", "4 end", 4, true, "", 0, nil},
		{"trailing comment", "2 end # stop", 2, true, "", 0, nil},
		{"exponent", "1e1 tone .5", 10, false, "tone", 0.5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseLine("test.sasl", 1, tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd == nil {
				t.Fatal("command is nil")
			}
			if cmd.Time != tt.time || cmd.End != tt.end || cmd.Name != tt.instr || cmd.Dur != tt.dur {
				t.Errorf("got %+v", cmd)
			}
			if len(cmd.PFields) != len(tt.pfields) {
				t.Fatalf("pfields = %v, want %v", cmd.PFields, tt.pfields)
			}
			for i := range tt.pfields {
				if cmd.PFields[i] != tt.pfields[i] {
					t.Errorf("pfield %d = %v, want %v", i, cmd.PFields[i], tt.pfields[i])
				}
			}
		})
	}
}

func TestParseLineBlank(t *testing.T) {
	for _, text := range []string{"", "   ", "# comment", "  // comment", "\t"} {
		cmd, err := ParseLine("", 3, text)
		if cmd != nil || err != nil {
			t.Errorf("ParseLine(%q) = %v, %v; want nil, nil", text, cmd, err)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing time", "tone 1"},
		{"missing duration", "0 tone"},
		{"bad duration", "0 tone x"},
		{"end with args", "0 end 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine("s.sasl", 7, tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not *Error", err)
			}
			if se.Line != 7 || !strings.HasPrefix(err.Error(), "s.sasl:7: ") {
				t.Errorf("error = %q", err)
			}
		})
	}
}

func TestUnbounded(t *testing.T) {
	if !(&Command{Dur: -1}).Unbounded() {
		t.Error("negative duration should be unbounded")
	}
	if (&Command{Dur: 0}).Unbounded() {
		t.Error("zero duration should be bounded")
	}
}
