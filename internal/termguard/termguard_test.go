package termguard

import "testing"

func TestShouldSuppressTTYQueries(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		envTest bool
		want    bool
	}{
		{"plain tui launch", []string{"nd"}, false, false},
		{"version flag", []string{"nd", "-version"}, false, true},
		{"double dash version", []string{"nd", "--version"}, false, true},
		{"help flag", []string{"nd", "-help"}, false, true},
		{"status flag", []string{"nd", "-status"}, false, true},
		{"export flag", []string{"nd", "-export", "chart.svg"}, false, true},
		{"export with value", []string{"nd", "--export=chart.png"}, false, true},
		{"test mode env", []string{"nd"}, true, true},
		{"config flag alone", []string{"nd", "-config", "x.yaml"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSuppressTTYQueries(tt.args, tt.envTest); got != tt.want {
				t.Errorf("shouldSuppressTTYQueries(%v, %v) = %v, want %v", tt.args, tt.envTest, got, tt.want)
			}
		})
	}
}
