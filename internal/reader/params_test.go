package reader

import "testing"

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    Params
		wantErr bool
	}{
		{"empty", "", Params{}, false},
		{"all", "?text=hello%20there&lang=en-US&voice=Alex&speed=150", Params{Text: "hello there", Lang: "en-US", Voice: "Alex", Speed: 150}, false},
		{"plus as space", "text=a+b", Params{Text: "a b"}, false},
		{"bad speed", "speed=fast", Params{}, true},
		{"negative speed", "speed=-1", Params{}, true},
		{"bad escape", "text=%zz", Params{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParamsMergeAndRate(t *testing.T) {
	flags := Params{Voice: "Zira"}
	query := Params{Text: "hi", Voice: "Alex", Speed: 90}
	got := flags.Merge(query)
	if got != (Params{Text: "hi", Voice: "Zira", Speed: 90}) {
		t.Errorf("Merge() = %+v", got)
	}

	if rate, ok := got.Rate(); !ok || rate != 0.9 {
		t.Errorf("Rate() = %v, %v", rate, ok)
	}
	if _, ok := (Params{}).Rate(); ok {
		t.Error("unset speed should have no rate")
	}
	if !(Params{}).IsZero() || got.IsZero() {
		t.Error("IsZero mismatch")
	}
}
