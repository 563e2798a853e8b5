package core

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"with BOM", []byte("\xEF\xBB\xBFstation_id,city"), "station_id,city"},
		{"without BOM", []byte("station_id,city"), "station_id,city"},
		{"only BOM", []byte("\xEF\xBB\xBF"), ""},
		{"shorter than BOM", []byte("ab"), "ab"},
		{"empty", nil, ""},
		{"BOM bytes later", []byte("a\xEF\xBB\xBF"), "a\xEF\xBB\xBF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"ascii", []byte("ST-001,Oslo"), "ST-001,Oslo"},
		{"valid multibyte", []byte("Tromsø,€12"), "Tromsø,€12"},
		{"invalid byte", []byte("Osl\xFFo"), "Osl�o"},
		{"truncated sequence at end", []byte("pris \xE2\x82"), "pris ��"},
		{"latin-1 input", []byte("K\xF8benhavn"), "K�benhavn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// Sequences split across reads must survive intact.
func TestUTF8Sanitizer_OneByteReads(t *testing.T) {
	input := []byte("Tromsø,€12.50\n\xFFend")
	got, err := io.ReadAll(NewUTF8Sanitizer(iotest.OneByteReader(bytes.NewReader(input))))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if want := "Tromsø,€12.50\n�end"; string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWrapCSVInput(t *testing.T) {
	input := []byte("\xEF\xBB\xBFcity\nOsl\xFFo\n")
	got, err := io.ReadAll(WrapCSVInput(iotest.HalfReader(bytes.NewReader(input))))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if want := "city\nOsl�o\n"; string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
