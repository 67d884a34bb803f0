package payload

import (
	"errors"
	"strings"
	"testing"
)

func TestEncode_Deterministic(t *testing.T) {
	a, err := Encode("P1", "Jane Doe", "L1")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if a != "P1|Jane Doe|L1" {
		t.Fatalf("payload = %q, want %q", a, "P1|Jane Doe|L1")
	}

	b, err := Encode("P1", "Jane Doe", "L1")
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}
	if a != b {
		t.Fatalf("encoding not deterministic: %q vs %q", a, b)
	}
}

func TestEncode_DistinctInputsDistinctOutputs(t *testing.T) {
	base, _ := Encode("P1", "Jane Doe", "L1")
	variants := [][3]string{
		{"P2", "Jane Doe", "L1"},
		{"P1", "John Doe", "L1"},
		{"P1", "Jane Doe", "L2"},
	}
	for _, v := range variants {
		got, err := Encode(v[0], v[1], v[2])
		if err != nil {
			t.Fatalf("encode %v: %v", v, err)
		}
		if got == base {
			t.Fatalf("variant %v collided with base payload %q", v, base)
		}
	}
}

func TestEncode_RejectsEmptyFields(t *testing.T) {
	cases := [][3]string{
		{"", "Jane", "L1"},
		{"P1", "", "L1"},
		{"P1", "Jane", ""},
	}
	for _, c := range cases {
		if _, err := Encode(c[0], c[1], c[2]); !errors.Is(err, ErrEmptyField) {
			t.Fatalf("Encode(%q,%q,%q) err = %v, want ErrEmptyField", c[0], c[1], c[2], err)
		}
	}
}

func TestEncode_RejectsDelimiterInFields(t *testing.T) {
	cases := [][3]string{
		{"P|1", "Jane", "L1"},
		{"P1", "Jane|Doe", "L1"},
		{"P1", "Jane", "L|1"},
	}
	for _, c := range cases {
		if _, err := Encode(c[0], c[1], c[2]); !errors.Is(err, ErrDelimiterInField) {
			t.Fatalf("Encode(%q,%q,%q) err = %v, want ErrDelimiterInField", c[0], c[1], c[2], err)
		}
	}
}

func TestRenderRequest_EscapesPayloadAndUsesDefaults(t *testing.T) {
	got := RenderRequest("", "P1|Jane Doe|L1", "")

	if !strings.HasPrefix(got, DefaultServiceURL+"?data=") {
		t.Fatalf("render url %q does not start with default service url", got)
	}
	if !strings.Contains(got, "size=150x150") {
		t.Fatalf("render url %q missing fixed size", got)
	}
	// Raw delimiter and space must be escaped away.
	if strings.Contains(got, "|") || strings.Contains(got, " ") {
		t.Fatalf("render url %q contains unescaped payload characters", got)
	}
	if !strings.Contains(got, "P1%7CJane+Doe%7CL1") {
		t.Fatalf("render url %q missing escaped payload", got)
	}
}

func TestRenderRequest_Pure(t *testing.T) {
	a := RenderRequest("https://qr.example/render", "P1|J|L1", "300x300")
	b := RenderRequest("https://qr.example/render", "P1|J|L1", "300x300")
	if a != b {
		t.Fatalf("render request not pure: %q vs %q", a, b)
	}
	if a != "https://qr.example/render?data=P1%7CJ%7CL1&size=300x300" {
		t.Fatalf("unexpected render url %q", a)
	}
}
