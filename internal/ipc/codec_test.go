package ipc

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rescale/singleinstance/internal/constants"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"forwarded launch", []string{"second", "something"}},
		{"no arguments", []string{}},
		{"empty strings", []string{"", "", "x"}},
		{"separators inside arguments", []string{"a b", "c\nd", "e\x00f", `"quoted"`}},
		{"deep link", []string{"fingertipai://auth/callback?code=abc&state=xyz"}},
		{"unicode", []string{"héllo", "日本語", "🙂"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.args)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.args) {
				t.Errorf("Decode(Encode(%q)) = %q", tt.args, got)
			}
		})
	}
}

func TestEncode_Layout(t *testing.T) {
	data, err := Encode([]string{"ab", "c"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := []byte{
		1,          // version
		0, 0, 0, 2, // count
		0, 0, 0, 2, 'a', 'b',
		0, 0, 0, 1, 'c',
	}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("Encode() = %v, want %v", data, want)
	}
}

func TestEncode_Errors(t *testing.T) {
	if _, err := Encode([]string{"ok", "\xff\xfe"}); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Expected ErrInvalidPayload for invalid UTF-8, got %v", err)
	}

	huge := strings.Repeat("x", constants.MaxActivationPayload)
	if _, err := Encode([]string{huge}); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", []byte{}, ErrInvalidPayload},
		{"short header", []byte{1, 0, 0}, ErrInvalidPayload},
		{"unknown version", []byte{9, 0, 0, 0, 0}, ErrUnsupportedVersion},
		{"count larger than data", []byte{1, 0xff, 0xff, 0xff, 0xff}, ErrInvalidPayload},
		{"truncated length", []byte{1, 0, 0, 0, 1, 0, 0}, ErrInvalidPayload},
		{"truncated body", []byte{1, 0, 0, 0, 1, 0, 0, 0, 5, 'a', 'b'}, ErrInvalidPayload},
		{"trailing bytes", []byte{1, 0, 0, 0, 1, 0, 0, 0, 1, 'a', 'z'}, ErrInvalidPayload},
		{"invalid utf8", []byte{1, 0, 0, 0, 1, 0, 0, 0, 1, 0xff}, ErrInvalidPayload},
		{"java serialization stream", []byte{0xac, 0xed, 0x00, 0x05, 0x75, 0x72}, ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode(%v) error = %v, want %v", tt.data, err, tt.wantErr)
			}
		})
	}
}

func TestDecode_TooLarge(t *testing.T) {
	data := make([]byte, constants.MaxActivationPayload+1)
	data[0] = 1
	if _, err := Decode(data); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
}
