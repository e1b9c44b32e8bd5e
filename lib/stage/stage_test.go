// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"filippo.io/age"
)

func sampleData() []byte {
	var buffer bytes.Buffer
	for index := range 2000 {
		buffer.WriteString("INSERT INTO events VALUES (")
		buffer.WriteString(strings.Repeat("x", index%17))
		buffer.WriteString(");\n")
	}
	return buffer.Bytes()
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		input   string
		want    Compression
		wantErr bool
	}{
		{"", CompressionNone, false},
		{"none", CompressionNone, false},
		{"zstd", CompressionZstd, false},
		{"LZ4", CompressionLZ4, false},
		{"gzip", "", true},
	}
	for _, test := range tests {
		got, err := ParseCompression(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseCompression(%q) error = %v, wantErr %v", test.input, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("ParseCompression(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestExtension(t *testing.T) {
	if CompressionZstd.Extension() != ".zst" || CompressionLZ4.Extension() != ".lz4" || CompressionNone.Extension() != "" {
		t.Error("unexpected compression extensions")
	}
}

func TestRoundTrip(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity: %v", err)
	}
	recipients, err := ParseRecipients([]string{identity.Recipient().String()})
	if err != nil {
		t.Fatalf("ParseRecipients: %v", err)
	}

	tests := []struct {
		name        string
		compression Compression
		encrypt     bool
	}{
		{"passthrough", CompressionNone, false},
		{"zstd", CompressionZstd, false},
		{"lz4", CompressionLZ4, false},
		{"age", CompressionNone, true},
		{"zstd and age", CompressionZstd, true},
		{"lz4 and age", CompressionLZ4, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := sampleData()
			options := Options{Compression: test.compression}
			reverse := ReverseOptions{Compression: test.compression}
			if test.encrypt {
				options.Recipients = recipients
				reverse.Identities = []age.Identity{identity}
			}

			var filtered bytes.Buffer
			read, err := Filter(&filtered, bytes.NewReader(data), options)
			if err != nil {
				t.Fatalf("Filter: %v", err)
			}
			if read != int64(len(data)) {
				t.Errorf("Filter read %d bytes, want %d", read, len(data))
			}
			if test.compression != CompressionNone && !test.encrypt && filtered.Len() >= len(data) {
				t.Errorf("compressed %d bytes to %d", len(data), filtered.Len())
			}
			if test.encrypt && bytes.Contains(filtered.Bytes(), []byte("INSERT INTO")) {
				t.Error("ciphertext contains plaintext")
			}

			var restored bytes.Buffer
			if _, err := Reverse(&restored, &filtered, reverse); err != nil {
				t.Fatalf("Reverse: %v", err)
			}
			if !bytes.Equal(restored.Bytes(), data) {
				t.Fatalf("round trip changed the data: %d bytes in, %d out", len(data), restored.Len())
			}
		})
	}
}

func TestReverseWrongIdentity(t *testing.T) {
	sender, _ := age.GenerateX25519Identity()
	other, _ := age.GenerateX25519Identity()

	var filtered bytes.Buffer
	if _, err := Filter(&filtered, strings.NewReader("secret"), Options{Recipients: []age.Recipient{sender.Recipient()}}); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	_, err := Reverse(&bytes.Buffer{}, &filtered, ReverseOptions{Identities: []age.Identity{other}})
	var noMatch *age.NoIdentityMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("Reverse with the wrong identity error = %v, want NoIdentityMatchError", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("producer crashed") }

func TestFilterSourceError(t *testing.T) {
	_, err := Filter(&bytes.Buffer{}, failingReader{}, Options{Compression: CompressionZstd})
	if err == nil || !strings.Contains(err.Error(), "producer crashed") {
		t.Fatalf("Filter error = %v, want source error", err)
	}
}

func TestParseRecipientsInvalid(t *testing.T) {
	if _, err := ParseRecipients([]string{"age1notakey"}); err == nil {
		t.Fatal("ParseRecipients accepted an invalid key")
	}
}

func TestParseIdentities(t *testing.T) {
	identity, _ := age.GenerateX25519Identity()
	file := "# backup restore key\n" + identity.String() + "\n"
	identities, err := ParseIdentities(strings.NewReader(file))
	if err != nil {
		t.Fatalf("ParseIdentities: %v", err)
	}
	if len(identities) != 1 {
		t.Fatalf("got %d identities, want 1", len(identities))
	}
}

func TestOptionsActive(t *testing.T) {
	recipient, _ := age.GenerateX25519Identity()
	tests := []struct {
		options Options
		want    bool
	}{
		{Options{}, false},
		{Options{Compression: CompressionNone}, false},
		{Options{Compression: CompressionLZ4}, true},
		{Options{Recipients: []age.Recipient{recipient.Recipient()}}, true},
	}
	for _, test := range tests {
		if got := test.options.Active(); got != test.want {
			t.Errorf("%+v.Active() = %v, want %v", test.options, got, test.want)
		}
	}
}
