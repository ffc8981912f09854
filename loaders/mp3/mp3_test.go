package mp3_test

import (
	"bytes"
	"testing"

	"github.com/stepfever/gameaudio/loaders/mp3"
)

func TestRejectsGarbage(t *testing.T) {
	t.Parallel()
	if _, err := mp3.New(bytes.NewReader([]byte("definitely not an mpeg stream"))); err == nil {
		t.Fatal("expected an error for non-MP3 input")
	}
}

func TestRejectsEmpty(t *testing.T) {
	t.Parallel()
	if _, err := mp3.New(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected an error for empty input")
	}
}
