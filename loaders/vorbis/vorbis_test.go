package vorbis_test

import (
	"bytes"
	"testing"

	"github.com/stepfever/gameaudio/loaders/vorbis"
)

func TestRejectsGarbage(t *testing.T) {
	t.Parallel()
	if _, err := vorbis.New(bytes.NewReader([]byte("OggS but not really a vorbis stream"))); err == nil {
		t.Fatal("expected an error for non-Vorbis input")
	}
}

func TestRejectsEmpty(t *testing.T) {
	t.Parallel()
	if _, err := vorbis.New(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected an error for empty input")
	}
}
