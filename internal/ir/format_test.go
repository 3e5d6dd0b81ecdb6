package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	want := "add +1\n" +
		"loop {\n" +
		"  add -1\n" +
		"  move +1\n" +
		"  add +1\n" +
		"  move -1\n" +
		"  loop {\n" +
		"    input\n" +
		"  }\n" +
		"}\n" +
		"output\n"
	assert.Equal(t, want, Format(sample()))
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "loop {\n}\n", Format(Program{Loop{}}))
}
