// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"spawn", "spawn", 0},
		{"spwan", "spawn", 2},
		{"kil", "kill", 1},
		{"status", "spawn", 4},
		{"", "abc", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "spawn"},
		{Name: "kill"},
		{Name: "transcript"},
	}

	if got := suggestCommand("spwan", commands); got != "spawn" {
		t.Errorf("suggestCommand(spwan) = %q, want spawn", got)
	}
	if got := suggestCommand("zzzzzzzzz", commands); got != "" {
		t.Errorf("suggestCommand(zzzzzzzzz) = %q, want no suggestion", got)
	}
}

func TestSuggestFlag(t *testing.T) {
	flags := func() *pflag.FlagSet {
		f := pflag.NewFlagSet("test", pflag.ContinueOnError)
		f.String("workspace", "", "")
		f.String("socket", "", "")
		return f
	}

	if got := suggestFlag([]string{"--workspcae", "x"}, flags()); got != "--workspace" {
		t.Errorf("suggestFlag = %q, want --workspace", got)
	}
	// Defined flags produce no suggestion.
	if got := suggestFlag([]string{"--socket", "x"}, flags()); got != "" {
		t.Errorf("suggestFlag for defined flag = %q, want none", got)
	}
}
