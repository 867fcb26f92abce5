package main

import (
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "no flags",
			args: []string{"snipocr"},
			want: []string{"snipocr"},
		},
		{
			name: "single dash run-once",
			args: []string{"snipocr", "-run-once"},
			want: []string{"snipocr", "--run-once"},
		},
		{
			name: "single dash run-once-std",
			args: []string{"snipocr", "-run-once-std"},
			want: []string{"snipocr", "--run-once-std"},
		},
		{
			name: "single dash with value",
			args: []string{"snipocr", "-run-once=true"},
			want: []string{"snipocr", "--run-once=true"},
		},
		{
			name: "double dash untouched",
			args: []string{"snipocr", "--run-once"},
			want: []string{"snipocr", "--run-once"},
		},
		{
			name: "unrelated args untouched",
			args: []string{"snipocr", "-v", "positional"},
			want: []string{"snipocr", "-v", "positional"},
		},
		{
			name: "empty",
			args: []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.args)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeLegacyArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestNormalizeLegacyArgsDoesNotMutateInput(t *testing.T) {
	args := []string{"snipocr", "-run-once"}
	_ = normalizeLegacyArgs(args)
	if args[1] != "-run-once" {
		t.Errorf("input slice mutated: %v", args)
	}
}

func TestRootCmdFlagParsing(t *testing.T) {
	opts := &appOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs([]string{"--run-once-std"})
	// Override RunE so parsing is exercised without starting a capture.
	cmd.RunE = func(c *cobra.Command, args []string) error { return nil }

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !opts.runOnceStd {
		t.Errorf("run-once-std flag not set")
	}
	if opts.runOnce {
		t.Errorf("run-once flag unexpectedly set")
	}
}
