package main

import "testing"

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"--link", "uat://analytics?range=30d", "--import", "export.json"})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if opts.link != "uat://analytics?range=30d" {
		t.Errorf("unexpected link %q", opts.link)
	}
	if opts.importPath != "export.json" {
		t.Errorf("unexpected import path %q", opts.importPath)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"--link"},
		{"--import"},
		{"--bogus"},
	} {
		if _, err := parseArgs(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestParseArgs_Empty(t *testing.T) {
	opts, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if opts.link != "" || opts.importPath != "" {
		t.Errorf("expected zero options, got %+v", opts)
	}
}
