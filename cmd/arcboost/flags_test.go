package main

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
)

func TestBuildFilter(t *testing.T) {
	resetViperForTest := func() {
		viper.Reset()
	}

	tests := []struct {
		name    string
		setup   func()
		applied map[string]bool
		wantIDs []string
		wantErr bool
	}{
		{
			name: "no flags matches the whole catalog",
			setup: func() {
				resetViperForTest()
			},
			wantIDs: catalog.Default().IDs(),
		},
		{
			name: "single category",
			setup: func() {
				resetViperForTest()
				viper.Set("category", "network")
			},
			wantIDs: []string{
				catalog.IDNetworkThrottling,
				catalog.IDDisableNagle,
			},
		},
		{
			name: "multiple categories keep catalog order",
			setup: func() {
				resetViperForTest()
				viper.Set("category", "graphics,network")
			},
			wantIDs: []string{
				catalog.IDNetworkThrottling,
				catalog.IDDisableNagle,
				catalog.IDFullscreenOpts,
				catalog.IDClearShaderCache,
			},
		},
		{
			name: "category matching is case-insensitive",
			setup: func() {
				resetViperForTest()
				viper.Set("category", "GRAPHICS")
			},
			wantIDs: []string{
				catalog.IDFullscreenOpts,
				catalog.IDClearShaderCache,
			},
		},
		{
			name: "match pattern",
			setup: func() {
				resetViperForTest()
				viper.Set("match", "disable_*")
			},
			wantIDs: []string{
				catalog.IDDisableGameBar,
				catalog.IDDisableSysMain,
				catalog.IDDisableBackgroundApps,
				catalog.IDNetworkThrottling,
				catalog.IDDisableNagle,
				catalog.IDFullscreenOpts,
			},
		},
		{
			name: "match pattern combined with category",
			setup: func() {
				resetViperForTest()
				viper.Set("match", "disable_*")
				viper.Set("category", "network")
			},
			wantIDs: []string{
				catalog.IDNetworkThrottling,
				catalog.IDDisableNagle,
			},
		},
		{
			name: "applied only",
			setup: func() {
				resetViperForTest()
				viper.Set("applied", true)
			},
			applied: map[string]bool{
				catalog.IDGameMode:     true,
				catalog.IDDisableNagle: true,
			},
			wantIDs: []string{
				catalog.IDGameMode,
				catalog.IDDisableNagle,
			},
		},
		{
			name: "unknown category",
			setup: func() {
				resetViperForTest()
				viper.Set("category", "audio")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			f, err := buildFilter()
			if (err != nil) != tt.wantErr {
				t.Errorf("buildFilter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			isApplied := func(id string) bool { return tt.applied[id] }
			got := f.Apply(catalog.Default().List(), isApplied)

			if len(got) != len(tt.wantIDs) {
				t.Fatalf("filter matched %d tweaks, want %d", len(got), len(tt.wantIDs))
			}
			for i, tw := range got {
				if tw.ID != tt.wantIDs[i] {
					t.Errorf("match[%d] = %q, want %q", i, tw.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []catalog.Category
		wantErr bool
	}{
		{
			name:  "single category",
			input: "system",
			want:  []catalog.Category{catalog.CategorySystem},
		},
		{
			name:  "multiple categories",
			input: "network,graphics",
			want:  []catalog.Category{catalog.CategoryNetwork, catalog.CategoryGraphics},
		},
		{
			name:  "mixed case with spaces",
			input: "System, NETWORK",
			want:  []catalog.Category{catalog.CategorySystem, catalog.CategoryNetwork},
		},
		{
			name:    "unknown category",
			input:   "system,audio",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCategories(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseCategories(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseCategories(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i, c := range got {
				if c != tt.want[i] {
					t.Errorf("parseCategories(%q)[%d] = %q, want %q", tt.input, i, c, tt.want[i])
				}
			}
		})
	}
}

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple list",
			input: "a,b,c",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "with spaces",
			input: "a, b , c",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "skips empty elements",
			input: "a,,b,",
			want:  []string{"a", "b"},
		},
		{
			name:  "single element",
			input: "a",
			want:  []string{"a"},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCommaSeparated(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseCommaSeparated(%q) = %v, want %v", tt.input, got, tt.want)
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseCommaSeparated(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}
