package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
)

// Flag variables shared across commands.
var (
	// Output flags
	outputFormat string
	templateStr  string

	// Selection flags
	stateFile      string
	categoriesFlag string
	matchFlag      string
	appliedOnly    bool
	allTweaks      bool
	dryRun         bool
)

// buildFilter creates a catalog filter from the selection flags.
func buildFilter() (*catalog.Filter, error) {
	var opts []catalog.Option

	if catsStr := viper.GetString("category"); catsStr != "" {
		cats, err := parseCategories(catsStr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, catalog.WithCategories(cats...))
	}

	if matchStr := viper.GetString("match"); matchStr != "" {
		opts = append(opts, catalog.WithPatterns(parseCommaSeparated(matchStr)...))
	}

	if viper.GetBool("applied") {
		opts = append(opts, catalog.WithApplied(true))
	}

	return catalog.NewFilter(opts...), nil
}

// parseCategories resolves comma-separated category names against the
// catalog, matching case-insensitively.
func parseCategories(s string) ([]catalog.Category, error) {
	parts := parseCommaSeparated(s)
	cats := make([]catalog.Category, 0, len(parts))

	for _, part := range parts {
		found := false
		for _, c := range catalog.Categories() {
			if strings.EqualFold(part, string(c)) {
				cats = append(cats, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown category %q: available categories are %v", part, catalog.Categories())
		}
	}

	return cats, nil
}

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}

	return result
}
