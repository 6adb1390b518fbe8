// Package curlparse turns a pasted curl command line into a
// racecfg.TestConfig (§6.1), so a user can start from a request they
// already have working in a terminal.
package curlparse

import (
	"fmt"
	"strings"

	"github.com/racewatch/racewatch/racecfg"
)

// tokenize splits a curl command the way a shell would for the subset
// of quoting curl users actually rely on: single and double quotes
// suppress word-splitting, and a backslash immediately before a newline
// is a line continuation (not a general escape character).
func tokenize(cmd string) []string {
	var tokens []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	runes := []rune(cmd)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '\\' && !inSingle && !inDouble:
			if i+1 < len(runes) && (runes[i+1] == '\n' || runes[i+1] == '\r') {
				i++
			}
		case (ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r') && !inSingle && !inDouble:
			flush()
		default:
			cur.WriteRune(ch)
		}
	}
	flush()
	return tokens
}

// Parse turns a curl command line into a TestConfig, defaulting the
// load-generation fields (VirtualUsers, Mode, TimeoutMs, ...) the way
// a bare request has no opinion on (§6.1). Returns an error if no URL
// token is found.
func Parse(cmd string) (racecfg.TestConfig, error) {
	cfg := racecfg.TestConfig{
		Method:       "GET",
		Headers:      map[string]string{},
		VirtualUsers: 100,
		Iterations:   1,
		Mode:         racecfg.Burst,
		TimeoutMs:    10000,
	}

	tokens := tokenize(cmd)
	for i := 0; i < len(tokens); i++ {
		part := tokens[i]
		switch part {
		case "curl":
		case "-X", "--request":
			i++
			if i < len(tokens) {
				cfg.Method = strings.ToUpper(tokens[i])
			}
		case "-H", "--header":
			i++
			if i < len(tokens) {
				header := tokens[i]
				if colon := strings.IndexByte(header, ':'); colon >= 0 {
					key := strings.ToLower(strings.TrimSpace(header[:colon]))
					value := strings.TrimSpace(header[colon+1:])
					cfg.Headers[key] = value
				}
			}
		case "-d", "--data", "--data-raw", "--data-binary":
			i++
			if i < len(tokens) {
				cfg.Body = []byte(tokens[i])
				if cfg.Method == "GET" {
					cfg.Method = "POST"
				}
			}
		default:
			if cfg.URL == "" && (strings.HasPrefix(part, "http://") || strings.HasPrefix(part, "https://")) {
				cfg.URL = part
			}
		}
	}

	if cfg.URL == "" {
		return racecfg.TestConfig{}, fmt.Errorf("No URL found in curl command")
	}
	return cfg, nil
}
