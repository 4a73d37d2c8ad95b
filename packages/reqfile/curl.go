package reqfile

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

// FromCurl turns a curl command line into a Description. Only the flags
// that shape the request are honored; everything else is skipped.
func FromCurl(command string) (relay.Description, error) {
	desc := relay.Description{Headers: make(map[string]string)}

	command = strings.TrimSpace(strings.ReplaceAll(command, "\\\n", " "))
	tokens := tokenize(command)
	if len(tokens) > 0 && tokens[0] == "curl" {
		tokens = tokens[1:]
	}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		takesValue := curlValueFlags[token]
		if takesValue && i+1 >= len(tokens) {
			return relay.Description{}, fmt.Errorf("missing value for %s", token)
		}

		switch token {
		case "-X", "--request":
			desc.Method = strings.ToUpper(tokens[i+1])
		case "-H", "--header":
			if name, value, ok := strings.Cut(tokens[i+1], ":"); ok && strings.TrimSpace(name) != "" {
				desc.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
			}
		case "-d", "--data", "--data-raw", "--data-binary":
			desc = desc.WithBody(tokens[i+1])
		case "--json":
			desc = desc.WithBody(tokens[i+1])
			desc.Headers["Content-Type"] = "application/json"
			desc.Headers["Accept"] = "application/json"
		case "-u", "--user":
			desc.Headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(tokens[i+1]))
		case "-A", "--user-agent":
			desc.Headers["User-Agent"] = tokens[i+1]
		case "-e", "--referer":
			desc.Headers["Referer"] = tokens[i+1]
		case "-b", "--cookie":
			desc.Headers["Cookie"] = tokens[i+1]
		case "--url":
			desc.URL = tokens[i+1]
		case "-m", "--max-time":
			var seconds float64
			if _, err := fmt.Sscanf(tokens[i+1], "%g", &seconds); err != nil || seconds <= 0 {
				return relay.Description{}, fmt.Errorf("invalid %s value %q", token, tokens[i+1])
			}
			desc.TimeoutMs = int(seconds * 1000)
		default:
			if !strings.HasPrefix(token, "-") && desc.URL == "" {
				desc.URL = token
			}
		}

		if takesValue {
			i++
		}
	}

	if desc.URL == "" {
		return relay.Description{}, fmt.Errorf("no URL found in curl command")
	}
	if desc.Method == "" {
		desc.Method = http.MethodGet
		if desc.Body != nil {
			desc.Method = http.MethodPost
		}
	}

	return desc, nil
}

// curlValueFlags lists the flags that consume the following token
var curlValueFlags = map[string]bool{
	"-X": true, "--request": true,
	"-H": true, "--header": true,
	"-d": true, "--data": true, "--data-raw": true, "--data-binary": true, "--json": true,
	"-u": true, "--user": true,
	"-A": true, "--user-agent": true,
	"-e": true, "--referer": true,
	"-b": true, "--cookie": true,
	"-o": true, "--output": true,
	"-m": true, "--max-time": true,
	"--url": true,
	"--connect-timeout": true,
}

// tokenize splits a shell-style command line, respecting quotes and
// backslash escapes.
func tokenize(cmd string) []string {
	var (
		tokens   []string
		current  strings.Builder
		inSingle bool
		inDouble bool
		escaped  bool
		started  bool
	)

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case r == '\\' && !inSingle:
			escaped = true
			started = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			started = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			started = true
		case (r == ' ' || r == '\t' || r == '\n') && !inSingle && !inDouble:
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if started {
		tokens = append(tokens, current.String())
	}
	return tokens
}
