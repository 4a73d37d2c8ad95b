package env

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func computes a placeholder value from its arguments
type Func func(args []string) any

func defaultFuncs() map[string]Func {
	return map[string]Func{
		"uuid":        func([]string) any { return uuid.NewString() },
		"now":         func([]string) any { return time.Now().UTC().Format(time.RFC3339) },
		"timestamp":   func([]string) any { return time.Now().Unix() },
		"timestampMs": func([]string) any { return time.Now().UnixMilli() },
		"date":        funcDate,
		"random":      funcRandom,
		"base64":      unary(func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }),
		"urlEncode":   unary(url.QueryEscape),
		"sha256": unary(func(s string) string {
			sum := sha256.Sum256([]byte(s))
			return hex.EncodeToString(sum[:])
		}),
	}
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

func callFunc(funcs map[string]Func, expr string) (any, bool) {
	m := funcCallPattern.FindStringSubmatch(expr)
	if m == nil {
		return nil, false
	}
	fn, ok := funcs[m[1]]
	if !ok {
		return nil, false
	}
	return fn(splitArgs(m[2])), true
}

// unary wraps a one-argument string function; a missing argument yields ""
func unary(fn func(string) string) Func {
	return func(args []string) any {
		if len(args) == 0 {
			return ""
		}
		return fn(args[0])
	}
}

func funcDate(args []string) any {
	layout := "2006-01-02"
	if len(args) > 0 && args[0] != "" {
		layout = args[0]
	}
	return time.Now().UTC().Format(layout)
}

// funcRandom returns an int in [min, max], defaulting to [0, 100]
func funcRandom(args []string) any {
	lo, hi := 0, 100
	if len(args) == 2 {
		a, errA := strconv.Atoi(args[0])
		b, errB := strconv.Atoi(args[1])
		if errA == nil && errB == nil && a <= b {
			lo, hi = a, b
		}
	}
	return lo + rand.IntN(hi-lo+1)
}

// splitArgs splits a comma separated argument list; quoted arguments may
// contain commas.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var (
		args    []string
		current strings.Builder
		quote   rune
	)
	for _, ch := range s {
		switch {
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(args, strings.TrimSpace(current.String()))
}
