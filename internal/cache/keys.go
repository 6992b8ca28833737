package cache

import (
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

// Key joins segments into a cache key
func Key(segments ...string) string {
	return strings.Join(segments, ":")
}

// EntityKey builds the key of one cached entity, e.g. "catalog:product:42"
func EntityKey(area, kind string, id int64) string {
	return Key(area, kind, strconv.FormatInt(id, 10))
}

// Pattern builds a glob matching every key below the given segments
func Pattern(segments ...string) string {
	return Key(append(segments, "*")...)
}

// redisGlob rewrites the Redis MATCH dialect for gobwas/glob: [^...] negates
// a class and braces are literal
var redisGlob = strings.NewReplacer("[^", "[!", "{", `\{`, "}", `\}`)

// CompilePattern compiles a Redis-style glob. Keys have no separators, so *
// matches across ':' and '/' like SCAN MATCH does.
func CompilePattern(pattern string) (glob.Glob, error) {
	return glob.Compile(redisGlob.Replace(pattern))
}

// Match reports whether key matches a Redis-style glob pattern
func Match(pattern, key string) bool {
	g, err := CompilePattern(pattern)
	return err == nil && g.Match(key)
}
