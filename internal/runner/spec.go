// Package runner executes external build tools with their stdout and stderr
// merged live in arrival order, or captured into a bounded buffer.
package runner

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// CommandSpec describes one invocation. Args[0] is the executable. Env holds
// overrides layered over the current environment; a PATH entry there is used
// to find Args[0] and is passed to the child, the runner's own PATH is untouched.
type CommandSpec struct {
	Args []string
	Env  map[string]string
	Dir  string
}

// Stream identifies one of the child's two output channels.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

type Mode int

const (
	// ModeStream copies output to the caller's stdout/stderr as it arrives.
	ModeStream Mode = iota
	// ModeCapture collects output in memory up to Runner.MaxOutput bytes.
	ModeCapture
)

func envLookup(env map[string]string, key string) (string, bool) {
	if runtime.GOOS != "windows" {
		v, ok := env[key]
		return v, ok
	}
	for k, v := range env {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func envKey(key string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(key)
	}
	return key
}

// mergeEnv applies overrides to base (KEY=VALUE entries) and returns a new slice.
func mergeEnv(base []string, overrides map[string]string) []string {
	merged := slices.Clone(base)
	index := make(map[string]int, len(merged))
	for i, kv := range merged {
		k, _, _ := strings.Cut(kv, "=")
		index[envKey(k)] = i
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		entry := k + "=" + overrides[k]
		if i, ok := index[envKey(k)]; ok {
			merged[i] = entry
			continue
		}
		index[envKey(k)] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}

// lookPath resolves file against the PATH override in env, falling back to
// exec.LookPath when there is no override or file already names a path.
func lookPath(file string, env map[string]string) (string, error) {
	pathList, ok := envLookup(env, "PATH")
	if !ok || strings.Contains(file, "/") || strings.ContainsRune(file, filepath.Separator) {
		return exec.LookPath(file)
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if !strings.ContainsRune(candidate, filepath.Separator) {
			candidate = "." + string(filepath.Separator) + candidate
		}
		if p, err := exec.LookPath(candidate); err == nil {
			return p, nil
		}
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a != "" && !strings.ContainsAny(a, " \t\n'\"\\$`*?[]{}()<>|&;#~!") {
			quoted[i] = a
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
