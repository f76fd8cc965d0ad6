package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	invalidChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots   = regexp.MustCompile(`\.+$`)
	repeatedSpaces = regexp.MustCompile(`\s+`)
)

// maxFileNameLen keeps names well under the 255 byte limit of common
// filesystems, leaving room for collision suffixes.
const maxFileNameLen = 180

// PathAllocator derives collision-free destination paths for the tracks of
// one batch.
//
// Paths are namespaced by group label and sanitized display name:
//
//	<workspace>/<group>/<display name>.<ext>
//
// When two requests map to the same path the later one gets a numeric
// suffix, so every request owns a private destination.
//
// A PathAllocator is not safe for concurrent use; the orchestrator derives
// every path before starting any worker.
//
// Example:
//
//	alloc := NewPathAllocator("/tmp/jobs/42", "mp3")
//	alloc.Allocate(TrackRequest{DisplayName: "Intro", GroupLabel: "Live"})
//	// "/tmp/jobs/42/Live/Intro.mp3"
//	alloc.Allocate(TrackRequest{DisplayName: "Intro", GroupLabel: "Live"})
//	// "/tmp/jobs/42/Live/Intro (2).mp3"
type PathAllocator struct {
	workspace string
	ext       string
	used      map[string]struct{}
}

// NewPathAllocator creates an allocator rooted at workspace. ext is the
// file extension without the dot.
func NewPathAllocator(workspace, ext string) *PathAllocator {
	return &PathAllocator{
		workspace: workspace,
		ext:       strings.TrimPrefix(ext, "."),
		used:      make(map[string]struct{}),
	}
}

// Allocate returns the destination path for req.
func (a *PathAllocator) Allocate(req TrackRequest) string {
	dir := filepath.Join(a.workspace, GroupDir(req.GroupLabel))
	base := SanitizeFileName(req.DisplayName)
	base = truncateName(base, maxFileNameLen)

	candidate := filepath.Join(dir, a.withExt(base))
	for n := 2; ; n++ {
		key := strings.ToLower(candidate)
		if _, taken := a.used[key]; !taken {
			a.used[key] = struct{}{}
			return candidate
		}
		candidate = filepath.Join(dir, a.withExt(fmt.Sprintf("%s (%d)", base, n)))
	}
}

// truncateName cuts name to at most limit bytes without splitting a rune.
func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return strings.TrimRight(name[:cut], " ")
}

func (a *PathAllocator) withExt(name string) string {
	if a.ext == "" {
		return name
	}
	return name + "." + a.ext
}

// GroupDir returns the folder name used for a group label. Requests
// without a label share the "untitled" folder.
func GroupDir(label string) string {
	return SanitizeFileName(label)
}

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Leading and trailing whitespace is removed
//   - An empty result becomes "untitled"
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = trailingDots.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if name == "" {
		return "untitled"
	}
	return name
}
