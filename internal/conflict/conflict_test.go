// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoConverter - 批量视频转码工具

package conflict

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/videoconverter/internal/job"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestResolveOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "name.mp4")
	touch(t, path)

	final, action, err := Resolve(path, job.PolicyOverwrite)
	require.NoError(t, err)
	require.Equal(t, path, final)
	require.Equal(t, ActionWrite, action)
}

func TestResolveSkip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "name.mp4")

	// No existing file: write through.
	final, action, err := Resolve(path, job.PolicySkip)
	require.NoError(t, err)
	require.Equal(t, path, final)
	require.Equal(t, ActionWrite, action)

	touch(t, path)
	final, action, err = Resolve(path, job.PolicySkip)
	require.NoError(t, err)
	require.Equal(t, path, final)
	require.Equal(t, ActionSkip, action)
}

func TestResolveSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "name.mp4")

	final, action, err := Resolve(path, job.PolicySuffix)
	require.NoError(t, err)
	require.Equal(t, path, final)
	require.Equal(t, ActionWrite, action)

	// Resolution is deterministic against an unchanged snapshot.
	touch(t, path)
	first, _, err := Resolve(path, job.PolicySuffix)
	require.NoError(t, err)
	second, _, err := Resolve(path, job.PolicySuffix)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, filepath.Join(dir, "name_1.mp4"), first)

	touch(t, first)
	third, _, err := Resolve(path, job.PolicySuffix)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "name_2.mp4"), third)
}

func TestResolveTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "name.mp4")

	// Without a conflict the original path survives.
	final, _, err := Resolve(path, job.PolicyTimestamp)
	require.NoError(t, err)
	require.Equal(t, path, final)

	touch(t, path)
	final, action, err := Resolve(path, job.PolicyTimestamp)
	require.NoError(t, err)
	require.Equal(t, ActionWrite, action)
	require.NotEqual(t, path, final)
	require.Regexp(t, regexp.MustCompile(`name_\d{8}_\d{6}\.mp4$`), final)

	// Same-second collision falls back to integer suffixes after the
	// timestamp.
	touch(t, final)
	again, _, err := Resolve(path, job.PolicyTimestamp)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`name_\d{8}_\d{6}(_\d+)?\.mp4$`), again)
	require.NotEqual(t, final, again)
}

func TestResolveExtensionPreserved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.final.mov")
	touch(t, path)

	final, _, err := Resolve(path, job.PolicySuffix)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "clip.final_1.mov"), final)
}

func TestResolveInvalidPolicy(t *testing.T) {
	_, _, err := Resolve("/tmp/x.mp4", job.Policy("nonsense"))
	require.ErrorIs(t, err, job.ErrInvalidPolicy)
}
