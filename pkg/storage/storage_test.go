package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDownloadSignerGenerateAndParse(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("transcript-2026-00412.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	filename, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "transcript-2026-00412.pdf", filename)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestDownloadSignerExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("transcript-2026-00412.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestDownloadSignerTamperedToken(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Generate("transcript-2026-00412.pdf")
	require.NoError(t, err)

	_, _, err = signer.Parse(token + "x")
	require.Error(t, err)
}

func TestLocalArchiveRoundTrip(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	name, err := archive.Save("grade-sheet-CS101.csv", []byte("STUDENT NO,NAME\n"))
	require.NoError(t, err)

	data, err := archive.Read(name)
	require.NoError(t, err)
	require.Equal(t, []byte("STUDENT NO,NAME\n"), data)

	require.NoError(t, archive.Delete(name))
	_, err = archive.Read(name)
	require.Error(t, err)
}

func TestLocalArchiveCleanup(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	_, err = archive.Save("old.pdf", []byte("stale"))
	require.NoError(t, err)

	deleted, err := archive.CleanupOlderThan(-time.Hour)
	require.NoError(t, err)
	require.Contains(t, deleted, "old.pdf")
}
