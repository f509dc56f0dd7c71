package upload

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler_MoveCreatesParents(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/tmp/src", []byte("payload"), 0o600))

	a := NewAssembler(fsys)
	require.NoError(t, a.Move("/tmp/src", "/out/deep/dir/file.txt"))

	assert.Equal(t, "payload", readFile(t, fsys, "/out/deep/dir/file.txt"))
	assert.False(t, exists(t, fsys, "/tmp/src"))
}

func TestAssembler_MoveReplacesExistingFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/tmp/src", []byte("new"), 0o600))
	require.NoError(t, afero.WriteFile(fsys, "/out/file", []byte("old content"), 0o600))

	require.NoError(t, NewAssembler(fsys).Move("/tmp/src", "/out/file"))
	assert.Equal(t, "new", readFile(t, fsys, "/out/file"))
}

func TestAssembler_MoveRefusesDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/tmp/src", []byte("x"), 0o600))
	require.NoError(t, fsys.MkdirAll("/out/taken", 0o755))

	err := NewAssembler(fsys).Move("/tmp/src", "/out/taken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDestinationIsDir))
	assert.True(t, exists(t, fsys, "/tmp/src"))
}

func TestOutcome(t *testing.T) {
	assert.True(t, OutcomeMoved.Completed())
	assert.True(t, OutcomeAlreadyInPlace.Completed())
	assert.False(t, OutcomeNoChunks.Completed())
	assert.False(t, OutcomeMoveFailed.Completed())

	assert.Equal(t, "moved", OutcomeMoved.String())
	assert.Equal(t, "already-in-place", OutcomeAlreadyInPlace.String())
	assert.Equal(t, "no-chunks", OutcomeNoChunks.String())
	assert.Equal(t, "move-failed", OutcomeMoveFailed.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}
