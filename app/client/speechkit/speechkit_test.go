package speechkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yandex-cloud/go-genproto/yandex/cloud/ai/stt/v3"
)

func TestLoadCredentialsFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := loadCredentials(filepath.Join(dir, "absent.json"))
	assert.ErrorContains(t, err, "could not read service account key")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o600))

	_, err = loadCredentials(broken)
	assert.ErrorContains(t, err, "could not parse service account key")
}

func TestFirstAlternative(t *testing.T) {
	assert.Nil(t, firstAlternative(&stt.AlternativeUpdate{}, false))
	assert.Equal(t, &Result{Final: true}, firstAlternative(&stt.AlternativeUpdate{}, true))

	update := &stt.AlternativeUpdate{Alternatives: []*stt.Alternative{{Text: " "}, {Text: "hello"}}}
	assert.Equal(t, &Result{Text: "hello", Final: true}, firstAlternative(update, true))
}
