package usecase

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/parlez/domain/entities"
)

func writeAssets(t *testing.T, dir string) {
	t.Helper()
	for _, lines := range scriptTable {
		for _, line := range lines {
			require.NoError(t, os.WriteFile(filepath.Join(dir, line.asset+".wav"), []byte("RIFF-"+line.asset), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(dir, line.asset+".json"), []byte(`{"mouthCues":[]}`), 0o644))
		}
	}
}

func TestLoadScripts(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir)

	lib, err := LoadScripts(dir)
	require.NoError(t, err)

	greeting := lib.Messages(entities.ScenarioGreeting)
	require.Len(t, greeting, 2)
	assert.Equal(t, "Hey! How waas your day.", greeting[0].Text)
	assert.Equal(t, entities.ExpressionSad, greeting[1].FacialExpression)
	assert.Equal(t, entities.AnimationCrying, greeting[1].Animation)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("RIFF-intro_0")), greeting[0].Audio)
	assert.JSONEq(t, `{"mouthCues":[]}`, string(greeting[0].LipSync))

	missing := lib.Messages(entities.ScenarioMissingCredentials)
	require.Len(t, missing, 2)
	assert.Equal(t, entities.AnimationAngry, missing[0].Animation)
	assert.Equal(t, entities.AnimationLaughing, missing[1].Animation)
}

func TestLoadScripts_MissingAsset(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "api_1.json")))

	_, err := LoadScripts(dir)
	assert.Error(t, err)
}

func TestScriptLibrary_MessagesReturnsCopy(t *testing.T) {
	lib := NewScriptLibrary(map[entities.Scenario][]entities.Message{
		entities.ScenarioGreeting: {{Text: "hi"}},
	})

	got := lib.Messages(entities.ScenarioGreeting)
	got[0].Text = "changed"

	assert.Equal(t, "hi", lib.Messages(entities.ScenarioGreeting)[0].Text)
	assert.Empty(t, lib.Messages(entities.ScenarioMissingCredentials))
}
