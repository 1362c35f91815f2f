package usecase

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/satriahrh/parlez/adapters/lipsync"
	"github.com/satriahrh/parlez/domain/entities"
)

// scriptLine is one canned message backed by pre-rendered assets
type scriptLine struct {
	asset            string
	text             string
	facialExpression string
	animation        string
}

var scriptTable = map[entities.Scenario][]scriptLine{
	entities.ScenarioGreeting: {
		{asset: "intro_0", text: "Hey! How waas your day.", facialExpression: entities.ExpressionSmile, animation: entities.AnimationTalking1},
		{asset: "intro_1", text: "What's up! I'm the UofTHacks Bot, ready to chat with you.", facialExpression: entities.ExpressionSad, animation: entities.AnimationCrying},
	},
	entities.ScenarioMissingCredentials: {
		{asset: "api_0", text: "Please my dear, don't forget to add your API keys!", facialExpression: entities.ExpressionAngry, animation: entities.AnimationAngry},
		{asset: "api_1", text: "You don't want to ruin this with a crazy ChatGPT and ElevenLabs bill, right?", facialExpression: entities.ExpressionSmile, animation: entities.AnimationLaughing},
	},
}

// ScriptLibrary holds the canned responses, keyed by scenario
type ScriptLibrary struct {
	scripts map[entities.Scenario][]entities.Message
}

// LoadScripts reads every scripted asset pair (<name>.wav, <name>.json) from dir.
// A missing or invalid asset fails the whole load.
func LoadScripts(dir string) (*ScriptLibrary, error) {
	lib := &ScriptLibrary{scripts: make(map[entities.Scenario][]entities.Message, len(scriptTable))}

	for scenario, lines := range scriptTable {
		messages := make([]entities.Message, 0, len(lines))
		for _, line := range lines {
			audio, err := os.ReadFile(filepath.Join(dir, line.asset+".wav"))
			if err != nil {
				return nil, fmt.Errorf("load %s audio: %w", scenario, err)
			}
			track, err := lipsync.ReadTrack(filepath.Join(dir, line.asset+".json"))
			if err != nil {
				return nil, fmt.Errorf("load %s lipsync: %w", scenario, err)
			}
			messages = append(messages, entities.Message{
				Text:             line.text,
				Audio:            base64.StdEncoding.EncodeToString(audio),
				LipSync:          track,
				FacialExpression: line.facialExpression,
				Animation:        line.animation,
			})
		}
		lib.scripts[scenario] = messages
	}
	return lib, nil
}

// NewScriptLibrary builds a library from already assembled messages
func NewScriptLibrary(scripts map[entities.Scenario][]entities.Message) *ScriptLibrary {
	return &ScriptLibrary{scripts: scripts}
}

// Messages returns a copy of the scenario's messages so callers cannot mutate the table
func (l *ScriptLibrary) Messages(scenario entities.Scenario) []entities.Message {
	src := l.scripts[scenario]
	out := make([]entities.Message, len(src))
	copy(out, src)
	return out
}
