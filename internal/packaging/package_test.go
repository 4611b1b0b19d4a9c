package packaging

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

func buildDef() *quiz.TestDefinition {
	return &quiz.TestDefinition{
		ID:    "course-101",
		Title: "Networking Basics",
		Mode:  quiz.ModeStandard,
		PassRule: &quiz.PassRule{
			Type:  quiz.ThresholdPercent,
			Value: 70,
		},
		Topics: []quiz.TopicSection{{
			TopicID:   "t1",
			TopicName: "Subnets",
			DrawCount: 2,
			PassRule:  &quiz.PassRule{Type: quiz.ThresholdAbsolute, Value: 1},
			Questions: []quiz.Question{
				{ID: "q1", Type: quiz.TypeSingle, Prompt: "p1", Options: []string{"a", "b"}, CorrectIndex: 0},
				{ID: "q2", Type: quiz.TypeSingle, Prompt: "p2", Options: []string{"a", "b"}, CorrectIndex: 1},
				{ID: "q3", Type: quiz.TypeSingle, Prompt: "p3", Options: []string{"a", "b"}, CorrectIndex: 0},
			},
		}},
	}
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = b
	}
	return out
}

func TestBuildZipContents(t *testing.T) {
	media := map[string][]byte{"media/diagram.png": {0x89, 0x50}}
	data, err := Build(buildDef(), Options{
		TelemetryEndpoint: "https://collector.example/api/v1",
		TelemetrySecret:   "psk",
		Media:             media,
	})
	require.NoError(t, err)

	files := readZip(t, data)
	require.Contains(t, files, "imsmanifest.xml")
	require.Contains(t, files, "index.html")
	require.Contains(t, files, "payload.js")
	require.Contains(t, files, "media/diagram.png")
	assert.Equal(t, media["media/diagram.png"], files["media/diagram.png"])

	html := string(files["index.html"])
	assert.Contains(t, html, "<title>Networking Basics</title>")
	assert.Contains(t, html, `src="payload.js"`)
}

func TestBuildRejectsInvalidDefinition(t *testing.T) {
	def := buildDef()
	def.Topics[0].Questions[0].CorrectIndex = 99
	_, err := Build(def, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid test definition")
}

func TestPayloadRoundTripsThroughPackage(t *testing.T) {
	def := buildDef()
	data, err := Build(def, Options{TelemetryEndpoint: "https://c.example", TelemetrySecret: "s"})
	require.NoError(t, err)
	files := readZip(t, data)

	js := string(files["payload.js"])
	require.True(t, strings.HasPrefix(js, `window.__TEST_PAYLOAD__="`))
	assert.Contains(t, js, `endpoint:"https://c.example"`)
	assert.Contains(t, js, `secret:"s"`)

	start := strings.Index(js, `"`) + 1
	end := strings.Index(js[start:], `"`) + start
	decoded, err := quiz.DecodePayload(js[start:end])
	require.NoError(t, err)
	assert.Equal(t, def.ID, decoded.ID)
	assert.Len(t, decoded.Topics[0].Questions, 3)
}

func TestManifestObjectivesAndMastery(t *testing.T) {
	mf, err := BuildManifest(buildDef(), []string{"index.html", "payload.js"})
	require.NoError(t, err)
	s := string(mf)

	assert.Contains(t, s, `<schemaversion>2004 3rd Edition</schemaversion>`)
	assert.Contains(t, s, `identifier="MANIFEST-course-101"`)
	assert.Contains(t, s, `identifierref="RES-course-101"`)
	assert.Contains(t, s, `adlcp:scormType="sco"`)
	assert.Contains(t, s, `href="index.html"`)

	// Test rule 70% -> primary objective mastery 0.7.
	assert.Contains(t, s, `objectiveID="PRIMARY-course-101" satisfiedByMeasure="true"`)
	assert.Contains(t, s, `<imsss:minNormalizedMeasure>0.7</imsss:minNormalizedMeasure>`)
	// Topic rule: absolute 1 of draw 2 -> 0.5.
	assert.Contains(t, s, `objectiveID="OBJ-t1"`)
	assert.Contains(t, s, `<imsss:minNormalizedMeasure>0.5</imsss:minNormalizedMeasure>`)
}

func TestManifestOmitsMasteryWithoutRule(t *testing.T) {
	def := buildDef()
	def.PassRule = nil
	def.Topics[0].PassRule = nil
	mf, err := BuildManifest(def, []string{"index.html"})
	require.NoError(t, err)
	assert.NotContains(t, string(mf), "minNormalizedMeasure")
}
