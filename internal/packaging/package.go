// Package packaging assembles the distributable SCORM zip: manifest,
// launcher stub, and the test definition embedded as base64 so the runtime
// has no network dependency for content.
package packaging

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

// Options carries the build-time knobs baked into the package.
type Options struct {
	// TelemetryEndpoint and TelemetrySecret configure the out-of-band
	// reporting channel. Empty endpoint disables telemetry in the package.
	TelemetryEndpoint string
	TelemetrySecret   string
	// Media maps package-relative paths to file contents, inlined so the
	// runtime only ever sees package-relative references.
	Media map[string][]byte
}

// Build produces the zip bytes for a validated definition.
func Build(def *quiz.TestDefinition, opts Options) ([]byte, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid test definition: %w", err)
	}
	payload, err := quiz.EncodePayload(def)
	if err != nil {
		return nil, err
	}

	files := []string{"index.html", "payload.js"}
	mediaPaths := make([]string, 0, len(opts.Media))
	for p := range opts.Media {
		mediaPaths = append(mediaPaths, p)
	}
	sort.Strings(mediaPaths)
	files = append(files, mediaPaths...)

	manifest, err := BuildManifest(def, files)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	write := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("zip %s: %w", name, err)
		}
		_, err = w.Write(data)
		return err
	}

	if err := write("imsmanifest.xml", manifest); err != nil {
		return nil, err
	}
	if err := write("index.html", indexHTML(def.Title)); err != nil {
		return nil, err
	}
	if err := write("payload.js", payloadJS(payload, opts)); err != nil {
		return nil, err
	}
	for _, p := range mediaPaths {
		if err := write(p, opts.Media[p]); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func indexHTML(title string) []byte {
	return []byte(fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
<div id="app"></div>
<script src="payload.js"></script>
<script src="runtime.js"></script>
</body>
</html>
`, title))
}

func payloadJS(payload string, opts Options) []byte {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "window.__TEST_PAYLOAD__=%q;\n", payload)
	fmt.Fprintf(buf, "window.__RUNTIME_CONFIG__={endpoint:%q,secret:%q};\n",
		opts.TelemetryEndpoint, opts.TelemetrySecret)
	return buf.Bytes()
}
