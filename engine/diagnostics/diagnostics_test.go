package diagnostics

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarn(t *testing.T) {
	rec := NewRecorder()
	Warn(rec, CodeMissingBone, "hand.L", "action %q animates %d bones", "wave", 3)
	Warn(nil, CodeMissingBone, "hand.L", "dropped")

	got := rec.Diagnostics()
	require.Len(t, got, 1)
	assert.Equal(t, SeverityWarning, got[0].Severity)
	assert.Equal(t, `action "wave" animates 3 bones`, got[0].Message)
	assert.Equal(t, `[warning] missing-bone (hand.L): action "wave" animates 3 bones`, got[0].String())
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{Severity: SeverityInfo, Code: CodeFeatureFailed, Message: "skipped"}
	assert.Equal(t, "[info] feature-failed: skipped", d.String())
	assert.Equal(t, "severity(7)", Severity(7).String())
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := CodeUnknownCurveType
			if i%2 == 0 {
				code = CodeAmbiguousRotation
			}
			Warn(rec, code, "", "note %d", i)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, rec.Len())
	assert.Len(t, rec.WithCode(CodeAmbiguousRotation), 5)
	assert.Empty(t, rec.WithCode(CodeMissingTargetTrack))

	snapshot := rec.Diagnostics()
	snapshot[0].Message = "changed"
	assert.NotEqual(t, "changed", rec.Diagnostics()[0].Message)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	Warn(sink, CodeUnsupportedConstraint, "IK", "kinematic constraints are not baked")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "unsupported-constraint", line["code"])
	assert.Equal(t, "IK", line["feature"])
	assert.Equal(t, "kinematic constraints are not baked", line["message"])
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	sink := Multi(a, nil, b)
	sink.Report(Diagnostic{Code: CodeMissingTargetTrack})
	Discard.Report(Diagnostic{})

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}
