package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/exactode"
)

func solvedDoc(t *testing.T) Document {
	t.Helper()
	res := exactode.Solve("x + y", "1")
	require.True(t, res.Solved())
	return NewDocument("factor in x", "x + y", "1", res)
}

func failedDoc(t *testing.T) Document {
	t.Helper()
	return NewDocument("", "y +", "x", exactode.Solve("y +", "x"))
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "markdown", "JSON", "yaml"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("html")
	assert.Error(t, err)
}

func TestNewDocument(t *testing.T) {
	doc := solvedDoc(t)
	assert.True(t, doc.Solved)
	assert.Equal(t, "exp(x)", doc.Factor)
	assert.Equal(t, "x", doc.FactorVar)
	assert.NotEmpty(t, doc.SolutionText)

	failed := failedDoc(t)
	assert.False(t, failed.Solved)
	assert.Empty(t, failed.Factor)
	require.Len(t, failed.Steps, 1)
	assert.Equal(t, exactode.TitleMathError, failed.Steps[0].Title)
}

func TestWrite_JSON(t *testing.T) {
	doc := solvedDoc(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, doc))

	var back Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, doc, back)
	// LaTeX survives unmangled
	assert.Contains(t, buf.String(), `\\mu = e^{x}`)
}

func TestWrite_YAML(t *testing.T) {
	doc := failedDoc(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, doc))

	var back Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, doc, back)
}

func TestWriteAll_JSONArray(t *testing.T) {
	docs := []Document{solvedDoc(t), failedDoc(t)}
	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, FormatJSON, docs))

	var back []Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, docs, back)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(solvedDoc(t))
	assert.True(t, strings.HasPrefix(md, "## factor in x\n"))
	assert.Contains(t, md, "### 1.1 Factor Integrante Hallado")
	assert.Contains(t, md, `$$\mu = e^{x}$$`)
	assert.Contains(t, md, "**Solución:**")

	md = Markdown(failedDoc(t))
	assert.Contains(t, md, "### Error Matemático")
	assert.NotContains(t, md, "**Solución:**")
}

func TestText(t *testing.T) {
	out := Text(solvedDoc(t))
	assert.Contains(t, out, "factor in x: (x + y) dx + (1) dy = 0")
	assert.Contains(t, out, "5. Solución General")
	assert.Contains(t, out, "= C")

	out = Text(failedDoc(t))
	assert.Contains(t, out, "Error Matemático")
	assert.Contains(t, out, "No se pudo procesar")
}

func TestWriteAll_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, FormatText, []Document{solvedDoc(t), failedDoc(t)}))
	assert.Contains(t, buf.String(), "Factor Integrante")
	assert.Contains(t, buf.String(), "Error Matemático")

	assert.Error(t, WriteAll(&buf, Format("pdf"), nil))
}
