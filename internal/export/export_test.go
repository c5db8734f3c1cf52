package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-assistant/docclient/internal/result"
)

func TestSummary(t *testing.T) {
	a, err := Summary(result.Summary{Text: "Short summary."})
	require.NoError(t, err)
	assert.Equal(t, "summary.txt", a.Name)
	assert.Equal(t, "text/plain;charset=utf-8", a.ContentType)
	assert.Equal(t, []byte("Short summary."), a.Data)

	combined := result.Combined{Summary: result.Summary{Text: "From combined"}}
	a, err = Summary(combined)
	require.NoError(t, err)
	assert.Equal(t, "From combined", string(a.Data))
}

func TestSummaryNotAvailable(t *testing.T) {
	for _, r := range []result.Result{nil, result.Summary{}, result.Entities{}, result.QA{}} {
		_, err := Summary(r)
		assert.ErrorIs(t, err, ErrNotAvailable)
	}
}

func TestEntities(t *testing.T) {
	r := result.Entities{Entities: []result.Entity{{Text: "1890", Label: "DATE"}}}

	a, err := Entities(r)
	require.NoError(t, err)
	assert.Equal(t, "entities.json", a.Name)
	assert.Equal(t, "application/json;charset=utf-8", a.ContentType)
	assert.Equal(t, "[\n  {\n    \"text\": \"1890\",\n    \"label\": \"DATE\"\n  }\n]", string(a.Data))

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(a.Data, &decoded))
	assert.Equal(t, []map[string]string{{"text": "1890", "label": "DATE"}}, decoded)
}

func TestEntitiesKeepOrder(t *testing.T) {
	r := result.Combined{Entities: result.Entities{Entities: []result.Entity{
		{Text: "Zeta", Label: "ORG"},
		{Text: "Alpha", Label: "PERSON"},
	}}}

	a, err := Entities(r)
	require.NoError(t, err)

	var decoded []result.Entity
	require.NoError(t, json.Unmarshal(a.Data, &decoded))
	assert.Equal(t, "Zeta", decoded[0].Text)
	assert.Equal(t, "Alpha", decoded[1].Text)
}

func TestEntitiesNotAvailable(t *testing.T) {
	_, err := Entities(result.Entities{Entities: []result.Entity{}})
	assert.ErrorIs(t, err, ErrNotAvailable)
	_, err = Entities(result.Summary{Text: "s"})
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(dir)
	require.NoError(t, err)

	path, err := w.Write(Artifact{Name: "summary.txt", Data: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
